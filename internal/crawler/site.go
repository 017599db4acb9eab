package crawler

import (
	"strconv"
	"strings"
	"time"
)

// Fixed selectors of the news site markup.
const (
	teaserSelector   = "div.col-xs-12.col-sm-3"
	anchorSelector   = "a[href]"
	titleSelector    = "div.title-description"
	subtitleSelector = "div.news__lead"
	dateSelector     = "time.text-muted"
)

// Placeholders used when a detail page lacks the backing element.
const (
	TitlePlaceholder    = "Título no disponible"
	SubtitlePlaceholder = "Subtítulo no disponible"
	DatePlaceholder     = "Fecha no disponible"
)

// DefaultPageDelay is the fixed courtesy pause after each listing request.
const DefaultPageDelay = 2 * time.Second

// Site is the fixed description of the news site being harvested.
type Site struct {
	Origin      string
	ListingPath string
	UserAgent   string
	PageDelay   time.Duration
}

// ListingURL returns the listing endpoint for the given page index.
func (s Site) ListingURL(page int) string {
	path := s.ListingPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.origin() + path + "?page=" + strconv.Itoa(page)
}

// Absolute turns an href found on a listing page into an absolute URL by
// prefixing the site origin. Hrefs that already carry a scheme are kept.
func (s Site) Absolute(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.origin() + href
}

// Headers builds the fixed request headers (skips empty values).
func (s Site) Headers() map[string]string {
	headers := make(map[string]string, 1)
	if ua := strings.TrimSpace(s.UserAgent); ua != "" {
		headers["User-Agent"] = ua
	}
	return headers
}

func (s Site) origin() string {
	return strings.TrimRight(strings.TrimSpace(s.Origin), "/")
}
