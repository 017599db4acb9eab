package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
	"github.com/samvad-hq/noticias-harvester/internal/logger"
	"github.com/samvad-hq/noticias-harvester/internal/metrics"
	"github.com/samvad-hq/noticias-harvester/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 8 << 20 // 8 MiB
	maxSnippetBytes  = 512
)

// LinkDiscoverer walks the paginated listing endpoint and collects article links.
type LinkDiscoverer struct {
	client httpclient.Client
	site   Site
	log    logger.Logger
	obs    FetchObserver
	sleep  SleepFunc
}

// NewLinkDiscoverer wires a discoverer with the given transport.
func NewLinkDiscoverer(client httpclient.Client, site Site, log logger.Logger, obs FetchObserver) *LinkDiscoverer {
	if obs == nil {
		obs = nopObserver{}
	}
	return &LinkDiscoverer{
		client: client,
		site:   site,
		log:    logger.Ensure(log),
		obs:    obs,
		sleep:  sleepContext,
	}
}

// Discover requests listing pages 0 through pageCount inclusive, one at a
// time, pausing Site.PageDelay after every request. Failed pages are logged
// and skipped. Links are returned in page-then-document order.
func (d *LinkDiscoverer) Discover(ctx context.Context, pageCount int) []domain.ArticleLink {
	var links []domain.ArticleLink

	for page := 0; page <= pageCount; page++ {
		if ctx.Err() != nil {
			return links
		}

		found, err := d.discoverPage(ctx, page)
		if err != nil {
			d.log.ErrorObj("listing page fetch failed", "page_fetch_error", map[string]any{
				"phase": metrics.PhaseListing,
				"page":  page,
				"url":   d.site.ListingURL(page),
				"error": err.Error(),
			})
		} else {
			links = append(links, found...)
			d.log.DebugObj("listing page parsed", "page_result", map[string]any{
				"page":  page,
				"links": len(found),
			})
		}

		if err := d.sleep(ctx, d.site.PageDelay); err != nil {
			return links
		}
	}

	return links
}

func (d *LinkDiscoverer) discoverPage(ctx context.Context, page int) ([]domain.ArticleLink, error) {
	body, err := fetchBody(ctx, d.client, d.site.ListingURL(page), d.site.Headers(), metrics.PhaseListing, d.obs)
	if err != nil {
		return nil, err
	}
	return parseListing(body, d.site)
}

func parseListing(body []byte, site Site) ([]domain.ArticleLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []domain.ArticleLink
	doc.Find(teaserSelector).Each(func(_ int, teaser *goquery.Selection) {
		teaser.Find(anchorSelector).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			links = append(links, domain.ArticleLink(site.Absolute(href)))
		})
	})
	return links, nil
}

// fetchBody performs one GET and returns the (size-capped) body of a 2xx response.
func fetchBody(ctx context.Context, client httpclient.Client, url string, headers map[string]string, phase string, obs FetchObserver) ([]byte, error) {
	start := time.Now()
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		obs.ObserveFetch(phase, metrics.OutcomeTransport, time.Since(start))
		return nil, fmt.Errorf("http fetch: %w", err)
	}

	if !httpclient.IsSuccess(resp) {
		obs.ObserveFetch(phase, metrics.OutcomeStatus, time.Since(start))
		return nil, fmt.Errorf("%w %d body: %s", ErrUnexpectedStatus, resp.StatusCode(), snippet(resp.Body()))
	}
	obs.ObserveFetch(phase, metrics.OutcomeOK, time.Since(start))

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
