package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
	"github.com/samvad-hq/noticias-harvester/internal/logger"
	"github.com/samvad-hq/noticias-harvester/internal/metrics"
	"github.com/samvad-hq/noticias-harvester/pkg/httpclient"
)

// DetailScraper fetches article pages and extracts title, subtitle and date.
// It holds no mutable state and is safe for concurrent use.
type DetailScraper struct {
	client httpclient.Client
	site   Site
	log    logger.Logger
	obs    FetchObserver
}

// NewDetailScraper constructs a scraper with the provided HTTP client.
func NewDetailScraper(client httpclient.Client, site Site, log logger.Logger, obs FetchObserver) *DetailScraper {
	if obs == nil {
		obs = nopObserver{}
	}
	return &DetailScraper{
		client: client,
		site:   site,
		log:    logger.Ensure(log),
		obs:    obs,
	}
}

// Extract performs a single fetch of link and parses the record. A failed
// fetch is logged and reported with ok=false; there is no retry.
func (s *DetailScraper) Extract(ctx context.Context, link domain.ArticleLink) (domain.Article, bool) {
	art, err := s.fetchAndParse(ctx, link)
	if err != nil {
		s.log.ErrorObj("article fetch failed", "article_fetch_error", map[string]any{
			"phase": metrics.PhaseDetail,
			"url":   string(link),
			"error": err.Error(),
		})
		return domain.Article{}, false
	}
	return art, true
}

func (s *DetailScraper) fetchAndParse(ctx context.Context, link domain.ArticleLink) (domain.Article, error) {
	body, err := fetchBody(ctx, s.client, string(link), s.site.Headers(), metrics.PhaseDetail, s.obs)
	if err != nil {
		return domain.Article{}, err
	}

	art, err := parseArticle(body)
	if err != nil {
		return domain.Article{}, err
	}
	art.Link = string(link)
	return art, nil
}

// parseArticle extracts each field independently; a missing element only
// affects its own field.
func parseArticle(body []byte) (domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, fmt.Errorf("parse html: %w", err)
	}

	return domain.Article{
		Title:    extractTitle(doc),
		Subtitle: extractSubtitle(doc),
		Date:     extractDate(doc),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	container := doc.Find(titleSelector).First()
	if container.Length() == 0 {
		return TitlePlaceholder
	}
	heading := container.Find("h1").First()
	if heading.Length() == 0 {
		return TitlePlaceholder
	}
	return heading.Text()
}

func extractSubtitle(doc *goquery.Document) string {
	container := doc.Find(subtitleSelector).First()
	if container.Length() == 0 {
		return SubtitlePlaceholder
	}
	para := container.Find("p").First()
	if para.Length() == 0 {
		return SubtitlePlaceholder
	}
	return para.Text()
}

func extractDate(doc *goquery.Document) string {
	node := doc.Find(dateSelector).First()
	if node.Length() == 0 {
		return DatePlaceholder
	}
	return strings.TrimSpace(node.Text())
}
