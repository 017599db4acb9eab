package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// ErrUnexpectedStatus marks a response that completed with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// LinkSource enumerates article links from paginated listing pages.
type LinkSource interface {
	Discover(ctx context.Context, pageCount int) []domain.ArticleLink
}

// ArticleExtractor fetches and parses one article page. ok is false when
// the page could not be fetched.
type ArticleExtractor interface {
	Extract(ctx context.Context, link domain.ArticleLink) (domain.Article, bool)
}

// FetchObserver receives one callback per HTTP attempt.
type FetchObserver interface {
	ObserveFetch(phase, outcome string, elapsed time.Duration)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, string, time.Duration) {}
