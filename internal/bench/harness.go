package bench

import (
	"context"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
	"github.com/samvad-hq/noticias-harvester/internal/logger"
)

// maxDefaultWorkers caps the pool size chosen when none is configured.
const maxDefaultWorkers = 32

// Extractor performs one detail extraction; ok=false marks an absent result.
type Extractor interface {
	Extract(ctx context.Context, link domain.ArticleLink) (domain.Article, bool)
}

// RunObserver receives every completed run.
type RunObserver interface {
	ObserveRun(res domain.RunResult)
}

// Option customises a Harness.
type Option func(*Harness)

// WithReporter forwards every timing to r in addition to the harness log.
func WithReporter(r Reporter) Option {
	return func(h *Harness) { h.report = r }
}

// WithRunObserver registers obs for completed runs.
func WithRunObserver(obs RunObserver) Option {
	return func(h *Harness) { h.obs = obs }
}

// WithDefaultWorkers overrides the pool size used when Pooled gets workers <= 0.
func WithDefaultWorkers(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.defaultWorkers = n
		}
	}
}

// Harness runs the same extraction over a fixed link set in sequential and
// pooled modes and measures each run.
type Harness struct {
	ex             Extractor
	log            logger.Logger
	report         Reporter
	obs            RunObserver
	defaultWorkers int
}

// NewHarness builds a harness around ex.
func NewHarness(ex Extractor, log logger.Logger, opts ...Option) *Harness {
	h := &Harness{
		ex:             ex,
		log:            logger.Ensure(log),
		defaultWorkers: DefaultWorkers(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DefaultWorkers is the pool size used when none is requested: min(32, NumCPU+4).
func DefaultWorkers() int {
	return min(maxDefaultWorkers, runtime.NumCPU()+4)
}

// Sequential extracts links one at a time in input order.
func (h *Harness) Sequential(ctx context.Context, links []domain.ArticleLink) domain.RunResult {
	var elapsed time.Duration
	articles := Measure(string(domain.ModeSequential), h.capture(&elapsed), func() []domain.Article {
		out := make([]domain.Article, 0, len(links))
		for _, link := range links {
			if art, ok := h.ex.Extract(ctx, link); ok {
				out = append(out, art)
			}
		}
		return out
	}, len(links))

	return h.finish(domain.RunResult{
		Mode:     domain.ModeSequential,
		Workers:  1,
		Links:    len(links),
		Articles: articles,
		Elapsed:  elapsed,
	})
}

// Pooled extracts links on a bounded pool of workers goroutines (the default
// size when workers <= 0). Results keep submission order; absent results
// are dropped after the pool has drained.
func (h *Harness) Pooled(ctx context.Context, links []domain.ArticleLink, workers int) domain.RunResult {
	if workers <= 0 {
		workers = h.defaultWorkers
	}

	var elapsed time.Duration
	run := Wrap2(string(domain.ModePooled), h.capture(&elapsed), func(links []domain.ArticleLink, workers int) []domain.Article {
		return h.pool(ctx, links, workers)
	})
	articles := run(links, workers)

	return h.finish(domain.RunResult{
		Mode:     domain.ModePooled,
		Workers:  workers,
		Links:    len(links),
		Articles: articles,
		Elapsed:  elapsed,
	})
}

// Sweep re-runs Pooled once per worker count against the same links.
func (h *Harness) Sweep(ctx context.Context, links []domain.ArticleLink, counts []int) []domain.RunResult {
	defer Track("sweep", h.report, counts)()

	results := make([]domain.RunResult, 0, len(counts))
	for _, n := range counts {
		if ctx.Err() != nil {
			break
		}
		results = append(results, h.Pooled(ctx, links, n))
	}
	return results
}

type extraction struct {
	article domain.Article
	ok      bool
}

func (h *Harness) pool(ctx context.Context, links []domain.ArticleLink, workers int) []domain.Article {
	mapper := iter.Mapper[domain.ArticleLink, extraction]{MaxGoroutines: workers}
	collected := mapper.Map(links, func(link *domain.ArticleLink) extraction {
		art, ok := h.ex.Extract(ctx, *link)
		return extraction{article: art, ok: ok}
	})

	out := make([]domain.Article, 0, len(collected))
	for _, res := range collected {
		if res.ok {
			out = append(out, res.article)
		}
	}
	return out
}

// capture stores the measured duration in dst and forwards to the configured reporter.
func (h *Harness) capture(dst *time.Duration) Reporter {
	return func(t Timing) {
		*dst = t.Elapsed
		if h.report != nil {
			h.report(t)
		}
	}
}

func (h *Harness) finish(res domain.RunResult) domain.RunResult {
	h.log.InfoObj("run finished", "run_result", map[string]any{
		"mode":     res.Mode,
		"workers":  res.Workers,
		"links":    res.Links,
		"articles": len(res.Articles),
		"failed":   res.Failed(),
		"seconds":  res.Elapsed.Seconds(),
	})
	if h.obs != nil {
		h.obs.ObserveRun(res)
	}
	return res
}
