package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/noticias-harvester/internal/bench"
	"github.com/samvad-hq/noticias-harvester/internal/config"
	"github.com/samvad-hq/noticias-harvester/internal/crawler"
	"github.com/samvad-hq/noticias-harvester/internal/domain"
	"github.com/samvad-hq/noticias-harvester/internal/export"
	"github.com/samvad-hq/noticias-harvester/internal/logger"
	"github.com/samvad-hq/noticias-harvester/internal/metrics"
	"github.com/samvad-hq/noticias-harvester/internal/storage"
	"github.com/samvad-hq/noticias-harvester/pkg/httpclient"
	"github.com/samvad-hq/noticias-harvester/pkg/publishers"
)

// Harvester runs one harvest: discovery, the benchmark runs, the CSV
// artifact and the optional history, publishing and metrics side outputs.
type Harvester struct {
	cfg     *config.Config
	runID   string
	site    crawler.Site
	links   crawler.LinkSource
	harness *bench.Harness
	store   storage.Store
	fanout  *publishers.Fanout
	metrics *metrics.Recorder
	out     io.Writer
	log     logger.Logger
}

// Option customises a Harvester.
type Option func(*Harvester)

// WithOutput sends the human-readable timing lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Harvester) {
		if w != nil {
			h.out = w
		}
	}
}

// NewHarvester wires the harvester components from cfg.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	site := crawler.Site{
		Origin:      cfg.SiteOrigin,
		ListingPath: cfg.ListingPath,
		UserAgent:   cfg.UserAgent,
		PageDelay:   cfg.PageDelay,
	}
	client := httpclient.NewRestyClient(cfg.RequestTimeout, site.Headers())
	rec := metrics.New()
	scraper := crawler.NewDetailScraper(client, site, log, rec)

	h := &Harvester{
		cfg:     cfg,
		runID:   uuid.NewString(),
		site:    site,
		links:   crawler.NewLinkDiscoverer(client, site, log, rec),
		metrics: rec,
		out:     os.Stdout,
		log:     log,
	}
	h.harness = bench.NewHarness(scraper, log,
		bench.WithRunObserver(rec),
		bench.WithReporter(bench.LogReporter(log)),
		bench.WithDefaultWorkers(cfg.DefaultWorkers),
	)
	for _, opt := range opts {
		opt(h)
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	h.store = store
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	h.fanout = fanout

	return h, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return nil, nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no enabled publishers; publishing disabled", "publishers_file", path)
		return nil, nil
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run performs a single harvest. Only an unwritable output file is fatal.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.harness == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"run_id":     h.runID,
		"origin":     h.site.Origin,
		"page_count": h.cfg.PageCount,
	})

	links := h.links.Discover(ctx, h.cfg.PageCount)
	h.log.InfoObj("link discovery finished", "discovery_result", map[string]any{
		"run_id": h.runID,
		"links":  len(links),
	})

	sequential := h.harness.Sequential(ctx, links)
	pooled := h.harness.Pooled(ctx, links, h.cfg.DefaultWorkers)
	if err := bench.WriteComparison(h.out, sequential, pooled); err != nil {
		h.log.WarnObj("console output failed", "error", err.Error())
	}

	runs := []domain.RunResult{sequential, pooled}
	if h.cfg.SweepEnabled {
		sweep := h.harness.Sweep(ctx, links, h.cfg.WorkerCounts)
		if err := bench.WriteSweep(h.out, sweep); err != nil {
			h.log.WarnObj("console output failed", "error", err.Error())
		}
		runs = append(runs, sweep...)
	}

	if err := export.WriteCSV(h.cfg.OutputFile, pooled.Articles); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	h.log.InfoObj("output written", "output_meta", map[string]any{
		"path":     h.cfg.OutputFile,
		"articles": len(pooled.Articles),
	})

	h.recordRuns(runs)
	h.publish(ctx, pooled.Articles)
	h.writeMetrics()

	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"run_id":     h.runID,
		"runs":       len(runs),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// recordRuns stores every run summary; failures are logged only.
func (h *Harvester) recordRuns(runs []domain.RunResult) {
	now := time.Now()
	for _, res := range runs {
		rec := storage.NewRunRecord(h.runID, res, now)
		if err := h.store.SaveRun(rec); err != nil {
			h.log.ErrorObj("run record save failed", "storage_error", map[string]any{
				"run_id":  h.runID,
				"mode":    res.Mode,
				"workers": res.Workers,
				"error":   err.Error(),
			})
		}
	}
}

// publish fans out articles not yet delivered in an earlier harvest.
func (h *Harvester) publish(ctx context.Context, articles []domain.Article) {
	if h.fanout.Size() == 0 {
		return
	}

	var published, skipped int
	var errs []error
	for _, art := range articles {
		if ctx.Err() != nil {
			break
		}
		seen, err := h.store.SeenArticle(art.Link)
		if err != nil {
			errs = append(errs, fmt.Errorf("seen check %s: %w", art.Link, err))
			continue
		}
		if seen {
			skipped++
			continue
		}

		delivered, err := h.fanout.Publish(ctx, publishers.NewEvent(h.runID, h.site.Origin, art))
		if err != nil {
			errs = append(errs, err)
		}
		if delivered == 0 {
			continue
		}
		published++
		if err := h.store.MarkArticle(art.Link); err != nil {
			errs = append(errs, fmt.Errorf("mark %s: %w", art.Link, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		h.log.ErrorObj("publishing finished with errors", "publish_error", map[string]any{
			"run_id": h.runID,
			"error":  err.Error(),
		})
	}
	h.log.InfoObj("publishing finished", "publish_result", map[string]any{
		"run_id":    h.runID,
		"published": published,
		"skipped":   skipped,
	})
}

func (h *Harvester) writeMetrics() {
	if h.cfg.MetricsFile == "" {
		return
	}
	if err := h.metrics.WriteTextfile(h.cfg.MetricsFile); err != nil {
		h.log.ErrorObj("metrics textfile write failed", "metrics_error", map[string]any{
			"path":  h.cfg.MetricsFile,
			"error": err.Error(),
		})
	}
}

// close releases the publishers and the store, logging any errors.
func (h *Harvester) close() {
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
