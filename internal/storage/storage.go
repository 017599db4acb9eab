// Package storage keeps optional local state between harvests: a history of
// benchmark runs and an index of already-published article links.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// Store persists run records and tracks published article links.
type Store interface {
	SaveRun(rec RunRecord) error
	Runs() ([]RunRecord, error)
	SeenArticle(link string) (bool, error)
	MarkArticle(link string) error
	Close() error
}

// RunRecord is the stored summary of one RunResult.
type RunRecord struct {
	ID         string    `json:"id"`
	HarvestID  string    `json:"harvest_id"`
	Mode       string    `json:"mode"`
	Workers    int       `json:"workers"`
	Links      int       `json:"links"`
	Articles   int       `json:"articles"`
	Failed     int       `json:"failed"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	FinishedAt time.Time `json:"finished_at"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// NewRunRecord summarises res as a record of the harvest identified by harvestID.
// IDs are UUIDv7 so key order follows creation order.
func NewRunRecord(harvestID string, res domain.RunResult, finishedAt time.Time) RunRecord {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return RunRecord{
		ID:         id.String(),
		HarvestID:  harvestID,
		Mode:       string(res.Mode),
		Workers:    res.Workers,
		Links:      res.Links,
		Articles:   len(res.Articles),
		Failed:     res.Failed(),
		ElapsedMS:  res.Elapsed.Milliseconds(),
		FinishedAt: finishedAt.UTC(),
	}
}

// Options controls retention for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) SaveRun(RunRecord) error          { return nil }
func (noopStore) Runs() ([]RunRecord, error)       { return nil, nil }
func (noopStore) SeenArticle(string) (bool, error) { return false, nil }
func (noopStore) MarkArticle(string) error         { return nil }
func (noopStore) Close() error                     { return nil }
