package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestStore(t *testing.T, opts Options) (*boltStore, *fakeClock) {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "runs.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{t: time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)}
	store.now = clock.now
	store.lastCleanup.Store(clock.t.Unix())
	return store, clock
}

func TestBoltStoreMarksAndExpiresArticles(t *testing.T) {
	store, clock := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Minute})
	link := "https://news.example.gob/noticias/uno"

	seen, err := store.SeenArticle(link)
	if err != nil || seen {
		t.Fatalf("expected unseen article, seen=%v err=%v", seen, err)
	}
	if err := store.MarkArticle(link); err != nil {
		t.Fatalf("MarkArticle: %v", err)
	}
	seen, err = store.SeenArticle(link)
	if err != nil || !seen {
		t.Fatalf("expected article marked as seen, got seen=%v err=%v", seen, err)
	}

	clock.advance(2 * time.Hour)

	seen, err = store.SeenArticle(link)
	if err != nil {
		t.Fatalf("SeenArticle after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreSavesRunsInOrder(t *testing.T) {
	store, clock := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Minute})

	seq := domain.RunResult{Mode: domain.ModeSequential, Workers: 1, Links: 3, Articles: make([]domain.Article, 2), Elapsed: 1500 * time.Millisecond}
	pooled := domain.RunResult{Mode: domain.ModePooled, Workers: 8, Links: 3, Articles: make([]domain.Article, 3), Elapsed: 300 * time.Millisecond}

	first := NewRunRecord("harvest-1", seq, clock.now())
	second := NewRunRecord("harvest-1", pooled, clock.now())
	for _, rec := range []RunRecord{first, second} {
		if err := store.SaveRun(rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := store.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first.ID || runs[1].ID != second.ID {
		t.Fatalf("runs not in creation order: %+v", runs)
	}
	if runs[0].Failed != 1 || runs[0].ElapsedMS != 1500 || runs[0].Mode != "sequential" {
		t.Fatalf("unexpected first record %+v", runs[0])
	}
	if runs[1].Workers != 8 || runs[1].Articles != 3 || runs[1].HarvestID != "harvest-1" {
		t.Fatalf("unexpected second record %+v", runs[1])
	}
	if !runs[0].ExpiresAt.Equal(clock.now().Add(time.Hour)) {
		t.Fatalf("expected expiry stamped from ttl, got %v", runs[0].ExpiresAt)
	}
}

func TestBoltStoreDropsExpiredRuns(t *testing.T) {
	store, clock := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Minute})

	old := NewRunRecord("old", domain.RunResult{Mode: domain.ModePooled}, clock.now())
	if err := store.SaveRun(old); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	clock.advance(90 * time.Minute)
	fresh := NewRunRecord("fresh", domain.RunResult{Mode: domain.ModePooled}, clock.now())
	if err := store.SaveRun(fresh); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := store.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].HarvestID != "fresh" {
		t.Fatalf("expected only the fresh run, got %+v", runs)
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	store, _ := openTestStore(t, Options{})
	if err := store.SaveRun(RunRecord{}); err == nil {
		t.Fatalf("expected error for record without id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkArticle("x"); err != nil {
		t.Fatalf("noop store MarkArticle: %v", err)
	}
	if seen, _ := store.SeenArticle("x"); seen {
		t.Fatalf("noop store should never report seen")
	}
	if err := store.SaveRun(RunRecord{}); err != nil {
		t.Fatalf("noop SaveRun: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for empty bbolt path")
	}
}

func TestNewStoreOpensBolt(t *testing.T) {
	store, err := NewStore("BBolt", filepath.Join(t.TempDir(), "runs.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*boltStore); !ok {
		t.Fatalf("expected bolt store, got %T", store)
	}
}
