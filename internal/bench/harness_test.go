package bench

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// stubExtractor answers from a fixed table, optionally delaying per link.
type stubExtractor struct {
	delays   map[domain.ArticleLink]time.Duration
	failures map[domain.ArticleLink]bool

	inflight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *stubExtractor) Extract(_ context.Context, link domain.ArticleLink) (domain.Article, bool) {
	s.calls.Add(1)
	cur := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		old := s.peak.Load()
		if cur <= old || s.peak.CompareAndSwap(old, cur) {
			break
		}
	}

	if d := s.delays[link]; d > 0 {
		time.Sleep(d)
	}
	if s.failures[link] {
		return domain.Article{}, false
	}
	return domain.Article{Title: "t-" + string(link), Subtitle: "s", Date: "d", Link: string(link)}, true
}

type runRecorder struct {
	mu   sync.Mutex
	runs []domain.RunResult
}

func (r *runRecorder) ObserveRun(res domain.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, res)
}

func titles(arts []domain.Article) []string {
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.Title)
	}
	return out
}

func TestPooledPreservesSubmissionOrder(t *testing.T) {
	ex := &stubExtractor{delays: map[domain.ArticleLink]time.Duration{"B": 80 * time.Millisecond}}
	h := NewHarness(ex, nil)

	res := h.Pooled(context.Background(), []domain.ArticleLink{"A", "B", "C"}, 3)

	assert.Equal(t, []string{"t-A", "t-B", "t-C"}, titles(res.Articles))
	assert.Equal(t, domain.ModePooled, res.Mode)
	assert.Equal(t, 3, res.Workers)
	assert.GreaterOrEqual(t, res.Elapsed, 80*time.Millisecond)
}

func TestPooledFiltersAbsentResults(t *testing.T) {
	links := []domain.ArticleLink{"1", "2", "3", "4", "5"}
	ex := &stubExtractor{failures: map[domain.ArticleLink]bool{"2": true, "4": true}}
	h := NewHarness(ex, nil)

	res := h.Pooled(context.Background(), links, 2)

	require.Len(t, res.Articles, 3)
	assert.Equal(t, []string{"t-1", "t-3", "t-5"}, titles(res.Articles))
	assert.Equal(t, 5, res.Links)
	assert.Equal(t, 2, res.Failed())
	assert.EqualValues(t, 5, ex.calls.Load())
}

func TestPooledRespectsWorkerBound(t *testing.T) {
	links := make([]domain.ArticleLink, 12)
	delays := make(map[domain.ArticleLink]time.Duration, len(links))
	for i := range links {
		links[i] = domain.ArticleLink(rune('a' + i))
		delays[links[i]] = 10 * time.Millisecond
	}
	ex := &stubExtractor{delays: delays}
	h := NewHarness(ex, nil)

	h.Pooled(context.Background(), links, 2)

	assert.LessOrEqual(t, ex.peak.Load(), int32(2))
}

func TestPooledUsesDefaultWorkers(t *testing.T) {
	h := NewHarness(&stubExtractor{}, nil, WithDefaultWorkers(5))
	res := h.Pooled(context.Background(), []domain.ArticleLink{"x"}, 0)
	assert.Equal(t, 5, res.Workers)

	res = NewHarness(&stubExtractor{}, nil).Pooled(context.Background(), nil, -1)
	assert.Equal(t, DefaultWorkers(), res.Workers)
	assert.Empty(t, res.Articles)
}

func TestSequentialKeepsInputOrder(t *testing.T) {
	ex := &stubExtractor{failures: map[domain.ArticleLink]bool{"B": true}}
	obs := &runRecorder{}
	h := NewHarness(ex, nil, WithRunObserver(obs))

	res := h.Sequential(context.Background(), []domain.ArticleLink{"A", "B", "C"})

	assert.Equal(t, []string{"t-A", "t-C"}, titles(res.Articles))
	assert.Equal(t, domain.ModeSequential, res.Mode)
	assert.EqualValues(t, 1, ex.peak.Load())
	require.Len(t, obs.runs, 1)
	assert.Equal(t, res.Mode, obs.runs[0].Mode)
}

func TestSweepRunsEachWorkerCount(t *testing.T) {
	var timings []Timing
	obs := &runRecorder{}
	h := NewHarness(&stubExtractor{}, nil,
		WithRunObserver(obs),
		WithReporter(func(t Timing) { timings = append(timings, t) }),
	)

	results := h.Sweep(context.Background(), []domain.ArticleLink{"A", "B"}, []int{1, 2, 4, 8})

	require.Len(t, results, 4)
	for i, want := range []int{1, 2, 4, 8} {
		assert.Equal(t, want, results[i].Workers)
		assert.Len(t, results[i].Articles, 2)
	}
	assert.Len(t, obs.runs, 4)
	// four pooled timings plus the sweep itself
	require.Len(t, timings, 5)
	assert.Equal(t, "sweep", timings[4].Name)
}

func TestSweepStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := NewHarness(&stubExtractor{}, nil).Sweep(ctx, []domain.ArticleLink{"A"}, []int{1, 2})
	assert.Empty(t, results)
}

func TestDefaultWorkersIsBounded(t *testing.T) {
	n := DefaultWorkers()
	assert.GreaterOrEqual(t, n, 5)
	assert.LessOrEqual(t, n, maxDefaultWorkers)
}

func TestMeasureReturnsResultUnchanged(t *testing.T) {
	var got Timing
	out := Measure("answer", func(t Timing) { got = t }, func() int { return 42 }, "x", 1)

	assert.Equal(t, 42, out)
	assert.Equal(t, "answer", got.Name)
	assert.Equal(t, []any{"x", 1}, got.Args)
}

func TestWrapPassesArgumentsThrough(t *testing.T) {
	var reported []Timing
	calls := 0
	double := Wrap("double", func(t Timing) { reported = append(reported, t) }, func(n int) int {
		calls++
		return n * 2
	})

	assert.Equal(t, 14, double(7))
	assert.Equal(t, 1, calls)
	require.Len(t, reported, 1)
	assert.Equal(t, []any{7}, reported[0].Args)

	errFn := Wrap2("join", nil, func(a string, b error) error {
		return errors.Join(errors.New(a), b)
	})
	err := errFn("first", errors.New("second"))
	assert.EqualError(t, err, "first\nsecond")
}

func TestTrackReportsOnDefer(t *testing.T) {
	var got Timing
	func() {
		defer Track("scoped", func(t Timing) { got = t }, "arg")()
		time.Sleep(5 * time.Millisecond)
	}()

	assert.Equal(t, "scoped", got.Name)
	assert.GreaterOrEqual(t, got.Elapsed, 5*time.Millisecond)
}
