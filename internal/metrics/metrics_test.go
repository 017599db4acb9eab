package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

func TestObserveFetchCountsByPhaseAndOutcome(t *testing.T) {
	rec := New()

	rec.ObserveFetch(PhaseDetail, OutcomeOK, 10*time.Millisecond)
	rec.ObserveFetch(PhaseDetail, OutcomeOK, 20*time.Millisecond)
	rec.ObserveFetch(PhaseListing, OutcomeStatus, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.fetchesTotal.WithLabelValues(PhaseDetail, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.fetchesTotal.WithLabelValues(PhaseListing, OutcomeStatus)))
}

func TestObserveRunSetsGauges(t *testing.T) {
	rec := New()
	rec.ObserveRun(domain.RunResult{
		Mode:     domain.ModePooled,
		Workers:  4,
		Links:    5,
		Articles: make([]domain.Article, 3),
		Elapsed:  1500 * time.Millisecond,
	})

	assert.InDelta(t, 1.5, testutil.ToFloat64(rec.runElapsed.WithLabelValues("pooled", "4")), 1e-9)
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.runArticles.WithLabelValues("pooled", "4")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.runFailures.WithLabelValues("pooled", "4")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.ObserveFetch(PhaseDetail, OutcomeOK, time.Second)
	rec.ObserveRun(domain.RunResult{})
	require.NoError(t, rec.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
	assert.Nil(t, rec.Registry())
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.ObserveFetch(PhaseListing, OutcomeOK, time.Millisecond)

	path := filepath.Join(t.TempDir(), "nested", "harvester.prom")
	require.NoError(t, rec.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "harvester_fetches_total"))
}
