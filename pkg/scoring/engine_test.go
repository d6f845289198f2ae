package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicmeter/paragon/pkg/metrics"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestNormalizeBounds(t *testing.T) {
	e := newTestEngine(t)

	// Non-inverse metric: range endpoints map to 0 and 100.
	assert.Equal(t, 0.0, e.normalize(metrics.AttendanceRate, 0))
	assert.Equal(t, 100.0, e.normalize(metrics.AttendanceRate, 100))

	// Inverse metric: endpoints flip.
	assert.Equal(t, 100.0, e.normalize(metrics.ScandalsFlagged, 0))
	assert.Equal(t, 0.0, e.normalize(metrics.ScandalsFlagged, 20))

	// Out-of-range values clamp rather than overshoot.
	assert.Equal(t, 100.0, e.normalize(metrics.AttendanceRate, 250))
	assert.Equal(t, 0.0, e.normalize(metrics.SentimentScore, -3))
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dimensions[0].Weights = map[string]float64{
		metrics.ScandalsFlagged: 0.6,
		metrics.CourtCasesOpen:  0.3, // sums to 0.9
	}

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestNewEngineRejectsMissingRange(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Ranges, metrics.SentimentScore)

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no declared range")
}

func TestScoreIsDeterministic(t *testing.T) {
	e := newTestEngine(t)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m := metrics.Canonical{
		metrics.ScandalsFlagged:        2,
		metrics.CourtCasesOpen:         1,
		metrics.TransparencyFulfilled:  80,
		metrics.AssetDeclarationScore:  90,
		metrics.BillsSponsored:         15,
		metrics.AttendanceRate:         92,
		metrics.SentimentScore:         0.25,
		metrics.MediaMentionsMonthly:   120,
		metrics.SocialEngagementScore:  40,
		metrics.PromiseCompletionRate:  63,
		metrics.TownHallsHeld:          6,
		metrics.ConstituentResponsePct: 70,
	}

	first := e.Score(7, m, at)
	for i := 0; i < 50; i++ {
		again := e.Score(7, m, at)
		assert.Equal(t, first.OverallScore, again.OverallScore)
		assert.Equal(t, first.Dimensions, again.Dimensions)
	}
}

func TestScoreToleratesMissingMetrics(t *testing.T) {
	e := newTestEngine(t)

	// Only one metric supplied; everything else defaults to raw 0.
	snap := e.Score(1, metrics.Canonical{metrics.AttendanceRate: 100}, time.Now())

	require.Len(t, snap.Dimensions, 7)
	byName := map[string]int{}
	for _, d := range snap.Dimensions {
		byName[d.Dimension] = d.Score
	}

	// Inverse metrics at raw 0 score a full 100.
	assert.Equal(t, 100, byName[DimIntegrity])
	// Attendance carries 0.4 of its dimension; bills default to 0.
	assert.Equal(t, 40, byName[DimLegislative])
	// Sentiment raw 0 sits mid-range.
	assert.Equal(t, 50, byName[DimSentiment])
	assert.Equal(t, 0, byName[DimPromises])

	assert.GreaterOrEqual(t, snap.OverallScore, 0)
	assert.LessOrEqual(t, snap.OverallScore, 100)
}

func TestLegacyRollup(t *testing.T) {
	dims := []DimensionScore{
		{Dimension: DimIntegrity, Score: 80},
		{Dimension: DimAccountability, Score: 60},
		{Dimension: DimLegislative, Score: 50},
		{Dimension: DimPromises, Score: 70},
		{Dimension: DimSentiment, Score: 90},
		{Dimension: DimMediaPresence, Score: 30},
		{Dimension: DimCivic, Score: 60},
	}

	rollup := LegacyRollup(dims)
	assert.Equal(t, 70, rollup["integrity"])
	assert.Equal(t, 60, rollup["leadership"])
	assert.Equal(t, 60, rollup["public_impact"])
}

func TestLegacyRollupMissingDimensionDefaultsToZero(t *testing.T) {
	rollup := LegacyRollup([]DimensionScore{
		{Dimension: DimLegislative, Score: 80},
	})

	// Promise Delivery is absent and counts as 0, not an error.
	assert.Equal(t, 40, rollup["leadership"])
	assert.Equal(t, 0, rollup["integrity"])
}
