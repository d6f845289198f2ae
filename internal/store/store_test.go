package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicmeter/paragon/pkg/evidence"
	"github.com/civicmeter/paragon/pkg/metrics"
	"github.com/civicmeter/paragon/pkg/scoring"
	"github.com/civicmeter/paragon/pkg/trend"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "paragon-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMetricsRowRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row, err := s.GetMetricsRow(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, row, "absent metrics row is nil, not an error")

	require.NoError(t, s.SaveMetricsRow(ctx, 42, map[string]float64{
		"scandals":  3,
		"sentiment": -25,
	}))

	row, err = s.GetMetricsRow(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3.0, row["scandals"])
	assert.Equal(t, -25.0, row["sentiment"])
}

func TestUpsertSnapshotsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)

	snaps := []scoring.Snapshot{
		{
			PoliticianID: 1,
			OverallScore: 72,
			Dimensions:   []scoring.DimensionScore{{Dimension: scoring.DimIntegrity, Score: 80}},
			SignalsRaw:   metrics.Canonical{metrics.ScandalsFlagged: 2},
			RuleVersion:  "v2",
			CalculatedAt: at,
		},
		{PoliticianID: 2, OverallScore: 55, RuleVersion: "v2", CalculatedAt: at},
	}

	res, err := s.UpsertSnapshots(ctx, snaps)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Upserted: 2}, res)

	// Same batch again: upsert by (politician_id, calculated_at), no dup rows.
	res, err = s.UpsertSnapshots(ctx, snaps)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Upserted: 2}, res)

	last, err := s.LastScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 72, 2: 55}, last)
}

func TestUpsertSnapshotsSkipsMalformedRows(t *testing.T) {
	s := newTestStore(t)

	res, err := s.UpsertSnapshots(context.Background(), []scoring.Snapshot{
		{PoliticianID: 0, OverallScore: 50, CalculatedAt: time.Now()}, // no identity
		{PoliticianID: 5, OverallScore: 60, CalculatedAt: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)
	assert.Equal(t, 1, res.Failed, "a bad row never aborts the batch")
}

func TestLastScoresPicksMostRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	earlier := time.Date(2026, 8, 19, 6, 0, 0, 0, time.UTC)
	later := earlier.Add(24 * time.Hour)

	_, err := s.UpsertSnapshots(ctx, []scoring.Snapshot{
		{PoliticianID: 1, OverallScore: 60, CalculatedAt: earlier},
	})
	require.NoError(t, err)
	_, err = s.UpsertSnapshots(ctx, []scoring.Snapshot{
		{PoliticianID: 1, OverallScore: 74, CalculatedAt: later},
	})
	require.NoError(t, err)

	last, err := s.LastScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 74, last[1])
}

func TestAppendTrendsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)

	entries := []trend.Entry{{
		PoliticianID:  1,
		PreviousScore: 70,
		NewScore:      82,
		Delta:         12,
		RawSnapshot:   scoring.Snapshot{PoliticianID: 1, OverallScore: 82, CalculatedAt: at},
	}}

	for i := 0; i < 2; i++ {
		res, err := s.AppendTrends(ctx, entries)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upserted)
	}

	rows, err := s.ListTrends(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12, rows[0].Delta)
	assert.Equal(t, 82, rows[0].Snapshot.OverallScore, "raw snapshot survives the round trip")
}

func TestUpsertEvidenceIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)

	key, err := evidence.DedupeKey("national-times", "https://www.nationaltimes.example/story?id=9")
	require.NoError(t, err)

	row := EvidenceRow{
		DedupeKey:    key,
		SourceKey:    "national-times",
		URL:          "https://www.nationaltimes.example/story?id=9",
		CanonicalURL: "https://nationaltimes.example/story?id=9",
		Title:        "Minister announces transparency reform",
		Entities:     []string{"Minister"},
		Topics:       []string{"transparency"},
		Signals:      map[string]float64{"mentions": 1},
		ContentHash:  evidence.ContentHash("article body"),
		Rating:       74,
		FirstSeen:    now,
		LastSeen:     now,
	}

	res, err := s.UpsertEvidence(ctx, []EvidenceRow{row})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Upserted: 1}, res)

	// Retry with identical input: still one row.
	res, err = s.UpsertEvidence(ctx, []EvidenceRow{row})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Upserted: 1}, res)

	rows, err := s.ListEvidence(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, key, rows[0].DedupeKey)
	assert.Equal(t, []string{"transparency"}, rows[0].Topics)
}

func TestUpsertEvidenceSkipsRowsWithoutKey(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	res, err := s.UpsertEvidence(context.Background(), []EvidenceRow{
		{DedupeKey: "", SourceKey: "x", FirstSeen: now, LastSeen: now},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Failed: 1}, res)
}
