package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicmeter/paragon/pkg/reliability"
	"github.com/civicmeter/paragon/pkg/scoring"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()

	// The shipped defaults must construct both engines without error.
	_, err := scoring.NewEngine(cfg.Scoring)
	require.NoError(t, err)

	_, err = reliability.NewScorer(cfg.Reliability.Weights, reliability.NewRegistry(cfg.Reliability.Sources))
	require.NoError(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/other.db
schedule:
  ingest_interval: 10m
trend:
  alert_threshold: 5
reliability:
  weights:
    srs: 40
    cis: 20
    csc: 20
    trf: 20
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "10m", cfg.Schedule.IngestInterval)
	assert.Equal(t, 5, cfg.Trend.AlertThreshold)
	assert.Equal(t, reliability.Weights{SRS: 40, CIS: 20, CSC: 20, TRF: 20}, cfg.Reliability.Weights)
	// Untouched sections keep their defaults.
	assert.Equal(t, "6h", cfg.Schedule.ScoreInterval)
}

func TestIntervalFallbacks(t *testing.T) {
	s := ScheduleConfig{IngestInterval: "not-a-duration", ScoreInterval: ""}
	assert.Equal(t, "30m0s", s.ParseIngestInterval().String())
	assert.Equal(t, "6h0m0s", s.ParseScoreInterval().String())
}
