package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/civicmeter/paragon/pkg/metrics"
)

// weightTolerance absorbs float literals like 0.3+0.7 when checking that
// dimension weights sum to 1.0.
const weightTolerance = 1e-9

// DimensionScore is one scored axis, 0-100.
type DimensionScore struct {
	Dimension string `json:"dimension"`
	Score     int    `json:"score"`
}

// Snapshot is the result of one scoring run for one politician.
// Snapshots are append-only; a new run produces a new snapshot and the
// prior one stays for trend history.
type Snapshot struct {
	PoliticianID int64             `json:"politician_id"`
	OverallScore int               `json:"overall_score"`
	Dimensions   []DimensionScore  `json:"dimensions"`
	SignalsRaw   metrics.Canonical `json:"signals_raw"`
	RuleVersion  string            `json:"rule_version"`
	CalculatedAt time.Time         `json:"calculated_at"`
}

// Engine turns canonical metrics into dimension scores and an overall
// score. It is pure and safe for concurrent use: all state is the
// read-only config captured at construction.
type Engine struct {
	cfg Config
}

// NewEngine validates the rule set and returns an engine. A weight table
// that does not sum to 1.0, or a weighted metric without a declared
// range, is a fatal configuration error.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Dimensions) == 0 {
		return nil, fmt.Errorf("scoring config %q: no dimensions", cfg.Version)
	}

	for _, dim := range cfg.Dimensions {
		sum := 0.0
		for name, w := range dim.Weights {
			sum += w
			rng, ok := cfg.Ranges[name]
			if !ok {
				return nil, fmt.Errorf("dimension %q: metric %q has no declared range", dim.Name, name)
			}
			if rng.Max <= rng.Min {
				return nil, fmt.Errorf("metric %q: invalid range [%v,%v]", name, rng.Min, rng.Max)
			}
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return nil, fmt.Errorf("dimension %q: weights sum to %v, want 1.0", dim.Name, sum)
		}
	}

	return &Engine{cfg: cfg}, nil
}

// Version reports the rule-set version the engine was built with.
func (e *Engine) Version() string { return e.cfg.Version }

// Score computes a snapshot for one politician. Missing metrics count as
// raw 0 and out-of-range values are clamped; bad data degrades the score,
// it never fails the run.
func (e *Engine) Score(politicianID int64, m metrics.Canonical, at time.Time) Snapshot {
	dims := make([]DimensionScore, 0, len(e.cfg.Dimensions))
	total := 0.0

	for _, dim := range e.cfg.Dimensions {
		// Sorted metric order keeps float accumulation deterministic
		// across runs.
		names := make([]string, 0, len(dim.Weights))
		for name := range dim.Weights {
			names = append(names, name)
		}
		sort.Strings(names)

		value := 0.0
		for _, name := range names {
			value += e.normalize(name, m[name]) * dim.Weights[name]
		}

		score := clampScore(int(math.Round(value)))
		dims = append(dims, DimensionScore{Dimension: dim.Name, Score: score})
		total += float64(score)
	}

	overall := clampScore(int(math.Round(total / float64(len(dims)))))

	return Snapshot{
		PoliticianID: politicianID,
		OverallScore: overall,
		Dimensions:   dims,
		SignalsRaw:   m,
		RuleVersion:  e.cfg.Version,
		CalculatedAt: at,
	}
}

// normalize maps a raw metric value onto 0-100 within its declared range.
func (e *Engine) normalize(name string, raw float64) float64 {
	rng := e.cfg.Ranges[name]

	clamped := raw
	if clamped < rng.Min {
		clamped = rng.Min
	}
	if clamped > rng.Max {
		clamped = rng.Max
	}

	normalized := (clamped - rng.Min) / (rng.Max - rng.Min) * 100
	if rng.Inverse {
		return 100 - normalized
	}
	return normalized
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// legacyRollup maps the three legacy pillar names to the dimensions they
// average over.
var legacyRollup = map[string][]string{
	"leadership":    {DimLegislative, DimPromises},
	"integrity":     {DimIntegrity, DimAccountability},
	"public_impact": {DimSentiment, DimMediaPresence, DimCivic},
}

// LegacyRollup derives the three coarse pillar scores older dashboards
// display. It is a presentation shim over the 7-dimension scores, not a
// scoring input; a referenced dimension that is absent counts as 0.
func LegacyRollup(dims []DimensionScore) map[string]int {
	byName := make(map[string]int, len(dims))
	for _, d := range dims {
		byName[d.Dimension] = d.Score
	}

	out := make(map[string]int, len(legacyRollup))
	for pillar, members := range legacyRollup {
		sum := 0
		for _, name := range members {
			sum += byName[name]
		}
		out[pillar] = int(math.Round(float64(sum) / float64(len(members))))
	}
	return out
}
