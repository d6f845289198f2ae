package scoring

import "github.com/civicmeter/paragon/pkg/metrics"

// Range declares the inclusive raw-value range for one metric.
// Inverse metrics score lower as the raw value rises (e.g. scandals).
type Range struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Inverse bool    `yaml:"inverse"`
}

// Dimension is one named scoring axis: a weighted blend of 1-3 metrics.
// Weights must sum to 1.0.
type Dimension struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

// Config is the full, immutable scoring rule set. Keeping it a plain
// value lets multiple versions coexist, so historical snapshots stay
// reproducible.
type Config struct {
	Version    string           `yaml:"version"`
	Ranges     map[string]Range `yaml:"ranges"`
	Dimensions []Dimension      `yaml:"dimensions"`
}

// Dimension names used by the default rule set and the legacy rollup.
const (
	DimIntegrity      = "Integrity & Ethics"
	DimAccountability = "Accountability & Transparency"
	DimLegislative    = "Legislative Activity"
	DimSentiment      = "Public Sentiment"
	DimMediaPresence  = "Media Presence"
	DimPromises       = "Promise Delivery"
	DimCivic          = "Civic Engagement"
)

// DefaultConfig returns the current 7-dimension rule set.
func DefaultConfig() Config {
	return Config{
		Version: "v2",
		Ranges: map[string]Range{
			metrics.ScandalsFlagged:        {Min: 0, Max: 20, Inverse: true},
			metrics.CourtCasesOpen:         {Min: 0, Max: 10, Inverse: true},
			metrics.TransparencyFulfilled:  {Min: 0, Max: 100},
			metrics.AssetDeclarationScore:  {Min: 0, Max: 100},
			metrics.BillsSponsored:         {Min: 0, Max: 60},
			metrics.AttendanceRate:         {Min: 0, Max: 100},
			metrics.SentimentScore:         {Min: -1, Max: 1},
			metrics.MediaMentionsMonthly:   {Min: 0, Max: 500},
			metrics.SocialEngagementScore:  {Min: 0, Max: 100},
			metrics.PromiseCompletionRate:  {Min: 0, Max: 100},
			metrics.TownHallsHeld:          {Min: 0, Max: 24},
			metrics.ConstituentResponsePct: {Min: 0, Max: 100},
		},
		Dimensions: []Dimension{
			{
				Name: DimIntegrity,
				Weights: map[string]float64{
					metrics.ScandalsFlagged: 0.6,
					metrics.CourtCasesOpen:  0.4,
				},
			},
			{
				Name: DimAccountability,
				Weights: map[string]float64{
					metrics.TransparencyFulfilled: 0.5,
					metrics.AssetDeclarationScore: 0.5,
				},
			},
			{
				Name: DimLegislative,
				Weights: map[string]float64{
					metrics.BillsSponsored: 0.6,
					metrics.AttendanceRate: 0.4,
				},
			},
			{
				Name: DimSentiment,
				Weights: map[string]float64{
					metrics.SentimentScore: 1.0,
				},
			},
			{
				Name: DimMediaPresence,
				Weights: map[string]float64{
					metrics.MediaMentionsMonthly:  0.7,
					metrics.SocialEngagementScore: 0.3,
				},
			},
			{
				Name: DimPromises,
				Weights: map[string]float64{
					metrics.PromiseCompletionRate: 1.0,
				},
			},
			{
				Name: DimCivic,
				Weights: map[string]float64{
					metrics.TownHallsHeld:          0.5,
					metrics.ConstituentResponsePct: 0.5,
				},
			},
		},
	}
}
