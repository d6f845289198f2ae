package metrics

import (
	"fmt"
	"math"
)

// Canonical metric names. Every signal entering the scoring engine is
// translated into this vocabulary first.
const (
	ScandalsFlagged        = "scandals_flagged"
	CourtCasesOpen         = "court_cases_open"
	TransparencyFulfilled  = "transparency_requests_fulfilled"
	AssetDeclarationScore  = "asset_declaration_score"
	BillsSponsored         = "bills_sponsored"
	AttendanceRate         = "attendance_rate"
	SentimentScore         = "sentiment_score"
	MediaMentionsMonthly   = "media_mentions_monthly"
	SocialEngagementScore  = "social_engagement_score"
	PromiseCompletionRate  = "promise_completion_rate"
	TownHallsHeld          = "town_halls_held"
	ConstituentResponsePct = "constituent_response_rate"
)

// Canonical is a set of metric values keyed by canonical name.
// sentiment_score is a float in [-1,1]; everything else is a
// non-negative count or percentage.
type Canonical map[string]float64

// Contract translates metric names across the three boundaries:
// scraper payload -> canonical, canonical -> DB row, DB row -> canonical.
type Contract struct {
	scraperToCanonical map[string]string
	canonicalToColumn  map[string]string
	columnToCanonical  map[string]string
}

// NewContract builds a contract from the scraper-key and DB-column tables.
// Both tables must be bijective; a duplicate target is a configuration
// error and is rejected here rather than surfacing as a silent key
// collision during translation.
func NewContract(scraperMap, columnMap map[string]string) (*Contract, error) {
	if err := checkBijective("scraper", scraperMap); err != nil {
		return nil, err
	}
	if err := checkBijective("column", columnMap); err != nil {
		return nil, err
	}

	inverse := make(map[string]string, len(columnMap))
	for canonical, column := range columnMap {
		inverse[column] = canonical
	}

	return &Contract{
		scraperToCanonical: scraperMap,
		canonicalToColumn:  columnMap,
		columnToCanonical:  inverse,
	}, nil
}

// Default returns the contract for the standard scraper payload and
// metrics table layout.
func Default() *Contract {
	c, err := NewContract(defaultScraperMapping, defaultColumnMapping)
	if err != nil {
		// The built-in tables are bijective; reaching this is a bug.
		panic(fmt.Sprintf("metrics: default contract invalid: %v", err))
	}
	return c
}

func checkBijective(name string, m map[string]string) error {
	seen := make(map[string]string, len(m))
	for from, to := range m {
		if prev, ok := seen[to]; ok {
			return fmt.Errorf("%s mapping not bijective: %q and %q both map to %q", name, prev, from, to)
		}
		seen[to] = from
	}
	return nil
}

// FromScraper renames scraper payload keys into canonical names.
// Keys absent from the mapping pass through verbatim; values are not
// validated at this stage.
func (c *Contract) FromScraper(payload map[string]float64) Canonical {
	out := make(Canonical, len(payload))
	for key, value := range payload {
		if canonical, ok := c.scraperToCanonical[key]; ok {
			out[canonical] = value
		} else {
			out[key] = value
		}
	}
	return out
}

// ToRow converts canonical metrics into a DB-row mapping. Canonical keys
// without a column are dropped so a bad key never becomes a bad column.
// sentiment_score is stored as a scaled integer in [-100,100].
func (c *Contract) ToRow(canonical Canonical) map[string]float64 {
	row := make(map[string]float64, len(canonical))
	for key, value := range canonical {
		column, ok := c.canonicalToColumn[key]
		if !ok {
			continue
		}
		if key == SentimentScore {
			row[column] = float64(EncodeSentiment(value))
		} else {
			row[column] = value
		}
	}
	return row
}

// FromRow converts a DB row back into canonical metrics. Unknown columns
// pass through under their original name.
func (c *Contract) FromRow(row map[string]float64) Canonical {
	out := make(Canonical, len(row))
	for column, value := range row {
		canonical, ok := c.columnToCanonical[column]
		if !ok {
			out[column] = value
			continue
		}
		if canonical == SentimentScore {
			out[canonical] = DecodeSentiment(int(value))
		} else {
			out[canonical] = value
		}
	}
	return out
}

// EncodeSentiment scales a float sentiment in [-1,1] to the stored
// integer convention [-100,100]. Out-of-range input is clamped.
func EncodeSentiment(x float64) int {
	return int(math.Round(clamp(x, -1, 1) * 100))
}

// DecodeSentiment is the inverse of EncodeSentiment.
func DecodeSentiment(v int) float64 {
	return clamp(float64(v), -100, 100) / 100.0
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// defaultScraperMapping renames scraper payload keys to canonical names.
var defaultScraperMapping = map[string]string{
	"scandal_count":     ScandalsFlagged,
	"open_cases":        CourtCasesOpen,
	"foi_fulfilled":     TransparencyFulfilled,
	"asset_score":       AssetDeclarationScore,
	"bills":             BillsSponsored,
	"attendance":        AttendanceRate,
	"sentiment":         SentimentScore,
	"mentions_30d":      MediaMentionsMonthly,
	"engagement":        SocialEngagementScore,
	"promises_kept_pct": PromiseCompletionRate,
	"town_halls":        TownHallsHeld,
	"response_rate":     ConstituentResponsePct,
}

// defaultColumnMapping maps canonical names to metrics-table columns.
var defaultColumnMapping = map[string]string{
	ScandalsFlagged:        "scandals",
	CourtCasesOpen:         "court_cases",
	TransparencyFulfilled:  "foi_requests",
	AssetDeclarationScore:  "asset_declaration",
	BillsSponsored:         "bills_sponsored",
	AttendanceRate:         "attendance",
	SentimentScore:         "sentiment",
	MediaMentionsMonthly:   "media_mentions",
	SocialEngagementScore:  "social_engagement",
	PromiseCompletionRate:  "promises_kept",
	TownHallsHeld:          "town_halls",
	ConstituentResponsePct: "constituent_response",
}
