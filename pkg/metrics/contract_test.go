package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromScraperRenamesAndPassesThrough(t *testing.T) {
	c := Default()

	canonical := c.FromScraper(map[string]float64{
		"scandal_count": 3,
		"sentiment":     0.4,
		"brand_new_key": 7, // not in the mapping, passes through verbatim
	})

	assert.Equal(t, 3.0, canonical[ScandalsFlagged])
	assert.Equal(t, 0.4, canonical[SentimentScore])
	assert.Equal(t, 7.0, canonical["brand_new_key"])
}

func TestToRowDropsUnmappedKeys(t *testing.T) {
	c := Default()

	row := c.ToRow(Canonical{
		BillsSponsored: 12,
		"not_a_metric": 99,
	})

	assert.Equal(t, 12.0, row["bills_sponsored"])
	_, ok := row["not_a_metric"]
	assert.False(t, ok, "unmapped canonical keys must not become columns")
}

func TestSentimentEncoding(t *testing.T) {
	assert.Equal(t, 37, EncodeSentiment(0.37))
	assert.Equal(t, -100, EncodeSentiment(-1))
	assert.Equal(t, 100, EncodeSentiment(1.5), "out of range clamps to encode(1.0)")
	assert.InDelta(t, 0.37, DecodeSentiment(EncodeSentiment(0.37)), 0.01)
	assert.Equal(t, 1.0, DecodeSentiment(250), "stored values outside range clamp on decode")
}

func TestRowRoundTripStable(t *testing.T) {
	c := Default()

	row := map[string]float64{
		"scandals":     4,
		"sentiment":    -62,
		"attendance":   87,
		"extra_column": 5, // unknown column, passes through
	}

	once := c.FromRow(row)
	twice := c.FromRow(c.ToRow(once))

	// Known columns survive the round trip; the pass-through column is
	// dropped on the way back in (no matching DB column), by design.
	assert.Equal(t, once[ScandalsFlagged], twice[ScandalsFlagged])
	assert.Equal(t, once[AttendanceRate], twice[AttendanceRate])
	assert.InDelta(t, once[SentimentScore], twice[SentimentScore], 1e-9)
	assert.Equal(t, -0.62, once[SentimentScore])
}

func TestNewContractRejectsCollidingTables(t *testing.T) {
	_, err := NewContract(map[string]string{
		"a": "same_target",
		"b": "same_target",
	}, defaultColumnMapping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not bijective")
}
