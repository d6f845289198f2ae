package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry([]SourceMeta{
		{Key: "national-times", Name: "National Times", BaseURL: "https://www.nationaltimes.example", TrustTier: 1, TrustScore: 80, Scope: "domestic"},
		{Key: "regional-post", Name: "Regional Post", BaseURL: "https://regionalpost.example", TrustTier: 2, TrustScore: 60, Scope: "regional"},
		{Key: "gossip-wire", Name: "Gossip Wire", BaseURL: "https://gossipwire.example", TrustTier: 3, TrustScore: 35},
	})
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultWeights, testRegistry())
	require.NoError(t, err)
	return s
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	_, err := NewScorer(Weights{SRS: 30, CIS: 30, CSC: 20, TRF: 25}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 100")
}

func TestSourceReliabilityTierBonus(t *testing.T) {
	assert.Equal(t, 88, sourceReliability(SourceMeta{TrustTier: 1, TrustScore: 80}, true))
	assert.Equal(t, 63, sourceReliability(SourceMeta{TrustTier: 2, TrustScore: 60}, true))
	assert.Equal(t, 30, sourceReliability(SourceMeta{TrustTier: 3, TrustScore: 35}, true))
	assert.Equal(t, 100, sourceReliability(SourceMeta{TrustTier: 1, TrustScore: 97}, true), "clamped at 100")
	assert.Equal(t, unknownSourceTrust, sourceReliability(SourceMeta{}, false))
}

func TestContentIntegrityEmptyShortCircuits(t *testing.T) {
	assert.Equal(t, 30, contentIntegrity("", ""))
	assert.Equal(t, 30, contentIntegrity("   ", "\n"))
}

func TestContentIntegrityCleanLongForm(t *testing.T) {
	title := "Budget committee publishes audited accounts for fiscal year"
	body := "The parliamentary budget committee released its audited accounts " +
		"covering the previous fiscal year, including itemised spending across " +
		"ministries and an independent auditor's statement on procurement."

	// Over 160 chars, no exclamations, no clickbait, diverse tokens.
	assert.Equal(t, 70, contentIntegrity(title, body))
}

func TestTemporalRelevanceLadder(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	at := func(age time.Duration) *time.Time {
		ts := now.Add(-age)
		return &ts
	}

	assert.Equal(t, 100, temporalRelevance(at(2*time.Hour), now))
	assert.Equal(t, 80, temporalRelevance(at(12*time.Hour), now))
	assert.Equal(t, 60, temporalRelevance(at(48*time.Hour), now))
	assert.Equal(t, 40, temporalRelevance(at(100*time.Hour), now))
	assert.Equal(t, 20, temporalRelevance(at(300*time.Hour), now))
	assert.Equal(t, 55, temporalRelevance(nil, now), "unknown timestamp gets the conservative default")
}

func TestCorroborationLadder(t *testing.T) {
	title := "Finance minister questioned over procurement contracts"
	peers := []string{
		"Procurement contracts put finance minister under questioning",
		"Minister of finance faces questions on procurement contracts",
		"Questions mount for finance minister over contracts procurement",
	}

	assert.Equal(t, 45, corroboration(title, nil))
	assert.Equal(t, 65, corroboration(title, peers[:1]))
	assert.Equal(t, 78, corroboration(title, peers[:2]))
	assert.Equal(t, 86, corroboration(title, peers))
}

func TestCorroborationIgnoresUnrelatedHeadlines(t *testing.T) {
	title := "Finance minister questioned over procurement contracts"
	peers := []string{
		"Local football club wins regional championship",
		"Weather service warns of weekend thunderstorms",
	}
	assert.Equal(t, 45, corroboration(title, peers))
}

func TestRateCompoundsPenaltiesIntoLowBand(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	published := now.Add(-200 * time.Hour)

	result := s.Rate(Item{
		SourceKey: "gossip-wire",
		Title:     "BREAKING: you won't believe this!!!",
		Published: &published,
	}, now)

	assert.Equal(t, 30, result.SRS, "tier-3 penalty applies")
	assert.Equal(t, 19, result.CIS, "short + clickbait x2 + exclamations")
	assert.Equal(t, 20, result.TRF)
	assert.Equal(t, 45, result.CSC)
	assert.Equal(t, 1.0, result.ECM)
	assert.Less(t, result.Rating, 40, "all four penalties compound into a low band")
}

func TestRateAppliesEcosystemMultiplier(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	published := now.Add(-2 * time.Hour)

	item := Item{
		Title: "Audit office confirms ministry accounts are in order following review",
		Text: "The national audit office concluded its annual review of ministry " +
			"accounts and reported no material irregularities across the examined " +
			"procurement and payroll records.",
		Published: &published,
	}

	item.SourceKey = "national-times"
	domestic := s.Rate(item, now)
	assert.Equal(t, 1.08, domestic.ECM)

	item.SourceKey = "regional-post"
	regional := s.Rate(item, now)
	assert.Equal(t, 1.04, regional.ECM)

	// Same content, stronger source and multiplier should not rank lower.
	assert.GreaterOrEqual(t, domestic.Rating, regional.Rating)
}

func TestRegistryLookupURL(t *testing.T) {
	reg := testRegistry()

	meta, ok := reg.LookupURL("https://www.nationaltimes.example/politics/rss.xml")
	require.True(t, ok)
	assert.Equal(t, "national-times", meta.Key)

	_, ok = reg.LookupURL("https://unknown.example/feed")
	assert.False(t, ok)
}
