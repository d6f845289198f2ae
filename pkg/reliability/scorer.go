// Package reliability rates the trustworthiness of individual news
// items. Every rating carries its full sub-score breakdown so a consumer
// can always see why an item landed where it did.
package reliability

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// Weights are the integer percentages of the four additive sub-scores.
// They must sum to exactly 100.
type Weights struct {
	SRS int `yaml:"srs"`
	CIS int `yaml:"cis"`
	CSC int `yaml:"csc"`
	TRF int `yaml:"trf"`
}

// DefaultWeights is the production weighting.
var DefaultWeights = Weights{SRS: 30, CIS: 25, CSC: 20, TRF: 25}

// Item is a single news item to rate. Published is nil when the feed
// carried no parseable timestamp. PeerTitles are headline candidates
// from other sources in the same ingestion window.
type Item struct {
	SourceKey  string
	Title      string
	Text       string
	Published  *time.Time
	PeerTitles []string
}

// Result is the rating plus its full breakdown.
type Result struct {
	Rating int     `json:"ecosystemRating"`
	SRS    int     `json:"srs"`
	CIS    int     `json:"cis"`
	CSC    int     `json:"csc"`
	TRF    int     `json:"trf"`
	ECM    float64 `json:"ecm"`
}

// Scorer rates news items against the source registry. Pure and safe
// for concurrent use.
type Scorer struct {
	weights  Weights
	registry *Registry
}

// NewScorer validates the weight set and returns a scorer. Weights not
// summing to 100 are a fatal configuration error, never renormalized.
func NewScorer(w Weights, registry *Registry) (*Scorer, error) {
	if sum := w.SRS + w.CIS + w.CSC + w.TRF; sum != 100 {
		return nil, fmt.Errorf("reliability weights sum to %d, want 100", sum)
	}
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &Scorer{weights: w, registry: registry}, nil
}

// Rate scores one item. now is passed in so ratings are reproducible.
func (s *Scorer) Rate(item Item, now time.Time) Result {
	meta, known := s.registry.Lookup(item.SourceKey)

	srs := sourceReliability(meta, known)
	cis := contentIntegrity(item.Title, item.Text)
	trf := temporalRelevance(item.Published, now)
	csc := corroboration(item.Title, item.PeerTitles)
	ecm := ecosystemMultiplier(meta.Scope)

	weighted := float64(srs*s.weights.SRS+cis*s.weights.CIS+csc*s.weights.CSC+trf*s.weights.TRF) / 100.0

	return Result{
		Rating: clampScore(int(math.Round(weighted * ecm))),
		SRS:    srs,
		CIS:    cis,
		CSC:    csc,
		TRF:    trf,
		ECM:    ecm,
	}
}

// unknownSourceTrust is the conservative baseline for sources missing
// from the registry. No tier bonus applies.
const unknownSourceTrust = 40

// sourceReliability starts from the source's static trust score and
// applies the tier bonus: tier 1 +8, tier 2 +3, tier 3 -5.
func sourceReliability(meta SourceMeta, known bool) int {
	if !known {
		return unknownSourceTrust
	}

	score := meta.TrustScore
	switch meta.TrustTier {
	case 1:
		score += 8
	case 2:
		score += 3
	case 3:
		score -= 5
	}
	return clampScore(score)
}

// clickbaitPatterns are matched case-insensitively against the combined
// title and body; each match costs 8 points.
var clickbaitPatterns = []string{
	"you won't believe",
	"breaking:",
	"shocking",
	"goes viral",
	"what happened next",
	"this is why",
	"doctors hate",
	"must see",
	"jaw-dropping",
	"exposed",
	"slams",
	"destroys",
}

// contentIntegrity applies the heuristic penalty stack over title+body.
// Empty content short-circuits to 30.
func contentIntegrity(title, text string) int {
	content := strings.TrimSpace(title)
	if body := strings.TrimSpace(text); body != "" {
		if content == "" {
			content = body
		} else {
			content = content + " " + body
		}
	}
	if content == "" {
		return 30
	}

	score := 70
	length := len([]rune(content))

	switch {
	case length < 80:
		score -= 20
	case length < 160:
		score -= 10
	}
	if length > 2500 {
		score -= 5
	}

	// Exclamation marks: -5 each, capped at -15 from the third on.
	if bangs := strings.Count(content, "!"); bangs >= 3 {
		score -= 15
	} else {
		score -= 5 * bangs
	}

	// Shouting: over 35% upper-case letters.
	letters, uppers := 0, 0
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters > 0 && float64(uppers)/float64(letters) > 0.35 {
		score -= 12
	}

	lower := strings.ToLower(content)
	for _, pattern := range clickbaitPatterns {
		if strings.Contains(lower, pattern) {
			score -= 8
		}
	}

	// Low token diversity reads like filler or keyword stuffing.
	words := strings.Fields(lower)
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) < 0.35 {
			score -= 10
		}
	}

	return clampScore(score)
}

// temporalRelevance is a step function of article age. An unknown
// publication time gets 55: worse than fresh, better than stale.
func temporalRelevance(published *time.Time, now time.Time) int {
	if published == nil {
		return 55
	}

	age := now.Sub(*published)
	switch {
	case age <= 6*time.Hour:
		return 100
	case age <= 24*time.Hour:
		return 80
	case age <= 72*time.Hour:
		return 60
	case age <= 168*time.Hour:
		return 40
	default:
		return 20
	}
}

// corroborationLadder maps corroborator count to a score; 4+ tops out
// at 92.
var corroborationLadder = []int{45, 65, 78, 86, 92}

// corroborationThreshold is the minimum Jaccard similarity for a peer
// headline to count as covering the same event.
const corroborationThreshold = 0.35

// corroboration counts peers whose headline fingerprint overlaps this
// item's and maps the count onto the score ladder.
func corroboration(title string, peers []string) int {
	self := titleFingerprint(title)

	matches := 0
	for _, peer := range peers {
		if jaccard(self, titleFingerprint(peer)) >= corroborationThreshold {
			matches++
		}
	}

	if matches >= len(corroborationLadder) {
		matches = len(corroborationLadder) - 1
	}
	return corroborationLadder[matches]
}

// fingerprintCap bounds the token set so very long headlines do not
// dilute similarity.
const fingerprintCap = 20

var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"been": true, "will": true, "would": true, "could": true, "should": true,
	"what": true, "when": true, "where": true, "after": true, "about": true,
	"over": true, "into": true, "more": true, "than": true, "says": true,
	"said": true, "amid": true, "their": true, "they": true, "were": true,
}

// titleFingerprint extracts the set of significant tokens from a
// headline: lower-cased words of at least four characters that are not
// stopwords, capped at fingerprintCap.
func titleFingerprint(title string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, fingerprintCap)
	for _, w := range words {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		set[w] = struct{}{}
		if len(set) == fingerprintCap {
			break
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// ecosystemMultiplier nudges items from sources close to their subject:
// domestic coverage gets 1.08, regional 1.04, everything else 1.00.
func ecosystemMultiplier(scope string) float64 {
	switch scope {
	case "domestic":
		return 1.08
	case "regional":
		return 1.04
	default:
		return 1.00
	}
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
