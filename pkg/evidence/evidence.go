// Package evidence makes repeated ingestion of the same article
// idempotent: a stable canonical URL, a bounded content hash, and a
// dedupe key the store can upsert on.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Item is one piece of scraped or syndicated evidence about a public
// figure, as produced by a collector before ranking and persistence.
type Item struct {
	SourceKey            string             `json:"source_key"`
	URL                  string             `json:"url"`
	Title                string             `json:"title"`
	PublishedAt          *time.Time         `json:"published_at,omitempty"`
	ContentType          string             `json:"content_type"`
	Language             string             `json:"language"`
	Snippet              string             `json:"snippet"`
	RawText              string             `json:"raw_text"`
	Entities             []string           `json:"entities"`
	Topics               []string           `json:"topics"`
	Signals              map[string]float64 `json:"signals"`
	ExtractionConfidence float64            `json:"extraction_confidence"`
	PoliticianID         *int64             `json:"politician_id,omitempty"`
}

// hashCap bounds how much text feeds the content hash. Articles that
// differ only past this point hash identically; that is an accepted
// stability/size tradeoff, not a bug.
const hashCap = 20000

// CanonicalURL normalizes a URL so the same article always yields the
// same string: https when no scheme is given, lower-case host without a
// leading "www.", no fragment, path defaulting to "/", query preserved.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("canonicalize: empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("canonicalize %q: no host", raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	canonical := u.Scheme + "://" + host + path
	if u.RawQuery != "" {
		canonical += "?" + u.RawQuery
	}
	return canonical, nil
}

// ContentHash returns the SHA-256 of the first hashCap characters of
// the text.
func ContentHash(text string) string {
	runes := []rune(text)
	if len(runes) > hashCap {
		text = string(runes[:hashCap])
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DedupeKey builds the stable upsert identity for an evidence item:
// "<source_key>:<sha256(canonical_url)>". The same source and canonical
// URL always produce the same key, whatever the crawl time or title.
func DedupeKey(sourceKey, rawURL string) (string, error) {
	canonical, err := CanonicalURL(rawURL)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return sourceKey + ":" + hex.EncodeToString(sum[:]), nil
}
