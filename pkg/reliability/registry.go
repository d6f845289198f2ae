package reliability

import (
	"net/url"
	"strings"
)

// SourceMeta is the static registry record for one news source. Trust
// tier is coarse (1 = best); TrustScore is the finer 0-100 baseline the
// SRS factor starts from. Scope drives the ecosystem multiplier.
type SourceMeta struct {
	Key            string `yaml:"key" json:"key" db:"key"`
	Name           string `yaml:"name" json:"name" db:"name"`
	BaseURL        string `yaml:"base_url" json:"base_url" db:"base_url"`
	TrustTier      int    `yaml:"trust_tier" json:"trust_tier" db:"trust_tier"`
	TrustScore     int    `yaml:"trust_score" json:"trust_score" db:"trust_score"`
	ScrapeMethod   string `yaml:"scrape_method" json:"scrape_method" db:"scrape_method"`
	RefreshMinutes int    `yaml:"refresh_minutes" json:"refresh_minutes" db:"refresh_minutes"`
	Scope          string `yaml:"scope" json:"scope" db:"scope"`
}

// Registry indexes source metadata by key and by feed host.
type Registry struct {
	byKey  map[string]SourceMeta
	byHost map[string]SourceMeta
}

// NewRegistry builds a registry from a static source list.
func NewRegistry(sources []SourceMeta) *Registry {
	r := &Registry{
		byKey:  make(map[string]SourceMeta, len(sources)),
		byHost: make(map[string]SourceMeta, len(sources)),
	}
	for _, s := range sources {
		r.byKey[s.Key] = s
		if host := hostOf(s.BaseURL); host != "" {
			r.byHost[host] = s
		}
	}
	return r
}

// Lookup returns the metadata for a source key.
func (r *Registry) Lookup(key string) (SourceMeta, bool) {
	m, ok := r.byKey[key]
	return m, ok
}

// LookupURL resolves a feed URL to its registered source by host.
func (r *Registry) LookupURL(feedURL string) (SourceMeta, bool) {
	m, ok := r.byHost[hostOf(feedURL)]
	return m, ok
}

// All returns every registered source.
func (r *Registry) All() []SourceMeta {
	out := make([]SourceMeta, 0, len(r.byKey))
	for _, m := range r.byKey {
		out = append(out, m)
	}
	return out
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
