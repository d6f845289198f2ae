package source

import "strings"

// Filter matches evidence text against the tracked politician names.
type Filter struct {
	names   []string
	exclude []string
}

// NewFilter creates a filter over the given names. Matching is
// case-insensitive; exclude keywords veto a match.
func NewFilter(names, excludeKeywords []string) *Filter {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return &Filter{names: lower(names), exclude: lower(excludeKeywords)}
}

// Matches reports whether the text mentions any tracked name.
func (f *Filter) Matches(text string) bool {
	return len(f.Matching(text)) > 0
}

// Matching returns the tracked names mentioned in the text, in
// registration order.
func (f *Filter) Matching(text string) []string {
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return nil
		}
	}

	var matched []string
	for _, name := range f.names {
		if strings.Contains(lower, name) {
			matched = append(matched, name)
		}
	}
	return matched
}
