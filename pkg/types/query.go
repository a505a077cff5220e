package types

import "strings"

// Sort directions accepted by record queries. Anything else normalizes
// to descending.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// DefaultRecordLimit caps record listings when the caller does not supply
// a limit. Truncation at the limit is hard; there is no pagination cursor.
const DefaultRecordLimit = 5000

// NormalizeSortDir maps arbitrary input to SortAsc or SortDesc.
func NormalizeSortDir(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), SortAsc) {
		return SortAsc
	}
	return SortDesc
}

// Filter is one per-field condition. Which keys apply depends on the
// field's type: Equals/Contains for text-like fields (Equals wins when
// both are set), Min/Max for number, From/To for date, Is for bool (0/1)
// and relation (target id, 0 meaning no filter). Keys that do not apply
// to the field's type are ignored.
type Filter struct {
	Equals   *string  `json:"equals,omitempty"`
	Contains *string  `json:"contains,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	From     *string  `json:"from,omitempty"`
	To       *string  `json:"to,omitempty"`
	Is       *int64   `json:"is,omitempty"`
}

// RecordQuery describes one record listing: free-text search, structured
// per-field filters, sort, and a hard result cap. The zero value lists
// everything up to DefaultRecordLimit, newest id first.
type RecordQuery struct {
	Search      string
	Filters     map[int64]Filter
	SortFieldID int64
	SortDir     string
	Limit       int
	Vocabulary  SearchVocabulary
}

// EffectiveLimit returns the caller's limit, or DefaultRecordLimit when
// unset or negative.
func (q RecordQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultRecordLimit
	}
	return q.Limit
}

// EffectiveVocabulary returns the caller's search vocabulary, or the
// default one when none was supplied.
func (q RecordQuery) EffectiveVocabulary() SearchVocabulary {
	if len(q.Vocabulary.True) == 0 && len(q.Vocabulary.False) == 0 {
		return DefaultSearchVocabulary()
	}
	return q.Vocabulary
}

// SearchVocabulary lists the free-text tokens that match bool fields.
// The defaults accept both English and Spanish affirmatives so searches
// behave the same across localized datasets.
type SearchVocabulary struct {
	True  []string
	False []string
}

// DefaultSearchVocabulary returns the built-in bool keyword set.
func DefaultSearchVocabulary() SearchVocabulary {
	return SearchVocabulary{
		True:  []string{"si", "sí", "true", "1", "yes"},
		False: []string{"no", "false", "0"},
	}
}

// BoolToken reports whether term is a recognized bool keyword and, if so,
// which value it selects. Matching is case-insensitive.
func (v SearchVocabulary) BoolToken(term string) (value bool, ok bool) {
	t := strings.ToLower(strings.TrimSpace(term))
	for _, w := range v.True {
		if t == strings.ToLower(w) {
			return true, true
		}
	}
	for _, w := range v.False {
		if t == strings.ToLower(w) {
			return false, true
		}
	}
	return false, false
}

// DisplayConfig carries the presentation strings the core needs when
// rendering values: bool labels. Relation labels always fall back to
// "#<id>" and are not configurable.
type DisplayConfig struct {
	TrueLabel  string
	FalseLabel string
}

// DefaultDisplayConfig returns English bool labels.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{TrueLabel: "Yes", FalseLabel: "No"}
}

// BoolLabel renders a stored bool value with the configured labels.
func (d DisplayConfig) BoolLabel(v bool) string {
	if v {
		if d.TrueLabel != "" {
			return d.TrueLabel
		}
		return "Yes"
	}
	if d.FalseLabel != "" {
		return d.FalseLabel
	}
	return "No"
}
