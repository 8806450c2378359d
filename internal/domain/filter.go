package domain

import "strings"

// StringSet is a facet's selected values. An empty set means "show all".
type StringSet map[string]struct{}

// NewStringSet builds a set from values, dropping blanks.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Empty reports whether the facet imposes no restriction.
func (s StringSet) Empty() bool {
	return len(s) == 0
}

// DirectoryFilter is the directory view's filter state: a free-text query,
// a state facet, and the drop-in facet. The drop-in facet is a boolean gate
// behind a multi-select surface: any selection at all restricts rows to
// OTA == "Y".
type DirectoryFilter struct {
	Query  string
	States StringSet
	DropIn StringSet
}

// EventFilter is the events view's filter state.
type EventFilter struct {
	Query  string
	States StringSet
	Years  StringSet
	Types  StringSet
}

// FilterDirectory applies the directory filter state to rows, AND-composing
// the query and every active facet. Pure: the input slice is never mutated.
func FilterDirectory(rows []DirectoryRow, f DirectoryFilter) []DirectoryRow {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]DirectoryRow, 0, len(rows))
	for _, r := range rows {
		if q != "" && !matchesQuery(r.searchFields(), q) {
			continue
		}
		if !f.States.Empty() && !f.States.Has(r.State) {
			continue
		}
		if !f.DropIn.Empty() && r.OpenToAll != "Y" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterEvents applies the events filter state to rows.
func FilterEvents(rows []EventRow, f EventFilter) []EventRow {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]EventRow, 0, len(rows))
	for _, r := range rows {
		if q != "" && !matchesQuery(r.searchFields(), q) {
			continue
		}
		if !f.States.Empty() && !f.States.Has(r.State) {
			continue
		}
		if !f.Years.Empty() && !f.Years.Has(r.Year) {
			continue
		}
		if !f.Types.Empty() && !f.Types.Has(r.Type) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchesQuery reports whether any field contains the lowercased query.
func matchesQuery(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
