package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Query is the records-list filter: free text AND township.
type Query struct {
	Search   string
	Township string // AllTownships or "" for no restriction
}

// ListState tells an empty store apart from filters that match nothing.
type ListState int

const (
	ListResults ListState = iota
	ListEmpty
	ListNoMatch
)

func (s ListState) String() string {
	switch s {
	case ListEmpty:
		return "empty"
	case ListNoMatch:
		return "no_match"
	default:
		return "results"
	}
}

// ListStateFor classifies a filtered view of total records yielding matched.
func ListStateFor(total, matched int) ListState {
	switch {
	case total == 0:
		return ListEmpty
	case matched == 0:
		return ListNoMatch
	default:
		return ListResults
	}
}

// Unrestricted reports whether q applies no township restriction.
func (q Query) Unrestricted() bool {
	return q.Township == "" || q.Township == AllTownships
}

// Filter returns the records matching q in their original order. The input
// slice is never modified; the result is always a fresh slice.
func Filter(records []Record, q Query) []Record {
	fold := cases.Fold()
	search := strings.TrimSpace(q.Search)
	foldedSearch := fold.String(search)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !q.Unrestricted() && r.Township != q.Township {
			continue
		}
		if search != "" &&
			!strings.Contains(fold.String(r.Township), foldedSearch) &&
			!strings.Contains(r.Date, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}
