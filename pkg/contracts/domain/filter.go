package domain

import (
	"time"
)

// Selection is a tagged choice over a dimension's values: either "select
// all" (no filtering on the dimension, including values that appear in the
// data later) or an explicit subset. Modeling the select-all case as a tag
// rather than a sentinel string keeps it out of the value domain, so a real
// category literally named "All" can never collide with it.
type Selection struct {
	All    bool     `json:"all,omitempty"`
	Values []string `json:"values,omitempty"`
}

// SelectAll returns the selection that matches every value
func SelectAll() Selection {
	return Selection{All: true}
}

// SelectValues returns the selection matching exactly the given values
func SelectValues(values ...string) Selection {
	return Selection{Values: values}
}

// Matches reports whether v satisfies the selection. Intended for small
// request-scoped sets; the filter engine compiles selections into lookup
// maps before scanning a dataset.
func (s Selection) Matches(v string) bool {
	if s.All {
		return true
	}
	for _, val := range s.Values {
		if val == v {
			return true
		}
	}
	return false
}

// FilterSpec is a declarative description of a filtered view: an inclusive
// calendar-date range on the incident date plus one selection per
// constrained dimension. A nil bound leaves that side of the range open; a
// dimension absent from Dimensions is unconstrained (equivalent to
// SelectAll). Specs compose by logical AND, are commutative, and filtering
// with the same spec twice equals filtering once.
type FilterSpec struct {
	From       *time.Time              `json:"from,omitempty"`
	To         *time.Time              `json:"to,omitempty"`
	Dimensions map[Dimension]Selection `json:"dimensions,omitempty"`
}

// WithDateRange returns a copy of the spec with both date bounds set
func (f FilterSpec) WithDateRange(from, to time.Time) FilterSpec {
	f.From = &from
	f.To = &to
	return f
}

// WithSelection returns a copy of the spec with one dimension constrained.
// The receiver's dimension map is copied, never mutated, so specs stay
// safe to share across requests.
func (f FilterSpec) WithSelection(dim Dimension, sel Selection) FilterSpec {
	dims := make(map[Dimension]Selection, len(f.Dimensions)+1)
	for d, s := range f.Dimensions {
		dims[d] = s
	}
	dims[dim] = sel
	f.Dimensions = dims
	return f
}
