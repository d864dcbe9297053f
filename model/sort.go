package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDirection is the sort state of a single column
type SortDirection int

const (
	Unsorted SortDirection = iota
	Ascending
	Descending
)

func (d SortDirection) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// Next returns the direction after one header click
func (d SortDirection) Next() SortDirection {
	switch d {
	case Unsorted:
		return Ascending
	case Ascending:
		return Descending
	default:
		return Unsorted
	}
}

// ParseSortDirection converts "asc", "desc" or "none" (or "") to a SortDirection
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return Unsorted, nil
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Unsorted, fmt.Errorf("invalid sort direction %q", s)
	}
}

// SortState tracks the single active sort column
type SortState struct {
	Column    string
	Direction SortDirection
}

// DirectionOf returns the direction of a column, every inactive column is unsorted
func (s SortState) DirectionOf(column string) SortDirection {
	if s.Column == column {
		return s.Direction
	}
	return Unsorted
}

// Toggle advances the clicked column by one state and resets every other column
func (s SortState) Toggle(column string) SortState {
	next := s.DirectionOf(column).Next()
	if next == Unsorted {
		return SortState{}
	}
	return SortState{Column: column, Direction: next}
}

// Sorter orders records by one column. A Sorter is not safe for concurrent use.
type Sorter struct {
	catalog  TypeCatalog
	collator *collate.Collator
}

// NewSorter creates a Sorter comparing text with the collation rules of tag
func NewSorter(catalog TypeCatalog, tag language.Tag) *Sorter {
	return &Sorter{
		catalog:  catalog,
		collator: collate.New(tag),
	}
}

// Sort returns a new slice ordered by column. Unsorted restores load order,
// Descending is the stable ascending order reversed.
func (s *Sorter) Sort(records []Record, column string, direction SortDirection) []Record {
	sorted := slices.Clone(records)

	if direction == Unsorted {
		slices.SortStableFunc(sorted, func(a, b Record) int {
			return cmp.Compare(a.Index, b.Index)
		})
		return sorted
	}

	if s.catalog.TypeOf(column) == TypeNumber {
		slices.SortStableFunc(sorted, func(a, b Record) int {
			return compareNumbers(a.Value(column), b.Value(column))
		})
	} else {
		slices.SortStableFunc(sorted, func(a, b Record) int {
			return s.collator.CompareString(a.Value(column), b.Value(column))
		})
	}

	if direction == Descending {
		slices.Reverse(sorted)
	}
	return sorted
}

// compareNumbers orders coercible values numerically, the rest after them
func compareNumbers(a, b string) int {
	av, aok := ParseNumber(a)
	bv, bok := ParseNumber(b)
	switch {
	case aok && bok:
		return cmp.Compare(av, bv)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}
