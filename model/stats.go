package model

import (
	"math"
	"strconv"
	"strings"
)

// NumericStats is the value range of a number column
type NumericStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Statistics holds per-column summaries derived once per load
type Statistics struct {
	Numeric        map[string]NumericStats `json:"numeric"`
	Categorical    map[string][]string     `json:"categorical"`
	CoercionErrors []*CoercionError        `json:"-"`
}

// NumericFor returns the range of a number column, ok is false when the
// column has no coercible value
func (s Statistics) NumericFor(column string) (NumericStats, bool) {
	ns, ok := s.Numeric[column]
	return ns, ok
}

// CategoriesFor returns the distinct values of a category column in first-seen order
func (s Statistics) CategoriesFor(column string) ([]string, bool) {
	values, ok := s.Categorical[column]
	return values, ok
}

// ParseNumber coerces a raw value to a finite float64
func ParseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// BuildStatistics derives numeric ranges and category lists for the catalog columns
// present in the header. Values of number columns that do not coerce are reported
// as CoercionErrors and left out of the range.
func BuildStatistics(header Header, records []Record, catalog TypeCatalog) Statistics {
	stats := Statistics{
		Numeric:     make(map[string]NumericStats),
		Categorical: make(map[string][]string),
	}

	for _, column := range catalog.Columns(TypeNumber) {
		if !header.Has(column) {
			continue
		}
		ns, errs, ok := numericRange(column, records)
		stats.CoercionErrors = append(stats.CoercionErrors, errs...)
		if ok {
			stats.Numeric[column] = ns
		}
	}

	for _, column := range catalog.Columns(TypeCategory) {
		if !header.Has(column) {
			continue
		}
		stats.Categorical[column] = distinctValues(column, records)
	}

	return stats
}

func numericRange(column string, records []Record) (NumericStats, []*CoercionError, bool) {
	var (
		ns   NumericStats
		errs []*CoercionError
		seen bool
	)
	for _, r := range records {
		raw := r.Value(column)
		v, ok := ParseNumber(raw)
		if !ok {
			errs = append(errs, &CoercionError{Column: column, Record: r.Index, Value: raw})
			continue
		}
		if !seen {
			ns = NumericStats{Min: v, Max: v}
			seen = true
			continue
		}
		ns.Min = math.Min(ns.Min, v)
		ns.Max = math.Max(ns.Max, v)
	}
	return ns, errs, seen
}

func distinctValues(column string, records []Record) []string {
	values := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range records {
		v := r.Value(column)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
