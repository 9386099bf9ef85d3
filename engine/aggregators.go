package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS: Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// SortMode orders groups after aggregation.
type SortMode string

const (
	// SortValueDesc orders by value descending, ties by key ascending.
	SortValueDesc SortMode = "value_desc"
	// SortKeyNumericAsc orders numeric keys ascending (years, decades, floors).
	SortKeyNumericAsc SortMode = "key_numeric_asc"
	// SortNone keeps first-seen order.
	SortNone SortMode = ""
)

// GroupAndAggregate sums measure per dimension value.
// Pipeline: group → sum → sort → limit. limit <= 0 keeps every group.
func GroupAndAggregate(view RecordView, dimension, measure string, sortBy SortMode, limit int) []Group {
	groups := groupBySingle(view, dimension)

	for i := range groups {
		groups[i].Count = groups[i].View.Len()
		groups[i].Value = SumMeasure(groups[i].View, measure)
	}

	SortGroups(groups, sortBy)

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

// groupBySingle buckets indices by dimension value in one pass. Records with
// an empty key are left out; only unknown years produce one.
func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if key == "" {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:  key,
			View: newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure. 0 for an empty view.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure, 0 for an empty view.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
func SortGroups(groups []Group, sortBy SortMode) {
	switch sortBy {
	case SortValueDesc:
		sort.Slice(groups, func(i, j int) bool {
			if groups[i].Value != groups[j].Value {
				return groups[i].Value > groups[j].Value
			}
			return groups[i].Key < groups[j].Key
		})
	case SortKeyNumericAsc:
		sort.Slice(groups, func(i, j int) bool {
			a, b := numericKey(groups[i].Key), numericKey(groups[j].Key)
			if a != b {
				return a < b
			}
			return groups[i].Key < groups[j].Key
		})
	default:
		// preserve grouping order
	}
}

func numericKey(key string) int {
	n, err := strconv.Atoi(key)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// ============================================================================
// UTILITIES
// ============================================================================

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension, in
// first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension turns a dimension or measure key into a title:
// "primary_property_type" → "Primary Property Type".
func LabelForDimension(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
