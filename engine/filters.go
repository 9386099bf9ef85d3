package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spektr-org/carbonlens/record"
)

// ============================================================================
// SELECTION: The active (year, property type) filter pair
// ============================================================================

// All is the selection value that disables a facet filter.
const All = "All"

// Selection is the pair of filter-control values. Either field is All (or
// empty) to match every record.
type Selection struct {
	Year         string `json:"year"`
	PropertyType string `json:"propertyType"`
}

// DefaultSelection matches every record.
func DefaultSelection() Selection {
	return Selection{Year: All, PropertyType: All}
}

// ParseSelection canonicalizes raw control values. All matches
// case-insensitively for both fields; the year must otherwise be an integer.
func ParseSelection(year, propertyType string) (Selection, error) {
	sel := Selection{Year: strings.TrimSpace(year), PropertyType: strings.TrimSpace(propertyType)}
	if sel.Year == "" || strings.EqualFold(sel.Year, All) {
		sel.Year = All
	} else {
		y, err := strconv.Atoi(sel.Year)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: year %q is not an integer", ErrInvalidSelection, year)
		}
		sel.Year = strconv.Itoa(y)
	}
	if sel.PropertyType == "" || strings.EqualFold(sel.PropertyType, All) {
		sel.PropertyType = All
	}
	return sel, nil
}

// WithYear returns a copy selecting one year.
func (s Selection) WithYear(year int) Selection {
	s.Year = strconv.Itoa(year)
	return s
}

// WithPropertyType returns a copy selecting one property type.
func (s Selection) WithPropertyType(t string) Selection {
	s.PropertyType = t
	return s
}

// Key is the canonical identity of the selection, used for memoization.
func (s Selection) Key() string {
	return "year=" + orAll(s.Year) + "|type=" + orAll(s.PropertyType)
}

// Filters converts the selection into dimension filters over the record view.
func (s Selection) Filters() Filters {
	f := Filters{Dimensions: map[string][]string{}}
	if y := orAll(s.Year); y != All {
		f.Dimensions[DimYear] = []string{y}
	}
	if t := orAll(s.PropertyType); t != All {
		f.Dimensions[DimPropertyType] = []string{t}
	}
	return f
}

func orAll(v string) string {
	if v == "" {
		return All
	}
	return v
}

// ============================================================================
// FILTERS: Generic Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent): zero data copy.
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values (exact match).
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ApplyFilters returns a view of records matching all dimension filters.
// Empty filter = no restriction (every index of view).
func ApplyFilters(view RecordView, filters Filters) *SubView {
	n := view.Len()
	indices := make([]int, 0, n)

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	// Single pass: record passes if it matches ALL dimension filters
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// FilterSubset returns the records included by sel, in input order.
// The All/All selection returns records itself.
func FilterSubset(records []record.Record, sel Selection) []record.Record {
	filters := sel.Filters()
	if filters.IsEmpty() {
		return records
	}

	sub := ApplyFilters(BindRecords(records), filters)
	out := make([]record.Record, sub.Len())
	for i := range out {
		out[i] = records[sub.ParentIndex(i)]
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
