package engine

import (
	"sort"
	"strconv"
)

// FacetOptions lists the distinct known years (ascending) and property types
// (lexicographic) of the unfiltered view.
func FacetOptions(all RecordView) Facets {
	years := UniqueValues(all, DimYear)
	f := Facets{
		Years:         make([]int, 0, len(years)),
		PropertyTypes: UniqueValues(all, DimPropertyType),
	}
	for _, y := range years {
		if n, err := strconv.Atoi(y); err == nil {
			f.Years = append(f.Years, n)
		}
	}
	sort.Ints(f.Years)
	sort.Strings(f.PropertyTypes)
	return f
}
