package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ============================================================================
// NORMALIZER: RawRecord → Record
// ============================================================================
// Total and order preserving: output[i] is derived from raw[i]. A field that
// cannot be coerced falls back to its default; a record is never dropped and
// normalization never fails.
// ============================================================================

// idNamespace scopes the deterministic record IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/spektr-org/carbonlens/record"))

// Normalize converts raw rows into typed records.
func Normalize(raw []RawRecord, opts ...Option) []Record {
	fields := applyOptions(opts)
	out := make([]Record, len(raw))
	for i, r := range raw {
		out[i] = normalizeOne(i, r, fields)
	}
	return out
}

func normalizeOne(index int, r RawRecord, f Fields) Record {
	rec := Record{
		ID:                  recordID(index),
		NumberOfBuildings:   intOr(r, f.NumberOfBuildings),
		NumberOfFloors:      intOr(r, f.NumberOfFloors),
		PropertyGFATotal:    floatOr(r, f.PropertyGFATotal),
		CO2Emissions:        floatOr(r, f.CO2Emissions),
		Neighborhood:        stringOr(r, f.Neighborhood, UnknownNeighborhood),
		PrimaryPropertyType: stringOr(r, f.PropertyType, OtherPropertyType),
		Electricity:         floatOr(r, f.Electricity),
		NaturalGas:          floatOr(r, f.NaturalGas),
		Steam:               floatOr(r, f.Steam),
		EnergyStarScore:     floatOr(r, f.EnergyStarScore),
		SiteEnergyUse:       floatOr(r, f.SiteEnergyUse),
		Latitude:            floatOr(r, f.Latitude),
		Longitude:           floatOr(r, f.Longitude),
	}
	if y, ok := lookupNumber(r, f.YearBuilt); ok {
		rec.YearBuilt, rec.YearKnown = truncInt(y)
	}
	return rec
}

func recordID(index int) string {
	return uuid.NewSHA1(idNamespace, []byte(strconv.Itoa(index))).String()
}

// ============================================================================
// COERCION
// ============================================================================

func floatOr(r RawRecord, keys []string) float64 {
	if v, ok := lookupNumber(r, keys); ok {
		return v
	}
	return 0
}

func intOr(r RawRecord, keys []string) int {
	if v, ok := lookupNumber(r, keys); ok {
		n, _ := truncInt(v)
		return n
	}
	return 0
}

// truncInt truncates v toward zero. Values outside the int32 range do not
// name a year or a count and report false.
func truncInt(v float64) (int, bool) {
	t := math.Trunc(v)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return 0, false
	}
	return int(t), true
}

func stringOr(r RawRecord, keys []string, fallback string) string {
	for _, key := range keys {
		if s, ok := toString(value(r, key)); ok {
			return s
		}
	}
	return fallback
}

// lookupNumber returns the first key in keys whose value parses as a finite
// number.
func lookupNumber(r RawRecord, keys []string) (float64, bool) {
	for _, key := range keys {
		if v, ok := toFloat(value(r, key)); ok {
			return v, true
		}
	}
	return 0, false
}

// value finds key exactly, then case-insensitively. Among several
// case-insensitive matches the lexicographically smallest key wins.
func value(r RawRecord, key string) any {
	if v, ok := r[key]; ok {
		return v
	}
	match, found := "", false
	for k := range r {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil
	}
	return r[match]
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case json.Number:
		return x.String(), x.String() != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	default:
		return "", false
	}
}
