package record

import "math"

// ============================================================================
// DIALECT DISCOVERY: Which source key feeds each logical field
// ============================================================================
// Inspects a raw batch and reports, per logical field, the source key that
// resolved most often and how many rows carried a usable value. Used at load
// time to spot dialect drift upstream; Normalize does not depend on it.
// ============================================================================

// FieldReport describes how one logical field resolved across a batch.
type FieldReport struct {
	Field    string         `json:"field"`
	Key      string         `json:"key,omitempty"` // dominant source key, "" when never present
	Keys     map[string]int `json:"keys,omitempty"`
	Present  int            `json:"present"`
	Total    int            `json:"total"`
	Coverage float64        `json:"coverage"` // Present / Total, 0 for an empty batch
}

// Discover reports field resolution for raw, in Fields declaration order.
func Discover(raw []RawRecord, opts ...Option) []FieldReport {
	fields := applyOptions(opts)
	stringFields := map[string]bool{"neighborhood": true, "primaryPropertyType": true}

	named := fields.named()
	reports := make([]FieldReport, 0, len(named))
	for _, nk := range named {
		isString := stringFields[nk.name]
		rep := FieldReport{Field: nk.name, Total: len(raw), Keys: map[string]int{}}
		for _, r := range raw {
			if key, ok := resolvedKey(r, nk.keys, !isString); ok {
				rep.Keys[key]++
				rep.Present++
			}
		}
		rep.Key = dominantKey(nk.keys, rep.Keys)
		if rep.Total > 0 {
			rep.Coverage = math.Round(float64(rep.Present)/float64(rep.Total)*10000) / 10000
		}
		if len(rep.Keys) == 0 {
			rep.Keys = nil
		}
		reports = append(reports, rep)
	}
	return reports
}

func resolvedKey(r RawRecord, keys []string, wantNumber bool) (string, bool) {
	for _, key := range keys {
		v := value(r, key)
		if wantNumber {
			if _, ok := toFloat(v); ok {
				return key, true
			}
			continue
		}
		if _, ok := toString(v); ok {
			return key, true
		}
	}
	return "", false
}

// dominantKey picks the most frequent key; ties go to the earlier fallback.
func dominantKey(order []string, counts map[string]int) string {
	best, bestCount := "", 0
	for _, key := range order {
		if c := counts[key]; c > bestCount {
			best, bestCount = key, c
		}
	}
	return best
}
