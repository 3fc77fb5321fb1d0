package contract

import (
	"sort"
	"strconv"
	"strings"
)

// idFields hold identifiers that must always render as JSON strings.
var idFields = map[string]bool{
	"contest_id":          true,
	"draft_group":         true,
	"selected_contest_id": true,
	"entry_key":           true,
	"vip_entry_key":       true,
	"cluster_id":          true,
}

var twoDecimalKeys = map[string]bool{
	"points":         true,
	"delta_to_cash":  true,
	"pmr":            true,
	"pts":            true,
	"fantasy_points": true,
	"value":          true,
}

func roundForKey(key string, value float64) float64 {
	if strings.HasSuffix(key, "_pct") {
		return RoundHalfUp(value, 4)
	}
	if twoDecimalKeys[key] {
		return RoundHalfUp(value, 2)
	}
	return value
}

// NormalizeForOutput walks a snapshot tree and applies the canonical
// output rules: id fields stringified, percentages rounded to four
// decimals, point-like metrics to two.
func NormalizeForOutput(tree map[string]any) map[string]any {
	out, _ := normalizeValue(tree, "").(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	meta, ok := asMap(out["metadata"])
	if !ok {
		meta = map[string]any{}
		out["metadata"] = meta
	}
	if _, ok := meta["warnings"]; !ok {
		meta["warnings"] = []any{}
	}
	return out
}

func normalizeValue(value any, path string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			normalized := normalizeValue(child, childPath)
			if idFields[key] && normalized != nil {
				normalized = stringifyID(normalized)
			}
			if key == "entry_keys" {
				if list, ok := asList(normalized); ok {
					keys := make([]any, len(list))
					for i, item := range list {
						keys[i] = stringifyID(item)
					}
					normalized = keys
				}
			}
			if key == "ownership_remaining_total_pct" && isNumber(normalized) {
				normalized = RoundHalfUp(floatValue(normalized), 4)
			} else if f, ok := normalized.(float64); ok {
				normalized = roundForKey(key, f)
			}
			out[key] = normalized
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			childPath := strconv.Itoa(i)
			if path != "" {
				childPath = path + "." + childPath
			}
			out[i] = normalizeValue(item, childPath)
		}
		return out
	}
	return value
}

func stringifyID(value any) any {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok {
		return s
	}
	return asString(value)
}

// MissingFields lists the dotted path of every null leaf, sorted and
// deduplicated, excluding the audit list itself.
func MissingFields(tree map[string]any) []string {
	found := map[string]bool{}
	collectMissing(tree, "", found)
	out := make([]string, 0, len(found))
	for path := range found {
		if strings.HasPrefix(path, "metadata.missing_fields") {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func collectMissing(value any, path string, found map[string]bool) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			collectMissing(child, childPath, found)
		}
	case []any:
		for i, child := range v {
			childPath := strconv.Itoa(i)
			if path != "" {
				childPath = path + "." + childPath
			}
			collectMissing(child, childPath, found)
		}
	case nil:
		found[path] = true
	}
}

// SnapshotJSON canonicalizes a raw snapshot and renders stable bytes.
func SnapshotJSON(s *Snapshot) ([]byte, error) {
	tree, err := ToTree(s)
	if err != nil {
		return nil, err
	}
	return StableJSON(NormalizeForOutput(tree))
}
