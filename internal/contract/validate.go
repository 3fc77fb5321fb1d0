package contract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var canonicalDisallowedKeys = map[string]bool{
	"username":     true,
	"player_id":    true,
	"playerId":     true,
	"dk_player_id": true,
}

var allowedNumericStringSuffixes = []string{
	".contest_id",
	".contest_key",
	".entry_key",
	".vip_entry_key",
	".cluster_key",
	".selection_reason",
	".display_name",
	".time_remaining_display",
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
)

var requiredContestFields = []struct {
	name string
	kind fieldKind
}{
	{"contest_id", kindString},
	{"contest_key", kindString},
	{"name", kindString},
	{"sport", kindString},
	{"contest_type", kindString},
	{"start_time", kindString},
	{"state", kindString},
	{"entry_fee_cents", kindInt},
	{"prize_pool_cents", kindInt},
	{"currency", kindString},
	{"max_entries", kindInt},
	{"max_entries_per_user", kindInt},
}

func isNumericString(value string) bool {
	text := strings.TrimSpace(value)
	if text == "" {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

func matchesKind(value any, kind fieldKind) bool {
	switch kind {
	case kindString:
		_, ok := value.(string)
		return ok
	case kindInt:
		return isInt(value)
	}
	return false
}

// ValidateCanonical checks a dashboard envelope against the canonical
// rules: no raw identity keys, no numeric strings outside id fields,
// complete and well-typed contest objects, and a primary contest that
// agrees with the selected one. The sorted violation list is empty for
// a conforming payload.
func ValidateCanonical(payload map[string]any) []string {
	violations := map[string]bool{}

	walkLeaves(payload, "", func(path string, value any) {
		if path == "" {
			return
		}
		key := path
		if idx := strings.LastIndex(path, "."); idx >= 0 {
			key = path[idx+1:]
		}
		if canonicalDisallowedKeys[key] || key == "start_time_utc" {
			violations["disallowed_key:"+path] = true
		}
		if s, ok := value.(string); ok && isNumericString(s) {
			allowed := false
			for _, suffix := range allowedNumericStringSuffixes {
				if strings.HasSuffix(path, suffix) {
					allowed = true
					break
				}
			}
			if !allowed {
				violations["numeric_string:"+path] = true
			}
		}
	})

	if sports, ok := asMap(payload["sports"]); ok {
		for sportKey, rawSport := range sports {
			sportPayload, ok := asMap(rawSport)
			if !ok {
				continue
			}
			contests, ok := asList(sportPayload["contests"])
			if !ok {
				continue
			}
			var selectedContest map[string]any
			for idx, rawContest := range contests {
				pathPrefix := fmt.Sprintf("sports.%s.contests.%d", sportKey, idx)
				contest, ok := asMap(rawContest)
				if !ok {
					violations["invalid_type:"+pathPrefix] = true
					continue
				}
				for _, field := range requiredContestFields {
					value := contest[field.name]
					if value == nil {
						violations["missing_required:"+pathPrefix+"."+field.name] = true
						continue
					}
					if !matchesKind(value, field.kind) {
						violations["type_mismatch:"+pathPrefix+"."+field.name] = true
					}
				}
				if entriesCount, present := contest["entries_count"]; present {
					if entriesCount == nil || !isInt(entriesCount) {
						violations["type_mismatch:"+pathPrefix+".entries_count"] = true
					}
				}
				if startTime, ok := contest["start_time"].(string); ok {
					if _, parsed := ParseUTCISO(startTime); !parsed {
						violations["invalid_datetime:"+pathPrefix+".start_time"] = true
					}
				}
				if state, ok := contest["state"].(string); ok && !validStates[state] {
					violations["invalid_value:"+pathPrefix+".state"] = true
				}
				if selectedContest == nil && contest["is_primary"] == true {
					selectedContest = contest
				}
			}
			if selectedContest == nil && len(contests) > 0 {
				if first, ok := asMap(contests[0]); ok {
					selectedContest = first
				}
			}
			primaryPath := fmt.Sprintf("sports.%s.primary_contest", sportKey)
			primaryContest, isMap := asMap(sportPayload["primary_contest"])
			if len(contests) > 0 && !isMap {
				violations["missing_required:"+primaryPath] = true
				continue
			}
			if isMap {
				contestKey := primaryContest["contest_key"]
				if isBlank(contestKey) {
					violations["missing_required:"+primaryPath+".contest_key"] = true
				}
				if selectedContest != nil && contestKey != selectedContest["contest_key"] {
					violations["mismatch:"+primaryPath+".contest_key"] = true
				}
			}
		}
	}

	out := make([]string, 0, len(violations))
	for violation := range violations {
		out = append(out, violation)
	}
	sort.Strings(out)
	return out
}

func walkLeaves(value any, path string, visit func(path string, value any)) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			walkLeaves(child, childPath, visit)
		}
	case []any:
		for i, child := range v {
			childPath := strconv.Itoa(i)
			if path != "" {
				childPath = path + "." + childPath
			}
			walkLeaves(child, childPath, visit)
		}
	default:
		visit(path, v)
	}
}
