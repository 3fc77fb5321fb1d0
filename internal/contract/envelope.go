package contract

import (
	"strings"
	"time"
)

// SchemaVersion of the dashboard bundle envelope.
const SchemaVersion = 2

// BuildEnvelope wraps per-sport snapshots into the dashboard bundle.
// Sports whose collection failed are carried as error payloads keyed
// by the failure message. Sport keys are lowercased; sorted output
// comes from stable marshaling.
func BuildEnvelope(sports map[string]*Snapshot, failures map[string]string, now time.Time) (map[string]any, error) {
	generatedAt := UTCISOTime(now)
	outputSports := map[string]any{}
	for sport, snapshot := range sports {
		sportSnapshot, err := BuildSportSnapshot(snapshot, generatedAt)
		if err != nil {
			return nil, err
		}
		outputSports[strings.ToLower(sport)] = sportSnapshot
	}
	for sport, message := range failures {
		outputSports[strings.ToLower(sport)] = ErrorSportSnapshot(message, generatedAt)
	}
	return map[string]any{
		"schema_version": SchemaVersion,
		"snapshot_at":    generatedAt,
		"generated_at":   generatedAt,
		"sports":         outputSports,
	}, nil
}

// ErrorSportSnapshot is the contract shape for a sport whose snapshot
// could not be collected this cycle.
func ErrorSportSnapshot(message, updatedAt string) map[string]any {
	return map[string]any{
		"status":     "error",
		"updated_at": updatedAt,
		"players":    []any{},
		"contests":   []any{},
		"error":      message,
	}
}

// IsEnvelope reports whether a payload looks like a dashboard bundle
// rather than a raw per-sport snapshot.
func IsEnvelope(payload any) bool {
	root, ok := asMap(payload)
	if !ok {
		return false
	}
	for _, key := range []string{"contest", "selection", "vip_lineups", "standings", "cash_line"} {
		if _, ok := root[key]; ok {
			return false
		}
	}
	sports, ok := asMap(root["sports"])
	if !ok {
		return false
	}
	for _, rawSport := range sports {
		sport, ok := asMap(rawSport)
		if !ok {
			return false
		}
		if _, ok := asList(sport["contests"]); !ok {
			return false
		}
		if _, ok := asList(sport["players"]); !ok {
			return false
		}
	}
	return true
}
