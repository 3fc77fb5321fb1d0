package contract

import "strings"

// Contest lifecycle states accepted by the canonical contract.
const (
	StateUpcoming  = "upcoming"
	StateLive      = "live"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
)

var validStates = map[string]bool{
	StateUpcoming:  true,
	StateLive:      true,
	StateCompleted: true,
	StateCancelled: true,
}

func normalizeStatusText(value any) string {
	text := strings.ToLower(strings.TrimSpace(asString(value)))
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func statusBucket(value any) string {
	normalized := normalizeStatusText(value)
	if normalized == "" {
		return "unknown"
	}
	if strings.HasPrefix(normalized, "final") {
		return "terminal"
	}
	switch normalized {
	case "complete", "completed", "closed", "canceled", "cancelled", "postponed", "suspended":
		return "terminal"
	case "scheduled", "in progress", "live", "pregame", "halftime":
		return "active"
	}
	return "unknown"
}

// NormalizeContestState maps the many upstream status spellings onto
// the canonical state set. A completed flag wins over the status text.
func NormalizeContestState(rawState any, completed any) *string {
	switch completed {
	case 1, int64(1), true, "1", "true", "True":
		return statePtr(StateCompleted)
	}
	text := normalizeStatusText(rawState)
	if text == "" {
		return nil
	}
	switch text {
	case "scheduled", "upcoming", "pregame", "pre-game", "not started":
		return statePtr(StateUpcoming)
	case "live", "in progress", "in-progress", "started":
		return statePtr(StateLive)
	case "complete", "completed", "closed", "final":
		return statePtr(StateCompleted)
	case "canceled", "cancelled", "postponed", "suspended":
		return statePtr(StateCancelled)
	}
	return nil
}

func statePtr(state string) *string {
	return &state
}
