package contract

import (
	"math"
	"strconv"
	"strings"
)

// DollarsToCentsHalfUp converts a dollar amount, possibly formatted
// with currency symbols and thousands separators, to integer cents.
// Sub-cent fractions round half up.
func DollarsToCentsHalfUp(value any) *int {
	if value == nil {
		return nil
	}
	var text string
	switch v := value.(type) {
	case string:
		text = v
	default:
		if !isNumber(v) {
			return nil
		}
		text = strconv.FormatFloat(floatValue(v), 'f', -1, 64)
	}
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "$", "")
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return nil
	}
	neg := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(strings.TrimPrefix(text, "-"), "+")
	intPart, fracPart, _ := strings.Cut(text, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return nil
	}
	dollars, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return nil
	}
	for len(fracPart) < 3 {
		fracPart += "0"
	}
	cents := dollars*100 + int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	if fracPart[2] >= '5' {
		cents++
	}
	if neg {
		cents = -cents
	}
	out := int(cents)
	return &out
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// moneyToCents is the lenient variant for contest detail fields where
// whole numbers already mean dollars.
func moneyToCents(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		n := v * 100
		return &n
	case int64:
		n := int(v) * 100
		return &n
	case float64:
		n := int(math.Round(v * 100))
		return &n
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		text = strings.ReplaceAll(text, "$", "")
		text = strings.ReplaceAll(text, ",", "")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		n := int(math.Round(f * 100))
		return &n
	}
	return nil
}

// LeaderboardPayoutMap extracts realized cash payouts per entry key
// from a leaderboard payload. Rows expose either a single
// winningValue or an itemized winnings list whose cash components are
// summed.
func LeaderboardPayoutMap(payload map[string]any) map[string]int {
	out := map[string]int{}
	rows, ok := asList(payload["leaderBoard"])
	if !ok {
		return out
	}
	for _, raw := range rows {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		entryKey := row["entryKey"]
		if isBlank(entryKey) {
			continue
		}
		cents := leaderboardRowPayoutCents(row)
		if cents == nil {
			continue
		}
		out[asString(entryKey)] = *cents
	}
	return out
}

func leaderboardRowPayoutCents(row map[string]any) *int {
	if cents := DollarsToCentsHalfUp(row["winningValue"]); cents != nil {
		return cents
	}
	winnings, ok := asList(row["winnings"])
	if !ok {
		return nil
	}
	total := 0
	foundCash := false
	for _, raw := range winnings {
		item, ok := asMap(raw)
		if !ok {
			continue
		}
		description := strings.ToLower(strings.TrimSpace(asString(item["description"])))
		if !strings.Contains(description, "cash") {
			continue
		}
		cents := DollarsToCentsHalfUp(item["value"])
		if cents == nil {
			continue
		}
		foundCash = true
		total += *cents
	}
	if !foundCash {
		return nil
	}
	return &total
}
