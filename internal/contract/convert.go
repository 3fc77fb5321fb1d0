package contract

import (
	"strconv"
	"strings"
)

func asMap(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

func asList(value any) ([]any, bool) {
	l, ok := value.([]any)
	return l, ok
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

func isInt(value any) bool {
	switch value.(type) {
	case int, int64:
		return true
	}
	return false
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// toFloat coerces numbers and numeric strings. Nil and empty strings
// coerce to nothing.
func toFloat(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case float64:
		f := v
		return &f
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func toInt(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		n := v
		return &n
	case int64:
		n := int(v)
		return &n
	case float64:
		if v != float64(int64(v)) {
			return nil
		}
		n := int(v)
		return &n
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

// toIntFlexible additionally strips currency formatting and truncates
// fractional values.
func toIntFlexible(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		n := v
		return &n
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
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
		n := int(f)
		return &n
	}
	return nil
}

// toPercent treats values in [0, 1] as fractions and scales them to
// percentage points. Trailing percent signs on strings are accepted.
func toPercent(value any) *float64 {
	var numeric *float64
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
		numeric = toFloat(text)
	default:
		numeric = toFloat(value)
	}
	if numeric == nil {
		return nil
	}
	if *numeric >= 0 && *numeric <= 1 {
		scaled := *numeric * 100
		return &scaled
	}
	return numeric
}

// rankNumeric parses plain integer ranks and tied ranks such as "T12".
func rankNumeric(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		n := v
		return &n
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		if n, err := strconv.Atoi(text); err == nil {
			return &n
		}
		upper := strings.ToUpper(text)
		if strings.HasPrefix(upper, "T") {
			if n, err := strconv.Atoi(upper[1:]); err == nil {
				return &n
			}
		}
	}
	return nil
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
