package contract

import (
	"strings"
	"sync"
	"time"
)

const utcSecondLayout = "2006-01-02T15:04:05Z"

var (
	naiveMu       sync.RWMutex
	naiveLocation = loadDefaultLocation()
)

func loadDefaultLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// SetNaiveLocation sets the zone assumed for timestamps that carry no
// offset. Upstream feeds report Eastern wall-clock times by default.
func SetNaiveLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	naiveMu.Lock()
	naiveLocation = loc
	naiveMu.Unlock()
}

func assumedLocation() *time.Location {
	naiveMu.RLock()
	defer naiveMu.RUnlock()
	return naiveLocation
}

// UTCISOTime renders a timestamp as UTC seconds precision with a Z
// suffix, e.g. 2026-01-11T18:00:00Z.
func UTCISOTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(utcSecondLayout)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
}

// ParseUTCISO parses an ISO-8601 string, assuming the configured naive
// zone when no offset is present, and returns the canonical UTC form.
// The second return reports whether parsing succeeded.
func ParseUTCISO(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	text = strings.Replace(text, "Z", "+00:00", 1)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return UTCISOTime(t), true
		}
	}
	loc := assumedLocation()
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return UTCISOTime(t), true
		}
	}
	return "", false
}

// utcISOAny canonicalizes either a time.Time or an ISO string value.
func utcISOAny(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		out := UTCISOTime(v)
		return &out
	case string:
		out, ok := ParseUTCISO(v)
		if !ok {
			return nil
		}
		return &out
	}
	return nil
}
