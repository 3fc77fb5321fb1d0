package category

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Config describes one sport's contest vocabulary: roster position order,
// live-contest selection criteria, and bonus announcement rules.
type Config struct {
	Name string

	// Positions is the roster slot order as exported upstream. Slots may
	// repeat ("RB", "RB", "WR", ...); ordering drives roster sorting and
	// merged-position rendering.
	Positions []string

	// MinEntryFee is the tier-0 cutoff for live contest selection.
	MinEntryFee int

	// Keyword is the contest-name LIKE pattern used during selection.
	Keyword string

	// ParseNonCashingRosters gates per-competitor ownership tallies for
	// entrants below the cash line. Only a few sports export rosters in a
	// shape worth parsing.
	ParseNonCashingRosters bool

	// Showdown marks captain-mode sports where CPT slots are tallied.
	Showdown bool

	BonusRules map[string]BonusRule
}

// CountMode selects how a bonus code's count is read from stats text.
type CountMode string

const (
	// ModeIncremental means the stats text reports a running count
	// ("3 EAG" = three so far).
	ModeIncremental CountMode = "incremental"

	// ModeBinary means presence of the token implies a single occurrence.
	ModeBinary CountMode = "binary"
)

// BonusRule maps a bonus code to its announcement metadata.
type BonusRule struct {
	Label  string
	Action string
	Points float64
	Mode   CountMode
}

var configs = map[string]Config{
	"NFL": {
		Name:                   "NFL",
		Positions:              []string{"QB", "RB", "RB", "WR", "WR", "WR", "TE", "FLEX", "DST"},
		MinEntryFee:            25,
		Keyword:                "%",
		ParseNonCashingRosters: true,
	},
	"NFLSHOWDOWN": {
		Name:                   "NFLShowdown",
		Positions:              []string{"CPT", "FLEX"},
		MinEntryFee:            25,
		Keyword:                "%",
		ParseNonCashingRosters: true,
		Showdown:               true,
	},
	"CFB": {
		Name:                   "CFB",
		Positions:              []string{"QB", "RB", "RB", "WR", "WR", "WR", "FLEX", "S-FLEX"},
		MinEntryFee:            5,
		Keyword:                "%",
		ParseNonCashingRosters: true,
	},
	"NBA": {
		Name:                   "NBA",
		Positions:              []string{"PG", "SG", "SF", "PF", "C", "G", "F", "UTIL"},
		MinEntryFee:            25,
		Keyword:                "%",
		ParseNonCashingRosters: true,
		BonusRules: map[string]BonusRule{
			"DDbl": {Label: "double-double", Action: "achieved a double-double", Points: 1.5, Mode: ModeBinary},
			"TDbl": {Label: "triple-double", Action: "achieved a triple-double", Points: 3, Mode: ModeBinary},
		},
	},
	"GOLF": {
		Name:        "GOLF",
		Positions:   []string{"G"},
		MinEntryFee: 10,
		Keyword:     "%",
		BonusRules: map[string]BonusRule{
			"EAG":   {Label: "eagle", Action: "recorded an eagle", Points: 8, Mode: ModeIncremental},
			"BOFR":  {Label: "bogey-free round", Action: "recorded a bogey-free round", Points: 3, Mode: ModeIncremental},
			"BIR3+": {Label: "birdie streak", Action: "recorded a birdie streak", Points: 3, Mode: ModeIncremental},
		},
	},
	"MLB": {
		Name:        "MLB",
		Positions:   []string{"P", "C", "1B", "2B", "3B", "SS", "OF"},
		MinEntryFee: 25,
		Keyword:     "%",
	},
	"NAS": {
		Name:        "NAS",
		Positions:   []string{"D"},
		MinEntryFee: 25,
		Keyword:     "%",
	},
	"TEN": {
		Name:        "TEN",
		Positions:   []string{"P"},
		MinEntryFee: 25,
		Keyword:     "%",
	},
	"MMA": {
		Name:        "MMA",
		Positions:   []string{"F"},
		MinEntryFee: 25,
		Keyword:     "%",
	},
	"LOL": {
		Name:        "LOL",
		Positions:   []string{"CPT", "TOP", "JNG", "MID", "ADC", "SUP", "TEAM"},
		MinEntryFee: 25,
		Keyword:     "%",
	},
}

// Lookup resolves a sport tag case-insensitively.
func Lookup(name string) (Config, bool) {
	cfg, ok := configs[strings.ToUpper(strings.TrimSpace(name))]
	return cfg, ok
}

// SetOverrides replaces per-sport selection criteria from deploy
// configuration. Unknown sport tags are ignored. Call once during
// wiring, before any lookups race.
func SetOverrides(minEntryFee map[string]int, keyword map[string]string) {
	for sport, fee := range minEntryFee {
		key := strings.ToUpper(strings.TrimSpace(sport))
		if cfg, ok := configs[key]; ok && fee >= 0 {
			cfg.MinEntryFee = fee
			configs[key] = cfg
		}
	}
	for sport, pattern := range keyword {
		key := strings.ToUpper(strings.TrimSpace(sport))
		if cfg, ok := configs[key]; ok && strings.TrimSpace(pattern) != "" {
			cfg.Keyword = pattern
			configs[key] = cfg
		}
	}
}

// Names returns all configured sport names, sorted.
func Names() []string {
	out := make([]string, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, cfg.Name)
	}
	sort.Strings(out)
	return out
}

// OrderedPositions returns the position vocabulary with duplicates removed,
// preserving roster order.
func (c Config) OrderedPositions() []string {
	seen := make(map[string]struct{}, len(c.Positions))
	out := make([]string, 0, len(c.Positions))
	for _, pos := range c.Positions {
		if _, ok := seen[pos]; ok {
			continue
		}
		seen[pos] = struct{}{}
		out = append(out, pos)
	}
	return out
}

// PositionRank returns the sort rank for a position. Unknown positions sort
// after every known one.
func (c Config) PositionRank(pos string) int {
	for i, p := range c.OrderedPositions() {
		if p == pos {
			return i
		}
	}
	return len(c.Positions)
}

// MergePositions renders a set of reported positions as a slash-joined string
// sorted by this sport's roster order. Empty input falls back to the given
// default.
func (c Config) MergePositions(positions map[string]struct{}, fallback string) string {
	if len(positions) == 0 {
		return fallback
	}
	merged := make([]string, 0, len(positions))
	for pos := range positions {
		merged = append(merged, pos)
	}
	sort.Slice(merged, func(i, j int) bool {
		ri, rj := c.PositionRank(merged[i]), c.PositionRank(merged[j])
		if ri != rj {
			return ri < rj
		}
		return merged[i] < merged[j]
	})
	return strings.Join(merged, "/")
}

// Rule returns the bonus rule for a code, falling back to a generic
// incremental zero-point rule for codes the table does not know.
func (c Config) Rule(code string) BonusRule {
	if rule, ok := c.BonusRules[code]; ok {
		return rule
	}
	return BonusRule{
		Label:  code,
		Action: "recorded a " + code,
		Points: 0,
		Mode:   ModeIncremental,
	}
}

// BonusCounts extracts bonus-code counts from an upstream stats string.
// Incremental codes take the maximum reported running count; binary codes
// yield 1 when the token is present.
func (c Config) BonusCounts(stats string) map[string]int {
	if len(c.BonusRules) == 0 || strings.TrimSpace(stats) == "" {
		return nil
	}

	counts := make(map[string]int)
	for code, rule := range c.BonusRules {
		switch rule.Mode {
		case ModeBinary:
			if tokenPresent(stats, code) {
				counts[code] = 1
			}
		default:
			if n := maxIncrementalCount(stats, code); n > 0 {
				if n > counts[code] {
					counts[code] = n
				}
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

type patternCache struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func (pc *patternCache) get(code string, build func() *regexp.Regexp) *regexp.Regexp {
	pc.mu.RLock()
	re, ok := pc.patterns[code]
	pc.mu.RUnlock()
	if ok {
		return re
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if re, ok = pc.patterns[code]; ok {
		return re
	}
	re = build()
	pc.patterns[code] = re
	return re
}

var incrementalPatterns = patternCache{patterns: map[string]*regexp.Regexp{}}
var binaryPatterns = patternCache{patterns: map[string]*regexp.Regexp{}}

// maxIncrementalCount finds every "<n> <code>" occurrence and returns the
// largest n. Codes may contain regex metacharacters ("BIR3+"), so boundaries
// are checked manually instead of with \b.
func maxIncrementalCount(stats, code string) int {
	re := incrementalPatterns.get(code, func() *regexp.Regexp {
		return regexp.MustCompile(`(\d+)\s*(` + regexp.QuoteMeta(code) + `)`)
	})

	best := 0
	for _, m := range re.FindAllStringSubmatchIndex(stats, -1) {
		if !cleanBoundaries(stats, m[0], m[1]) {
			continue
		}
		n := parseCount(stats[m[2]:m[3]])
		if n > best {
			best = n
		}
	}
	return best
}

func tokenPresent(stats, code string) bool {
	re := binaryPatterns.get(code, func() *regexp.Regexp {
		return regexp.MustCompile(regexp.QuoteMeta(code))
	})
	for _, m := range re.FindAllStringIndex(stats, -1) {
		if cleanBoundaries(stats, m[0], m[1]) {
			return true
		}
	}
	return false
}

// cleanBoundaries reports whether the match at [start,end) is not embedded in
// a longer word or number.
func cleanBoundaries(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func parseCount(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1<<20 {
			return 0
		}
	}
	return n
}
