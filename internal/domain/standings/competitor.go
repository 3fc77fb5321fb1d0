package standings

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Competitor is an athlete drawn from the salary export, enriched with
// ownership and scoring data from contest standings.
type Competitor struct {
	Name            string
	Position        string
	RosterPositions []string
	Salary          int
	GameInfo        string
	Team            string

	// StandingsPosition is the slash-merged position string as reported in
	// standings rows, falling back to the salary-file position.
	StandingsPosition string

	// Ownership is a fraction in [0,1]; standings report percent.
	Ownership     float64
	FantasyPoints float64
	Value         float64
	MatchupInfo   string
}

// NormalizeName strips accents so salary and standings names line up.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, name)
	if err != nil {
		return name
	}
	return out
}

var plainStatuses = map[string]struct{}{
	"In Progress": {},
	"Final":       {},
	"Postponed":   {},
	"UNKNOWN":     {},
	"Suspended":   {},
	"Delayed":     {},
}

// Matchup renders "vs. X" or "at Y" from the raw game info, passing through
// status strings and formats without a home@away pair.
func (c *Competitor) Matchup() string {
	if !strings.Contains(c.GameInfo, "@") {
		return c.GameInfo
	}
	if _, ok := plainStatuses[c.GameInfo]; ok {
		return c.GameInfo
	}

	homeTeam, rest, _ := strings.Cut(c.GameInfo, "@")
	awayTeam, _, _ := strings.Cut(rest, " ")
	if c.Team == homeTeam {
		return "vs. " + awayTeam
	}
	return "at " + homeTeam
}

// ParseSalaryRows builds the competitor pool from salary export rows. The
// first row is a header and is discarded.
func ParseSalaryRows(rows [][]string) map[string]*Competitor {
	pool := make(map[string]*Competitor)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 8 {
			continue
		}

		// pos, _, name, _, roster_pos, salary, game_info, team
		name := NormalizeName(row[2])
		salary, err := strconv.Atoi(strings.TrimSpace(row[5]))
		if err != nil {
			salary = 0
		}

		var rosterPositions []string
		if raw := strings.TrimSpace(row[4]); raw != "" {
			rosterPositions = strings.Split(raw, "/")
		}

		pool[name] = &Competitor{
			Name:            name,
			Position:        row[0],
			RosterPositions: rosterPositions,
			Salary:          salary,
			GameInfo:        row[6],
			Team:            row[7],
		}
	}
	return pool
}
