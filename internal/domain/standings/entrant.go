package standings

import (
	"sort"
	"strings"

	"github.com/relomy/dk-results/internal/domain/category"
)

// SalaryCap is the budget every entry starts from.
const SalaryCap = 50000

// LockedName marks a roster slot whose player has not revealed yet.
const LockedName = "LOCKED 🔒"

// Entrant is one contest entry from the standings export.
type Entrant struct {
	RawRank  string
	Rank     *int
	EntryKey string
	Name     string
	RawPMR   string
	PMR      *float64
	Points   *float64

	LineupRaw string
	Lineup    []*Competitor

	// SalaryRemaining is the cap minus the parsed lineup's spend.
	SalaryRemaining int
}

// SetLineup attaches a parsed roster and recomputes remaining salary.
func (e *Entrant) SetLineup(lineup []*Competitor) {
	e.Lineup = lineup
	e.SalaryRemaining = SalaryCap
	for _, player := range lineup {
		e.SalaryRemaining -= player.Salary
	}
}

// LineupSignature joins the lineup's player names for cluster identity.
func (e *Entrant) LineupSignature() string {
	if len(e.Lineup) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Lineup))
	for _, player := range e.Lineup {
		names = append(names, strings.TrimSpace(player.Name))
	}
	return strings.Join(names, "|")
}

// OwnershipRemaining sums lineup ownership (as percent) over players whose
// games are not final. Returns nil when no lineup is attached.
func (e *Entrant) OwnershipRemaining() *float64 {
	if len(e.Lineup) == 0 {
		return nil
	}
	total := 0.0
	for _, player := range e.Lineup {
		if player.GameInfo == "Final" {
			continue
		}
		total += player.Ownership * 100
	}
	return &total
}

// ParseRoster splits a raw lineup string on the sport's position tokens and
// resolves each name against the competitor pool. Locked slots become a
// sentinel competitor; a pool hit reported under a different slot (FLEX and
// friends) is cloned so the slot shows on the entry without mutating the
// shared competitor. Names missing from the pool are dropped.
func ParseRoster(cfg category.Config, pool map[string]*Competitor, raw string) []*Competitor {
	tokens := strings.Split(raw, " ")

	known := make(map[string]struct{}, len(cfg.Positions))
	for _, pos := range cfg.Positions {
		known[pos] = struct{}{}
	}

	var starts []int
	for i, token := range tokens {
		if _, ok := known[token]; ok {
			starts = append(starts, i)
		}
	}

	out := make([]*Competitor, 0, len(starts))
	for i, start := range starts {
		end := len(tokens)
		if i+1 < len(starts) {
			end = starts[i+1]
		}

		position := tokens[start]
		nameTokens := tokens[start+1 : end]

		if containsLocked(nameTokens) {
			out = append(out, &Competitor{Name: LockedName, Position: position})
			continue
		}

		name := NormalizeName(strings.Join(nameTokens, " "))
		player, ok := pool[name]
		if !ok {
			continue
		}
		if player.Position != position {
			clone := *player
			clone.Position = position
			out = append(out, &clone)
			continue
		}
		out = append(out, player)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := cfg.PositionRank(out[i].Position), cfg.PositionRank(out[j].Position)
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func containsLocked(tokens []string) bool {
	for _, token := range tokens {
		if token == "LOCKED" {
			return true
		}
	}
	return false
}
