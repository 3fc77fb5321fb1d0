package standings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/platform/logging"
)

// rosterSports are the sports whose non-cashing lineups are worth parsing.
var rosterSports = map[string]struct{}{
	"NFL":         {},
	"NFLShowdown": {},
	"CFB":         {},
	"NBA":         {},
}

// Board aggregates one contest's standings export against its salary pool.
type Board struct {
	Sport         category.Config
	ContestID     int64
	PositionsPaid *int

	Competitors map[string]*Competitor
	Entrants    []*Entrant
	VIPs        []*Entrant

	// CashRank and CashPoints track the paid rank with the lowest points
	// seen so far; CashRank of 0 means no cash line was established.
	CashRank   int
	CashPoints float64

	NonCashingUsers    int
	NonCashingTotalPMR float64
	NonCashingAvgPMR   float64
	NonCashingPlayers  map[string]int

	ShowdownCaptains map[string]int

	logger *logging.Logger
}

type playerAgg struct {
	ownershipPctSum float64
	positions       map[string]struct{}
	fpts            float64
	rowCount        int
}

// NewBoard parses salary and standings rows into an aggregated board.
// vips is matched against entrant display names; matched entries get their
// rosters parsed regardless of sport.
func NewBoard(
	cfg category.Config,
	contestID int64,
	positionsPaid *int,
	salaryRows [][]string,
	standingsRows [][]string,
	vips []string,
	logger *logging.Logger,
) *Board {
	if logger == nil {
		logger = logging.Default()
	}

	b := &Board{
		Sport:             cfg,
		ContestID:         contestID,
		PositionsPaid:     positionsPaid,
		Competitors:       ParseSalaryRows(salaryRows),
		CashPoints:        1000.0,
		NonCashingPlayers: map[string]int{},
		ShowdownCaptains:  map[string]int{},
		logger:            logger,
	}

	b.parseStandingsRows(standingsRows, vips)

	for _, vip := range b.VIPs {
		vip.SetLineup(ParseRoster(cfg, b.Competitors, vip.LineupRaw))
	}

	return b
}

func (b *Board) parseStandingsRows(rows [][]string, vips []string) {
	vipSet := make(map[string]struct{}, len(vips))
	for _, vip := range vips {
		vipSet[vip] = struct{}{}
	}

	aggregated := make(map[string]*playerAgg)

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 6 {
			continue
		}
		if coreBlank(row[:6]) {
			// Standings exports append player-stat rows with blank entry
			// columns once a slate locks.
			b.accumulatePlayerStats(row, aggregated)
			continue
		}

		rawRank, entryKey, name, rawPMR, rawPoints, lineupRaw :=
			row[0], row[1], row[2], row[3], row[4], row[5]

		entrant := &Entrant{
			RawRank:   rawRank,
			EntryKey:  entryKey,
			Name:      name,
			RawPMR:    rawPMR,
			LineupRaw: lineupRaw,
		}
		if rank, err := strconv.Atoi(strings.TrimSpace(rawRank)); err == nil {
			entrant.Rank = &rank
		}
		if pmr, err := strconv.ParseFloat(strings.TrimSpace(rawPMR), 64); err == nil {
			entrant.PMR = &pmr
		}
		if pts, err := strconv.ParseFloat(strings.TrimSpace(rawPoints), 64); err == nil {
			entrant.Points = &pts
		}

		entrant.SetLineup(ParseRoster(b.Sport, b.Competitors, lineupRaw))
		b.Entrants = append(b.Entrants, entrant)

		if _, ok := vipSet[name]; ok {
			b.logger.Info("found VIP", "name", name, "contest_id", b.ContestID)
			b.VIPs = append(b.VIPs, entrant)
		}

		b.trackCashLine(entrant)
		b.accumulatePlayerStats(row, aggregated)
	}

	b.applyAggregatedPlayerStats(aggregated)

	if b.NonCashingUsers > 0 && b.NonCashingTotalPMR > 0 {
		b.NonCashingAvgPMR = b.NonCashingTotalPMR / float64(b.NonCashingUsers)
	}
}

func (b *Board) trackCashLine(entrant *Entrant) {
	if b.PositionsPaid == nil || entrant.Rank == nil || entrant.Points == nil {
		return
	}

	if *b.PositionsPaid >= *entrant.Rank && b.CashPoints > *entrant.Points {
		b.CashRank = *entrant.Rank
		b.CashPoints = *entrant.Points
		return
	}

	if entrant.PMR != nil {
		b.NonCashingTotalPMR += *entrant.PMR
	}

	if _, ok := rosterSports[b.Sport.Name]; !ok {
		return
	}

	for _, player := range entrant.Lineup {
		if player.Position == "CPT" {
			b.ShowdownCaptains[player.Name]++
		}
		if player.GameInfo == "Final" {
			continue
		}
		b.NonCashingPlayers[player.Name]++
	}
	b.NonCashingUsers++
}

func (b *Board) accumulatePlayerStats(row []string, aggregated map[string]*playerAgg) {
	if len(row) < 10 {
		return
	}

	rawName := strings.TrimSpace(row[7])
	rawPos := strings.TrimSpace(row[8])
	rawOwnership := strings.TrimSpace(row[9])
	rawFpts := ""
	if len(row) > 10 {
		rawFpts = strings.TrimSpace(row[10])
	}
	if rawName == "" || rawOwnership == "" {
		return
	}

	ownershipPct, err := strconv.ParseFloat(strings.TrimSuffix(rawOwnership, "%"), 64)
	if err != nil {
		return
	}
	fpts := 0.0
	if rawFpts != "" {
		if parsed, err := strconv.ParseFloat(rawFpts, 64); err == nil {
			fpts = parsed
		}
	}

	name := NormalizeName(rawName)
	agg, ok := aggregated[name]
	if !ok {
		agg = &playerAgg{positions: map[string]struct{}{}}
		aggregated[name] = agg
	}
	agg.ownershipPctSum += ownershipPct
	if rawPos != "" {
		agg.positions[rawPos] = struct{}{}
	}
	if fpts > agg.fpts {
		agg.fpts = fpts
	}
	agg.rowCount++
}

func (b *Board) applyAggregatedPlayerStats(aggregated map[string]*playerAgg) {
	for name, agg := range aggregated {
		player, ok := b.Competitors[name]
		if !ok {
			b.logger.Error("standings player missing from salary pool", "name", name)
			continue
		}

		merged := b.Sport.MergePositions(agg.positions, player.Position)
		player.StandingsPosition = merged
		player.Ownership = agg.ownershipPctSum / 100
		player.FantasyPoints = agg.fpts

		if player.FantasyPoints > 0 && player.Salary > 0 {
			player.Value = player.FantasyPoints / (float64(player.Salary) / 1000)
		} else {
			player.Value = 0
		}
		player.MatchupInfo = player.Matchup()

		if agg.ownershipPctSum > 100 {
			b.logger.Warn("ownership exceeds 100%",
				"name", name,
				"ownership_pct", agg.ownershipPctSum,
				"rows", agg.rowCount,
				"positions", merged,
			)
		}
	}
}

// HasCashLine reports whether any paid rank was observed.
func (b *Board) HasCashLine() bool {
	return b.CashRank > 0
}

// TopRemainingPlayers ranks non-cashing lineup players by the share of
// non-cashing entries still holding them.
func (b *Board) TopRemainingPlayers(limit int) []RemainingPlayer {
	if b.NonCashingUsers == 0 {
		return nil
	}
	out := make([]RemainingPlayer, 0, len(b.NonCashingPlayers))
	for name, count := range b.NonCashingPlayers {
		out = append(out, RemainingPlayer{
			Name:         name,
			RemainingPct: float64(count) / float64(b.NonCashingUsers) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RemainingPct != out[j].RemainingPct {
			return out[i].RemainingPct > out[j].RemainingPct
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RemainingPlayer is a non-cashing field exposure entry.
type RemainingPlayer struct {
	Name         string
	RemainingPct float64
}

func coreBlank(cols []string) bool {
	for _, col := range cols {
		if strings.TrimSpace(col) != "" {
			return false
		}
	}
	return true
}
