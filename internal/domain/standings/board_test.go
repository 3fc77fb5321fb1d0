package standings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/platform/logging"
)

func nflConfig(t *testing.T) category.Config {
	t.Helper()
	cfg, ok := category.Lookup("NFL")
	require.True(t, ok)
	return cfg
}

func salaryRows() [][]string {
	return [][]string{
		{"Position", "NameID", "Name", "ID", "RosterPosition", "Salary", "GameInfo", "TeamAbbrev", "AvgPointsPerGame"},
		{"QB", "Josh Allen (1)", "Josh Allen", "1", "QB", "8200", "BUF@MIA 01:00PM ET", "BUF", "24.1"},
		{"RB", "Bijan Robinson (2)", "Bijan Robinson", "2", "RB/FLEX", "9000", "ATL@NO 01:00PM ET", "ATL", "21.8"},
		{"WR", "Rene Munoz (3)", "René Muñoz", "3", "WR/FLEX", "5400", "Final", "DAL", "11.2"},
		{"TE", "Sam Hill (4)", "Sam Hill", "4", "TE", "3000", "BUF@MIA 01:00PM ET", "MIA", "7.5"},
	}
}

func TestParseSalaryRowsNormalizesNames(t *testing.T) {
	pool := standings.ParseSalaryRows(salaryRows())

	player, ok := pool["Rene Munoz"]
	require.True(t, ok, "accented name should be folded")
	assert.Equal(t, 5400, player.Salary)
	assert.Equal(t, []string{"WR", "FLEX"}, player.RosterPositions)

	_, ok = pool["René Muñoz"]
	assert.False(t, ok)
}

func TestMatchupRendering(t *testing.T) {
	pool := standings.ParseSalaryRows(salaryRows())

	assert.Equal(t, "vs. MIA", pool["Josh Allen"].Matchup())
	assert.Equal(t, "at BUF", pool["Sam Hill"].Matchup())
	assert.Equal(t, "Final", pool["Rene Munoz"].Matchup())
}

func TestParseRoster(t *testing.T) {
	cfg := nflConfig(t)
	pool := standings.ParseSalaryRows(salaryRows())

	roster := standings.ParseRoster(cfg, pool,
		"FLEX Bijan Robinson QB Josh Allen WR René Muñoz TE LOCKED")
	require.Len(t, roster, 4)

	// roster order: QB, RB/WR..., TE, FLEX
	assert.Equal(t, "Josh Allen", roster[0].Name)
	assert.Equal(t, "Rene Munoz", roster[1].Name)
	assert.Equal(t, standings.LockedName, roster[2].Name)
	assert.Equal(t, "TE", roster[2].Position)

	// Bijan was drafted into FLEX, so the pool entry is cloned with the
	// reported slot while the shared competitor keeps RB.
	assert.Equal(t, "FLEX", roster[3].Position)
	assert.Equal(t, "RB", pool["Bijan Robinson"].Position)
}

func TestParseRosterDropsUnknownNames(t *testing.T) {
	cfg := nflConfig(t)
	pool := standings.ParseSalaryRows(salaryRows())

	roster := standings.ParseRoster(cfg, pool, "QB Nobody Special WR René Muñoz")
	require.Len(t, roster, 1)
	assert.Equal(t, "Rene Munoz", roster[0].Name)
}

func standingsRows() [][]string {
	return [][]string{
		{"Rank", "EntryId", "EntryName", "TimeRemaining", "Points", "Lineup", "", "Player", "Roster Position", "%Drafted", "FPTS"},
		{"1", "9001", "sharkbait", "60", "150.5", "QB Josh Allen WR René Muñoz", "", "Josh Allen", "QB", "40%", "30.1"},
		{"2", "9002", "vipfriend", "80", "120.0", "QB Josh Allen TE Sam Hill", "", "Bijan Robinson", "RB", "55%", "21.4"},
		{"3", "9003", "chalkboy", "100", "90.2", "QB Josh Allen TE Sam Hill", "", "Bijan Robinson", "FLEX", "30%", "21.4"},
		{"", "", "", "", "", "", "", "Sam Hill", "TE", "12%", "9.9"},
	}
}

func TestBoardAggregatesSplitPlayerRows(t *testing.T) {
	paid := 2
	board := standings.NewBoard(nflConfig(t), 555, &paid,
		salaryRows(), standingsRows(), []string{"vipfriend"}, logging.NewNop())

	bijan := board.Competitors["Bijan Robinson"]
	require.NotNil(t, bijan)
	// 55% + 30% across RB and FLEX rows
	assert.InDelta(t, 0.85, bijan.Ownership, 0.0001)
	assert.Equal(t, "RB/FLEX", bijan.StandingsPosition)
	assert.InDelta(t, 21.4, bijan.FantasyPoints, 0.0001)
	assert.InDelta(t, 21.4/9.0, bijan.Value, 0.0001)

	// stat-only row with blank entry columns still folds in
	sam := board.Competitors["Sam Hill"]
	require.NotNil(t, sam)
	assert.InDelta(t, 0.12, sam.Ownership, 0.0001)
	assert.InDelta(t, 9.9, sam.FantasyPoints, 0.0001)
}

func TestBoardCashLineAndNonCashing(t *testing.T) {
	paid := 2
	board := standings.NewBoard(nflConfig(t), 555, &paid,
		salaryRows(), standingsRows(), []string{"vipfriend"}, logging.NewNop())

	assert.True(t, board.HasCashLine())
	assert.Equal(t, 2, board.CashRank)
	assert.InDelta(t, 120.0, board.CashPoints, 0.0001)

	// rank 3 is outside positions_paid
	assert.Equal(t, 1, board.NonCashingUsers)
	assert.InDelta(t, 100.0, board.NonCashingTotalPMR, 0.0001)
	assert.InDelta(t, 100.0, board.NonCashingAvgPMR, 0.0001)

	top := board.TopRemainingPlayers(10)
	require.NotEmpty(t, top)
	assert.InDelta(t, 100.0, top[0].RemainingPct, 0.0001)
}

func TestBoardFindsVIPs(t *testing.T) {
	paid := 2
	board := standings.NewBoard(nflConfig(t), 555, &paid,
		salaryRows(), standingsRows(), []string{"vipfriend"}, logging.NewNop())

	require.Len(t, board.VIPs, 1)
	vip := board.VIPs[0]
	assert.Equal(t, "9002", vip.EntryKey)
	require.Len(t, vip.Lineup, 2)
	assert.Equal(t, standings.SalaryCap-8200-3000, vip.SalaryRemaining)
}

func TestBoardSkipsShortAndHeaderRows(t *testing.T) {
	paid := 1
	rows := [][]string{
		{"Rank", "EntryId", "EntryName", "TimeRemaining", "Points", "Lineup"},
		{"too", "short"},
		{"1", "1", "solo", "0", "10", ""},
	}
	board := standings.NewBoard(nflConfig(t), 1, &paid, salaryRows(), rows, nil, logging.NewNop())
	assert.Len(t, board.Entrants, 1)
}

func TestOwnershipRemainingSkipsFinalGames(t *testing.T) {
	paid := 2
	board := standings.NewBoard(nflConfig(t), 555, &paid,
		salaryRows(), standingsRows(), nil, logging.NewNop())

	// sharkbait holds Josh Allen (live, 40%) and Rene Munoz (Final).
	remaining := board.Entrants[0].OwnershipRemaining()
	require.NotNil(t, remaining)
	assert.InDelta(t, 40.0, *remaining, 0.0001)
}
