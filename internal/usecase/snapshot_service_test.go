package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/infrastructure/repository/memory"
	"github.com/relomy/dk-results/internal/platform/logging"
)

func golfSalaryRows() [][]string {
	return [][]string{
		{"Position", "NameID", "Name", "ID", "RosterPosition", "Salary", "GameInfo", "Team"},
		{"G", "", "Scottie Scheffler", "", "G", "10900", "In Progress", ""},
		{"G", "", "Ludvig Aberg", "", "G", "9800", "In Progress", ""},
		{"G", "", "Max Homa", "", "G", "8000", "In Progress", ""},
	}
}

func golfStandingsRows() [][]string {
	return [][]string{
		{"Rank", "EntryId", "EntryName", "TimeRemaining", "Points", "Lineup", "", "Player", "RosterPosition", "%Drafted", "FPTS"},
		{"1", "4509000001", "sharkbait", "45", "112.5", "G Scottie Scheffler G Ludvig Aberg", "", "Scottie Scheffler", "G", "35.5%", "60.1"},
		{"2", "4509000002", "traincar1", "30", "98.0", "G Scottie Scheffler G Max Homa", "", "Ludvig Aberg", "G", "20%", "48.2"},
		{"3", "4509000003", "traincar2", "30", "98.0", "G Scottie Scheffler G Max Homa", "", "Max Homa", "G", "15%", "30.0"},
	}
}

func golfContest(now time.Time) contest.Contest {
	paid := 2
	prizePool := 50000
	return contest.Contest{
		ID:            555,
		Sport:         "GOLF",
		Name:          "PGA $50K Drive the Green",
		StartTime:     now.Add(-3 * time.Hour),
		DraftGroup:    999,
		PositionsPaid: &paid,
		EntryFee:      25,
		Entries:       10000,
		PrizePool:     &prizePool,
		State:         contest.StateLive,
	}
}

func newSnapshotFixture(t *testing.T, source *stubDataSource, standingsLimit int) (*SnapshotService, time.Time) {
	t.Helper()
	now := time.Date(2026, 7, 12, 21, 30, 0, 0, time.UTC)
	repo := memory.NewContestRepository([]contest.Contest{golfContest(now)})
	selector := NewSelectorService(repo, source, 5, logging.NewNop())
	selector.now = func() time.Time { return now }
	svc := NewSnapshotService(selector, source, []string{"sharkbait"}, standingsLimit, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc, now
}

func TestSnapshotService_Export_FullAssembly(t *testing.T) {
	source := &stubDataSource{
		salaryRows:    golfSalaryRows(),
		standingsRows: golfStandingsRows(),
		payouts:       map[string]int{"4509000001": 11256},
		lineups: []standings.VIPLineup{
			{
				User:     "sharkbait",
				EntryKey: "4509000001",
				Players: []standings.VIPPlayer{
					{Slot: "G", Name: "Scottie Scheffler", Ownership: 0.355, StatsText: "2 EAG"},
				},
			},
		},
	}
	svc, _ := newSnapshotFixture(t, source, DefaultStandingsLimit)

	snapshot, err := svc.Export(t.Context(), mustConfig(t, "GOLF"), nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if snapshot.Contest.ContestID == nil || *snapshot.Contest.ContestID != 555 {
		t.Fatalf("unexpected contest id: %v", snapshot.Contest.ContestID)
	}
	if snapshot.Contest.State == nil || *snapshot.Contest.State != "live" {
		t.Fatalf("unexpected state: %v", snapshot.Contest.State)
	}
	if snapshot.Contest.StartTimeUTC == nil || *snapshot.Contest.StartTimeUTC != "2026-07-12T18:30:00Z" {
		t.Fatalf("unexpected start time: %v", snapshot.Contest.StartTimeUTC)
	}
	if snapshot.GeneratedAtUTC == nil || *snapshot.GeneratedAtUTC != "2026-07-12T21:30:00Z" {
		t.Fatalf("unexpected generated at: %v", snapshot.GeneratedAtUTC)
	}
	if len(snapshot.Candidates) != 1 || snapshot.Candidates[0].ContestID != "555" {
		t.Fatalf("unexpected candidates: %+v", snapshot.Candidates)
	}

	if len(snapshot.Standings) != 3 {
		t.Fatalf("unexpected standings count: %d", len(snapshot.Standings))
	}
	first := snapshot.Standings[0]
	if first.Rank != 1 || first.Username != "sharkbait" || !first.IsVIP {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.PayoutCents == nil || *first.PayoutCents != 11256 || !first.IsCashing {
		t.Fatalf("payout not applied: %+v", first)
	}
	// No payout row at the cash line cashes on the points comparison.
	third := snapshot.Standings[2]
	if third.PayoutCents != nil || !third.IsCashing {
		t.Fatalf("unexpected third row: %+v", third)
	}
	if first.OwnershipRemainingTotalPct == nil || *first.OwnershipRemainingTotalPct != 55.5 {
		t.Fatalf("unexpected ownership remaining: %v", first.OwnershipRemainingTotalPct)
	}

	if snapshot.CashLine.Rank == nil || *snapshot.CashLine.Rank != 2 {
		t.Fatalf("unexpected cash rank: %v", snapshot.CashLine.Rank)
	}
	if snapshot.CashLine.Points == nil || *snapshot.CashLine.Points != 98.0 {
		t.Fatalf("unexpected cash points: %v", snapshot.CashLine.Points)
	}
	if snapshot.CashLine.DeltaToCash == nil || *snapshot.CashLine.DeltaToCash != 0 {
		t.Fatalf("unexpected delta to cash: %v", snapshot.CashLine.DeltaToCash)
	}

	if len(snapshot.TrainClusters) != 1 {
		t.Fatalf("unexpected train clusters: %+v", snapshot.TrainClusters)
	}
	train := snapshot.TrainClusters[0]
	if train.UserCount != 2 || len(train.EntryKeys) != 2 {
		t.Fatalf("unexpected train: %+v", train)
	}
	if train.EntryKeys[0] != "4509000002" || train.EntryKeys[1] != "4509000003" {
		t.Fatalf("unexpected train entry keys: %v", train.EntryKeys)
	}
	if train.Rank == nil || *train.Rank != 2 {
		t.Fatalf("unexpected train rank: %v", train.Rank)
	}

	if len(snapshot.Players) != 3 {
		t.Fatalf("unexpected player count: %d", len(snapshot.Players))
	}
	if snapshot.Players[0].Name != "Ludvig Aberg" {
		t.Fatalf("players not sorted by name: %s", snapshot.Players[0].Name)
	}
	for _, player := range snapshot.Players {
		if player.OwnershipPct <= 0 || player.FantasyPoints == nil || player.Value <= 0 {
			t.Fatalf("player stats not merged: %+v", player)
		}
	}

	if len(snapshot.VIPLineups) != 1 {
		t.Fatalf("unexpected vip lineups: %+v", snapshot.VIPLineups)
	}
	vip := snapshot.VIPLineups[0]
	if vip.DisplayName != "sharkbait" || len(vip.Players) != 1 {
		t.Fatalf("unexpected vip lineup: %+v", vip)
	}
	if vip.Players[0].OwnershipPct == nil || *vip.Players[0].OwnershipPct != 35.5 {
		t.Fatalf("vip ownership not in percent: %v", vip.Players[0].OwnershipPct)
	}

	// The VIP lineup fetch is fed the board's entry context and salaries.
	entry, ok := source.vipEntries["sharkbait"]
	if !ok || entry.EntryKey != "4509000001" {
		t.Fatalf("vip entry context missing: %+v", source.vipEntries)
	}
	if entry.Rank == nil || *entry.Rank != 1 || entry.Points == nil || *entry.Points != 112.5 {
		t.Fatalf("unexpected vip entry context: %+v", entry)
	}
	if source.vipSalaries["Scottie Scheffler"] != 10900 {
		t.Fatalf("salary context missing: %v", source.vipSalaries)
	}

	if snapshot.Truncation.Applied || snapshot.Truncation.TotalRowsBefore != 3 {
		t.Fatalf("unexpected truncation: %+v", snapshot.Truncation)
	}
	if len(snapshot.Metadata.MissingFields) == 0 {
		t.Fatalf("expected audited null leaves, got none")
	}
}

func TestSnapshotService_Export_TruncatesStandings(t *testing.T) {
	source := &stubDataSource{
		salaryRows:    golfSalaryRows(),
		standingsRows: golfStandingsRows(),
	}
	svc, _ := newSnapshotFixture(t, source, 2)

	snapshot, err := svc.Export(t.Context(), mustConfig(t, "GOLF"), nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if !snapshot.Truncation.Applied {
		t.Fatalf("truncation not applied: %+v", snapshot.Truncation)
	}
	if snapshot.Truncation.Limit == nil || *snapshot.Truncation.Limit != 2 {
		t.Fatalf("unexpected limit: %v", snapshot.Truncation.Limit)
	}
	if snapshot.Truncation.TotalRowsBefore != 3 || snapshot.Truncation.TotalRowsAfter != 2 {
		t.Fatalf("unexpected truncation counts: %+v", snapshot.Truncation)
	}
	if len(snapshot.Standings) != 2 {
		t.Fatalf("standings not truncated: %d", len(snapshot.Standings))
	}
}

func TestSnapshotService_Export_EmptyStandingsFails(t *testing.T) {
	source := &stubDataSource{
		salaryRows:    golfSalaryRows(),
		standingsRows: nil,
	}
	svc, _ := newSnapshotFixture(t, source, DefaultStandingsLimit)

	_, err := svc.Export(t.Context(), mustConfig(t, "GOLF"), nil)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSnapshotService_Export_PayoutFailureIsNotFatal(t *testing.T) {
	source := &stubDataSource{
		salaryRows:    golfSalaryRows(),
		standingsRows: golfStandingsRows(),
		payoutErr:     errors.New("leaderboard 500"),
	}
	svc, _ := newSnapshotFixture(t, source, DefaultStandingsLimit)

	snapshot, err := svc.Export(t.Context(), mustConfig(t, "GOLF"), nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	for _, row := range snapshot.Standings {
		if row.PayoutCents != nil {
			t.Fatalf("payout set without leaderboard data: %+v", row)
		}
	}
}
