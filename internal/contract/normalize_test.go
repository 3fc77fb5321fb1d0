package contract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func sampleSnapshot() *Snapshot {
	s := NewSnapshot("NFL")
	s.Contest = ContestInfo{
		ContestID:         int64Ptr(171890000),
		Name:              strPtr("NFL $100K Play-Action"),
		Sport:             "nfl",
		DraftGroup:        int64Ptr(98765),
		StartTimeUTC:      strPtr("2026-01-11T18:00:00Z"),
		IsPrimary:         true,
		ContestType:       "classic",
		State:             strPtr("live"),
		EntryFee:          intPtr(25),
		Currency:          "USD",
		Entries:           intPtr(1000),
		MaxEntries:        intPtr(1000),
		MaxEntriesPerUser: intPtr(150),
		PrizePool:         intPtr(100000),
		PositionsPaid:     intPtr(200),
	}
	s.Selection = Selection{
		SelectedContestID: int64Ptr(171890000),
		Reason:            NewSelectionReason("primary_live", "NFL", 25, "", 3, nil),
	}
	s.Candidates = []CandidateRow{
		{ContestID: "171890000", Name: "NFL $100K Play-Action", EntryFee: 25, Entries: 1000, StartTimeUTC: strPtr("2026-01-11T18:00:00Z"), SelectionPriority: 0},
	}
	s.CashLine = CashLine{CutoffType: "positions_paid", Rank: intPtr(200), Points: floatPtr(112.555)}
	s.Players = []PlayerRow{
		{Name: "Josh Allen", Position: "QB", RosterPositions: []string{"QB"}, Salary: 8200, Team: "BUF", GameStatus: "4:23 4Q", Matchup: "vs. MIA", OwnershipPct: 41.23456, FantasyPoints: floatPtr(28.34), Value: 3.45},
		{Name: "Bijan Robinson", Position: "RB", RosterPositions: []string{"RB", "FLEX"}, Salary: 9000, Team: "ATL", GameStatus: "Final", Matchup: "at CAR", OwnershipPct: 30.5, FantasyPoints: floatPtr(21.1), Value: 2.34},
	}
	s.Standings = []StandingRow{
		{Rank: 1, EntryKey: "4509000001", Username: "sharkbait", PMR: floatPtr(0), Points: floatPtr(152.42), PayoutCents: intPtr(11256), IsCashing: true, OwnershipRemainingTotalPct: floatPtr(12.5), IsVIP: true},
		{Rank: "T2", EntryKey: "4509000002", Username: "traincar", PMR: floatPtr(48), Points: floatPtr(140.1), IsCashing: true, OwnershipRemainingTotalPct: floatPtr(80.12345)},
		{Rank: "T2", EntryKey: "4509000003", Username: "traincar2", PMR: floatPtr(48), Points: floatPtr(140.1), IsCashing: true, OwnershipRemainingTotalPct: floatPtr(80.12345)},
	}
	s.VIPLineups = []VIPLineupRow{
		{
			DisplayName: "sharkbait",
			EntryKey:    strPtr("4509000001"),
			VIPEntryKey: strPtr("4509000001"),
			Rank:        intPtr(1),
			PMR:         floatPtr(0),
			Points:      floatPtr(152.42),
			Players: []VIPPlayerRow{
				{Slot: "QB", PlayerName: "Josh Allen", OwnershipPct: floatPtr(41.23456), Salary: intPtr(8200), Points: floatPtr(28.34), Value: floatPtr(3.45), GameStatus: "4:23 4Q"},
				{Slot: "RB", PlayerName: "Bijan Robinson", OwnershipPct: floatPtr(30.5), Salary: intPtr(9000), Points: floatPtr(21.1), Value: floatPtr(2.34), GameStatus: "Final"},
			},
		},
	}
	s.Ownership = OwnershipInfo{
		OwnershipRemainingTotalPct: floatPtr(45.67891),
		NonCashingUserCount:        34,
		NonCashingAvgPMR:           102.4,
		TopRemainingPlayers: []RemainingPlayerRow{
			{PlayerName: "Josh Allen", OwnershipRemainingPct: 41.23456},
		},
	}
	s.TrainClusters = []TrainClusterRow{
		{
			ClusterID:       "ab12cd34ef56",
			ClusterRule:     "salary_remaining<=40000_and_same_points_pmr",
			UserCount:       2,
			Rank:            intPtr(2),
			Points:          floatPtr(140.1),
			PMR:             floatPtr(48),
			LineupSignature: "Josh Allen|Bijan Robinson",
			EntryKeys:       []string{"4509000002", "4509000003"},
		},
	}
	s.Truncation = Truncation{Applied: false, Limit: intPtr(500), TotalRowsBefore: 3, TotalRowsAfter: 3}
	return s
}

func TestFinalizeAuditsNullLeaves(t *testing.T) {
	s := sampleSnapshot()
	s.Contest.Name = nil
	s.CashLine.Points = nil
	require.NoError(t, s.Finalize(time.Date(2026, 1, 11, 19, 30, 0, 0, time.UTC)))

	assert.Equal(t, "2026-01-11T19:30:00Z", *s.GeneratedAtUTC)
	assert.Contains(t, s.Metadata.MissingFields, "contest.name")
	assert.Contains(t, s.Metadata.MissingFields, "cash_line.points")
	assert.Contains(t, s.Metadata.MissingFields, "cash_line.delta_to_cash")
	for _, path := range s.Metadata.MissingFields {
		assert.False(t, strings.HasPrefix(path, "metadata.missing_fields"), path)
	}
	assert.IsIncreasing(t, s.Metadata.MissingFields)
}

func TestNormalizeForOutput(t *testing.T) {
	s := sampleSnapshot()
	require.NoError(t, s.Finalize(time.Date(2026, 1, 11, 19, 30, 0, 0, time.UTC)))
	tree, err := ToTree(s)
	require.NoError(t, err)

	normalized := NormalizeForOutput(tree)

	contest := normalized["contest"].(map[string]any)
	assert.Equal(t, "171890000", contest["contest_id"])
	assert.Equal(t, "98765", contest["draft_group"])

	selection := normalized["selection"].(map[string]any)
	assert.Equal(t, "171890000", selection["selected_contest_id"])

	cashLine := normalized["cash_line"].(map[string]any)
	assert.Equal(t, 112.56, cashLine["points"])

	ownership := normalized["ownership"].(map[string]any)
	assert.Equal(t, 45.6789, ownership["ownership_remaining_total_pct"])

	clusters := normalized["train_clusters"].([]any)
	cluster := clusters[0].(map[string]any)
	assert.Equal(t, "ab12cd34ef56", cluster["cluster_id"])
	assert.Equal(t, []any{"4509000002", "4509000003"}, cluster["entry_keys"])

	standings := normalized["standings"].([]any)
	first := standings[0].(map[string]any)
	assert.Equal(t, "4509000001", first["entry_key"])
	second := standings[1].(map[string]any)
	assert.Equal(t, "T2", second["rank"])

	players := normalized["players"].([]any)
	assert.Equal(t, 41.2346, players[0].(map[string]any)["ownership_pct"])
	assert.Equal(t, 28.34, players[0].(map[string]any)["fantasy_points"])
}

func TestStableJSONDeterministic(t *testing.T) {
	s := sampleSnapshot()
	require.NoError(t, s.Finalize(time.Date(2026, 1, 11, 19, 30, 0, 0, time.UTC)))

	first, err := SnapshotJSON(s)
	require.NoError(t, err)
	second, err := SnapshotJSON(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(string(first), "\n"))
	assert.False(t, strings.HasSuffix(string(first), "\n\n"))

	var reparsed map[string]any
	require.NoError(t, treeAPI.Unmarshal(first, &reparsed))
	assert.Equal(t, "v1", reparsed["snapshot_version"])
}
