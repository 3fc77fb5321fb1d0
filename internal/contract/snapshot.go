package contract

import (
	"time"

	"github.com/cockroachdb/errors"
)

// SnapshotVersion tags the per-sport raw snapshot shape.
const SnapshotVersion = "v1"

// SourceEndpoints enumerates the upstream calls a snapshot draws from.
var SourceEndpoints = []string{
	"contests.live_contest",
	"contests.live_candidates",
	"draftkings.salary_csv",
	"draftkings.contest_standings",
	"draftkings.leaderboard",
	"draftkings.vip_lineups",
}

// Snapshot is the raw per-sport capture before dashboard shaping.
// Pointer fields render as null so the missing-field audit can see
// every gap the upstream sources left.
type Snapshot struct {
	SnapshotVersion string            `json:"snapshot_version"`
	GeneratedAtUTC  *string           `json:"snapshot_generated_at_utc"`
	Sport           string            `json:"sport"`
	Contest         ContestInfo       `json:"contest"`
	Selection       Selection         `json:"selection"`
	Candidates      []CandidateRow    `json:"candidates"`
	CashLine        CashLine          `json:"cash_line"`
	VIPLineups      []VIPLineupRow    `json:"vip_lineups"`
	Players         []PlayerRow       `json:"players"`
	Ownership       OwnershipInfo     `json:"ownership"`
	TrainClusters   []TrainClusterRow `json:"train_clusters"`
	Standings       []StandingRow     `json:"standings"`
	Truncation      Truncation        `json:"truncation"`
	Metadata        Metadata          `json:"metadata"`
	Status          string            `json:"status,omitempty"`
	Error           string            `json:"error,omitempty"`
}

type ContestInfo struct {
	ContestID         *int64  `json:"contest_id"`
	Name              *string `json:"name"`
	Sport             string  `json:"sport"`
	DraftGroup        *int64  `json:"draft_group"`
	StartTimeUTC      *string `json:"start_time_utc"`
	IsPrimary         bool    `json:"is_primary"`
	ContestType       string  `json:"contest_type"`
	State             *string `json:"state"`
	EntryFee          *int    `json:"entry_fee"`
	Currency          string  `json:"currency"`
	Entries           *int    `json:"entries"`
	MaxEntries        *int    `json:"max_entries"`
	MaxEntriesPerUser *int    `json:"max_entries_per_user"`
	PrizePool         *int    `json:"prize_pool"`
	PositionsPaid     *int    `json:"positions_paid"`
}

type Selection struct {
	SelectedContestID *int64          `json:"selected_contest_id"`
	Reason            SelectionReason `json:"reason"`
}

type SelectionReason struct {
	Mode                       *string        `json:"mode"`
	Criteria                   map[string]any `json:"criteria"`
	TieBreakers                []string       `json:"tie_breakers"`
	SelectedFromCandidateCount int            `json:"selected_from_candidate_count"`
}

// SelectionTieBreakers is the fixed comparison order applied when
// several live contests qualify.
var SelectionTieBreakers = []string{
	"entry_fee desc",
	"entries desc",
	"start_date desc",
	"dk_id desc",
}

// NewSelectionReason describes how the primary contest was chosen.
// Explicit-id selections reduce the criteria to the requested id.
func NewSelectionReason(mode, sport string, minEntryFee int, keyword string, candidateCount int, contestID *int64) SelectionReason {
	criteria := map[string]any{
		"sport":              sport,
		"min_entry_fee":      minEntryFee,
		"keyword":            keyword,
		"status_window":      "start_date <= now && completed=0",
		"primary_preference": "entry_fee >= min_entry_fee then fallback below min",
	}
	if mode == "explicit_id" {
		var id any
		if contestID != nil {
			id = asString(*contestID)
		}
		criteria = map[string]any{"contest_id": id}
	}
	return SelectionReason{
		Mode:                       &mode,
		Criteria:                   criteria,
		TieBreakers:                append([]string(nil), SelectionTieBreakers...),
		SelectedFromCandidateCount: candidateCount,
	}
}

type CandidateRow struct {
	ContestID         string  `json:"contest_id"`
	Name              string  `json:"name"`
	EntryFee          int     `json:"entry_fee"`
	Entries           int     `json:"entries"`
	StartTimeUTC      *string `json:"start_time_utc"`
	SelectionPriority int     `json:"selection_priority"`
}

type CashLine struct {
	CutoffType  string   `json:"cutoff_type"`
	Rank        *int     `json:"rank"`
	Points      *float64 `json:"points"`
	DeltaToCash *float64 `json:"delta_to_cash"`
}

type VIPLineupRow struct {
	DisplayName string         `json:"display_name"`
	EntryKey    *string        `json:"entry_key"`
	VIPEntryKey *string        `json:"vip_entry_key"`
	Rank        *int           `json:"rank"`
	PMR         *float64       `json:"pmr"`
	Points      *float64       `json:"pts"`
	PayoutCents *int           `json:"payout_cents"`
	Players     []VIPPlayerRow `json:"players"`
}

type VIPPlayerRow struct {
	Slot                 string   `json:"slot"`
	PlayerName           string   `json:"player_name"`
	OwnershipPct         *float64 `json:"ownership_pct"`
	Salary               *int     `json:"salary"`
	Points               *float64 `json:"points"`
	Value                *float64 `json:"value"`
	RTProjection         *float64 `json:"rt_projection,omitempty"`
	TimeRemainingDisplay string   `json:"time_remaining_display,omitempty"`
	TimeRemainingMinutes *float64 `json:"time_remaining_minutes,omitempty"`
	StatsText            string   `json:"stats_text,omitempty"`
	GameStatus           string   `json:"game_status,omitempty"`
}

type PlayerRow struct {
	Name            string   `json:"name"`
	Position        string   `json:"position"`
	RosterPositions []string `json:"roster_positions"`
	Salary          int      `json:"salary"`
	Team            string   `json:"team"`
	GameStatus      string   `json:"game_status"`
	Matchup         string   `json:"matchup"`
	OwnershipPct    float64  `json:"ownership_pct"`
	FantasyPoints   *float64 `json:"fantasy_points"`
	Value           float64  `json:"value"`
}

type OwnershipInfo struct {
	OwnershipRemainingTotalPct *float64             `json:"ownership_remaining_total_pct"`
	NonCashingUserCount        int                  `json:"non_cashing_user_count"`
	NonCashingAvgPMR           float64              `json:"non_cashing_avg_pmr"`
	TopRemainingPlayers        []RemainingPlayerRow `json:"top_remaining_players"`
}

type RemainingPlayerRow struct {
	PlayerName            string  `json:"player_name"`
	OwnershipRemainingPct float64 `json:"ownership_remaining_pct"`
}

type TrainClusterRow struct {
	ClusterID       string   `json:"cluster_id"`
	ClusterRule     string   `json:"cluster_rule"`
	UserCount       int      `json:"user_count"`
	Rank            *int     `json:"rank"`
	Points          *float64 `json:"points"`
	PMR             *float64 `json:"pmr"`
	LineupSignature string   `json:"lineup_signature"`
	EntryKeys       []string `json:"entry_keys"`
}

// StandingRow keeps the raw rank when it does not parse as a number,
// so tied ranks like "T12" survive into the snapshot.
type StandingRow struct {
	Rank                       any      `json:"rank"`
	EntryKey                   string   `json:"entry_key"`
	Username                   string   `json:"username"`
	PMR                        *float64 `json:"pmr"`
	Points                     *float64 `json:"points"`
	PayoutCents                *int     `json:"payout_cents"`
	IsCashing                  bool     `json:"is_cashing"`
	OwnershipRemainingTotalPct *float64 `json:"ownership_remaining_total_pct"`
	IsVIP                      bool     `json:"is_vip"`
}

type Truncation struct {
	Applied         bool `json:"applied"`
	Limit           *int `json:"limit"`
	TotalRowsBefore int  `json:"total_rows_before_truncation"`
	TotalRowsAfter  int  `json:"total_rows_after_truncation"`
}

type Metadata struct {
	MissingFields   []string `json:"missing_fields"`
	Warnings        []any    `json:"warnings"`
	SourceEndpoints []string `json:"source_endpoints"`
}

// NewSnapshot returns a snapshot shell with every section present so
// null leaves are auditable even when collection fails part way.
func NewSnapshot(sport string) *Snapshot {
	return &Snapshot{
		SnapshotVersion: SnapshotVersion,
		Sport:           sport,
		CashLine:        CashLine{CutoffType: "positions_paid"},
		Candidates:      []CandidateRow{},
		VIPLineups:      []VIPLineupRow{},
		Players:         []PlayerRow{},
		Ownership:       OwnershipInfo{TopRemainingPlayers: []RemainingPlayerRow{}},
		TrainClusters:   []TrainClusterRow{},
		Standings:       []StandingRow{},
		Metadata: Metadata{
			MissingFields:   []string{},
			Warnings:        []any{},
			SourceEndpoints: append([]string(nil), SourceEndpoints...),
		},
	}
}

// Finalize stamps the generation time and records every null leaf in
// metadata.missing_fields.
func (s *Snapshot) Finalize(now time.Time) error {
	generated := UTCISOTime(now)
	s.GeneratedAtUTC = &generated
	payload, err := ToTree(s)
	if err != nil {
		return errors.Wrap(err, "finalize snapshot")
	}
	s.Metadata.MissingFields = MissingFields(payload)
	return nil
}
