package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/platform/logging"
)

const DefaultStandingsLimit = 500

const topRemainingLimit = 10

// SnapshotService collects one sport's live contest into a raw
// snapshot: selection, standings, ownership, trains, VIP lineups.
type SnapshotService struct {
	selector       *SelectorService
	source         DataSource
	bonus          *BonusService
	vips           []string
	standingsLimit int
	logger         *logging.Logger
	now            func() time.Time
}

func NewSnapshotService(
	selector *SelectorService,
	source DataSource,
	vips []string,
	standingsLimit int,
	logger *logging.Logger,
) *SnapshotService {
	if standingsLimit == 0 {
		standingsLimit = DefaultStandingsLimit
	}
	return &SnapshotService{
		selector:       selector,
		source:         source,
		vips:           vips,
		standingsLimit: standingsLimit,
		logger:         logger,
		now:            time.Now,
	}
}

// SetBonusAnnouncer enables bonus announcements for the VIP lineups
// observed during export.
func (s *SnapshotService) SetBonusAnnouncer(bonus *BonusService) {
	s.bonus = bonus
}

// Export builds the finalized raw snapshot for a sport. An explicit
// contest id overrides the primary live selection.
func (s *SnapshotService) Export(ctx context.Context, cfg category.Config, contestID *int64) (*contract.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.Export")
	defer span.End()

	selection, err := s.selector.Select(ctx, cfg, contestID)
	if err != nil {
		return nil, err
	}
	c := selection.Contest

	var (
		salaryRows    [][]string
		standingsRows [][]string
		payouts       map[string]int
	)
	fetch := pool.New().WithContext(ctx)
	if c.DraftGroup != 0 {
		fetch.Go(func(ctx context.Context) error {
			rows, err := s.source.SalaryRows(ctx, cfg.Name, c.DraftGroup)
			if err != nil {
				return fmt.Errorf("download salary rows: %w", err)
			}
			salaryRows = rows
			return nil
		})
	}
	fetch.Go(func(ctx context.Context) error {
		rows, err := s.source.ContestStandings(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("download contest standings: %w", err)
		}
		standingsRows = rows
		return nil
	})
	fetch.Go(func(ctx context.Context) error {
		m, err := s.source.LeaderboardPayouts(ctx, c.ID)
		if err != nil {
			s.logger.Warn("leaderboard payout lookup failed", "contest_id", c.ID, "error", err)
			return nil
		}
		payouts = m
		return nil
	})
	if err := fetch.Wait(); err != nil {
		return nil, err
	}
	if len(standingsRows) == 0 {
		return nil, fmt.Errorf("%w: contest standings unavailable for contest_id=%d", ErrDependencyUnavailable, c.ID)
	}

	board := standings.NewBoard(cfg, c.ID, c.PositionsPaid, salaryRows, standingsRows, s.vips, s.logger)

	vipLineups, err := s.fetchVIPLineups(ctx, board, c.ID, c.DraftGroup)
	if err != nil {
		s.logger.Warn("vip lineup fetch failed", "contest_id", c.ID, "error", err)
		vipLineups = nil
	}

	snapshot := s.assemble(cfg, selection, board, vipLineups, payouts)
	if err := snapshot.Finalize(s.now()); err != nil {
		return nil, err
	}

	if s.bonus != nil && len(vipLineups) > 0 {
		if _, err := s.bonus.Announce(ctx, cfg, c.ID, vipLineups); err != nil {
			s.logger.Error("bonus announcements failed", "contest_id", c.ID, "error", err)
		}
	}
	return snapshot, nil
}

func (s *SnapshotService) fetchVIPLineups(ctx context.Context, board *standings.Board, contestID, draftGroup int64) ([]standings.VIPLineup, error) {
	if draftGroup == 0 || len(s.vips) == 0 {
		return nil, nil
	}
	entries := make(map[string]VIPEntryContext, len(board.VIPs))
	for _, vip := range board.VIPs {
		if vip.Name == "" || vip.EntryKey == "" {
			continue
		}
		entries[vip.Name] = VIPEntryContext{
			EntryKey: vip.EntryKey,
			Rank:     vip.Rank,
			PMR:      vip.PMR,
			Points:   vip.Points,
		}
	}
	salaries := make(map[string]int, len(board.Competitors))
	for name, competitor := range board.Competitors {
		salaries[name] = competitor.Salary
	}
	return s.source.VIPLineups(ctx, contestID, draftGroup, s.vips, entries, salaries)
}

func (s *SnapshotService) assemble(
	cfg category.Config,
	selection Selection,
	board *standings.Board,
	vipLineups []standings.VIPLineup,
	payouts map[string]int,
) *contract.Snapshot {
	c := selection.Contest
	snapshot := contract.NewSnapshot(cfg.Name)

	snapshot.Contest = contract.ContestInfo{
		ContestID:         &c.ID,
		Name:              strPtrOrNil(c.Name),
		Sport:             strings.ToLower(cfg.Name),
		DraftGroup:        int64PtrOrNil(c.DraftGroup),
		StartTimeUTC:      timePtrOrNil(c.StartTime),
		IsPrimary:         true,
		ContestType:       "classic",
		State:             contract.NormalizeContestState(c.State, c.Completed),
		EntryFee:          intPtrOrNil(c.EntryFee),
		Currency:          "USD",
		Entries:           &c.Entries,
		MaxEntries:        &c.Entries,
		MaxEntriesPerUser: c.MaxEntriesPerUser,
		PrizePool:         c.PrizePool,
		PositionsPaid:     c.PositionsPaid,
	}
	snapshot.Selection = contract.Selection{
		SelectedContestID: &c.ID,
		Reason:            selection.Reason,
	}
	for _, candidate := range selection.Candidates {
		snapshot.Candidates = append(snapshot.Candidates, contract.CandidateRow{
			ContestID:         strconv.FormatInt(candidate.ContestID, 10),
			Name:              candidate.Name,
			EntryFee:          candidate.EntryFee,
			Entries:           candidate.Entries,
			StartTimeUTC:      timePtrOrNil(candidate.StartTime),
			SelectionPriority: candidate.SelectionPriority,
		})
	}

	vipNames := make(map[string]bool, len(board.VIPs))
	for _, vip := range board.VIPs {
		vipNames[vip.Name] = true
	}
	var cashCutoff *float64
	if board.CashRank > 0 {
		cutoff := board.CashPoints
		cashCutoff = &cutoff
	}
	rows := make([]contract.StandingRow, 0, len(board.Entrants))
	for _, entrant := range board.Entrants {
		var payoutCents *int
		if cents, ok := payouts[entrant.EntryKey]; ok && entrant.EntryKey != "" {
			payoutCents = &cents
		}
		isCashing := false
		switch {
		case payoutCents != nil:
			isCashing = *payoutCents > 0
		case entrant.Points != nil && cashCutoff != nil:
			isCashing = *entrant.Points >= *cashCutoff
		}
		rows = append(rows, contract.StandingRow{
			Rank:                       rankValue(entrant.RawRank),
			EntryKey:                   entrant.EntryKey,
			Username:                   entrant.Name,
			PMR:                        entrant.PMR,
			Points:                     entrant.Points,
			PayoutCents:                payoutCents,
			IsCashing:                  isCashing,
			OwnershipRemainingTotalPct: entrant.OwnershipRemaining(),
			IsVIP:                      vipNames[entrant.Name],
		})
	}
	sortStandingRows(rows)

	totalBefore := len(rows)
	var limit *int
	if s.standingsLimit > 0 {
		l := s.standingsLimit
		limit = &l
	}
	truncated := limit != nil && totalBefore > *limit
	if truncated {
		rows = rows[:*limit]
	}
	snapshot.Standings = rows
	snapshot.Truncation = contract.Truncation{
		Applied:         truncated,
		Limit:           limit,
		TotalRowsBefore: totalBefore,
		TotalRowsAfter:  len(rows),
	}

	for _, competitor := range sortedCompetitors(board) {
		position := competitor.StandingsPosition
		if position == "" {
			position = competitor.Position
		}
		snapshot.Players = append(snapshot.Players, contract.PlayerRow{
			Name:            competitor.Name,
			Position:        position,
			RosterPositions: append([]string(nil), competitor.RosterPositions...),
			Salary:          competitor.Salary,
			Team:            competitor.Team,
			GameStatus:      competitor.GameInfo,
			Matchup:         competitor.MatchupInfo,
			OwnershipPct:    competitor.Ownership * 100,
			FantasyPoints:   fantasyPoints(competitor),
			Value:           competitor.Value,
		})
	}

	snapshot.Ownership = contract.OwnershipInfo{
		OwnershipRemainingTotalPct: averageOwnershipRemaining(rows),
		NonCashingUserCount:        board.NonCashingUsers,
		NonCashingAvgPMR:           board.NonCashingAvgPMR,
		TopRemainingPlayers:        topRemainingRows(board),
	}

	snapshot.CashLine = cashLine(board, rows, cashCutoff)

	for _, cluster := range standings.FindTrainClusters(board.Entrants, standings.TrainSalaryRemainingMax) {
		snapshot.TrainClusters = append(snapshot.TrainClusters, contract.TrainClusterRow{
			ClusterID:       cluster.ID,
			ClusterRule:     cluster.Rule,
			UserCount:       cluster.Count,
			Rank:            cluster.Rank,
			Points:          cluster.Points,
			PMR:             cluster.PMR,
			LineupSignature: cluster.Signature,
			EntryKeys:       append([]string(nil), cluster.EntryKeys...),
		})
	}

	for _, lineup := range vipLineups {
		snapshot.VIPLineups = append(snapshot.VIPLineups, vipLineupRow(lineup))
	}
	return snapshot
}

func cashLine(board *standings.Board, rows []contract.StandingRow, cutoff *float64) contract.CashLine {
	line := contract.CashLine{CutoffType: "positions_paid"}
	if board.CashRank <= 0 {
		return line
	}
	rank := board.CashRank
	line.Rank = &rank
	line.Points = cutoff
	if cutoff == nil {
		return line
	}
	for _, row := range rows {
		rankNum := rankNumericAny(row.Rank)
		if rankNum == nil || *rankNum <= rank {
			continue
		}
		if row.Points != nil {
			delta := *row.Points - *cutoff
			line.DeltaToCash = &delta
		}
		break
	}
	return line
}

func vipLineupRow(lineup standings.VIPLineup) contract.VIPLineupRow {
	row := contract.VIPLineupRow{
		DisplayName: lineup.User,
		EntryKey:    strPtrOrNil(lineup.EntryKey),
		VIPEntryKey: strPtrOrNil(lineup.VIPEntryKey),
		Rank:        lineup.Rank,
		PMR:         lineup.PMR,
		Points:      lineup.Points,
		PayoutCents: lineup.PayoutCents,
	}
	for _, player := range lineup.Players {
		ownershipPct := player.Ownership * 100
		row.Players = append(row.Players, contract.VIPPlayerRow{
			Slot:                 player.Slot,
			PlayerName:           player.Name,
			OwnershipPct:         &ownershipPct,
			Salary:               player.Salary,
			Points:               player.Points,
			Value:                player.Value,
			RTProjection:         player.RTProjection,
			TimeRemainingDisplay: player.TimeRemainingDisplay,
			TimeRemainingMinutes: player.TimeRemainingMinutes,
			StatsText:            player.StatsText,
			GameStatus:           player.GameStatus,
		})
	}
	return row
}

func sortedCompetitors(board *standings.Board) []*standings.Competitor {
	players := make([]*standings.Competitor, 0, len(board.Competitors))
	for _, competitor := range board.Competitors {
		players = append(players, competitor)
	}
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Salary < b.Salary
	})
	return players
}

func sortStandingRows(rows []contract.StandingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		aNil, bNil := a.Rank == nil, b.Rank == nil
		if aNil != bNil {
			return bNil
		}
		aNum, bNum := rankOrMax(a.Rank), rankOrMax(b.Rank)
		if aNum != bNum {
			return aNum < bNum
		}
		aRaw, bRaw := rawRankText(a.Rank), rawRankText(b.Rank)
		if aRaw != bRaw {
			return aRaw < bRaw
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.EntryKey < b.EntryKey
	})
}

func rankOrMax(rank any) int {
	if parsed := rankNumericAny(rank); parsed != nil {
		return *parsed
	}
	return 1 << 30
}

func rawRankText(rank any) string {
	switch v := rank.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	}
	return fmt.Sprint(rank)
}

func rankNumericAny(rank any) *int {
	switch v := rank.(type) {
	case int:
		n := v
		return &n
	case string:
		return standings.RankNumeric(v)
	}
	return nil
}

func rankValue(raw string) any {
	if raw == "" {
		return nil
	}
	if parsed := standings.RankNumeric(raw); parsed != nil {
		return *parsed
	}
	return raw
}

func averageOwnershipRemaining(rows []contract.StandingRow) *float64 {
	sum := 0.0
	count := 0
	for _, row := range rows {
		if row.OwnershipRemainingTotalPct == nil {
			continue
		}
		sum += *row.OwnershipRemainingTotalPct
		count++
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

func topRemainingRows(board *standings.Board) []contract.RemainingPlayerRow {
	out := []contract.RemainingPlayerRow{}
	for _, remaining := range board.TopRemainingPlayers(topRemainingLimit) {
		out = append(out, contract.RemainingPlayerRow{
			PlayerName:            remaining.Name,
			OwnershipRemainingPct: remaining.RemainingPct,
		})
	}
	return out
}

// fantasyPoints is nil for players never seen in standings rows; zero
// points from a live slate and "no data yet" stay distinguishable.
func fantasyPoints(competitor *standings.Competitor) *float64 {
	if competitor.StandingsPosition == "" {
		return nil
	}
	pts := competitor.FantasyPoints
	return &pts
}

func intPtrOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int64PtrOrNil(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func timePtrOrNil(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	iso := contract.UTCISOTime(t)
	return &iso
}
