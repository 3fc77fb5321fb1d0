package usecase

import (
	"context"

	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/domain/standings"
)

// VIPEntryContext carries the standing context already known for a VIP
// when their live lineup is fetched.
type VIPEntryContext struct {
	EntryKey string
	Rank     *int
	PMR      *float64
	Points   *float64
}

// DataSource is the upstream contest provider: contest metadata,
// salary and standings exports, leaderboard payouts, and VIP lineups.
type DataSource interface {
	ContestDetail(ctx context.Context, contestID int64) (contest.Contest, error)
	SalaryRows(ctx context.Context, sport string, draftGroup int64) ([][]string, error)
	ContestStandings(ctx context.Context, contestID int64) ([][]string, error)
	LeaderboardPayouts(ctx context.Context, contestID int64) (map[string]int, error)
	VIPLineups(ctx context.Context, contestID, draftGroup int64, vips []string, entries map[string]VIPEntryContext, salaries map[string]int) ([]standings.VIPLineup, error)
}

// Notifier delivers a single announcement message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}
