package contest

import (
	"context"
	"time"
)

// Repository describes contest persistence needs from use cases.
type Repository interface {
	// LiveContest resolves the primary live contest for the criteria:
	// started, not completed, preferring the tier at or above the minimum
	// entry fee and falling back below it.
	LiveContest(ctx context.Context, criteria Criteria) (Contest, bool, error)

	// LiveCandidates lists selection-ranked live contests across both fee
	// tiers, up to limit rows.
	LiveCandidates(ctx context.Context, criteria Criteria, limit int) ([]Candidate, error)

	GetByID(ctx context.Context, id int64) (Contest, bool, error)

	// NextUpcoming returns the earliest not-yet-started contest for a sport.
	NextUpcoming(ctx context.Context, sport string, now time.Time) (Contest, bool, error)

	Upsert(ctx context.Context, c Contest) error

	UpdateState(ctx context.Context, id int64, state string, completed bool) error

	// SyncDraftGroupStart aligns start times for every contest in a draft
	// group and returns the number of rows touched.
	SyncDraftGroupStart(ctx context.Context, draftGroup int64, startTime time.Time) (int64, error)
}
