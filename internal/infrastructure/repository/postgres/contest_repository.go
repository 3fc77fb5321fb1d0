package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/relomy/dk-results/internal/domain/contest"
	qb "github.com/relomy/dk-results/internal/platform/querybuilder"
)

// liveCandidatesQuery ranks live contests across both fee tiers. The tier
// flag lives in the projection, so the ORDER BY can reuse it without bind
// arguments the builder cannot express.
const liveCandidatesQuery = `
SELECT
    id,
    name,
    entry_fee,
    entries,
    start_time,
    CASE WHEN entry_fee >= $2 THEN 0 ELSE 1 END AS selection_priority
FROM contests
WHERE sport = $1
  AND completed = FALSE
  AND start_time <= $3
  AND ($4 = '' OR LOWER(name) LIKE LOWER($4))
ORDER BY selection_priority ASC, entry_fee DESC, entries DESC, start_time DESC, id DESC
LIMIT $5`

type ContestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) LiveContest(ctx context.Context, criteria contest.Criteria) (contest.Contest, bool, error) {
	candidates, err := r.LiveCandidates(ctx, criteria, 1)
	if err != nil {
		return contest.Contest{}, false, err
	}
	if len(candidates) == 0 {
		return contest.Contest{}, false, nil
	}

	return r.GetByID(ctx, candidates[0].ContestID)
}

func (r *ContestRepository) LiveCandidates(ctx context.Context, criteria contest.Criteria, limit int) ([]contest.Candidate, error) {
	if limit <= 0 {
		limit = 1
	}

	var rows []contestCandidateModel
	if err := r.db.SelectContext(ctx, &rows, liveCandidatesQuery,
		criteria.Sport, criteria.MinEntryFee, criteria.Now, criteria.Keyword, limit); err != nil {
		return nil, fmt.Errorf("select live contest candidates sport=%s: %w", criteria.Sport, err)
	}

	out := make([]contest.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, contest.Candidate{
			ContestID:         row.ID,
			Name:              row.Name,
			EntryFee:          row.EntryFee,
			Entries:           row.Entries,
			StartTime:         row.StartTime,
			SelectionPriority: row.SelectionPriority,
		})
	}

	return out, nil
}

func (r *ContestRepository) GetByID(ctx context.Context, id int64) (contest.Contest, bool, error) {
	query, args, err := qb.Select("*").From("contests").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return contest.Contest{}, false, fmt.Errorf("build select contest by id query: %w", err)
	}

	var row contestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.Contest{}, false, nil
		}
		return contest.Contest{}, false, fmt.Errorf("select contest by id=%d: %w", id, err)
	}

	return contestFromModel(row), true, nil
}

func (r *ContestRepository) NextUpcoming(ctx context.Context, sport string, now time.Time) (contest.Contest, bool, error) {
	query, args, err := qb.Select("*").From("contests").
		Where(
			qb.Eq("sport", sport),
			qb.Eq("completed", false),
			qb.Expr("start_time > ?", now),
		).
		OrderBy("start_time ASC", "id ASC").
		Limit(1).
		ToSQL()
	if err != nil {
		return contest.Contest{}, false, fmt.Errorf("build select next upcoming contest query: %w", err)
	}

	var row contestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.Contest{}, false, nil
		}
		return contest.Contest{}, false, fmt.Errorf("select next upcoming contest sport=%s: %w", sport, err)
	}

	return contestFromModel(row), true, nil
}

func (r *ContestRepository) Upsert(ctx context.Context, c contest.Contest) error {
	insertModel := contestInsertModel{
		ID:                c.ID,
		Sport:             c.Sport,
		Name:              c.Name,
		StartTime:         c.StartTime,
		DraftGroup:        c.DraftGroup,
		PositionsPaid:     nullInt64FromIntPtr(c.PositionsPaid),
		EntryFee:          c.EntryFee,
		Entries:           c.Entries,
		PrizePool:         nullInt64FromIntPtr(c.PrizePool),
		MaxEntriesPerUser: nullInt64FromIntPtr(c.MaxEntriesPerUser),
		State:             c.State,
		Completed:         c.Completed,
	}

	query, args, err := qb.InsertModel("contests", insertModel, `ON CONFLICT (id)
DO UPDATE SET
    sport = EXCLUDED.sport,
    name = EXCLUDED.name,
    start_time = EXCLUDED.start_time,
    draft_group = EXCLUDED.draft_group,
    positions_paid = EXCLUDED.positions_paid,
    entry_fee = EXCLUDED.entry_fee,
    entries = EXCLUDED.entries,
    prize_pool = EXCLUDED.prize_pool,
    max_entries_per_user = EXCLUDED.max_entries_per_user,
    state = EXCLUDED.state,
    completed = EXCLUDED.completed,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert contest query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert contest id=%d: %w", c.ID, err)
	}

	return nil
}

func (r *ContestRepository) UpdateState(ctx context.Context, id int64, state string, completed bool) error {
	query, args, err := qb.Update("contests").
		Set("state", state).
		Set("completed", completed).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update contest state query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update contest state id=%d: %w", id, err)
	}

	return nil
}

func (r *ContestRepository) SyncDraftGroupStart(ctx context.Context, draftGroup int64, startTime time.Time) (int64, error) {
	query, args, err := qb.Update("contests").
		Set("start_time", startTime).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("draft_group", draftGroup),
			qb.Expr("start_time <> ?", startTime),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build sync draft group start query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sync draft group start draft_group=%d: %w", draftGroup, err)
	}

	touched, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count synced contests draft_group=%d: %w", draftGroup, err)
	}

	return touched, nil
}

func contestFromModel(row contestTableModel) contest.Contest {
	return contest.Contest{
		ID:                row.ID,
		Sport:             row.Sport,
		Name:              row.Name,
		StartTime:         row.StartTime,
		DraftGroup:        row.DraftGroup,
		PositionsPaid:     nullInt64ToIntPtr(row.PositionsPaid),
		EntryFee:          row.EntryFee,
		Entries:           row.Entries,
		PrizePool:         nullInt64ToIntPtr(row.PrizePool),
		MaxEntriesPerUser: nullInt64ToIntPtr(row.MaxEntriesPerUser),
		State:             row.State,
		Completed:         row.Completed,
	}
}
