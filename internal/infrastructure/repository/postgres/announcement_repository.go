package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/relomy/dk-results/internal/domain/announcement"
	qb "github.com/relomy/dk-results/internal/platform/querybuilder"
)

type AnnouncementRepository struct {
	db *sqlx.DB
}

func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Get(ctx context.Context, key announcement.Key) (int, error) {
	query, args, err := qb.Select("last_announced_count").From("bonus_announcements").
		Where(
			qb.Eq("contest_id", key.ContestID),
			qb.Eq("sport", key.Sport),
			qb.Eq("player_name", key.PlayerName),
			qb.Eq("bonus_code", key.BonusCode),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build select announcement watermark query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("select announcement watermark contest=%d player=%s: %w", key.ContestID, key.PlayerName, err)
	}

	return count, nil
}

func (r *AnnouncementRepository) Ensure(ctx context.Context, key announcement.Key) error {
	insertModel := announcementInsertModel{
		ContestID:          key.ContestID,
		Sport:              key.Sport,
		PlayerName:         key.PlayerName,
		BonusCode:          key.BonusCode,
		LastAnnouncedCount: 0,
	}

	query, args, err := qb.InsertModel("bonus_announcements", insertModel, `ON CONFLICT (contest_id, sport, player_name, bonus_code)
DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build ensure announcement watermark query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure announcement watermark contest=%d player=%s: %w", key.ContestID, key.PlayerName, err)
	}

	return nil
}

// CompareAndSwap relies on the conditional UPDATE touching at most one row.
// Zero rows means another writer advanced the watermark first.
func (r *AnnouncementRepository) CompareAndSwap(ctx context.Context, key announcement.Key, oldCount, newCount int) (bool, error) {
	query, args, err := qb.Update("bonus_announcements").
		Set("last_announced_count", newCount).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("contest_id", key.ContestID),
			qb.Eq("sport", key.Sport),
			qb.Eq("player_name", key.PlayerName),
			qb.Eq("bonus_code", key.BonusCode),
			qb.Eq("last_announced_count", oldCount),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build advance announcement watermark query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("advance announcement watermark contest=%d player=%s: %w", key.ContestID, key.PlayerName, err)
	}

	touched, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count advanced announcement watermarks contest=%d player=%s: %w", key.ContestID, key.PlayerName, err)
	}

	return touched == 1, nil
}
