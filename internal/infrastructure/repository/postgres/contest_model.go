package postgres

import (
	"database/sql"
	"time"
)

type contestTableModel struct {
	ID                int64         `db:"id"`
	Sport             string        `db:"sport"`
	Name              string        `db:"name"`
	StartTime         time.Time     `db:"start_time"`
	DraftGroup        int64         `db:"draft_group"`
	PositionsPaid     sql.NullInt64 `db:"positions_paid"`
	EntryFee          int           `db:"entry_fee"`
	Entries           int           `db:"entries"`
	PrizePool         sql.NullInt64 `db:"prize_pool"`
	MaxEntriesPerUser sql.NullInt64 `db:"max_entries_per_user"`
	State             string        `db:"state"`
	Completed         bool          `db:"completed"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

type contestCandidateModel struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	EntryFee          int       `db:"entry_fee"`
	Entries           int       `db:"entries"`
	StartTime         time.Time `db:"start_time"`
	SelectionPriority int       `db:"selection_priority"`
}

type contestInsertModel struct {
	ID                int64         `db:"id"`
	Sport             string        `db:"sport"`
	Name              string        `db:"name"`
	StartTime         time.Time     `db:"start_time"`
	DraftGroup        int64         `db:"draft_group"`
	PositionsPaid     sql.NullInt64 `db:"positions_paid"`
	EntryFee          int           `db:"entry_fee"`
	Entries           int           `db:"entries"`
	PrizePool         sql.NullInt64 `db:"prize_pool"`
	MaxEntriesPerUser sql.NullInt64 `db:"max_entries_per_user"`
	State             string        `db:"state"`
	Completed         bool          `db:"completed"`
}

func nullInt64FromIntPtr(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	out := int(value.Int64)
	return &out
}
