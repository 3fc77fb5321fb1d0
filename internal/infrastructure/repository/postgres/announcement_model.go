package postgres

type announcementInsertModel struct {
	ContestID          int64  `db:"contest_id"`
	Sport              string `db:"sport"`
	PlayerName         string `db:"player_name"`
	BonusCode          string `db:"bonus_code"`
	LastAnnouncedCount int    `db:"last_announced_count"`
}
