package announcement

import (
	"fmt"
	"time"
)

// Watermark records how many units of a bonus have been announced for one
// player inside one contest. A missing row reads as zero.
type Watermark struct {
	ContestID          int64
	Sport              string
	PlayerName         string
	BonusCode          string
	LastAnnouncedCount int
	UpdatedAt          time.Time
}

func (w Watermark) Validate() error {
	if w.ContestID == 0 {
		return fmt.Errorf("announcement contest id is required")
	}
	if w.PlayerName == "" {
		return fmt.Errorf("announcement player name is required")
	}
	if w.BonusCode == "" {
		return fmt.Errorf("announcement bonus code is required")
	}

	return nil
}

// Key identifies one watermark row.
type Key struct {
	ContestID  int64
	Sport      string
	PlayerName string
	BonusCode  string
}
