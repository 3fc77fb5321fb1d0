package contest

import (
	"fmt"
	"time"
)

// Contest states as stored and exported.
const (
	StateUpcoming  = "upcoming"
	StateLive      = "live"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
)

// Contest is a paid contest tracked for results export.
type Contest struct {
	ID                int64
	Sport             string
	Name              string
	StartTime         time.Time
	DraftGroup        int64
	PositionsPaid     *int
	EntryFee          int
	Entries           int
	PrizePool         *int
	MaxEntriesPerUser *int
	State             string
	Completed         bool
}

func (c Contest) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("contest id is required")
	}
	if c.Sport == "" {
		return fmt.Errorf("contest sport is required")
	}
	if c.Name == "" {
		return fmt.Errorf("contest name is required")
	}
	if c.StartTime.IsZero() {
		return fmt.Errorf("contest start time is required")
	}

	return nil
}

// Candidate is a selection-ranked contest row. Priority 0 contests meet the
// sport's minimum entry fee; priority 1 contests are the below-minimum
// fallback tier.
type Candidate struct {
	ContestID         int64
	Name              string
	EntryFee          int
	Entries           int
	StartTime         time.Time
	SelectionPriority int
}

// Criteria bounds candidate and live-contest lookups for a sport.
type Criteria struct {
	Sport       string
	MinEntryFee int
	Keyword     string
	Now         time.Time
}
