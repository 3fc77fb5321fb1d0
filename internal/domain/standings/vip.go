package standings

// VIPPlayer is one roster slot in a watched entrant's live lineup as
// reported upstream.
type VIPPlayer struct {
	Slot                 string
	Name                 string
	Ownership            float64
	Salary               *int
	Points               *float64
	Value                *float64
	RTProjection         *float64
	TimeRemainingDisplay string
	TimeRemainingMinutes *float64
	StatsText            string
	GameStatus           string
}

// VIPLineup is a watched entrant's live lineup plus standing context.
type VIPLineup struct {
	User        string
	EntryKey    string
	VIPEntryKey string
	Rank        *int
	PMR         *float64
	Points      *float64
	PayoutCents *int
	Players     []VIPPlayer
}
