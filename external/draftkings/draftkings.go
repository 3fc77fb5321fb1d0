package draftkings

import (
	"strconv"
	"strings"
	"time"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/contest"
)

type contestDetailEnvelope struct {
	ContestDetail contestDetailPayload `json:"contestDetail"`
}

type contestDetailPayload struct {
	Name             string `json:"name"`
	Sport            string `json:"sport"`
	DraftGroupID     int64  `json:"draftGroupId"`
	ContestStartTime string `json:"contestStartTime"`
	ContestState     string `json:"contestState"`
	ContestStatus    string `json:"contestStatus"`
	IsCompleted      bool   `json:"isCompleted"`

	EntryFee       float64 `json:"entryFee"`
	MaximumEntries int     `json:"maximumEntries"`

	// Prize pool and per-user cap appear under different keys depending
	// on contest age and type.
	TotalPrizePool        *float64 `json:"totalPrizePool"`
	TotalPrizes           *float64 `json:"totalPrizes"`
	TotalPayouts          *float64 `json:"totalPayouts"`
	PrizePool             *float64 `json:"prizePool"`
	MaxEntriesPerUser     *int     `json:"maxEntriesPerUser"`
	MaximumEntriesPerUser *int     `json:"maximumEntriesPerUser"`
	MaxEntryCount         *int     `json:"maxEntryCount"`

	PayoutSummary []payoutSummaryItem `json:"payoutSummary"`
}

type payoutSummaryItem struct {
	MaxPosition int `json:"maxPosition"`
}

type entryEnvelope struct {
	Entries []entryPayload `json:"entries"`
}

type entryPayload struct {
	EntryKey      any           `json:"entryKey"`
	Rank          *int          `json:"rank"`
	TimeRemaining *float64      `json:"timeRemaining"`
	FantasyPoints *float64      `json:"fantasyPoints"`
	Roster        rosterPayload `json:"roster"`
}

type rosterPayload struct {
	Scorecards []scorecardPayload `json:"scorecards"`
}

type scorecardPayload struct {
	DisplayName      string             `json:"displayName"`
	RosterPosition   string             `json:"rosterPosition"`
	Score            any                `json:"score"`
	StatsDescription string             `json:"statsDescription"`
	PercentDrafted   float64            `json:"percentDrafted"`
	Salary           any                `json:"salary"`
	Projection       projectionPayload  `json:"projection"`
	Competition      competitionPayload `json:"competition"`
}

type projectionPayload struct {
	RealTimeProjection any `json:"realTimeProjection"`
}

type competitionPayload struct {
	TimeStatus string `json:"timeStatus"`
}

func mapContestDetail(contestID int64, detail contestDetailPayload) contest.Contest {
	mapped := contest.Contest{
		ID:         contestID,
		Sport:      strings.ToUpper(strings.TrimSpace(detail.Sport)),
		Name:       strings.TrimSpace(detail.Name),
		DraftGroup: detail.DraftGroupID,
		EntryFee:   int(detail.EntryFee),
		Entries:    detail.MaximumEntries,
		Completed:  detail.IsCompleted,
	}

	if parsed := parseContestTime(detail.ContestStartTime); parsed != nil {
		mapped.StartTime = *parsed
	}

	if len(detail.PayoutSummary) > 0 && detail.PayoutSummary[0].MaxPosition > 0 {
		positions := detail.PayoutSummary[0].MaxPosition
		mapped.PositionsPaid = &positions
	}

	if pool := firstPositiveFloat(detail.TotalPrizePool, detail.TotalPrizes, detail.TotalPayouts, detail.PrizePool); pool != nil {
		value := int(*pool)
		mapped.PrizePool = &value
	}
	if perUser := firstPositiveInt(detail.MaxEntriesPerUser, detail.MaximumEntriesPerUser, detail.MaxEntryCount); perUser != nil {
		mapped.MaxEntriesPerUser = perUser
	}

	rawState := detail.ContestState
	if strings.TrimSpace(rawState) == "" {
		rawState = detail.ContestStatus
	}
	if normalized := contract.NormalizeContestState(rawState, detail.IsCompleted); normalized != nil {
		mapped.State = *normalized
	} else {
		mapped.State = strings.ToLower(strings.TrimSpace(rawState))
	}

	return mapped
}

func parseContestTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func firstPositiveFloat(values ...*float64) *float64 {
	for _, value := range values {
		if value != nil && *value > 0 {
			return value
		}
	}
	return nil
}

func firstPositiveInt(values ...*int) *int {
	for _, value := range values {
		if value != nil && *value > 0 {
			return value
		}
	}
	return nil
}

func toFloatPtr(value any) *float64 {
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		v := typed
		return &v
	case float32:
		v := float64(typed)
		return &v
	case int:
		v := float64(typed)
		return &v
	case int64:
		v := float64(typed)
		return &v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func toIntPtr(value any) *int {
	parsed := toFloatPtr(value)
	if parsed == nil {
		return nil
	}
	v := int(*parsed)
	return &v
}
