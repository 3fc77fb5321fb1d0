package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDollarsToCentsHalfUp(t *testing.T) {
	cases := []struct {
		input any
		want  int
	}{
		{"$1,234.565", 123457},
		{"20", 2000},
		{"0.005", 1},
		{"0.004", 0},
		{"-1.005", -101},
		{12.5, 1250},
		{int64(3), 300},
	}
	for _, tc := range cases {
		got := DollarsToCentsHalfUp(tc.input)
		require.NotNil(t, got, "input %v", tc.input)
		assert.Equal(t, tc.want, *got, "input %v", tc.input)
	}

	assert.Nil(t, DollarsToCentsHalfUp(nil))
	assert.Nil(t, DollarsToCentsHalfUp(""))
	assert.Nil(t, DollarsToCentsHalfUp("free"))
	assert.Nil(t, DollarsToCentsHalfUp("$"))
}

func TestLeaderboardPayoutMapWinningValue(t *testing.T) {
	payload := map[string]any{
		"leaderBoard": []any{
			map[string]any{"entryKey": int64(4509000001), "winningValue": "112.555"},
			map[string]any{"entryKey": "4509000002", "winnings": []any{
				map[string]any{"description": "Cash Prize", "value": "$1.50"},
				map[string]any{"description": "Ticket", "value": "$5.00"},
				map[string]any{"description": "cash", "value": "0.50"},
			}},
			map[string]any{"entryKey": "4509000003", "winnings": []any{
				map[string]any{"description": "Ticket", "value": "$5.00"},
			}},
			map[string]any{"winningValue": "10.00"},
		},
	}

	payouts := LeaderboardPayoutMap(payload)
	assert.Equal(t, map[string]int{
		"4509000001": 11256,
		"4509000002": 200,
	}, payouts)
}

func TestLeaderboardPayoutMapMissingBoard(t *testing.T) {
	assert.Empty(t, LeaderboardPayoutMap(map[string]any{}))
	assert.Empty(t, LeaderboardPayoutMap(map[string]any{"leaderBoard": "nope"}))
}
