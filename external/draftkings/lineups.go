package draftkings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/usecase"
)

const lockedSlotName = "LOCKED 🔒"

// VIPLineups fetches the live entry roster for each watched entrant found in
// the standings. A failed roster fetch skips that entrant rather than
// failing the snapshot.
func (c *Client) VIPLineups(
	ctx context.Context,
	contestID, draftGroup int64,
	vips []string,
	entries map[string]usecase.VIPEntryContext,
	salaries map[string]int,
) ([]standings.VIPLineup, error) {
	if draftGroup <= 0 || len(vips) == 0 {
		return nil, nil
	}

	salaryByName := normalizeSalaries(salaries)

	var mu sync.Mutex
	lineups := make([]standings.VIPLineup, 0, len(vips))

	workers := pool.New().WithMaxGoroutines(c.lineupWorkers)
	for _, vip := range vips {
		entryCtx, ok := entries[vip]
		if !ok || strings.TrimSpace(entryCtx.EntryKey) == "" {
			continue
		}

		workers.Go(func() {
			lineup, err := c.fetchLineup(ctx, draftGroup, vip, entryCtx, salaryByName)
			if err != nil {
				c.logger.WarnContext(ctx, "vip lineup fetch failed",
					"contest_id", contestID,
					"draft_group", draftGroup,
					"user", vip,
					"error", err,
				)
				return
			}
			mu.Lock()
			lineups = append(lineups, lineup)
			mu.Unlock()
		})
	}
	workers.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(lineups, func(i, j int) bool { return lineups[i].User < lineups[j].User })
	return lineups, nil
}

func (c *Client) fetchLineup(
	ctx context.Context,
	draftGroup int64,
	user string,
	entryCtx usecase.VIPEntryContext,
	salaryByName map[string]int,
) (standings.VIPLineup, error) {
	fullURL := c.apiBaseURL + fmt.Sprintf(entryRosterPathFmt, draftGroup, entryCtx.EntryKey)
	var envelope entryEnvelope
	if err := c.doJSON(ctx, fullURL, &envelope); err != nil {
		return standings.VIPLineup{}, fmt.Errorf("fetch entry roster entry_key=%s: %w", entryCtx.EntryKey, err)
	}
	if len(envelope.Entries) == 0 {
		return standings.VIPLineup{}, fmt.Errorf("entry roster entry_key=%s has no entries", entryCtx.EntryKey)
	}

	return mapEntryLineup(user, entryCtx, envelope.Entries[0], salaryByName), nil
}

func mapEntryLineup(
	user string,
	entryCtx usecase.VIPEntryContext,
	entry entryPayload,
	salaryByName map[string]int,
) standings.VIPLineup {
	lineup := standings.VIPLineup{
		User:        user,
		EntryKey:    entryCtx.EntryKey,
		VIPEntryKey: entryCtx.EntryKey,
		Rank:        entryCtx.Rank,
		PMR:         entryCtx.PMR,
		Points:      entryCtx.Points,
	}

	// Live scorecard values supersede the standings snapshot context.
	if entry.Rank != nil {
		lineup.Rank = entry.Rank
	}
	if entry.TimeRemaining != nil {
		lineup.PMR = entry.TimeRemaining
	}
	if entry.FantasyPoints != nil {
		lineup.Points = entry.FantasyPoints
	}

	lineup.Players = make([]standings.VIPPlayer, 0, len(entry.Roster.Scorecards))
	for _, scorecard := range entry.Roster.Scorecards {
		lineup.Players = append(lineup.Players, mapScorecard(scorecard, salaryByName))
	}
	return lineup
}

func normalizeSalaries(salaries map[string]int) map[string]int {
	out := make(map[string]int, len(salaries))
	for name, salary := range salaries {
		out[standings.NormalizeName(name)] = salary
	}
	return out
}

func mapScorecard(scorecard scorecardPayload, salaryByName map[string]int) standings.VIPPlayer {
	slot := strings.TrimSpace(scorecard.RosterPosition)
	name := strings.TrimSpace(scorecard.DisplayName)
	if name == "" {
		// Slot locks until the player's game starts.
		return standings.VIPPlayer{Slot: slot, Name: lockedSlotName}
	}

	player := standings.VIPPlayer{
		Slot:                 slot,
		Name:                 name,
		Ownership:            scorecard.PercentDrafted / 100,
		Points:               toFloatPtr(scorecard.Score),
		RTProjection:         toFloatPtr(scorecard.Projection.RealTimeProjection),
		StatsText:            strings.TrimSpace(scorecard.StatsDescription),
		TimeRemainingDisplay: strings.TrimSpace(scorecard.Competition.TimeStatus),
	}
	player.TimeRemainingMinutes = toFloatPtr(player.TimeRemainingDisplay)

	salary := toIntPtr(scorecard.Salary)
	if salary == nil {
		if found, ok := salaryByName[standings.NormalizeName(name)]; ok {
			salary = &found
		}
	}
	player.Salary = salary

	if salary != nil && *salary > 0 && player.Points != nil {
		value := *player.Points / (float64(*salary) / 1000)
		player.Value = &value
	}

	return player
}
