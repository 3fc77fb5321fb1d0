package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relomy/dk-results/internal/domain/announcement"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/platform/logging"
)

const bonusVIPDisplayLimit = 5

// BonusStats summarizes one announcement pass.
type BonusStats struct {
	Candidates   int
	Persisted    int
	Messages     int
	SendFailures int
	DBFailures   int
	CASSkips     int
}

// BonusCandidate is one (player, bonus) pair observed across VIP
// lineups, aggregated to its highest count and ownership.
type BonusCandidate struct {
	DisplayName    string
	NormalizedName string
	BonusCode      string
	NewCount       int
	MaxOwnership   float64
	VIPUsers       []string
}

type BonusService struct {
	watermarks announcement.Repository
	notifier   Notifier
	logger     *logging.Logger
}

func NewBonusService(watermarks announcement.Repository, notifier Notifier, logger *logging.Logger) *BonusService {
	return &BonusService{
		watermarks: watermarks,
		notifier:   notifier,
		logger:     logger,
	}
}

// Announce sends one message per newly crossed bonus unit and advances
// the per-player watermark. Messages go out before the watermark is
// persisted, so a crash re-announces rather than silently dropping.
// The returned stats count persisted announcements, sent messages, and
// the failure buckets.
func (s *BonusService) Announce(ctx context.Context, cfg category.Config, contestID int64, lineups []standings.VIPLineup) (BonusStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BonusService.Announce")
	defer span.End()

	stats := BonusStats{}
	if s.notifier == nil || len(lineups) == 0 {
		return stats, nil
	}
	startedAt := time.Now()
	s.logger.Info("starting vip bonus announcements",
		"sport", cfg.Name,
		"contest_id", contestID,
		"vip_lineups", len(lineups),
	)

	candidates := CollectBonusCandidates(cfg, lineups)
	stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		s.logCompletion(cfg.Name, contestID, stats, startedAt)
		return stats, nil
	}

	for _, candidate := range candidates {
		key := announcement.Key{
			ContestID:  contestID,
			Sport:      cfg.Name,
			PlayerName: candidate.NormalizedName,
			BonusCode:  candidate.BonusCode,
		}
		oldCount, err := s.watermarks.Get(ctx, key)
		if err != nil {
			return stats, fmt.Errorf("load announcement watermark: %w", err)
		}
		if candidate.NewCount <= oldCount {
			continue
		}

		rule := cfg.Rule(candidate.BonusCode)
		var countsToAnnounce []int
		if rule.Mode == category.ModeBinary {
			countsToAnnounce = []int{1}
		} else {
			for count := oldCount + 1; count <= candidate.NewCount; count++ {
				countsToAnnounce = append(countsToAnnounce, count)
			}
		}
		s.logger.Debug("vip bonus transition",
			"sport", cfg.Name,
			"contest_id", contestID,
			"player", candidate.NormalizedName,
			"bonus", candidate.BonusCode,
			"old_count", oldCount,
			"new_count", candidate.NewCount,
			"messages_to_send", len(countsToAnnounce),
		)

		sendFailed := false
		for _, count := range countsToAnnounce {
			if err := s.notifier.Send(ctx, FormatBonusMessage(cfg, candidate, count)); err != nil {
				stats.SendFailures++
				sendFailed = true
				s.logger.Error("send bonus announcement failed",
					"player", candidate.NormalizedName,
					"bonus", candidate.BonusCode,
					"contest_id", contestID,
					"error", err,
				)
				break
			}
		}
		if sendFailed {
			continue
		}
		stats.Messages += len(countsToAnnounce)

		if err := s.watermarks.Ensure(ctx, key); err != nil {
			stats.DBFailures++
			s.logger.Error("persist bonus announcement failed",
				"player", candidate.NormalizedName,
				"bonus", candidate.BonusCode,
				"contest_id", contestID,
				"error", err,
			)
			continue
		}
		updated, err := s.watermarks.CompareAndSwap(ctx, key, oldCount, candidate.NewCount)
		if err != nil {
			stats.DBFailures++
			s.logger.Error("persist bonus announcement failed",
				"player", candidate.NormalizedName,
				"bonus", candidate.BonusCode,
				"contest_id", contestID,
				"error", err,
			)
			continue
		}
		if !updated {
			stats.CASSkips++
			s.logger.Debug("watermark advanced by another run",
				"player", candidate.NormalizedName,
				"bonus", candidate.BonusCode,
				"contest_id", contestID,
			)
			continue
		}
		stats.Persisted += len(countsToAnnounce)
	}

	s.logCompletion(cfg.Name, contestID, stats, startedAt)
	return stats, nil
}

func (s *BonusService) logCompletion(sport string, contestID int64, stats BonusStats, startedAt time.Time) {
	s.logger.Info("completed vip bonus announcements",
		"sport", sport,
		"contest_id", contestID,
		"candidates", stats.Candidates,
		"persisted", stats.Persisted,
		"webhook_messages", stats.Messages,
		"send_failures", stats.SendFailures,
		"db_failures", stats.DBFailures,
		"cas_skips", stats.CASSkips,
		"elapsed_ms", time.Since(startedAt).Milliseconds(),
	)
}

// CollectBonusCandidates groups bonus sightings across VIP lineups by
// normalized player name and code. Counts and ownership keep their
// maximum; the display name is the case-insensitive minimum so one
// spelling wins deterministically.
func CollectBonusCandidates(cfg category.Config, lineups []standings.VIPLineup) []BonusCandidate {
	type group struct {
		displayNames map[string]bool
		count        int
		maxOwnership float64
		vips         map[string]bool
	}
	grouped := map[[2]string]*group{}
	for _, lineup := range lineups {
		vipName := strings.TrimSpace(lineup.User)
		for _, player := range lineup.Players {
			displayName := strings.TrimSpace(player.Name)
			normalized := standings.NormalizeName(displayName)
			if normalized == "" {
				continue
			}
			ownership := player.Ownership
			if ownership < 0 {
				ownership = 0
			}
			if ownership > 1 {
				ownership = 1
			}
			counts := cfg.BonusCounts(player.StatsText)
			for code, count := range counts {
				if count <= 0 {
					continue
				}
				key := [2]string{normalized, code}
				g := grouped[key]
				if g == nil {
					g = &group{
						displayNames: map[string]bool{},
						count:        count,
						maxOwnership: ownership,
						vips:         map[string]bool{},
					}
					grouped[key] = g
				}
				if displayName != "" {
					g.displayNames[displayName] = true
				} else {
					g.displayNames[normalized] = true
				}
				if count > g.count {
					g.count = count
				}
				if ownership > g.maxOwnership {
					g.maxOwnership = ownership
				}
				if vipName != "" {
					g.vips[vipName] = true
				}
			}
		}
	}

	keys := make([][2]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	candidates := make([]BonusCandidate, 0, len(keys))
	for _, key := range keys {
		g := grouped[key]
		candidates = append(candidates, BonusCandidate{
			DisplayName:    caseInsensitiveMin(setToSlice(g.displayNames)),
			NormalizedName: key[0],
			BonusCode:      key[1],
			NewCount:       g.count,
			MaxOwnership:   g.maxOwnership,
			VIPUsers:       sortCaseInsensitive(setToSlice(g.vips)),
		})
	}
	return candidates
}

// FormatBonusMessage renders one announcement line, e.g.
// "GOLF: Scottie Scheffler (18.4%) recorded an eagle (+8 pts, 16 total
// bonus pts) (VIPs: alice, bob)".
func FormatBonusMessage(cfg category.Config, candidate BonusCandidate, announcedCount int) string {
	rule := cfg.Rule(candidate.BonusCode)
	pointsText := "+" + formatBonusPoints(rule.Points) + " pts"
	if rule.Mode == category.ModeIncremental && announcedCount > 1 {
		pointsText += ", " + formatBonusPoints(rule.Points*float64(announcedCount)) + " total bonus pts"
	}
	return fmt.Sprintf("%s: %s (%.1f%%) %s (%s) (VIPs: %s)",
		cfg.Name,
		candidate.DisplayName,
		candidate.MaxOwnership*100,
		rule.Action,
		pointsText,
		formatVIPUsers(candidate.VIPUsers, bonusVIPDisplayLimit),
	)
}

func formatBonusPoints(points float64) string {
	if points == float64(int64(points)) {
		return strconv.FormatInt(int64(points), 10)
	}
	text := strconv.FormatFloat(points, 'f', 1, 64)
	text = strings.TrimRight(text, "0")
	return strings.TrimRight(text, ".")
}

func formatVIPUsers(users []string, limit int) string {
	sorted := sortCaseInsensitive(append([]string(nil), users...))
	shown := sorted
	if len(shown) > limit {
		shown = shown[:limit]
	}
	out := strings.Join(shown, ", ")
	if remaining := len(sorted) - len(shown); remaining > 0 {
		out += fmt.Sprintf(" +%d more", remaining)
	}
	return out
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	return out
}

func sortCaseInsensitive(items []string) []string {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i]) < strings.ToLower(items[j])
	})
	return items
}

func caseInsensitiveMin(items []string) string {
	if len(items) == 0 {
		return ""
	}
	sorted := sortCaseInsensitive(items)
	return sorted[0]
}
