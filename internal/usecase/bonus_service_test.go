package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/relomy/dk-results/internal/domain/announcement"
	"github.com/relomy/dk-results/internal/domain/standings"
	"github.com/relomy/dk-results/internal/infrastructure/repository/memory"
	"github.com/relomy/dk-results/internal/platform/logging"
)

type recordingNotifier struct {
	messages []string
	failAt   int
}

func (n *recordingNotifier) Send(_ context.Context, message string) error {
	if n.failAt > 0 && len(n.messages)+1 == n.failAt {
		return errors.New("webhook down")
	}
	n.messages = append(n.messages, message)
	return nil
}

func golfLineups(stats string) []standings.VIPLineup {
	return []standings.VIPLineup{
		{
			User:     "sharkbait",
			EntryKey: "4509000001",
			Players: []standings.VIPPlayer{
				{
					Slot:      "G",
					Name:      "Scottie Scheffler",
					Ownership: 0.184,
					StatsText: stats,
				},
			},
		},
	}
}

func TestBonusService_Announce_IncrementalSequence(t *testing.T) {
	repo := memory.NewAnnouncementRepository()
	notifier := &recordingNotifier{}
	svc := NewBonusService(repo, notifier, logging.NewNop())

	stats, err := svc.Announce(t.Context(), mustConfig(t, "GOLF"), 555, golfLineups("2 EAG"))
	if err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	if stats.Candidates != 1 {
		t.Fatalf("unexpected candidate count: %d", stats.Candidates)
	}
	if stats.Messages != 2 || stats.Persisted != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(notifier.messages) != 2 {
		t.Fatalf("unexpected message count: %d", len(notifier.messages))
	}
	if notifier.messages[0] != "GOLF: Scottie Scheffler (18.4%) recorded an eagle (+8 pts) (VIPs: sharkbait)" {
		t.Fatalf("unexpected first message: %q", notifier.messages[0])
	}
	if notifier.messages[1] != "GOLF: Scottie Scheffler (18.4%) recorded an eagle (+8 pts, 16 total bonus pts) (VIPs: sharkbait)" {
		t.Fatalf("unexpected second message: %q", notifier.messages[1])
	}

	key := announcement.Key{ContestID: 555, Sport: "GOLF", PlayerName: "Scottie Scheffler", BonusCode: "EAG"}
	count, err := repo.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("get watermark: %v", err)
	}
	if count != 2 {
		t.Fatalf("watermark not advanced: %d", count)
	}
}

func TestBonusService_Announce_SkipsAlreadyAnnounced(t *testing.T) {
	repo := memory.NewAnnouncementRepository()
	key := announcement.Key{ContestID: 555, Sport: "GOLF", PlayerName: "Scottie Scheffler", BonusCode: "EAG"}
	if err := repo.Ensure(t.Context(), key); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := repo.CompareAndSwap(t.Context(), key, 0, 2); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	notifier := &recordingNotifier{}
	svc := NewBonusService(repo, notifier, logging.NewNop())
	stats, err := svc.Announce(t.Context(), mustConfig(t, "GOLF"), 555, golfLineups("2 EAG"))
	if err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	if stats.Messages != 0 || len(notifier.messages) != 0 {
		t.Fatalf("already announced bonus re-sent: %+v", stats)
	}
}

func TestBonusService_Announce_BinarySingleMessage(t *testing.T) {
	repo := memory.NewAnnouncementRepository()
	notifier := &recordingNotifier{}
	svc := NewBonusService(repo, notifier, logging.NewNop())

	lineups := []standings.VIPLineup{
		{
			User: "hoopshark",
			Players: []standings.VIPPlayer{
				{Slot: "C", Name: "Nikola Jokic", Ownership: 0.412, StatsText: "TDbl 28 PTS 14 REB 11 AST"},
			},
		},
	}
	stats, err := svc.Announce(t.Context(), mustConfig(t, "NBA"), 777, lineups)
	if err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	if stats.Messages != 1 || len(notifier.messages) != 1 {
		t.Fatalf("binary bonus should announce once: %+v", stats)
	}
	if notifier.messages[0] != "NBA: Nikola Jokic (41.2%) achieved a triple-double (+3 pts) (VIPs: hoopshark)" {
		t.Fatalf("unexpected message: %q", notifier.messages[0])
	}
}

func TestBonusService_Announce_SendFailureSkipsPersist(t *testing.T) {
	repo := memory.NewAnnouncementRepository()
	notifier := &recordingNotifier{failAt: 1}
	svc := NewBonusService(repo, notifier, logging.NewNop())

	stats, err := svc.Announce(t.Context(), mustConfig(t, "GOLF"), 555, golfLineups("1 EAG"))
	if err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	if stats.SendFailures != 1 || stats.Persisted != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	key := announcement.Key{ContestID: 555, Sport: "GOLF", PlayerName: "Scottie Scheffler", BonusCode: "EAG"}
	count, _ := repo.Get(t.Context(), key)
	if count != 0 {
		t.Fatalf("watermark advanced despite send failure: %d", count)
	}
}

func TestBonusService_Announce_CASSkipWhenRaced(t *testing.T) {
	repo := memory.NewAnnouncementRepository()
	key := announcement.Key{ContestID: 555, Sport: "GOLF", PlayerName: "Scottie Scheffler", BonusCode: "EAG"}

	// Another exporter advances the watermark between this run's read
	// and its compare-and-swap.
	notifier := &racingNotifier{repo: repo, key: key}
	svc := NewBonusService(repo, notifier, logging.NewNop())

	stats, err := svc.Announce(t.Context(), mustConfig(t, "GOLF"), 555, golfLineups("1 EAG"))
	if err != nil {
		t.Fatalf("announce failed: %v", err)
	}

	if stats.CASSkips != 1 || stats.Persisted != 0 {
		t.Fatalf("expected cas skip, got %+v", stats)
	}
}

type racingNotifier struct {
	repo *memory.AnnouncementRepository
	key  announcement.Key
}

func (n *racingNotifier) Send(ctx context.Context, _ string) error {
	if err := n.repo.Ensure(ctx, n.key); err != nil {
		return err
	}
	_, err := n.repo.CompareAndSwap(ctx, n.key, 0, 1)
	return err
}

func TestCollectBonusCandidates_GroupsAcrossLineups(t *testing.T) {
	lineups := []standings.VIPLineup{
		{
			User: "alice",
			Players: []standings.VIPPlayer{
				{Slot: "G", Name: "Ludvig Åberg", Ownership: 0.10, StatsText: "1 EAG"},
			},
		},
		{
			User: "bob",
			Players: []standings.VIPPlayer{
				{Slot: "G", Name: "Ludvig Aberg", Ownership: 0.25, StatsText: "2 EAG 1 BOFR"},
			},
		},
	}

	candidates := CollectBonusCandidates(mustConfig(t, "GOLF"), lineups)
	if len(candidates) != 2 {
		t.Fatalf("unexpected candidate count: %d", len(candidates))
	}

	bofr, eag := candidates[0], candidates[1]
	if bofr.BonusCode != "BOFR" || eag.BonusCode != "EAG" {
		t.Fatalf("unexpected candidate order: %+v", candidates)
	}
	if eag.NewCount != 2 {
		t.Fatalf("count should take the maximum: %d", eag.NewCount)
	}
	if eag.MaxOwnership != 0.25 {
		t.Fatalf("ownership should take the maximum: %f", eag.MaxOwnership)
	}
	if eag.NormalizedName != "Ludvig Aberg" {
		t.Fatalf("accent variants should share a key: %q", eag.NormalizedName)
	}
	if eag.DisplayName != "Ludvig Aberg" {
		t.Fatalf("unexpected display name: %q", eag.DisplayName)
	}
	if len(eag.VIPUsers) != 2 || eag.VIPUsers[0] != "alice" || eag.VIPUsers[1] != "bob" {
		t.Fatalf("unexpected vips: %v", eag.VIPUsers)
	}
}

func TestFormatVIPUsers_TruncatesLongLists(t *testing.T) {
	users := []string{"zeke", "alice", "bob", "carol", "dave", "erin", "frank"}
	out := formatVIPUsers(users, 5)
	if out != "alice, bob, carol, dave, erin +2 more" {
		t.Fatalf("unexpected rendering: %q", out)
	}
}
