package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/platform/logging"
)

type stubExporter struct {
	snapshots     map[string]*contract.Snapshot
	errs          map[string]error
	lastContestID *int64
}

func (s *stubExporter) Export(_ context.Context, cfg category.Config, contestID *int64) (*contract.Snapshot, error) {
	s.lastContestID = contestID
	if err := s.errs[cfg.Name]; err != nil {
		return nil, err
	}
	return s.snapshots[cfg.Name], nil
}

func exportableSnapshot(t *testing.T, sport string, contestID int64) *contract.Snapshot {
	t.Helper()
	snapshot := contract.NewSnapshot(sport)

	name := sport + " Main Slate"
	state := "live"
	fee := 25
	entries := 1000
	maxPerUser := 20
	prizePool := 50000
	paid := 200
	start := "2026-07-12T18:30:00Z"
	snapshot.Contest = contract.ContestInfo{
		ContestID:         &contestID,
		Name:              &name,
		Sport:             sport,
		StartTimeUTC:      &start,
		IsPrimary:         true,
		ContestType:       "classic",
		State:             &state,
		EntryFee:          &fee,
		Currency:          "USD",
		Entries:           &entries,
		MaxEntries:        &entries,
		MaxEntriesPerUser: &maxPerUser,
		PrizePool:         &prizePool,
		PositionsPaid:     &paid,
	}
	snapshot.Selection = contract.Selection{SelectedContestID: &contestID}
	if err := snapshot.Finalize(time.Date(2026, 7, 12, 21, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("finalize snapshot: %v", err)
	}
	return snapshot
}

func TestBundleService_Build_MixedOutcomes(t *testing.T) {
	exporter := &stubExporter{
		snapshots: map[string]*contract.Snapshot{
			"GOLF": exportableSnapshot(t, "GOLF", 555),
		},
		errs: map[string]error{
			"NBA": errors.New("standings download failed"),
		},
	}
	svc := NewBundleService(exporter, 2, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 7, 12, 21, 31, 0, 0, time.UTC) }

	result, err := svc.Build(t.Context(), []string{"GOLF", "NBA"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if result.SportCount != 2 || result.FailureCount != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Failures["NBA"] == "" {
		t.Fatalf("missing failure message: %+v", result.Failures)
	}

	sports, ok := result.Payload["sports"].(map[string]any)
	if !ok {
		t.Fatalf("missing sports map: %v", result.Payload)
	}
	golf, ok := sports["golf"].(map[string]any)
	if !ok {
		t.Fatalf("missing golf payload: %v", sports)
	}
	if golf["status"] != "ok" {
		t.Fatalf("unexpected golf status: %v", golf["status"])
	}
	nba, ok := sports["nba"].(map[string]any)
	if !ok {
		t.Fatalf("missing nba payload: %v", sports)
	}
	if nba["status"] != "error" || nba["error"] == "" {
		t.Fatalf("unexpected nba payload: %v", nba)
	}

	if !contract.IsEnvelope(result.Payload) {
		t.Fatalf("payload is not an envelope")
	}
	if len(result.Canonical) == 0 || result.Canonical[len(result.Canonical)-1] != '\n' {
		t.Fatalf("canonical bytes malformed")
	}
	if result.SnapshotAt != "2026-07-12T21:31:00Z" {
		t.Fatalf("unexpected snapshot_at: %q", result.SnapshotAt)
	}
}

func TestBundleService_Build_UnknownSport(t *testing.T) {
	svc := NewBundleService(&stubExporter{}, 2, logging.NewNop())

	_, err := svc.Build(t.Context(), []string{"CURLING"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBundleService_Build_ContractViolationFailsClosed(t *testing.T) {
	snapshot := exportableSnapshot(t, "GOLF", 555)
	bad := "not-a-state"
	snapshot.Contest.State = &bad

	exporter := &stubExporter{snapshots: map[string]*contract.Snapshot{"GOLF": snapshot}}
	svc := NewBundleService(exporter, 2, logging.NewNop())

	_, err := svc.Build(t.Context(), []string{"GOLF"})
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected ErrContractViolation, got %v", err)
	}
}

func TestSortedSports_DedupesAndDefaults(t *testing.T) {
	out := SortedSports([]string{"GOLF", "golf", " NBA ", ""})
	if len(out) != 2 || out[0] != "GOLF" || out[1] != "NBA" {
		t.Fatalf("unexpected sports: %v", out)
	}

	all := SortedSports(nil)
	if len(all) == 0 {
		t.Fatalf("expected all configured sports")
	}
}

func TestBundleService_BuildOne_PinsContest(t *testing.T) {
	exporter := &stubExporter{
		snapshots: map[string]*contract.Snapshot{
			"GOLF": exportableSnapshot(t, "GOLF", 777),
		},
	}
	svc := NewBundleService(exporter, 2, logging.NewNop())

	contestID := int64(777)
	result, err := svc.BuildOne(t.Context(), "golf", &contestID)
	if err != nil {
		t.Fatalf("build one failed: %v", err)
	}

	if result.SportCount != 1 || result.FailureCount != 0 {
		t.Fatalf("unexpected counts: sports=%d failures=%d", result.SportCount, result.FailureCount)
	}
	if exporter.lastContestID == nil || *exporter.lastContestID != 777 {
		t.Fatalf("expected pinned contest id, got %v", exporter.lastContestID)
	}
}

func TestBundleService_BuildOne_UnknownSport(t *testing.T) {
	svc := NewBundleService(&stubExporter{}, 2, logging.NewNop())

	_, err := svc.BuildOne(t.Context(), "CURLING", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
