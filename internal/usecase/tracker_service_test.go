package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/infrastructure/repository/memory"
	"github.com/relomy/dk-results/internal/platform/logging"
)

func TestTrackerService_Track_UpsertsAndAlignsDraftGroup(t *testing.T) {
	now := time.Date(2026, 1, 11, 20, 0, 0, 0, time.UTC)
	staleStart := now.Add(-1 * time.Hour)
	newStart := now.Add(2 * time.Hour)

	repo := memory.NewContestRepository([]contest.Contest{
		{
			ID:         1001,
			Sport:      "NFL",
			Name:       "NFL $100K Play-Action",
			StartTime:  staleStart,
			DraftGroup: 111,
			EntryFee:   50,
			Entries:    9000,
			State:      contest.StateUpcoming,
		},
		{
			ID:         1002,
			Sport:      "NFL",
			Name:       "NFL $20K Flea Flicker",
			StartTime:  staleStart,
			DraftGroup: 111,
			EntryFee:   5,
			Entries:    20000,
			State:      contest.StateUpcoming,
		},
	})
	source := &stubDataSource{
		detailOK: true,
		detail: contest.Contest{
			Sport:      "NFL",
			Name:       "NFL $100K Play-Action",
			StartTime:  newStart,
			DraftGroup: 111,
			EntryFee:   50,
			Entries:    9500,
			State:      contest.StateUpcoming,
		},
	}
	svc := NewTrackerService(repo, source, logging.NewNop())

	tracked, err := svc.Track(t.Context(), 1001)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if tracked.Entries != 9500 {
		t.Fatalf("expected refreshed entries, got %d", tracked.Entries)
	}

	sibling, ok, err := repo.GetByID(t.Context(), 1002)
	if err != nil || !ok {
		t.Fatalf("expected sibling contest: ok=%v err=%v", ok, err)
	}
	if !sibling.StartTime.Equal(newStart) {
		t.Fatalf("expected sibling start aligned to %v, got %v", newStart, sibling.StartTime)
	}
}

func TestTrackerService_Track_RejectsBadID(t *testing.T) {
	svc := NewTrackerService(memory.NewContestRepository(nil), &stubDataSource{}, logging.NewNop())

	_, err := svc.Track(t.Context(), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestTrackerService_Sweep_ClosesFinishedContests(t *testing.T) {
	now := time.Date(2026, 1, 11, 23, 30, 0, 0, time.UTC)
	repo := memory.NewContestRepository([]contest.Contest{
		{
			ID:        2001,
			Sport:     "GOLF",
			Name:      "PGA $50K Drive the Green",
			StartTime: now.Add(-8 * time.Hour),
			EntryFee:  25,
			Entries:   4000,
			State:     contest.StateLive,
		},
	})
	source := &stubDataSource{
		detailOK: true,
		detail: contest.Contest{
			Sport:     "GOLF",
			Name:      "PGA $50K Drive the Green",
			StartTime: now.Add(-8 * time.Hour),
			State:     contest.StateCompleted,
			Completed: true,
		},
	}
	svc := NewTrackerService(repo, source, logging.NewNop())
	svc.now = func() time.Time { return now }

	closed, err := svc.Sweep(t.Context(), "GOLF")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed contest, got %d", closed)
	}

	row, ok, err := repo.GetByID(t.Context(), 2001)
	if err != nil || !ok {
		t.Fatalf("expected contest row: ok=%v err=%v", ok, err)
	}
	if !row.Completed || row.State != contest.StateCompleted {
		t.Fatalf("expected completed row, got state=%s completed=%v", row.State, row.Completed)
	}
}

func TestTrackerService_NextStart(t *testing.T) {
	now := time.Date(2026, 1, 11, 20, 0, 0, 0, time.UTC)
	upcoming := now.Add(3 * time.Hour)
	repo := memory.NewContestRepository([]contest.Contest{
		{
			ID:        3001,
			Sport:     "NBA",
			Name:      "NBA $75K Fadeaway",
			StartTime: upcoming,
			EntryFee:  25,
			Entries:   8000,
			State:     contest.StateUpcoming,
		},
	})
	svc := NewTrackerService(repo, &stubDataSource{}, logging.NewNop())
	svc.now = func() time.Time { return now }

	start, ok, err := svc.NextStart(t.Context(), "NBA")
	if err != nil {
		t.Fatalf("next start failed: %v", err)
	}
	if !ok || !start.Equal(upcoming) {
		t.Fatalf("expected next start %v, got ok=%v start=%v", upcoming, ok, start)
	}
}
