package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/platform/logging"
)

// sweepCandidateLimit caps how many live rows one sweep inspects.
const sweepCandidateLimit = 25

// TrackerService keeps tracked contest rows aligned with the upstream
// detail endpoint: new contests are registered before a run and stale
// live rows are closed out after one.
type TrackerService struct {
	contestRepo contest.Repository
	source      DataSource
	logger      *logging.Logger
	now         func() time.Time
}

func NewTrackerService(contestRepo contest.Repository, source DataSource, logger *logging.Logger) *TrackerService {
	return &TrackerService{
		contestRepo: contestRepo,
		source:      source,
		logger:      logger,
		now:         time.Now,
	}
}

// Track fetches upstream detail for a contest and upserts its row, then
// aligns the start times of every contest sharing its draft group.
func (s *TrackerService) Track(ctx context.Context, contestID int64) (contest.Contest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.Track")
	defer span.End()

	if contestID <= 0 {
		return contest.Contest{}, fmt.Errorf("%w: contest id must be positive", ErrInvalidInput)
	}

	detail, err := s.source.ContestDetail(ctx, contestID)
	if err != nil {
		return contest.Contest{}, fmt.Errorf("%w: fetch contest detail for id=%d: %v", ErrDependencyUnavailable, contestID, err)
	}

	if err := s.contestRepo.Upsert(ctx, detail); err != nil {
		return contest.Contest{}, fmt.Errorf("upsert contest id=%d: %w", contestID, err)
	}

	if detail.DraftGroup > 0 && !detail.StartTime.IsZero() {
		touched, err := s.contestRepo.SyncDraftGroupStart(ctx, detail.DraftGroup, detail.StartTime)
		if err != nil {
			return contest.Contest{}, fmt.Errorf("sync draft group start draft_group=%d: %w", detail.DraftGroup, err)
		}
		if touched > 0 && s.logger != nil {
			s.logger.InfoContext(ctx, "aligned draft group start times",
				"draft_group", detail.DraftGroup,
				"start_time", detail.StartTime,
				"contests", touched,
			)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "tracking contest",
			"contest_id", detail.ID,
			"sport", detail.Sport,
			"state", detail.State,
		)
	}

	return detail, nil
}

// Sweep closes out live rows for a sport that the upstream reports
// finished. It returns the number of contests transitioned.
func (s *TrackerService) Sweep(ctx context.Context, sport string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.Sweep")
	defer span.End()

	cfg, ok := category.Lookup(sport)
	if !ok {
		return 0, fmt.Errorf("%w: unknown sport %q", ErrInvalidInput, sport)
	}

	criteria := contest.Criteria{
		Sport:   cfg.Name,
		Keyword: cfg.Keyword,
		Now:     s.now(),
	}
	candidates, err := s.contestRepo.LiveCandidates(ctx, criteria, sweepCandidateLimit)
	if err != nil {
		return 0, fmt.Errorf("list live contests for sweep: %w", err)
	}

	closed := 0
	for _, candidate := range candidates {
		detail, err := s.source.ContestDetail(ctx, candidate.ContestID)
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "sweep detail fetch failed",
					"contest_id", candidate.ContestID,
					"error", err,
				)
			}
			continue
		}
		if !detail.Completed {
			continue
		}
		if err := s.contestRepo.UpdateState(ctx, candidate.ContestID, detail.State, true); err != nil {
			return closed, fmt.Errorf("mark contest completed id=%d: %w", candidate.ContestID, err)
		}
		closed++
		if s.logger != nil {
			s.logger.InfoContext(ctx, "contest completed",
				"contest_id", candidate.ContestID,
				"sport", cfg.Name,
			)
		}
	}

	return closed, nil
}

// NextStart reports when the next tracked contest for a sport begins.
func (s *TrackerService) NextStart(ctx context.Context, sport string) (time.Time, bool, error) {
	next, ok, err := s.contestRepo.NextUpcoming(ctx, sport, s.now())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get next upcoming contest: %w", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	return next.StartTime, true, nil
}
