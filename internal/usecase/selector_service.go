package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/platform/logging"
)

// Selection modes.
const (
	ModePrimaryLive = "primary_live"
	ModeExplicitID  = "explicit_id"
)

// Selection is the outcome of picking the contest a snapshot covers.
type Selection struct {
	Contest    contest.Contest
	Mode       string
	Candidates []contest.Candidate
	Reason     contract.SelectionReason
}

type SelectorService struct {
	contestRepo    contest.Repository
	source         DataSource
	candidateLimit int
	logger         *logging.Logger
	now            func() time.Time
}

func NewSelectorService(contestRepo contest.Repository, source DataSource, candidateLimit int, logger *logging.Logger) *SelectorService {
	if candidateLimit <= 0 {
		candidateLimit = 5
	}
	return &SelectorService{
		contestRepo:    contestRepo,
		source:         source,
		candidateLimit: candidateLimit,
		logger:         logger,
		now:            time.Now,
	}
}

// Select picks the live contest to snapshot for a sport. When an
// explicit contest id is given the repository is consulted first and
// the upstream detail endpoint is the fallback; otherwise the primary
// live query decides, with its candidate list retained for the
// selection audit.
func (s *SelectorService) Select(ctx context.Context, cfg category.Config, contestID *int64) (Selection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectorService.Select")
	defer span.End()

	if cfg.Name == "" {
		return Selection{}, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}

	criteria := contest.Criteria{
		Sport:       cfg.Name,
		MinEntryFee: cfg.MinEntryFee,
		Keyword:     cfg.Keyword,
		Now:         s.now(),
	}

	candidates, err := s.contestRepo.LiveCandidates(ctx, criteria, s.candidateLimit)
	if err != nil {
		return Selection{}, fmt.Errorf("list live candidates: %w", err)
	}
	sortCandidates(candidates)

	mode := ModePrimaryLive
	var selected contest.Contest
	if contestID != nil {
		mode = ModeExplicitID
		item, exists, err := s.contestRepo.GetByID(ctx, *contestID)
		if err != nil {
			return Selection{}, fmt.Errorf("get contest by id: %w", err)
		}
		if exists {
			selected = item
		} else {
			detail, err := s.source.ContestDetail(ctx, *contestID)
			if err != nil {
				return Selection{}, fmt.Errorf("%w: fetch contest detail for id=%d: %v", ErrDependencyUnavailable, *contestID, err)
			}
			selected = detail
		}
	} else {
		item, exists, err := s.contestRepo.LiveContest(ctx, criteria)
		if err != nil {
			return Selection{}, fmt.Errorf("get live contest: %w", err)
		}
		if !exists {
			return Selection{}, fmt.Errorf("%w: no live contest for sport %s", ErrNotFound, cfg.Name)
		}
		selected = item
	}

	if s.logger != nil {
		s.logger.Info("selected contest",
			"sport", cfg.Name,
			"contest_id", selected.ID,
			"mode", mode,
			"candidates", len(candidates),
		)
	}

	return Selection{
		Contest:    selected,
		Mode:       mode,
		Candidates: candidates,
		Reason:     contract.NewSelectionReason(mode, cfg.Name, cfg.MinEntryFee, cfg.Keyword, len(candidates), contestID),
	}, nil
}

// sortCandidates orders the audit list by selection priority, then
// entry fee and entries descending, then contest id.
func sortCandidates(candidates []contest.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.SelectionPriority != b.SelectionPriority {
			return a.SelectionPriority < b.SelectionPriority
		}
		if a.EntryFee != b.EntryFee {
			return a.EntryFee > b.EntryFee
		}
		if a.Entries != b.Entries {
			return a.Entries > b.Entries
		}
		return a.ContestID < b.ContestID
	})
}
