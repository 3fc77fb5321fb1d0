package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/relomy/dk-results/internal/domain/contest"
)

type ContestRepository struct {
	mu       sync.RWMutex
	contests map[int64]contest.Contest
}

func NewContestRepository(contests []contest.Contest) *ContestRepository {
	byID := make(map[int64]contest.Contest, len(contests))
	for _, item := range contests {
		byID[item.ID] = item
	}

	return &ContestRepository{contests: byID}
}

func (r *ContestRepository) LiveContest(_ context.Context, criteria contest.Criteria) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ranked := r.rankedCandidates(criteria)
	if len(ranked) == 0 {
		return contest.Contest{}, false, nil
	}

	winner, ok := r.contests[ranked[0].ContestID]
	return winner, ok, nil
}

func (r *ContestRepository) LiveCandidates(_ context.Context, criteria contest.Criteria, limit int) ([]contest.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ranked := r.rankedCandidates(criteria)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

func (r *ContestRepository) GetByID(_ context.Context, id int64) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.contests[id]
	return item, ok, nil
}

func (r *ContestRepository) NextUpcoming(_ context.Context, sport string, now time.Time) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found contest.Contest
	ok := false
	for _, item := range r.contests {
		if !strings.EqualFold(item.Sport, sport) || item.Completed {
			continue
		}
		if !item.StartTime.After(now) {
			continue
		}
		if !ok || item.StartTime.Before(found.StartTime) {
			found = item
			ok = true
		}
	}

	return found, ok, nil
}

func (r *ContestRepository) Upsert(_ context.Context, c contest.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contests[c.ID] = c

	return nil
}

func (r *ContestRepository) UpdateState(_ context.Context, id int64, state string, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.contests[id]
	if !ok {
		return nil
	}
	item.State = state
	item.Completed = completed
	r.contests[id] = item

	return nil
}

func (r *ContestRepository) SyncDraftGroupStart(_ context.Context, draftGroup int64, startTime time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var touched int64
	for id, item := range r.contests {
		if item.DraftGroup != draftGroup || item.StartTime.Equal(startTime) {
			continue
		}
		item.StartTime = startTime
		r.contests[id] = item
		touched++
	}

	return touched, nil
}

// rankedCandidates applies the live selection ordering: fee tiers first,
// then entry fee and entries descending, then latest start, then id.
func (r *ContestRepository) rankedCandidates(criteria contest.Criteria) []contest.Candidate {
	var out []contest.Candidate
	for _, item := range r.contests {
		if !strings.EqualFold(item.Sport, criteria.Sport) || item.Completed {
			continue
		}
		if item.StartTime.After(criteria.Now) {
			continue
		}
		if !matchesKeyword(item.Name, criteria.Keyword) {
			continue
		}

		priority := 0
		if item.EntryFee < criteria.MinEntryFee {
			priority = 1
		}
		out = append(out, contest.Candidate{
			ContestID:         item.ID,
			Name:              item.Name,
			EntryFee:          item.EntryFee,
			Entries:           item.Entries,
			StartTime:         item.StartTime,
			SelectionPriority: priority,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SelectionPriority != b.SelectionPriority {
			return a.SelectionPriority < b.SelectionPriority
		}
		if a.EntryFee != b.EntryFee {
			return a.EntryFee > b.EntryFee
		}
		if a.Entries != b.Entries {
			return a.Entries > b.Entries
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.After(b.StartTime)
		}
		return a.ContestID > b.ContestID
	})

	return out
}

// matchesKeyword approximates the SQL LIKE patterns selection criteria
// carry: a bare "%" matches everything, anything else matches by its
// non-wildcard core.
func matchesKeyword(name, keyword string) bool {
	core := strings.Trim(keyword, "%")
	if core == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(core))
}
