package memory

import (
	"context"
	"sync"

	"github.com/relomy/dk-results/internal/domain/announcement"
)

type AnnouncementRepository struct {
	mu     sync.Mutex
	counts map[announcement.Key]int
}

func NewAnnouncementRepository() *AnnouncementRepository {
	return &AnnouncementRepository{counts: make(map[announcement.Key]int)}
}

func (r *AnnouncementRepository) Get(_ context.Context, key announcement.Key) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[key], nil
}

func (r *AnnouncementRepository) Ensure(_ context.Context, key announcement.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counts[key]; !ok {
		r.counts[key] = 0
	}

	return nil
}

// CompareAndSwap holds one lock across read and write so the
// lost-update check matches the conditional UPDATE it stands in for.
func (r *AnnouncementRepository) CompareAndSwap(_ context.Context, key announcement.Key, oldCount, newCount int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts[key] != oldCount {
		return false, nil
	}
	r.counts[key] = newCount

	return true, nil
}
