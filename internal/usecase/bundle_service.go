package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/platform/logging"
)

const defaultBundleWorkers = 4

// SportExporter produces one sport's raw snapshot.
type SportExporter interface {
	Export(ctx context.Context, cfg category.Config, contestID *int64) (*contract.Snapshot, error)
}

// BundleResult is the validated multi-sport envelope plus its stable
// serialization and per-sport outcome counts.
type BundleResult struct {
	Payload      map[string]any
	Canonical    []byte
	SnapshotAt   string
	SportCount   int
	FailureCount int
	Failures     map[string]string
}

// BundleService fans snapshot collection out across sports and folds
// the results into one canonical envelope. Validation is fail-closed:
// a payload with violations is never returned as bytes.
type BundleService struct {
	exporter   SportExporter
	maxWorkers int
	logger     *logging.Logger
	now        func() time.Time
}

func NewBundleService(exporter SportExporter, maxWorkers int, logger *logging.Logger) *BundleService {
	if maxWorkers <= 0 {
		maxWorkers = defaultBundleWorkers
	}
	return &BundleService{
		exporter:   exporter,
		maxWorkers: maxWorkers,
		logger:     logger,
		now:        time.Now,
	}
}

type sportOutcome struct {
	sport    string
	snapshot *contract.Snapshot
	err      error
}

// Build collects every requested sport concurrently and assembles the
// envelope. Individual sport failures become error entries; only an
// empty sport list or a contract violation fails the whole bundle.
func (s *BundleService) Build(ctx context.Context, sports []string) (BundleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BundleService.Build")
	defer span.End()

	start := s.now()

	configs := make([]category.Config, 0, len(sports))
	for _, sport := range sports {
		cfg, ok := category.Lookup(sport)
		if !ok {
			return BundleResult{}, fmt.Errorf("%w: unknown sport %q", ErrInvalidInput, sport)
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return BundleResult{}, fmt.Errorf("%w: at least one sport is required", ErrInvalidInput)
	}

	workerCount := s.maxWorkers
	if workerCount > len(configs) {
		workerCount = len(configs)
	}
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return BundleResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	outcomes := make(chan sportOutcome, len(configs))

	var workers sync.WaitGroup
	for _, cfg := range configs {
		cfg := cfg
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			snapshot, err := s.exporter.Export(ctx, cfg, nil)
			if err != nil {
				s.logger.Error("sport snapshot failed", "sport", cfg.Name, "error", err)
			}
			outcomes <- sportOutcome{sport: cfg.Name, snapshot: snapshot, err: err}
		}); err != nil {
			workers.Done()
			return BundleResult{}, fmt.Errorf("submit sport to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(outcomes)

	snapshots := make(map[string]*contract.Snapshot, len(configs))
	failures := make(map[string]string)
	for outcome := range outcomes {
		if outcome.err != nil {
			failures[outcome.sport] = outcome.err.Error()
			continue
		}
		snapshots[outcome.sport] = outcome.snapshot
	}

	return s.assemble(start, len(configs), snapshots, failures)
}

// BuildOne assembles a single-sport envelope, optionally pinning the
// contest id instead of live selection.
func (s *BundleService) BuildOne(ctx context.Context, sport string, contestID *int64) (BundleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BundleService.BuildOne")
	defer span.End()

	start := s.now()

	cfg, ok := category.Lookup(sport)
	if !ok {
		return BundleResult{}, fmt.Errorf("%w: unknown sport %q", ErrInvalidInput, sport)
	}

	snapshots := make(map[string]*contract.Snapshot, 1)
	failures := make(map[string]string)
	snapshot, err := s.exporter.Export(ctx, cfg, contestID)
	if err != nil {
		s.logger.Error("sport snapshot failed", "sport", cfg.Name, "error", err)
		failures[cfg.Name] = err.Error()
	} else {
		snapshots[cfg.Name] = snapshot
	}

	return s.assemble(start, 1, snapshots, failures)
}

func (s *BundleService) assemble(
	start time.Time,
	sportCount int,
	snapshots map[string]*contract.Snapshot,
	failures map[string]string,
) (BundleResult, error) {
	payload, err := contract.BuildEnvelope(snapshots, failures, s.now())
	if err != nil {
		return BundleResult{}, err
	}
	if violations := contract.ValidateCanonical(payload); len(violations) > 0 {
		s.logger.Error("bundle failed contract validation",
			"violation_count", len(violations),
			"first", violations[0],
		)
		return BundleResult{}, fmt.Errorf("%w: %s", ErrContractViolation, strings.Join(violations, "; "))
	}
	canonical, err := contract.StableJSON(payload)
	if err != nil {
		return BundleResult{}, err
	}

	snapshotAt, _ := payload["snapshot_at"].(string)
	s.logger.Info("bundle built",
		"sports", sportCount,
		"failures", len(failures),
		"bytes", len(canonical),
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)
	return BundleResult{
		Payload:      payload,
		Canonical:    canonical,
		SnapshotAt:   snapshotAt,
		SportCount:   sportCount,
		FailureCount: len(failures),
		Failures:     failures,
	}, nil
}

// SortedSports returns the requested sport names deduplicated in a
// stable order, defaulting to every configured sport.
func SortedSports(requested []string) []string {
	if len(requested) == 0 {
		requested = category.Names()
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, sport := range requested {
		sport = strings.TrimSpace(sport)
		if sport == "" {
			continue
		}
		key := strings.ToUpper(sport)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sport)
	}
	sort.Strings(out)
	return out
}
