package usecase

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/platform/logging"
)

const manifestVersion = 1

var validSportStatuses = map[string]struct{}{
	"ok":    {},
	"stale": {},
	"error": {},
}

// PublishResult lists the files a publish run wrote under the root.
type PublishResult struct {
	SnapshotPath string
	LatestPath   string
	ManifestPath string
}

// PublisherService writes canonical bundles under a serving root and
// maintains the discovery files dashboards poll: latest.json pointing
// at the newest bundle and a per-day manifest of every publish.
type PublisherService struct {
	root   string
	logger *logging.Logger
}

func NewPublisherService(root string, logger *logging.Logger) *PublisherService {
	return &PublisherService{root: root, logger: logger}
}

// Publish persists the bundle and refreshes latest.json plus the daily
// manifest. Manifest entries are deduplicated by snapshot_at so a
// republish replaces its earlier entry instead of stacking one.
func (s *PublisherService) Publish(ctx context.Context, bundle BundleResult) (PublishResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PublisherService.Publish")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if s.root == "" {
		return PublishResult{}, fmt.Errorf("%w: publish root is required", ErrInvalidInput)
	}

	snapshotAt, err := coerceISO(bundle.Payload["snapshot_at"], "snapshot_at")
	if err != nil {
		return PublishResult{}, err
	}
	generatedAt, err := coerceISO(bundle.Payload["generated_at"], "generated_at")
	if err != nil {
		return PublishResult{}, err
	}
	dateUTC := snapshotAt[:10]

	relPath := snapshotRelPath(snapshotAt, dateUTC)
	snapshotPath := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := writeFileAtomic(snapshotPath, bundle.Canonical); err != nil {
		return PublishResult{}, errors.Wrap(err, "write snapshot bundle")
	}

	manifestRelToday := "manifest/" + dateUTC + ".json"
	latest, err := buildLatestPayload(bundle.Payload, snapshotAt, generatedAt, relPath, manifestRelToday, dateUTC)
	if err != nil {
		return PublishResult{}, err
	}
	latestBytes, err := contract.StableJSON(latest)
	if err != nil {
		return PublishResult{}, err
	}
	latestPath := filepath.Join(s.root, "latest.json")
	if err := writeFileAtomic(latestPath, latestBytes); err != nil {
		return PublishResult{}, errors.Wrap(err, "write latest.json")
	}

	manifestPath := filepath.Join(s.root, "manifest", dateUTC+".json")
	entry, err := buildManifestEntry(bundle.Payload, snapshotAt, generatedAt, relPath, len(bundle.Canonical))
	if err != nil {
		return PublishResult{}, err
	}
	manifest, err := mergeManifest(manifestPath, dateUTC, generatedAt, entry)
	if err != nil {
		return PublishResult{}, err
	}
	manifestBytes, err := contract.StableJSON(manifest)
	if err != nil {
		return PublishResult{}, err
	}
	if err := writeFileAtomic(manifestPath, manifestBytes); err != nil {
		return PublishResult{}, errors.Wrap(err, "write daily manifest")
	}

	s.logger.Info("snapshot published",
		"snapshot_path", snapshotPath,
		"latest_path", latestPath,
		"manifest_path", manifestPath,
		"byte_size", len(bundle.Canonical),
	)
	return PublishResult{
		SnapshotPath: snapshotPath,
		LatestPath:   latestPath,
		ManifestPath: manifestPath,
	}, nil
}

func snapshotRelPath(snapshotAt, dateUTC string) string {
	stamp := strings.NewReplacer(":", "", "-", "", "T", "-", "Z", "").Replace(snapshotAt)
	return path.Join("snapshots", dateUTC, stamp+".json")
}

func buildLatestPayload(
	payload map[string]any,
	snapshotAt, generatedAt, relPath, manifestRelToday, dateUTC string,
) (map[string]any, error) {
	dayStart, err := time.Parse("2006-01-02", dateUTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid snapshot date %q", ErrInvalidInput, dateUTC)
	}
	yesterday := dayStart.AddDate(0, 0, -1).Format("2006-01-02")
	return map[string]any{
		"latest_snapshot_path":    relPath,
		"snapshot_at":             snapshotAt,
		"generated_at":            generatedAt,
		"available_sports":        sortedSportKeys(payload),
		"manifest_today_path":     manifestRelToday,
		"manifest_yesterday_path": "manifest/" + yesterday + ".json",
	}, nil
}

func buildManifestEntry(
	payload map[string]any,
	snapshotAt, generatedAt, relPath string,
	byteSize int,
) (map[string]any, error) {
	sports, _ := payload["sports"].(map[string]any)
	sportsPresent := sortedSportKeys(payload)

	contestCounts := map[string]any{}
	stateCounts := map[string]any{}
	sportsStatus := map[string]any{}
	for _, sport := range sportsPresent {
		sportPayload, _ := sports[sport].(map[string]any)
		contests, _ := sportPayload["contests"].([]any)
		contestCounts[sport] = len(contests)

		for _, item := range contests {
			contestObject, _ := item.(map[string]any)
			state := strings.ToLower(strings.TrimSpace(stringOrEmpty(contestObject["state"])))
			switch state {
			case contract.StateUpcoming, contract.StateLive, contract.StateCompleted, contract.StateCancelled:
			default:
				state = "unknown"
			}
			stateCounts[state] = intOrZero(stateCounts[state]) + 1
		}

		status := strings.ToLower(strings.TrimSpace(stringOrEmpty(sportPayload["status"])))
		if _, ok := validSportStatuses[status]; !ok {
			status = "ok"
			if stringOrEmpty(sportPayload["error"]) != "" {
				status = "error"
			}
		}
		updatedAt := stringOrEmpty(sportPayload["updated_at"])
		if updatedAt == "" {
			updatedAt = generatedAt
		}
		if _, ok := contract.ParseUTCISO(updatedAt); !ok {
			return nil, fmt.Errorf("%w: sports.%s.updated_at is not a timestamp", ErrContractViolation, sport)
		}
		entryStatus := map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		}
		if message := stringOrEmpty(sportPayload["error"]); message != "" {
			entryStatus["error"] = message
		}
		sportsStatus[sport] = entryStatus
	}

	return map[string]any{
		"snapshot_at":             snapshotAt,
		"path":                    relPath,
		"byte_size":               byteSize,
		"sports_present":          sportsPresent,
		"contest_counts_by_sport": contestCounts,
		"state_counts":            stateCounts,
		"sports_status":           sportsStatus,
	}, nil
}

func mergeManifest(manifestPath, dateUTC, generatedAt string, entry map[string]any) (map[string]any, error) {
	var snapshots []any
	raw, err := os.ReadFile(manifestPath)
	switch {
	case err == nil:
		var existing map[string]any
		if err := sonic.Unmarshal(raw, &existing); err != nil {
			return nil, errors.Wrap(err, "parse existing manifest")
		}
		snapshots, _ = existing["snapshots"].([]any)
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrap(err, "read existing manifest")
	}

	merged := make([]any, 0, len(snapshots)+1)
	for _, item := range snapshots {
		existingEntry, _ := item.(map[string]any)
		if stringOrEmpty(existingEntry["snapshot_at"]) == stringOrEmpty(entry["snapshot_at"]) {
			continue
		}
		merged = append(merged, item)
	}
	merged = append(merged, entry)
	sort.SliceStable(merged, func(i, j int) bool {
		a, _ := merged[i].(map[string]any)
		b, _ := merged[j].(map[string]any)
		return stringOrEmpty(a["snapshot_at"]) > stringOrEmpty(b["snapshot_at"])
	})

	return map[string]any{
		"manifest_version": manifestVersion,
		"date_utc":         dateUTC,
		"generated_at":     generatedAt,
		"snapshots":        merged,
	}, nil
}

// writeFileAtomic stages to a temp file in the target directory and
// renames over the destination so pollers never see a partial file.
func writeFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func coerceISO(value any, fieldName string) (string, error) {
	text := strings.TrimSpace(stringOrEmpty(value))
	if text == "" {
		return "", fmt.Errorf("%w: payload missing required field %s", ErrInvalidInput, fieldName)
	}
	if _, ok := contract.ParseUTCISO(text); !ok {
		return "", fmt.Errorf("%w: field %s is not a timestamp", ErrInvalidInput, fieldName)
	}
	return text, nil
}

func sortedSportKeys(payload map[string]any) []string {
	sports, _ := payload["sports"].(map[string]any)
	out := make([]string, 0, len(sports))
	for key := range sports {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func stringOrEmpty(value any) string {
	text, _ := value.(string)
	return text
}

func intOrZero(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
