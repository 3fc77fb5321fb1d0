package draftkings

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/relomy/dk-results/internal/contract"
	"github.com/relomy/dk-results/internal/domain/contest"
	"github.com/relomy/dk-results/internal/platform/logging"
	"github.com/relomy/dk-results/internal/platform/resilience"
	"github.com/relomy/dk-results/internal/usecase"
)

const (
	defaultSiteBaseURL = "https://www.draftkings.com"
	defaultAPIBaseURL  = "https://api.draftkings.com"

	contestDetailPathFmt   = "/contests/v1/contests/%d?format=json"
	leaderboardPathFmt     = "/scores/v1/leaderboards/%d?format=json&embed=leaderboard"
	entryRosterPathFmt     = "/scores/v2/entries/%d/%s?format=json&embed=roster"
	standingsExportPathFmt = "/contest/exportfullstandingscsv/%d"
	salaryExportPathFmt    = "/lineup/getavailableplayerscsv?contestTypeId=%d&draftGroupId=%d"

	// The export endpoints serve real browsers; the default Go agent gets
	// an HTML interstitial instead of the file.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	defaultLineupWorkers = 4
	maxResponseBytes     = 12 << 20
)

var errDraftKingsTransient = crerr.New("draftkings transient failure")

// salaryContestTypes maps sport codes to the contestTypeId query value of
// the available-players CSV export. Showdown slates share the NFL layout.
var salaryContestTypes = map[string]int{
	"GOLF":        9,
	"SOC":         10,
	"MLB":         12,
	"NFL":         21,
	"NFLSHOWDOWN": 21,
	"NBA":         70,
	"CFB":         94,
	"TEN":         106,
}

type ClientConfig struct {
	HTTPClient     *http.Client
	SiteBaseURL    string
	APIBaseURL     string
	CookieHeader   string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	LineupWorkers  int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches contest data from the provider: contest detail and
// leaderboards from the JSON API, salary and standings exports from the
// site CSV endpoints. Standings and entry requests require session
// cookies captured from a signed-in browser.
type Client struct {
	httpClient     *http.Client
	siteBaseURL    string
	apiBaseURL     string
	cookieHeader   string
	userAgent      string
	maxRetries     int
	lineupWorkers  int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.DataSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	siteBaseURL := strings.TrimRight(strings.TrimSpace(cfg.SiteBaseURL), "/")
	if siteBaseURL == "" {
		siteBaseURL = defaultSiteBaseURL
	}
	apiBaseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	lineupWorkers := cfg.LineupWorkers
	if lineupWorkers <= 0 {
		lineupWorkers = defaultLineupWorkers
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		siteBaseURL:    siteBaseURL,
		apiBaseURL:     apiBaseURL,
		cookieHeader:   strings.TrimSpace(cfg.CookieHeader),
		userAgent:      userAgent,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		lineupWorkers:  lineupWorkers,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) ContestDetail(ctx context.Context, contestID int64) (contest.Contest, error) {
	if contestID <= 0 {
		return contest.Contest{}, fmt.Errorf("contest id must be greater than zero")
	}

	fullURL := c.apiBaseURL + fmt.Sprintf(contestDetailPathFmt, contestID)
	var envelope contestDetailEnvelope
	if err := c.doJSON(ctx, fullURL, &envelope); err != nil {
		return contest.Contest{}, fmt.Errorf("fetch contest detail contest_id=%d: %w", contestID, err)
	}

	mapped := mapContestDetail(contestID, envelope.ContestDetail)
	if err := mapped.Validate(); err != nil {
		return contest.Contest{}, fmt.Errorf("contest detail contest_id=%d incomplete: %w", contestID, err)
	}
	return mapped, nil
}

func (c *Client) SalaryRows(ctx context.Context, sport string, draftGroup int64) ([][]string, error) {
	if draftGroup <= 0 {
		return nil, fmt.Errorf("draft group must be greater than zero")
	}
	contestType, ok := salaryContestTypes[strings.ToUpper(strings.TrimSpace(sport))]
	if !ok {
		return nil, fmt.Errorf("no salary export contest type for sport %q", sport)
	}

	fullURL := c.siteBaseURL + fmt.Sprintf(salaryExportPathFmt, contestType, draftGroup)
	result, err := c.fetchExport(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch salary export draft_group=%d: %w", draftGroup, err)
	}

	rows, err := decodeExportBody(result.contentType, result.body)
	if err != nil {
		return nil, fmt.Errorf("decode salary export draft_group=%d: %w", draftGroup, err)
	}
	return rows, nil
}

func (c *Client) ContestStandings(ctx context.Context, contestID int64) ([][]string, error) {
	if contestID <= 0 {
		return nil, fmt.Errorf("contest id must be greater than zero")
	}

	fullURL := c.siteBaseURL + fmt.Sprintf(standingsExportPathFmt, contestID)
	result, err := c.fetchExport(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch standings export contest_id=%d: %w", contestID, err)
	}

	rows, err := decodeExportBody(result.contentType, result.body)
	if err != nil {
		return nil, fmt.Errorf("decode standings export contest_id=%d: %w", contestID, err)
	}
	return rows, nil
}

func (c *Client) LeaderboardPayouts(ctx context.Context, contestID int64) (map[string]int, error) {
	if contestID <= 0 {
		return nil, fmt.Errorf("contest id must be greater than zero")
	}

	fullURL := c.apiBaseURL + fmt.Sprintf(leaderboardPathFmt, contestID)
	var payload map[string]any
	if err := c.doJSON(ctx, fullURL, &payload); err != nil {
		return nil, fmt.Errorf("fetch leaderboard contest_id=%d: %w", contestID, err)
	}
	return contract.LeaderboardPayoutMap(payload), nil
}

type fetchResult struct {
	body        []byte
	contentType string
}

func (c *Client) doJSON(ctx context.Context, fullURL string, target any) error {
	result, err := c.fetch(ctx, fullURL, "application/json")
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(result.body, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) fetchExport(ctx context.Context, fullURL string) (fetchResult, error) {
	return c.fetch(ctx, fullURL, "text/csv, application/zip, */*")
}

func (c *Client) fetch(ctx context.Context, fullURL, accept string) (fetchResult, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "draftkings circuit breaker rejected request", "state", c.breaker.State())
			return fetchResult{}, fmt.Errorf("%w: contest data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		result, reqErr := c.executeRequest(ctx, fullURL, accept)
		if c.circuitEnabled {
			if reqErr != nil && isDraftKingsCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return result, reqErr
	})
	if err != nil {
		return fetchResult{}, err
	}

	result, ok := out.(fetchResult)
	if !ok {
		return fetchResult{}, fmt.Errorf("unexpected response payload type %T", out)
	}
	return result, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, accept string) (fetchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fetchResult{}, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", c.userAgent)
		if c.cookieHeader != "" {
			req.Header.Set("Cookie", c.cookieHeader)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errDraftKingsTransient, sanitizeSensitiveText(err.Error(), c.cookieHeader))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errDraftKingsTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return fetchResult{body: raw, contentType: resp.Header.Get("Content-Type")}, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errDraftKingsTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return fetchResult{}, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fetchResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "draftkings request failed", "url", fullURL, "error", lastErr)
	return fetchResult{}, lastErr
}

// decodeExportBody turns an export response into CSV rows. The site answers
// an unauthenticated or expired session with an HTML sign-in page, and big
// contests come back zipped.
func decodeExportBody(contentType string, body []byte) ([][]string, error) {
	kind := strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(kind, "text/html") {
		return nil, fmt.Errorf("export returned html; session cookies were rejected")
	}

	if strings.Contains(kind, "zip") || bytes.HasPrefix(body, []byte("PK")) {
		archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return nil, fmt.Errorf("open export archive: %w", err)
		}
		for _, file := range archive.File {
			if !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
				continue
			}
			entry, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("open archived csv %s: %w", file.Name, err)
			}
			raw, readErr := io.ReadAll(io.LimitReader(entry, maxResponseBytes))
			_ = entry.Close()
			if readErr != nil {
				return nil, fmt.Errorf("read archived csv %s: %w", file.Name, readErr)
			}
			return parseCSVRows(raw)
		}
		return nil, fmt.Errorf("export archive contains no csv file")
	}

	return parseCSVRows(body)
}

func parseCSVRows(raw []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	// Standings exports append roster columns of varying width after the
	// entrant section.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv rows: %w", err)
	}
	return rows, nil
}

func sanitizeSensitiveText(value, secret string) string {
	value = strings.TrimSpace(value)
	if value == "" || secret == "" {
		return value
	}
	return strings.ReplaceAll(value, secret, "REDACTED")
}

func isDraftKingsCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errDraftKingsTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
