package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/relomy/dk-results/external/draftkings"
	"github.com/relomy/dk-results/external/notify"
	"github.com/relomy/dk-results/internal/config"
	"github.com/relomy/dk-results/internal/domain/category"
	"github.com/relomy/dk-results/internal/infrastructure/repository/postgres"
	"github.com/relomy/dk-results/internal/platform/logging"
	"github.com/relomy/dk-results/internal/platform/resilience"
	"github.com/relomy/dk-results/internal/usecase"
)

// App holds the wired pipeline services for one process.
type App struct {
	DB        *sqlx.DB
	Source    usecase.DataSource
	Notifier  usecase.Notifier
	Selector  *usecase.SelectorService
	Tracker   *usecase.TrackerService
	Snapshot  *usecase.SnapshotService
	Bundle    *usecase.BundleService
	Publisher *usecase.PublisherService
	VIPs      []string
}

// Build wires repositories, the upstream client, the notifier, and the
// snapshot pipeline from configuration.
func Build(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	category.SetOverrides(cfg.MinEntryFeeBySport, cfg.KeywordBySport)

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	cookieHeader, err := loadCookieHeader(cfg.DKCookiesFile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if cookieHeader == "" {
		logger.Warn("no session cookies configured; standings and lineup exports will be rejected")
	}

	source := draftkings.NewClient(draftkings.ClientConfig{
		SiteBaseURL:  cfg.DKBaseURL,
		APIBaseURL:   cfg.DKAPIBaseURL,
		CookieHeader: cookieHeader,
		Timeout:      cfg.DKTimeout,
		MaxRetries:   cfg.DKMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.DKCircuitEnabled,
			FailureThreshold: cfg.DKCircuitFailureCount,
			OpenTimeout:      cfg.DKCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.DKCircuitHalfOpenMaxReq,
		},
	})

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	vips, err := loadVIPList(cfg.VIPFile, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	contestRepo := postgres.NewContestRepository(db)
	watermarkRepo := postgres.NewAnnouncementRepository(db)

	selector := usecase.NewSelectorService(contestRepo, source, cfg.CandidateLimit, logger)
	tracker := usecase.NewTrackerService(contestRepo, source, logger)
	snapshot := usecase.NewSnapshotService(selector, source, vips, cfg.StandingsLimit, logger)
	if notifier != nil {
		snapshot.SetBonusAnnouncer(usecase.NewBonusService(watermarkRepo, notifier, logger))
	}
	bundle := usecase.NewBundleService(snapshot, cfg.BundleWorkers, logger)
	publisher := usecase.NewPublisherService(cfg.OutputDir, logger)

	return &App{
		DB:        db,
		Source:    source,
		Notifier:  notifier,
		Selector:  selector,
		Tracker:   tracker,
		Snapshot:  snapshot,
		Bundle:    bundle,
		Publisher: publisher,
		VIPs:      vips,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}

func buildNotifier(cfg config.Config, logger *logging.Logger) (usecase.Notifier, error) {
	switch cfg.NotifierMode {
	case config.NotifierWebhook:
		return notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Timeout: cfg.WebhookTimeout,
			Logger:  logger,
		})
	case config.NotifierTelegram:
		return notify.NewTelegramNotifier(notify.TelegramConfig{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramChatID,
			Logger: logger,
		})
	default:
		return nil, nil
	}
}

// loadCookieHeader reads the captured browser cookies, a single Cookie
// header line. An unset path means anonymous access.
func loadCookieHeader(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cookies file: %w", err)
	}

	return strings.TrimSpace(string(raw)), nil
}

func loadVIPList(path string, logger *logging.Logger) ([]string, error) {
	vips, err := notify.LoadVIPs(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("vip file missing; snapshots will carry no vip lineups", "path", path)
			return nil, nil
		}
		return nil, err
	}

	return vips, nil
}
