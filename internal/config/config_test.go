package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "dk-results" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.StandingsLimit != 500 {
		t.Fatalf("unexpected default standings limit: %d", cfg.StandingsLimit)
	}
	if cfg.CandidateLimit != 5 {
		t.Fatalf("unexpected default candidate limit: %d", cfg.CandidateLimit)
	}
	if cfg.DataTimezone != "America/New_York" {
		t.Fatalf("unexpected default data timezone: %q", cfg.DataTimezone)
	}
	if cfg.NotifierMode != NotifierNone {
		t.Fatalf("unexpected default notifier mode: %q", cfg.NotifierMode)
	}
	if len(cfg.Sports) != 1 || cfg.Sports[0] != "NFL" {
		t.Fatalf("unexpected default sports: %+v", cfg.Sports)
	}
}

func TestLoad_SportsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SPORTS", " NFL, GOLF ,NBA ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Sports) != 3 || cfg.Sports[1] != "GOLF" {
		t.Fatalf("unexpected sports: %+v", cfg.Sports)
	}
}

func TestLoad_SelectionOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SPORT_MIN_FEE_MAP", "nfl:10, golf:5")
	t.Setenv("SPORT_KEYWORD_MAP", "GOLF:PGA%")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MinEntryFeeBySport["NFL"] != 10 {
		t.Fatalf("unexpected min fee override: %+v", cfg.MinEntryFeeBySport)
	}
	if cfg.MinEntryFeeBySport["GOLF"] != 5 {
		t.Fatalf("unexpected min fee override: %+v", cfg.MinEntryFeeBySport)
	}
	if cfg.KeywordBySport["GOLF"] != "PGA%" {
		t.Fatalf("unexpected keyword override: %+v", cfg.KeywordBySport)
	}

	t.Run("invalid fee", func(t *testing.T) {
		t.Setenv("SPORT_MIN_FEE_MAP", "NFL:abc")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SPORT_MIN_FEE_MAP")
		}
	})
}

func TestLoad_NotifierValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("invalid mode", func(t *testing.T) {
		t.Setenv("NOTIFIER_MODE", "smoke-signal")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid NOTIFIER_MODE")
		}
	})

	t.Run("webhook requires url", func(t *testing.T) {
		t.Setenv("NOTIFIER_MODE", "webhook")
		t.Setenv("WEBHOOK_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when NOTIFIER_MODE=webhook without WEBHOOK_URL")
		}
	})

	t.Run("telegram requires token and chat", func(t *testing.T) {
		t.Setenv("NOTIFIER_MODE", "telegram")
		t.Setenv("TELEGRAM_TOKEN", "")
		t.Setenv("TELEGRAM_CHAT_ID", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when NOTIFIER_MODE=telegram without credentials")
		}
	})

	t.Run("telegram valid", func(t *testing.T) {
		t.Setenv("NOTIFIER_MODE", "telegram")
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("TELEGRAM_CHAT_ID", "-1001234")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.TelegramChatID != -1001234 {
			t.Fatalf("unexpected chat id: %d", cfg.TelegramChatID)
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "dk-results-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "dk-results-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CircuitBreakerParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DK_CIRCUIT_FAILURE_COUNT", "3")
	t.Setenv("DK_CIRCUIT_OPEN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DKCircuitFailureCount != 3 {
		t.Fatalf("unexpected failure count: %d", cfg.DKCircuitFailureCount)
	}
	if cfg.DKCircuitOpenTimeout != 30*time.Second {
		t.Fatalf("unexpected open timeout: %s", cfg.DKCircuitOpenTimeout)
	}

	t.Run("invalid failure count", func(t *testing.T) {
		t.Setenv("DK_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for DK_CIRCUIT_FAILURE_COUNT=0")
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_StructValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("malformed db url", func(t *testing.T) {
		t.Setenv("DB_URL", "not a uri")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for malformed DB_URL")
		}
	})

	t.Run("malformed api base url", func(t *testing.T) {
		t.Setenv("DK_API_BASE_URL", "::bad::")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for malformed DK_API_BASE_URL")
		}
	})
}
