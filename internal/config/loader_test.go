package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	EnvBotToken, EnvAppID, EnvGuildID, EnvPublicKey, EnvOwnerID, EnvStore, EnvSQLiteDSN,
	EnvDataDir, EnvWizardTTL, EnvReminderLead, EnvReminderChannel, EnvInteractionsAddr,
	EnvLogLevel, EnvTimezone,
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.Store != StoreSQLite {
			t.Fatalf("expected sqlite store by default, got %q", cfg.Store)
		}
		if cfg.WizardTTL != 15*time.Minute {
			t.Fatalf("expected default wizard TTL 15m, got %s", cfg.WizardTTL)
		}
		if cfg.ReminderLead != time.Hour {
			t.Fatalf("expected default reminder lead 1h, got %s", cfg.ReminderLead)
		}
		if cfg.LogLevel != slog.LevelInfo || cfg.Location != time.UTC {
			t.Fatalf("unexpected defaults: level=%v location=%v", cfg.LogLevel, cfg.Location)
		}
	})

	t.Run("parses every variable", func(t *testing.T) {
		clearEnv(t)
		public, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			t.Fatalf("GenerateKey returned error: %v", err)
		}
		t.Setenv(EnvBotToken, "token")
		t.Setenv(EnvAppID, "app")
		t.Setenv(EnvPublicKey, hex.EncodeToString(public))
		t.Setenv(EnvStore, "FILE")
		t.Setenv(EnvDataDir, "/var/lib/classbot")
		t.Setenv(EnvWizardTTL, "5m")
		t.Setenv(EnvReminderLead, "30m")
		t.Setenv(EnvReminderChannel, "chan-remind")
		t.Setenv(EnvInteractionsAddr, ":8080")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvTimezone, "UTC")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Store != StoreFile || cfg.DataDir != "/var/lib/classbot" {
			t.Fatalf("unexpected store settings: %q %q", cfg.Store, cfg.DataDir)
		}
		if cfg.WizardTTL != 5*time.Minute || cfg.ReminderLead != 30*time.Minute {
			t.Fatalf("unexpected durations: %s %s", cfg.WizardTTL, cfg.ReminderLead)
		}
		if !public.Equal(cfg.PublicKey) {
			t.Fatalf("public key not decoded")
		}
		if cfg.LogLevel != slog.LevelDebug || cfg.ReminderChannelID != "chan-remind" {
			t.Fatalf("unexpected values: %+v", cfg)
		}
		if err := cfg.RequireServe(); err != nil {
			t.Fatalf("RequireServe returned error: %v", err)
		}
	})

	t.Run("collects invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvPublicKey, "zz")
		t.Setenv(EnvStore, "postgres")
		t.Setenv(EnvWizardTTL, "-1m")
		t.Setenv(EnvLogLevel, "loud")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{EnvPublicKey, EnvStore, EnvWizardTTL, EnvLogLevel} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("reports missing credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvInteractionsAddr, ":8080")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		err = cfg.RequireServe()
		if err == nil {
			t.Fatalf("expected missing credentials")
		}
		expected := "config: missing required environment variables: DISCORD_BOT_TOKEN, DISCORD_PUBLIC_KEY"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CLASSBOT_OWNER_ID=owner-1\nDISCORD_APP_ID=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(EnvAppID, "from-env")
	// godotenv sets variables the process did not define; unset the blanked one
	os.Unsetenv(EnvOwnerID)

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv(EnvOwnerID); got != "owner-1" {
		t.Fatalf("expected owner from file, got %q", got)
	}
	if got := os.Getenv(EnvAppID); got != "from-env" {
		t.Fatalf("expected the environment to win, got %q", got)
	}
	os.Unsetenv(EnvOwnerID)
}
