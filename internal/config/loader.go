package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/classroom-bot/internal/logging"
)

// Environment variable names.
const (
	EnvBotToken         = "DISCORD_BOT_TOKEN"
	EnvAppID            = "DISCORD_APP_ID"
	EnvGuildID          = "DISCORD_GUILD_ID"
	EnvPublicKey        = "DISCORD_PUBLIC_KEY"
	EnvOwnerID          = "CLASSBOT_OWNER_ID"
	EnvStore            = "CLASSBOT_STORE"
	EnvSQLiteDSN        = "CLASSBOT_SQLITE_DSN"
	EnvDataDir          = "CLASSBOT_DATA_DIR"
	EnvWizardTTL        = "CLASSBOT_WIZARD_TTL"
	EnvReminderLead     = "CLASSBOT_REMINDER_LEAD"
	EnvReminderChannel  = "CLASSBOT_REMINDER_CHANNEL"
	EnvInteractionsAddr = "CLASSBOT_INTERACTIONS_ADDR"
	EnvLogLevel         = "CLASSBOT_LOG_LEVEL"
	EnvTimezone         = "CLASSBOT_TIMEZONE"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config captures environment driven configuration values for the bot.
type Config struct {
	BotToken  string
	AppID     string
	GuildID   string
	PublicKey ed25519.PublicKey
	OwnerID   string

	Store     string
	SQLiteDSN string
	DataDir   string

	WizardTTL         time.Duration
	ReminderLead      time.Duration
	ReminderChannelID string
	Location          *time.Location

	// InteractionsAddr enables the HTTP interactions endpoint when set.
	InteractionsAddr string
	LogLevel         slog.Level
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Malformed values are collected and
// reported together. Required credentials are checked separately by Require
// because not every command needs them.
func Load() (Config, error) {
	cfg := Config{
		Store:        StoreSQLite,
		SQLiteDSN:    "classbot.db",
		DataDir:      "data",
		WizardTTL:    15 * time.Minute,
		ReminderLead: time.Hour,
		Location:     time.UTC,
		LogLevel:     slog.LevelInfo,
	}

	invalid := make([]string, 0, 2)

	cfg.BotToken = env(EnvBotToken)
	cfg.AppID = env(EnvAppID)
	cfg.GuildID = env(EnvGuildID)
	cfg.OwnerID = env(EnvOwnerID)
	cfg.ReminderChannelID = env(EnvReminderChannel)
	cfg.InteractionsAddr = env(EnvInteractionsAddr)

	if key := env(EnvPublicKey); key != "" {
		decoded, err := hex.DecodeString(key)
		if err != nil || len(decoded) != ed25519.PublicKeySize {
			invalid = append(invalid, EnvPublicKey)
		} else {
			cfg.PublicKey = ed25519.PublicKey(decoded)
		}
	}

	if store := strings.ToLower(env(EnvStore)); store != "" {
		switch store {
		case StoreSQLite, StoreFile:
			cfg.Store = store
		default:
			invalid = append(invalid, EnvStore)
		}
	}

	if dsn := env(EnvSQLiteDSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if dir := env(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	if !parseDuration(EnvWizardTTL, &cfg.WizardTTL) {
		invalid = append(invalid, EnvWizardTTL)
	}
	if !parseDuration(EnvReminderLead, &cfg.ReminderLead) {
		invalid = append(invalid, EnvReminderLead)
	}

	if tz := env(EnvTimezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, EnvTimezone)
		} else {
			cfg.Location = loc
		}
	}

	level, err := logging.ParseLevel(env(EnvLogLevel))
	if err != nil {
		invalid = append(invalid, EnvLogLevel)
	}
	cfg.LogLevel = level

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Require reports every named variable that has no value.
func (c Config) Require(keys ...string) error {
	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		if !c.has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireServe checks what the serve command needs: the bot token, plus the
// public key when the HTTP endpoint is enabled.
func (c Config) RequireServe() error {
	keys := []string{EnvBotToken}
	if c.InteractionsAddr != "" {
		keys = append(keys, EnvPublicKey)
	}
	return c.Require(keys...)
}

func (c Config) has(key string) bool {
	switch key {
	case EnvBotToken:
		return c.BotToken != ""
	case EnvAppID:
		return c.AppID != ""
	case EnvGuildID:
		return c.GuildID != ""
	case EnvPublicKey:
		return len(c.PublicKey) == ed25519.PublicKeySize
	case EnvOwnerID:
		return c.OwnerID != ""
	}
	return env(key) != ""
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseDuration overwrites *dst when key holds a positive duration. It
// returns false only for malformed values.
func parseDuration(key string, dst *time.Duration) bool {
	value := env(key)
	if value == "" {
		return true
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return false
	}
	*dst = d
	return true
}
