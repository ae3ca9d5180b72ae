package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/classroom-bot/internal/config"
)

// runCLI executes the root command with a clean environment and returns stdout.
func runCLI(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()

	for _, key := range []string{
		config.EnvBotToken, config.EnvAppID, config.EnvGuildID, config.EnvPublicKey,
		config.EnvOwnerID, config.EnvStore, config.EnvSQLiteDSN, config.EnvDataDir,
		config.EnvWizardTTL, config.EnvReminderLead, config.EnvReminderChannel,
		config.EnvInteractionsAddr, config.EnvLogLevel, config.EnvTimezone,
	} {
		t.Setenv(key, env[key])
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	noEnvFile := filepath.Join(t.TempDir(), "absent.env")
	cmd.SetArgs(append([]string{"--env-file", noEnvFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMigrateCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "classbot.db")

	out, err := runCLI(t, map[string]string{config.EnvSQLiteDSN: dbPath}, "migrate")
	if err != nil {
		t.Fatalf("migrate returned error: %v", err)
	}
	if !strings.Contains(out, "database is up to date") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	// Running again must be a no-op.
	if _, err := runCLI(t, map[string]string{config.EnvSQLiteDSN: dbPath}, "migrate"); err != nil {
		t.Fatalf("second migrate returned error: %v", err)
	}
}

func TestMigrateRejectsFileStore(t *testing.T) {
	_, err := runCLI(t, map[string]string{config.EnvStore: "file", config.EnvDataDir: t.TempDir()}, "migrate")
	if err == nil || !strings.Contains(err.Error(), "no schema") {
		t.Fatalf("expected file store to be rejected, got %v", err)
	}
}

func TestSeedAppendsValuesOnce(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	seed := "professors: [Kowalski, Nowak, Kowalski]\nchannels:\n  schedule: \"111\"\n"
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	env := map[string]string{config.EnvStore: "file", config.EnvDataDir: filepath.Join(dir, "data")}

	out, err := runCLI(t, env, "seed", "--file", seedPath)
	if err != nil {
		t.Fatalf("seed returned error: %v", err)
	}
	if strings.TrimSpace(out) != "added 2 values" {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = runCLI(t, env, "seed", "-f", seedPath)
	if err != nil {
		t.Fatalf("second seed returned error: %v", err)
	}
	if strings.TrimSpace(out) != "added 0 values" {
		t.Fatalf("expected no new values, got %q", out)
	}
}

func TestSeedWithSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seedPath, []byte("locations: [A1]\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	out, err := runCLI(t, map[string]string{config.EnvSQLiteDSN: filepath.Join(dir, "classbot.db")}, "seed", "--file", seedPath)
	if err != nil {
		t.Fatalf("seed returned error: %v", err)
	}
	if strings.TrimSpace(out) != "added 1 values" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommandsReportMissingCredentials(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		missing string
	}{
		{name: "serve", args: []string{"serve"}, missing: config.EnvBotToken},
		{name: "register", args: []string{"register"}, missing: config.EnvAppID},
		{name: "import", args: []string{"import"}, missing: config.EnvBotToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, nil, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.missing) {
				t.Fatalf("expected %s to be reported, got %v", tc.missing, err)
			}
		})
	}
}

func TestImportReportsMissingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.xlsx")
	_, err := runCLI(t, map[string]string{config.EnvBotToken: "token"}, "import", "--file", path)
	if err == nil || !strings.Contains(err.Error(), "missing.xlsx") {
		t.Fatalf("expected the missing workbook to be reported, got %v", err)
	}
}

func TestInvalidEnvironmentFailsEveryCommand(t *testing.T) {
	_, err := runCLI(t, map[string]string{config.EnvLogLevel: "chatty"}, "migrate")
	if err == nil || !strings.Contains(err.Error(), config.EnvLogLevel) {
		t.Fatalf("expected invalid log level to be reported, got %v", err)
	}
}
