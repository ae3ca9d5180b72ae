package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/classroom-bot/internal/application"
)

const sampleSeed = `
professors: [Kowalski, Nowak]
classnames:
  - Algebra
times: ["10:00 - 11:30"]
channels:
  schedule: "111"
  reminder: "333"
`

func TestParseSeed(t *testing.T) {
	t.Parallel()

	seed, err := ParseSeed(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("ParseSeed returned error: %v", err)
	}
	lists := seed.Lists()
	if diff := cmp.Diff([]string{"Kowalski", "Nowak"}, lists[application.ListProfessors]); diff != "" {
		t.Fatalf("professors mismatch (-want +got):\n%s", diff)
	}
	if len(lists[application.ListLocations]) != 0 {
		t.Fatalf("expected no locations, got %v", lists[application.ListLocations])
	}
	want := map[application.ChannelTarget]string{application.ChannelSchedule: "111", application.ChannelReminder: "333"}
	if diff := cmp.Diff(want, seed.ChannelTargets()); diff != "" {
		t.Fatalf("channels mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSeedRejectsUnknownKeysAndEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := ParseSeed(strings.NewReader("teachers: [x]\n")); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	if _, err := ParseSeed(strings.NewReader("  \n")); err == nil {
		t.Fatalf("expected empty input to be rejected")
	}
}

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sampleSeed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile returned error: %v", err)
	}
	if len(seed.Classnames) != 1 {
		t.Fatalf("unexpected seed: %+v", seed)
	}
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
