package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/classroom-bot/internal/application"
)

// Seed is the YAML file read by `classbot seed`.
//
//	professors: [Kowalski, Nowak]
//	classnames: [Algebra]
//	times: ["10:00 - 11:30"]
//	channels:
//	  schedule: "123456789012345678"
type Seed struct {
	Professors []string     `yaml:"professors"`
	Locations  []string     `yaml:"locations"`
	Classnames []string     `yaml:"classnames"`
	Dates      []string     `yaml:"dates"`
	Times      []string     `yaml:"times"`
	Types      []string     `yaml:"types"`
	Channels   SeedChannels `yaml:"channels"`
}

// SeedChannels are the posting channels set by a seed file.
type SeedChannels struct {
	Schedule string `yaml:"schedule"`
	Homework string `yaml:"homework"`
	Reminder string `yaml:"reminder"`
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) (Seed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Seed{}, fmt.Errorf("config: read seed: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Seed{}, errors.New("config: seed file is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("config: decode seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads and decodes the seed file at path.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("config: open seed: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return Seed{}, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// Lists returns the seeded values keyed by configuration list.
func (s Seed) Lists() map[application.ConfigList][]string {
	return map[application.ConfigList][]string{
		application.ListProfessors: s.Professors,
		application.ListLocations:  s.Locations,
		application.ListClassnames: s.Classnames,
		application.ListDates:      s.Dates,
		application.ListTimes:      s.Times,
		application.ListTypes:      s.Types,
	}
}

// ChannelTargets returns the seeded channels; empty entries are omitted.
func (s Seed) ChannelTargets() map[application.ChannelTarget]string {
	out := make(map[application.ChannelTarget]string, 3)
	for target, id := range map[application.ChannelTarget]string{
		application.ChannelSchedule: s.Channels.Schedule,
		application.ChannelHomework: s.Channels.Homework,
		application.ChannelReminder: s.Channels.Reminder,
	} {
		if id != "" {
			out[target] = id
		}
	}
	return out
}
