// Package config handles the JSON config file under ~/.config/arpseq,
// environment overrides, and saved pattern presets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"

	"arpseq/engine"
)

// Config is the app configuration. Environment variables override the
// file; unset variables leave the loaded values alone.
type Config struct {
	Seed       uint64 `json:"seed" env:"ARPSEQ_SEED"`
	BPM        int    `json:"bpm" env:"ARPSEQ_BPM"`
	Division   int    `json:"division" env:"ARPSEQ_DIVISION"` // steps per beat, 4 = 16ths
	SampleRate int    `json:"sampleRate" env:"ARPSEQ_SAMPLE_RATE"`
	OutPort    string `json:"outPort" env:"ARPSEQ_OUT_PORT"` // substring match on the port name
	InPort     string `json:"inPort,omitempty" env:"ARPSEQ_IN_PORT"`
	Channel    uint8  `json:"channel" env:"ARPSEQ_CHANNEL"`    // 0-15
	RootNote   uint8  `json:"rootNote" env:"ARPSEQ_ROOT_NOTE"` // pitch offset 0 lands here
	FillCC     uint8  `json:"fillCC" env:"ARPSEQ_FILL_CC"`     // controller that latches fill
	ToggleNote uint8  `json:"toggleNote,omitempty" env:"ARPSEQ_TOGGLE_NOTE"` // 0 disables
	Theme      string `json:"theme" env:"ARPSEQ_THEME"`
	Debug      bool   `json:"debug,omitempty" env:"ARPSEQ_DEBUG"`
}

// Default returns the config used when no file exists
func Default() *Config {
	return &Config{
		Seed:       1,
		BPM:        120,
		Division:   4,
		SampleRate: 48000,
		Channel:    0,
		RootNote:   60, // C4
		FillCC:     64, // sustain pedal
		Theme:      "ember",
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "arpseq"), nil
}

func path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file, falls back to defaults when it is missing,
// then applies environment overrides and clamps everything into range
func Load() (*Config, error) {
	cfg := Default()

	p, err := path()
	if err == nil {
		data, err := os.ReadFile(p)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", p, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.clamp()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	p, err := path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

// clamp keeps loaded values usable; a hand-edited file should degrade to
// the nearest sane setting rather than break playback
func (c *Config) clamp() {
	c.BPM = clampInt(c.BPM, 20, 300)
	c.Division = clampInt(c.Division, 1, 8)
	c.SampleRate = clampInt(c.SampleRate, 8000, 192000)
	if c.Channel > 15 {
		c.Channel = 15
	}
	if c.RootNote > 127 {
		c.RootNote = 127
	}
	if c.FillCC > 127 {
		c.FillCC = 127
	}
	if c.ToggleNote > 127 {
		c.ToggleNote = 127
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Pattern presets live as one JSON file per name under the patterns
// subdirectory. Loads feed the engine through a pattern replacement, so a
// preset landing mid-playback still waits for the step boundary.

func patternsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "patterns"), nil
}

// SavePattern stores a pattern preset under the given name
func SavePattern(name string, p engine.Pattern) error {
	if !validPresetName(name) {
		return fmt.Errorf("config: invalid preset name %q", name)
	}
	dir, err := patternsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), data, 0644)
}

// LoadPattern reads a pattern preset by name
func LoadPattern(name string) (*engine.Pattern, error) {
	if !validPresetName(name) {
		return nil, fmt.Errorf("config: invalid preset name %q", name)
	}
	dir, err := patternsDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, err
	}
	var p engine.Pattern
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse preset %s: %w", name, err)
	}
	return &p, nil
}

// ListPatterns returns the saved preset names, sorted
func ListPatterns() ([]string, error) {
	dir, err := patternsDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".json"); ok && !e.IsDir() {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// validPresetName rejects names that would escape the presets directory
func validPresetName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
