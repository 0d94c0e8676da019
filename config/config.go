// Package config reads and writes the trainer's settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/player"
	"github.com/mrdg/amadinda/rules"
	"github.com/mrdg/amadinda/tubs"
	"gopkg.in/yaml.v3"
)

// Layers selects the sounds played on top of the pattern.
type Layers struct {
	Octave     bool `yaml:"octave"`
	Omukoonezi bool `yaml:"omukoonezi"`
	Metronome  bool `yaml:"metronome"`
	Countoff   bool `yaml:"countoff"`
}

// Levels are percentages, 0 to 100.
type Levels struct {
	Overall     int `yaml:"overall"`
	Main        int `yaml:"main"`
	UpperOctave int `yaml:"upper_octave"`
	Omukoonezi  int `yaml:"omukoonezi"`
	Metronome   int `yaml:"metronome"`
}

type Config struct {
	Samples     string   `yaml:"samples"`
	Tempo       int      `yaml:"tempo"`
	Length      int      `yaml:"length"`
	Subdivision int      `yaml:"subdivision"`
	Interleave  bool     `yaml:"interleave"`
	Loop        bool     `yaml:"loop"`
	Layers      Layers   `yaml:"layers"`
	Levels      Levels   `yaml:"levels"`
	Gain        float64  `yaml:"gain"`
	Rules       []string `yaml:"rules,omitempty"`
	Numbers     bool     `yaml:"numbers"` // show 1-5 instead of note names
	Library     string   `yaml:"library,omitempty"`
	LogLevel    string   `yaml:"log_level"`
}

// Default returns the settings used when no file exists. The player fields
// mirror player.DefaultOptions.
func Default() *Config {
	opts := player.DefaultOptions()
	cfg := &Config{
		Tempo:       opts.Tempo,
		Length:      tubs.LongLength,
		Subdivision: opts.Subdivision,
		Interleave:  opts.Interleave,
		Loop:        opts.Loop,
		Layers: Layers{
			Octave:     opts.Layers.Octave,
			Omukoonezi: opts.Layers.Omukoonezi,
			Metronome:  opts.Layers.Metronome,
			Countoff:   opts.Layers.Countoff,
		},
		Levels: Levels{
			Overall:     percent(opts.Levels.Overall),
			Main:        percent(opts.Levels.Main),
			UpperOctave: percent(opts.Levels.UpperOctave),
			Omukoonezi:  percent(opts.Levels.Omukoonezi),
			Metronome:   percent(opts.Levels.Metronome),
		},
		LogLevel: "info",
	}
	if dir, err := Dir(); err == nil {
		cfg.Samples = filepath.Join(dir, "samples")
	}
	return cfg
}

func percent(f float64) int {
	return int(f*100 + 0.5)
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "amadinda"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at path over the defaults. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Tempo < 20 || c.Tempo > 400 {
		errs = append(errs, fmt.Errorf("tempo %d is outside 20-400", c.Tempo))
	}
	if !tubs.ValidLength(c.Length) {
		errs = append(errs, fmt.Errorf("length must be %d or %d, got %d",
			tubs.ShortLength, tubs.LongLength, c.Length))
	}
	if c.Subdivision < 1 || c.Subdivision > 4 {
		errs = append(errs, fmt.Errorf("subdivision %d is outside 1-4", c.Subdivision))
	}
	for _, lv := range []struct {
		name string
		v    int
	}{
		{"overall", c.Levels.Overall},
		{"main", c.Levels.Main},
		{"upper_octave", c.Levels.UpperOctave},
		{"omukoonezi", c.Levels.Omukoonezi},
		{"metronome", c.Levels.Metronome},
	} {
		if lv.v < 0 || lv.v > 100 {
			errs = append(errs, fmt.Errorf("level %s %d is outside 0-100", lv.name, lv.v))
		}
	}
	if c.Gain < -40 || c.Gain > 10 {
		errs = append(errs, fmt.Errorf("gain %vdB is outside -40-10", c.Gain))
	}
	if _, err := rules.Resolve(c.Rules...); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PlayerOptions converts the settings to player options.
func (c *Config) PlayerOptions() player.Options {
	return player.Options{
		Tempo:       c.Tempo,
		Subdivision: c.Subdivision,
		Interleave:  c.Interleave,
		Loop:        c.Loop,
		Layers: player.Layers{
			Octave:     c.Layers.Octave,
			Omukoonezi: c.Layers.Omukoonezi,
			Metronome:  c.Layers.Metronome,
			Countoff:   c.Layers.Countoff,
		},
		Levels: player.Levels{
			Overall:     float64(c.Levels.Overall) / 100,
			Main:        float64(c.Levels.Main) / 100,
			UpperOctave: float64(c.Levels.UpperOctave) / 100,
			Omukoonezi:  float64(c.Levels.Omukoonezi) / 100,
			Metronome:   float64(c.Levels.Metronome) / 100,
		},
	}
}

// RuleNames returns the configured rules, or the defaults for the
// playback mode: relaxed, plus the grid rules when the voices sound
// together.
func (c *Config) RuleNames() []string {
	if len(c.Rules) > 0 {
		return c.Rules
	}
	return DefaultRules(c.Interleave)
}

func DefaultRules(interleave bool) []string {
	if interleave {
		return []string{rules.RelaxedSet}
	}
	return []string{rules.RelaxedSet, rules.GridSet}
}
