package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Crossfade string    `koanf:"crossfade"` // e.g. "2s"; zero cuts after a short delay
	Silence   string    `koanf:"silence"`   // gap inserted before each track
	Normalize *bool     `koanf:"normalize"` // default: true
	Volume    *float64  `koanf:"volume"`    // 0..1, default: 0.8
	EQ        []float64 `koanf:"eq"`        // 5 band gains in dB
	EQPreset  string    `koanf:"eq_preset"` // named curve, e.g. "Bass Boost"; replaces eq
	LogLevel  string    `koanf:"log_level"` // "debug", "info", "warn", "error"
	LogFile   string    `koanf:"log_file"`  // empty logs to the state dir

	Liveness LivenessConfig `koanf:"liveness"`
	MPRIS    MPRISConfig    `koanf:"mpris"`
}

// LivenessConfig controls the audio graph keep-alive.
type LivenessConfig struct {
	PollInterval string `koanf:"poll_interval"` // default: "2s"
	WakeLock     *bool  `koanf:"wake_lock"`     // hold a logind idle inhibitor while playing (default: true)
	IdleSuspend  string `koanf:"idle_suspend"`  // suspend the device after this long without playback; "0s" never (default: "30s")
}

// MPRISConfig controls the D-Bus media session.
type MPRISConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

func Load() (*Config, error) {
	return load(getConfigPaths())
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		cfg.LogFile = expandPath(cfg.LogFile)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavelane/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wavelane", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetLogLevel returns the configured log level, falling back to info.
func (c *Config) GetLogLevel() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// MPRISEnabled reports whether the media session should be exported.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS.Enabled == nil || *c.MPRIS.Enabled
}
