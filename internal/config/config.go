// Package config loads point-in-time snapshots of the shared TOML config
// file. Callers take a fresh snapshot per invocation instead of caching,
// so edits made by the host UI or by chat commands apply immediately.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ppiankov/phrasegate/internal/perm"
)

// Settings holds every tunable the filter reads.
type Settings struct {
	Plugin struct {
		ConfigVersion string `koanf:"config_version"`
		Enabled       bool   `koanf:"enabled"`
	} `koanf:"plugin"`

	Phrases struct {
		Enabled       bool     `koanf:"enabled"`
		List          []string `koanf:"list"`
		MatchMode     string   `koanf:"match_mode"`
		CaseSensitive bool     `koanf:"case_sensitive"`
	} `koanf:"phrases"`

	Regex struct {
		Enabled       bool     `koanf:"enabled"`
		Patterns      []string `koanf:"patterns"`
		CaseSensitive bool     `koanf:"case_sensitive"`
	} `koanf:"regex"`

	Logging struct {
		LogIgnored bool `koanf:"log_ignored"`
		Debug      bool `koanf:"debug"`
	} `koanf:"logging"`

	UserControl perm.Config `koanf:"user_control"`
}

// Defaults returns settings matching the generated default config file.
func Defaults() *Settings {
	s := &Settings{}
	s.Plugin.ConfigVersion = "1.0.0"
	s.Plugin.Enabled = true
	s.Phrases.Enabled = true
	s.Phrases.MatchMode = "contains"
	s.Regex.Enabled = true
	s.Logging.LogIgnored = true
	s.UserControl.ListType = perm.Whitelist
	return s
}

// Snapshot reads the config file at path. A missing file yields defaults;
// file keys overlay defaults so a hand-trimmed config stays usable.
// Malformed TOML is an error — the caller decides how to degrade.
func Snapshot(path string) (*Settings, error) {
	ko := koanf.New(".")
	if err := ko.Load(file.Provider(path), toml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	s := Defaults()
	if err := ko.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// SnapshotFunc returns a Settings loader bound to a fixed path, for
// components that take fresh snapshots per call.
type SnapshotFunc func() (*Settings, error)

// Snapshotter binds Snapshot to path.
func Snapshotter(path string) SnapshotFunc {
	return func() (*Settings, error) { return Snapshot(path) }
}
