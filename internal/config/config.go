// Package config loads the fieldsift configuration file. Settings here
// are defaults; command-line flags override them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultDebounceMs is the keystroke debounce applied when neither the
// config file nor the --debounce-ms flag sets one.
const DefaultDebounceMs = 300

// DefaultPlaceholder is shown in the interactive search input when it
// is empty.
const DefaultPlaceholder = "Type to filter records..."

// Config is the on-disk configuration shape.
type Config struct {
	// DebounceMs delays filtering after the last keystroke. Pointer so
	// an explicit 0 (filter on every keystroke) is distinguishable from
	// "not set".
	DebounceMs *int `yaml:"debounce_ms,omitempty"`

	// Placeholder text for the interactive search input.
	Placeholder string `yaml:"placeholder,omitempty"`

	// AutoFocus focuses the search input on interactive startup.
	AutoFocus *bool `yaml:"auto_focus,omitempty"`

	// NoColor disables styled output.
	NoColor bool `yaml:"no_color,omitempty"`

	// ResultLimit caps how many filtered records are printed or shown.
	// Zero means unlimited.
	ResultLimit int `yaml:"result_limit,omitempty"`

	// PerField switches matching to boundary-strict per-field testing
	// instead of the default joined-text substring.
	PerField bool `yaml:"per_field,omitempty"`

	// IdentityKey names the record field used for change suppression.
	IdentityKey string `yaml:"identity_key,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	debounce := DefaultDebounceMs
	autoFocus := true
	return Config{
		DebounceMs:  &debounce,
		Placeholder: DefaultPlaceholder,
		AutoFocus:   &autoFocus,
		IdentityKey: "id",
	}
}

// Debounce returns the effective debounce in milliseconds.
func (c Config) Debounce() int {
	if c.DebounceMs == nil {
		return DefaultDebounceMs
	}
	return *c.DebounceMs
}

// Focused returns whether the search input starts focused.
func (c Config) Focused() bool {
	if c.AutoFocus == nil {
		return true
	}
	return *c.AutoFocus
}

// Load reads configuration from an explicit path, or from the default
// location when path is empty. A missing default file yields Default();
// a missing explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config file: %w", err)
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.IdentityKey == "" {
		cfg.IdentityKey = "id"
	}
	if cfg.Debounce() < 0 {
		return Config{}, fmt.Errorf("debounce_ms must not be negative")
	}
	return cfg, nil
}

// defaultPath resolves $XDG_CONFIG_HOME/fieldsift/config.yaml, falling
// back to ~/.config/fieldsift/config.yaml.
func defaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "fieldsift", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fieldsift", "config.yaml")
}
