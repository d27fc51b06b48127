package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/petems/readaloud-tray/internal/hotkey"
)

// Actions that can be bound to a hotkey.
const (
	ActionReadClipboard   = "read_clipboard"
	ActionStopSpeaking    = "stop_speaking"
	ActionExportClipboard = "export_clipboard"
)

// DefaultOutputDirectory is where exported audio goes unless configured.
const DefaultOutputDirectory = "~/Music/ReadAloud"

// MaxRate is the fastest speaking rate accepted, in words per minute.
const MaxRate = 720

type Config struct {
	// Hotkeys maps an action to a specification such as "ctrl+shift+r".
	// An empty specification leaves the action unbound.
	Hotkeys            map[string]string `json:"hotkeys"`
	Speech             SpeechConfig      `json:"speech"`
	OutputDirectory    string            `json:"output_directory"` // "~" expands to the home directory
	AutoRestartHotkeys bool              `json:"auto_restart_hotkeys"`
	LogLevel           string            `json:"log_level"`
}

type SpeechConfig struct {
	Voice string `json:"voice"` // empty for the system default
	Rate  int    `json:"rate"`  // words per minute, 0 for the engine default
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Hotkeys: map[string]string{
			ActionReadClipboard:   "ctrl+shift+r",
			ActionStopSpeaking:    "ctrl+shift+s",
			ActionExportClipboard: "ctrl+shift+e",
		},
		Speech: SpeechConfig{
			Voice: "",
			Rate:  0,
		},
		OutputDirectory:    DefaultOutputDirectory,
		AutoRestartHotkeys: false,
		LogLevel:           "info",
	}
}

// Load reads the config from the platform path or returns defaults
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path on top of the defaults. A missing file
// is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks hotkey specifications and speech settings.
func (c *Config) Validate() error {
	var errs []error

	actions := make([]string, 0, len(c.Hotkeys))
	for action := range c.Hotkeys {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	seen := make(map[string]string)
	for _, action := range actions {
		spec := c.Hotkeys[action]
		if !knownAction(action) {
			errs = append(errs, fmt.Errorf("unknown hotkey action %q", action))
			continue
		}
		if spec == "" {
			continue
		}
		normalized, err := hotkey.Parse(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("hotkey for %s: %w", action, err))
			continue
		}
		if other, ok := seen[normalized]; ok {
			errs = append(errs, fmt.Errorf("hotkey %q for %s is already bound to %s", spec, action, other))
			continue
		}
		seen[normalized] = action
	}

	if c.Speech.Rate < 0 || c.Speech.Rate > MaxRate {
		errs = append(errs, fmt.Errorf("speech rate %d out of range 0..%d", c.Speech.Rate, MaxRate))
	}

	if strings.TrimSpace(c.OutputDirectory) == "" {
		errs = append(errs, errors.New("output_directory must not be empty"))
	}

	return errors.Join(errs...)
}

func knownAction(action string) bool {
	switch action {
	case ActionReadClipboard, ActionStopSpeaking, ActionExportClipboard:
		return true
	}
	return false
}

// ExportDir returns OutputDirectory with a leading "~" expanded.
func (c *Config) ExportDir() (string, error) {
	dir := c.OutputDirectory
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", dir, err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}

// Path returns the platform-specific config file path
func Path() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "readaloud-tray", "config.json")
}
