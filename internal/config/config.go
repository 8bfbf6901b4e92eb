package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable pedtrack settings.
type Config struct {
	LogPath        string `json:"log_path"`        // game chat log to tail
	PlayerName     string `json:"player_name"`     // filter Globals broadcasts to this avatar
	MarkupPercent  string `json:"markup_percent"`  // percent over TT applied to loot rows
	DataDir        string `json:"data_dir"`        // catalog + archive databases
	PollIntervalMS int    `json:"poll_interval_ms"`
	PendingQueue   int    `json:"pending_queue"` // events buffered with no session active
	DedupWindow    int    `json:"dedup_window"`  // recent events remembered for replay suppression
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		MarkupPercent:  "0",
		PollIntervalMS: 100,
	}
}

// GlobalPath returns the global config file location:
// ~/.config/pedtrack/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pedtrack", "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .pedtrackconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".pedtrackconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.LogPath != "" {
			result.LogPath = c.LogPath
		}
		if c.PlayerName != "" {
			result.PlayerName = c.PlayerName
		}
		if c.MarkupPercent != "" {
			result.MarkupPercent = c.MarkupPercent
		}
		if c.DataDir != "" {
			result.DataDir = c.DataDir
		}
		if c.PollIntervalMS > 0 {
			result.PollIntervalMS = c.PollIntervalMS
		}
		if c.PendingQueue > 0 {
			result.PendingQueue = c.PendingQueue
		}
		if c.DedupWindow > 0 {
			result.DedupWindow = c.DedupWindow
		}
	}
	return result
}

// ResolveDataDir returns the directory for the catalog and archive
// databases, defaulting to the XDG data directory, creating it if needed.
func ResolveDataDir(cfg Config) (string, error) {
	dir := cfg.DataDir
	if dir == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".local", "share")
		}
		dir = filepath.Join(base, "pedtrack")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Save writes cfg as JSON to path, creating parent directories.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
