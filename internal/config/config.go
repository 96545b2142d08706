package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains workspace directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Output contains configuration for the conversion target.
type Output struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Processing contains configuration for page image transformation.
type Processing struct {
	Workers int `toml:"workers"`
	// Profile names a device preset that fills max_width/max_height when
	// they are unset. See DeviceProfiles.
	Profile      string `toml:"profile"`
	MaxWidth     int    `toml:"max_width"`
	MaxHeight    int    `toml:"max_height"`
	Grayscale    bool   `toml:"grayscale"`
	AutoContrast bool   `toml:"auto_contrast"`
	Quality      int    `toml:"quality"`
}

// Kindlegen contains configuration for the external MOBI converter.
type Kindlegen struct {
	Binary      string `toml:"binary"`
	Compression int    `toml:"compression"`
}

// Workflow contains configuration for pipeline timing.
type Workflow struct {
	PollIntervalMS    int `toml:"poll_interval_ms"`
	StaleStagingHours int `toml:"stale_staging_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bindery.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Output: target format and destination directory
//   - Processing: worker count and page image options
//   - Kindlegen: external MOBI converter settings
//   - Workflow: supervisor poll interval and staging retention
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Output     Output     `toml:"output"`
	Processing Processing `toml:"processing"`
	Kindlegen  Kindlegen  `toml:"kindlegen"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bindery/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bindery.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a conversion run. The
// output directory is created on a best-effort basis so config load keeps
// working when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Output.Dir) != "" {
		_ = os.MkdirAll(c.Output.Dir, 0o755)
	}
	return nil
}

// KindlegenBinary returns the kindlegen executable name or path.
func (c *Config) KindlegenBinary() string {
	if bin := strings.TrimSpace(c.Kindlegen.Binary); bin != "" {
		return bin
	}
	return defaultKindlegenBinary
}

// PollInterval returns the supervisor poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalMS) * time.Millisecond
}

// StaleStagingAge returns the age after which abandoned staging directories
// are swept.
func (c *Config) StaleStagingAge() time.Duration {
	return time.Duration(c.Workflow.StaleStagingHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
