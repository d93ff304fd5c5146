package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	BaseDir  string `toml:"base_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Cover contains configuration for cover composition and encoding.
type Cover struct {
	JPEGQuality      int `toml:"jpeg_quality"`
	ArtCornerRadius  int `toml:"art_corner_radius"`
	TitleWrap        int `toml:"title_wrap"`
	TitleMaxLines    int `toml:"title_max_lines"`
	SubtitleWrap     int `toml:"subtitle_wrap"`
	SubtitleMaxLines int `toml:"subtitle_max_lines"`
}

// Render contains configuration for the raster backend chain.
type Render struct {
	// Backends lists raster backends in preference order. Known names:
	// "library", "inkscape", "rsvg-convert".
	Backends       []string `toml:"backends"`
	InkscapeBinary string   `toml:"inkscape_binary"`
	RsvgBinary     string   `toml:"rsvg_binary"`
}

// Audio contains configuration for cover embedding into audio files.
type Audio struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	Extension    string `toml:"extension"`
}

// Ledger contains configuration for the run history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storypack.
//
// Configuration sections by subsystem:
//   - Paths: story base directory plus log/state locations
//   - Cover: JPEG quality, art corners, and typography wrap budgets
//   - Render: backend order and subprocess binaries
//   - Audio: ffmpeg binary and audio file extension
//   - Ledger: run history database
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Cover   Cover   `toml:"cover"`
	Render  Render  `toml:"render"`
	Audio   Audio   `toml:"audio"`
	Ledger  Ledger  `toml:"ledger"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storypack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found; defaults apply when it was not.
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

	projectPath, err := filepath.Abs("storypack.toml")
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

// StoryDir returns the folder for a story slug under the base directory.
func (c *Config) StoryDir(slug string) string {
	return filepath.Join(c.Paths.BaseDir, slug)
}

// LocksDir returns the directory holding per-story lock files. Locks live
// under the state directory so story folders stay free of bookkeeping files.
func (c *Config) LocksDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.BaseDir, c.Paths.LogDir, c.Paths.StateDir, c.LocksDir()}
	if c.Ledger.Enabled && strings.TrimSpace(c.Ledger.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Ledger.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
