package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// normalize expands paths, applies environment overrides, and fills derived
// defaults. It runs after decoding and before validation.
func (c *Config) normalize() error {
	if base := strings.TrimSpace(os.Getenv("STORYPACK_BASE")); base != "" {
		c.Paths.BaseDir = base
	}

	pathFields := []struct {
		name  string
		value *string
	}{
		{"paths.base_dir", &c.Paths.BaseDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	for _, field := range pathFields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("expand %s: %w", field.name, err)
		}
		*field.value = expanded
	}

	if c.Ledger.Enabled {
		ledgerPath := strings.TrimSpace(c.Ledger.Path)
		if ledgerPath == "" {
			ledgerPath = filepath.Join(c.Paths.StateDir, "history.db")
		}
		expanded, err := expandPath(ledgerPath)
		if err != nil {
			return fmt.Errorf("expand ledger.path: %w", err)
		}
		c.Ledger.Path = expanded
	}

	backends := make([]string, 0, len(c.Render.Backends))
	for _, backend := range c.Render.Backends {
		trimmed := strings.ToLower(strings.TrimSpace(backend))
		if trimmed != "" {
			backends = append(backends, trimmed)
		}
	}
	if len(backends) == 0 {
		backends = defaultBackends()
	}
	c.Render.Backends = backends

	if strings.TrimSpace(c.Render.InkscapeBinary) == "" {
		c.Render.InkscapeBinary = defaultInkscapeBinary
	}
	if strings.TrimSpace(c.Render.RsvgBinary) == "" {
		c.Render.RsvgBinary = defaultRsvgBinary
	}
	if strings.TrimSpace(c.Audio.FFmpegBinary) == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}

	ext := strings.ToLower(strings.TrimSpace(c.Audio.Extension))
	if ext == "" {
		ext = defaultAudioExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Audio.Extension = ext

	return nil
}
