package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCover(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		return errors.New("paths.base_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateCover() error {
	if c.Cover.JPEGQuality < 1 || c.Cover.JPEGQuality > 100 {
		return errors.New("cover.jpeg_quality must be between 1 and 100")
	}
	if c.Cover.ArtCornerRadius < 0 {
		return errors.New("cover.art_corner_radius must not be negative")
	}
	if err := ensurePositiveMap(map[string]int{
		"cover.title_wrap":         c.Cover.TitleWrap,
		"cover.title_max_lines":    c.Cover.TitleMaxLines,
		"cover.subtitle_wrap":      c.Cover.SubtitleWrap,
		"cover.subtitle_max_lines": c.Cover.SubtitleMaxLines,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	if len(c.Render.Backends) == 0 {
		return errors.New("render.backends must list at least one backend")
	}
	known := map[string]struct{}{
		BackendLibrary:  {},
		BackendInkscape: {},
		BackendRsvg:     {},
	}
	for _, backend := range c.Render.Backends {
		if _, ok := known[backend]; !ok {
			return fmt.Errorf("render.backends: unknown backend %q (known: %s, %s, %s)",
				backend, BackendLibrary, BackendInkscape, BackendRsvg)
		}
	}
	return nil
}

func (c *Config) validateAudio() error {
	if len(c.Audio.Extension) < 2 || !strings.HasPrefix(c.Audio.Extension, ".") {
		return fmt.Errorf("audio.extension must name a file extension, got %q", c.Audio.Extension)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
