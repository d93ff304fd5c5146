package janitor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"storypack/internal/logging"
)

// Janitor removes files the pipeline is done with: consumed source artwork
// and scratch directories. Art deletion only ever touches paths that resolve
// inside the stories folder.
type Janitor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Janitor {
	return &Janitor{logger: logging.NewComponentLogger(logger, "janitor")}
}

// DeleteSourceArt removes the consumed artwork file once its pixels live in
// the finished cover. The path is resolved through symlinks and must land
// inside base; anything that resolves elsewhere is left alone and logged as
// an intentional skip, not an error. Returns whether a file was actually
// removed; errors mean the resolution or removal itself went wrong.
func (j *Janitor) DeleteSourceArt(path, base string) (bool, error) {
	if path == "" {
		return false, nil
	}

	resolved, err := canonical(path)
	if errors.Is(err, os.ErrNotExist) {
		j.logger.Debug("source art already gone", logging.String("path", path))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}

	root, err := canonical(base)
	if err != nil {
		return false, fmt.Errorf("resolve base %s: %w", base, err)
	}

	if !contained(root, resolved) {
		j.logger.Warn("keeping art that resolves outside the stories folder",
			logging.String("path", path),
			logging.String("resolved", resolved))
		return false, nil
	}

	if err := os.Remove(resolved); err != nil {
		return false, fmt.Errorf("remove %s: %w", resolved, err)
	}
	j.logger.Info("source art removed", logging.String("path", resolved))
	return true, nil
}

// Purge removes scratch paths recursively, best effort. Missing paths are
// fine; real failures are logged and swallowed.
func (j *Janitor) Purge(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn("purge failed",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		j.logger.Debug("purged", logging.String("path", path))
	}
}

// canonical resolves a path to its absolute, symlink-free form.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// contained reports whether target sits strictly inside root.
func contained(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
