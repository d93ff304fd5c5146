package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storypack/internal/config"
	"storypack/internal/layout"
	"storypack/internal/logging"
	"storypack/internal/stage"
)

// rawName is the filename of the intermediate raster inside a workspace.
const rawName = "cover_raw.png"

// Renderer turns a composed document into a raster file.
type Renderer interface {
	// Name identifies the backend in logs and configuration.
	Name() string
	// Available reports whether the backend can run right now. Subprocess
	// backends check for their binary; the in-process backend is always
	// available.
	Available() bool
	// Render rasters the document to outPath.
	Render(ctx context.Context, doc *layout.Document, outPath string) error
}

// Chain tries raster backends in order until one produces output.
type Chain struct {
	backends []Renderer
	logger   *slog.Logger
}

// NewChain builds the backend chain from configuration.
func NewChain(cfg *config.Config, logger *slog.Logger) (*Chain, error) {
	return NewChainWithExecutor(cfg, logger, commandExecutor{})
}

// NewChainWithExecutor builds the chain with a custom subprocess executor.
// Tests use this to fake inkscape and rsvg-convert invocations.
func NewChainWithExecutor(cfg *config.Config, logger *slog.Logger, exec Executor) (*Chain, error) {
	backends := make([]Renderer, 0, len(cfg.Render.Backends))
	for _, name := range cfg.Render.Backends {
		switch name {
		case config.BackendLibrary:
			lib, err := newLibraryRenderer()
			if err != nil {
				return nil, stage.Wrap(stage.ErrConfiguration, "render", "init", "parse embedded fonts", err)
			}
			backends = append(backends, lib)
		case config.BackendInkscape:
			backends = append(backends, &inkscapeRenderer{binary: cfg.Render.InkscapeBinary, exec: exec})
		case config.BackendRsvg:
			backends = append(backends, &rsvgRenderer{binary: cfg.Render.RsvgBinary, exec: exec})
		default:
			return nil, stage.Wrap(stage.ErrConfiguration, "render", "init",
				fmt.Sprintf("unknown backend %q", name), nil)
		}
	}
	return NewChainFromBackends(logger, backends...), nil
}

// NewChainFromBackends wraps explicit backends, in order.
func NewChainFromBackends(logger *slog.Logger, backends ...Renderer) *Chain {
	return &Chain{
		backends: backends,
		logger:   logging.NewComponentLogger(logger, "render"),
	}
}

// Backends returns the backend names in try order.
func (c *Chain) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Render rasters the document into workDir and returns the raster path. Each
// backend gets one attempt; unavailable backends are skipped, failures fall
// through to the next backend, and exhausting the chain is a render error.
func (c *Chain) Render(ctx context.Context, doc *layout.Document, workDir string) (string, error) {
	outPath := filepath.Join(workDir, rawName)
	var attempts []error

	for _, backend := range c.backends {
		if err := ctx.Err(); err != nil {
			return "", stage.Wrap(stage.ErrRender, "render", "raster", "canceled", err)
		}
		if !backend.Available() {
			c.logger.Debug("backend unavailable", logging.String("backend", backend.Name()))
			attempts = append(attempts, fmt.Errorf("%s: unavailable", backend.Name()))
			continue
		}

		err := backend.Render(ctx, doc, outPath)
		if err == nil {
			err = verifyOutput(outPath)
		}
		if err == nil {
			c.logger.Info("raster complete", logging.String("backend", backend.Name()))
			return outPath, nil
		}

		c.logger.Warn("backend failed, trying next",
			logging.String("backend", backend.Name()),
			logging.Error(err))
		attempts = append(attempts, fmt.Errorf("%s: %w", backend.Name(), err))
		_ = os.Remove(outPath)
	}

	return "", stage.Wrap(stage.ErrRender, "render", "raster",
		fmt.Sprintf("all raster backends failed (%s)", strings.Join(c.Backends(), ", ")),
		errors.Join(attempts...))
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no output produced: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("output file is empty")
	}
	return nil
}

// NewWorkspace creates a private scratch directory for one render run. The
// caller purges it when the run ends.
func NewWorkspace() (string, error) {
	dir := filepath.Join(os.TempDir(), "storypack-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", stage.Wrap(stage.ErrRender, "render", "workspace", "create scratch directory", err)
	}
	return dir, nil
}

// writeMarkup materializes the document's SVG next to the raster target for
// subprocess backends.
func writeMarkup(doc *layout.Document, outPath string) (string, error) {
	svgPath := filepath.Join(filepath.Dir(outPath), "cover.svg")
	if err := os.WriteFile(svgPath, doc.Markup(), 0o644); err != nil {
		return "", fmt.Errorf("write svg: %w", err)
	}
	return svgPath, nil
}
