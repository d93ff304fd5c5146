package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"storypack/internal/config"
	"storypack/internal/layout"
)

// inkscapeRenderer shells out to inkscape's headless export. Inkscape 1.x
// and 0.92 take different export flags, so the legacy form is retried when
// the modern one fails.
type inkscapeRenderer struct {
	binary string
	exec   Executor
}

func (r *inkscapeRenderer) Name() string { return config.BackendInkscape }

func (r *inkscapeRenderer) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

func (r *inkscapeRenderer) Render(ctx context.Context, doc *layout.Document, outPath string) error {
	svgPath, err := writeMarkup(doc, outPath)
	if err != nil {
		return err
	}
	size := strconv.Itoa(doc.Canvas())

	modern := []string{
		svgPath,
		"--export-type=png",
		"--export-filename=" + outPath,
		"--export-width=" + size,
		"--export-height=" + size,
	}
	modernOut, modernErr := r.exec.Run(ctx, r.binary, modern...)
	if modernErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	legacy := []string{
		svgPath,
		"--export-png=" + outPath,
		"-w", size,
		"-h", size,
	}
	legacyOut, legacyErr := r.exec.Run(ctx, r.binary, legacy...)
	if legacyErr == nil {
		return nil
	}
	return fmt.Errorf("inkscape export failed: %w (modern: %s; legacy: %s)",
		legacyErr, firstLine(modernOut), firstLine(legacyOut))
}
