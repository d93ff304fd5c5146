package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"storypack/internal/config"
	"storypack/internal/layout"
)

// rsvgRenderer shells out to rsvg-convert, the last rung of the default
// chain.
type rsvgRenderer struct {
	binary string
	exec   Executor
}

func (r *rsvgRenderer) Name() string { return config.BackendRsvg }

func (r *rsvgRenderer) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

func (r *rsvgRenderer) Render(ctx context.Context, doc *layout.Document, outPath string) error {
	svgPath, err := writeMarkup(doc, outPath)
	if err != nil {
		return err
	}
	size := strconv.Itoa(doc.Canvas())

	args := []string{
		"-w", size,
		"-h", size,
		"-o", outPath,
		svgPath,
	}
	out, err := r.exec.Run(ctx, r.binary, args...)
	if err != nil {
		return fmt.Errorf("rsvg-convert failed: %w (%s)", err, firstLine(out))
	}
	return nil
}
