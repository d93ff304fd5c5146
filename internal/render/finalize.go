package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"storypack/internal/stage"
)

// Finalize flattens the raw raster over an opaque background color (JPEG has
// no alpha), encodes it at the configured quality, and moves it into place.
// The encode targets a hidden temp file in the destination directory so the
// final rename is atomic: readers never observe a partial cover.
func Finalize(rawPath, finalPath string, quality int, background string) error {
	img, err := imaging.Open(rawPath)
	if err != nil {
		return stage.Wrap(stage.ErrRender, "render", "finalize",
			fmt.Sprintf("decode raster %s", rawPath), err)
	}

	bg, err := parseHexColor(background)
	if err != nil {
		return stage.Wrap(stage.ErrRender, "render", "finalize", "background color", err)
	}

	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), bg)
	flat = imaging.Overlay(flat, img, image.Point{}, 1.0)

	dir := filepath.Dir(finalPath)
	tmp, err := os.CreateTemp(dir, ".cover-*.jpg")
	if err != nil {
		return stage.Wrap(stage.ErrRender, "render", "finalize", "create temp file", err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return stage.Wrap(stage.ErrRender, "render", "finalize", "encode jpeg", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return stage.Wrap(stage.ErrRender, "render", "finalize", "sync jpeg", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return stage.Wrap(stage.ErrRender, "render", "finalize", "close jpeg", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return stage.Wrap(stage.ErrRender, "render", "finalize", "move cover into place", err)
	}
	return nil
}
