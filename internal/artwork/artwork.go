// Package artwork discovers and normalizes story art into the canonical
// cover raster: a 3000x3000 square carried in memory and inlined as a
// base64 PNG data URI so renderers never touch the filesystem for pixels.
package artwork

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"storypack/internal/stage"
)

// CanonicalSize is the edge length of the square cover raster.
const CanonicalSize = 3000

// sharpenSigma is the mild unsharp amount applied after Lanczos resampling
// to offset its softness. Art already at canonical size skips it.
const sharpenSigma = 0.6

var sourceExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Art is the normalized cover raster.
type Art struct {
	img        image.Image
	dataURI    string
	sourcePath string
	resampled  bool
}

// Image returns the normalized raster.
func (a *Art) Image() image.Image { return a.img }

// DataURI returns the raster as a data:image/png;base64 URI.
func (a *Art) DataURI() string { return a.dataURI }

// SourcePath returns the path the art was loaded from.
func (a *Art) SourcePath() string { return a.sourcePath }

// Resampled reports whether the source needed cropping or resizing.
func (a *Art) Resampled() bool { return a.resampled }

// Discover resolves the art source for a story. An explicit path (absolute
// or relative to base) must exist. Otherwise the conventional names
// {slug}_art.{ext} then {slug}.{ext} are tried under base for each known
// extension, in that order.
func Discover(base, slug, explicit string) (string, error) {
	if explicit != "" {
		candidate := explicit
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(base, candidate)
		}
		info, err := os.Stat(candidate)
		if err != nil {
			return "", stage.Wrap(stage.ErrArtwork, "artwork", "discover",
				fmt.Sprintf("art file %s does not exist", candidate), err)
		}
		if info.IsDir() {
			return "", stage.Wrap(stage.ErrArtwork, "artwork", "discover",
				fmt.Sprintf("art path %s is a directory", candidate), nil)
		}
		return candidate, nil
	}

	for _, stem := range []string{slug + "_art", slug} {
		for _, ext := range sourceExtensions {
			candidate := filepath.Join(base, stem+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", stage.Wrap(stage.ErrArtwork, "artwork", "discover",
		fmt.Sprintf("no art found for %q under %s (tried %s_art.* and %s.*)", slug, base, slug, slug), nil)
}

// Normalize loads the art at path and produces the canonical square raster.
// Art already at canonical size keeps its pixels unmodified; anything else
// is center-cropped to square (the longer dimension trimmed symmetrically,
// never distorted), Lanczos-resized, and mildly sharpened.
func Normalize(path string) (*Art, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, stage.Wrap(stage.ErrArtwork, "artwork", "decode",
			fmt.Sprintf("cannot decode art %s", path), err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, stage.Wrap(stage.ErrArtwork, "artwork", "decode",
			fmt.Sprintf("art %s has zero area (%dx%d)", path, bounds.Dx(), bounds.Dy()), nil)
	}

	art := &Art{img: img, sourcePath: path}
	if bounds.Dx() != CanonicalSize || bounds.Dy() != CanonicalSize {
		filled := imaging.Fill(img, CanonicalSize, CanonicalSize, imaging.Center, imaging.Lanczos)
		art.img = imaging.Sharpen(filled, sharpenSigma)
		art.resampled = true
	}

	uri, err := encodeDataURI(art.img)
	if err != nil {
		return nil, stage.Wrap(stage.ErrArtwork, "artwork", "encode",
			fmt.Sprintf("cannot encode art %s", path), err)
	}
	art.dataURI = uri
	return art, nil
}

func encodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
