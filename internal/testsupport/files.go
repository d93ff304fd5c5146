package testsupport

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteImage writes a solid-color raster at the given dimensions. The
// encoder is picked from the file extension (.png, .jpg, ...).
func WriteImage(t testing.TB, path string, width, height int, fill color.Color) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	img := imaging.New(width, height, fill)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save image %s: %v", path, err)
	}
}

// WriteArt writes a default test art file: a solid teal PNG.
func WriteArt(t testing.TB, path string, width, height int) {
	t.Helper()
	WriteImage(t, path, width, height, color.NRGBA{R: 20, G: 120, B: 140, A: 255})
}
