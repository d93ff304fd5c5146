package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"storypack/internal/fileutil"
	"storypack/internal/logging"
	"storypack/internal/stage"
)

// Zip packs the story folder into a single archive named name and places it
// inside the folder. The archive is assembled in a scratch directory outside
// the folder and only moved in once complete, so it never captures itself and
// readers never see a partial archive. A stale archive with the same name
// from an earlier run is excluded from the new one and overwritten.
func Zip(ctx context.Context, folder, name string, logger *slog.Logger) (string, error) {
	log := logging.NewComponentLogger(logger, "bundle")

	if name == "" || name != filepath.Base(name) {
		return "", stage.Wrap(stage.ErrBundle, "bundle", "zip",
			fmt.Sprintf("archive name %q must be a bare filename", name), nil)
	}
	if !strings.HasSuffix(name, ".zip") {
		return "", stage.Wrap(stage.ErrBundle, "bundle", "zip",
			fmt.Sprintf("archive name %q must end in .zip", name), nil)
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return "", stage.Wrap(stage.ErrBundle, "bundle", "zip",
			fmt.Sprintf("story folder %s is not a directory", folder), err)
	}

	scratch, err := os.MkdirTemp("", "storypack-bundle-")
	if err != nil {
		return "", stage.Wrap(stage.ErrBundle, "bundle", "zip", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	stagingPath := filepath.Join(scratch, name)
	entries, err := writeArchive(ctx, stagingPath, folder, name)
	if err != nil {
		return "", err
	}

	finalPath := filepath.Join(folder, name)
	if err := fileutil.ReplaceFile(stagingPath, finalPath); err != nil {
		return "", stage.Wrap(stage.ErrBundle, "bundle", "zip", "move archive into story folder", err)
	}

	log.Info("bundle created",
		logging.String("archive", finalPath),
		logging.Int("entries", entries))
	return finalPath, nil
}

// writeArchive zips folder's contents to path and reports how many entries it
// wrote. skip is excluded wherever it appears at the folder root.
func writeArchive(ctx context.Context, path, folder, skip string) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, stage.Wrap(stage.ErrBundle, "bundle", "zip", "create archive", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	entries := 0

	walkErr := filepath.WalkDir(folder, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(folder, entry)
		if err != nil {
			return err
		}
		if rel == "." || rel == skip {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
			if _, err := zw.CreateHeader(hdr); err != nil {
				return err
			}
			entries++
			return nil
		}

		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(entry)
		if err != nil {
			return err
		}
		defer in.Close()
		if _, err := io.Copy(w, in); err != nil {
			return err
		}
		entries++
		return nil
	})
	if walkErr != nil {
		zw.Close()
		return 0, stage.Wrap(stage.ErrBundle, "bundle", "zip", "pack story folder", walkErr)
	}

	if err := zw.Close(); err != nil {
		return 0, stage.Wrap(stage.ErrBundle, "bundle", "zip", "finish archive", err)
	}
	if err := out.Close(); err != nil {
		return 0, stage.Wrap(stage.ErrBundle, "bundle", "zip", "flush archive", err)
	}
	return entries, nil
}
