package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"storypack/internal/config"
	"storypack/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRenderBackends verifies at least one configured raster backend can run
// right now. The in-process library backend needs no binary; the subprocess
// backends need theirs on PATH.
func CheckRenderBackends(cfg *config.Config) Result {
	const name = "Render backends"

	var usable []string
	for _, backend := range cfg.Render.Backends {
		switch backend {
		case config.BackendLibrary:
			usable = append(usable, backend)
		case config.BackendInkscape:
			if _, err := exec.LookPath(cfg.Render.InkscapeBinary); err == nil {
				usable = append(usable, backend)
			}
		case config.BackendRsvg:
			if _, err := exec.LookPath(cfg.Render.RsvgBinary); err == nil {
				usable = append(usable, backend)
			}
		}
	}

	if len(usable) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("none of [%s] are usable", strings.Join(cfg.Render.Backends, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(usable, ", ")}
}

// CheckSystemDeps evaluates the external binaries the pipeline may shell out
// to. Every one of them is optional: covers render in-process and tagging
// skips itself when ffmpeg is absent.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Embeds finished covers into audio files",
			Optional:    true,
		},
		{
			Name:        "Inkscape",
			Command:     cfg.Render.InkscapeBinary,
			Description: "Subprocess raster backend",
			Optional:    true,
		},
		{
			Name:        "rsvg-convert",
			Command:     cfg.Render.RsvgBinary,
			Description: "Subprocess raster backend",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
