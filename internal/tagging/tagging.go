package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storypack/internal/config"
	"storypack/internal/logging"
	"storypack/internal/stage"
)

// tempPrefix marks in-progress tagging output. Temp files live next to the
// original so the final rename stays on one filesystem.
const tempPrefix = "._tag-"

// Tagger embeds the finished cover into a story's audio files via ffmpeg.
// The embed is lossless: audio streams are copied, only the attached picture
// changes.
type Tagger struct {
	binary string
	ext    string
	exec   Executor
	logger *slog.Logger
}

// New builds a Tagger from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Tagger {
	return NewWithExecutor(cfg, logger, commandExecutor{})
}

// NewWithExecutor builds a Tagger with a custom subprocess executor for
// tests.
func NewWithExecutor(cfg *config.Config, logger *slog.Logger, exec Executor) *Tagger {
	return &Tagger{
		binary: cfg.Audio.FFmpegBinary,
		ext:    cfg.Audio.Extension,
		exec:   exec,
		logger: logging.NewComponentLogger(logger, "tagging"),
	}
}

// FileResult records one audio file that could not be tagged.
type FileResult struct {
	File string
	Err  error
}

// Report summarizes one tagging pass. Tagging never fails a run: a missing
// binary skips the stage and per-file errors land in Failures while the
// remaining files are still processed.
type Report struct {
	// Attempted is the number of audio files matching the configured
	// extension.
	Attempted int
	// Tagged is the number of files that now carry the cover.
	Tagged int
	// Failures lists files left untouched, with the reason.
	Failures []FileResult
	// Skipped is set when the stage did not run at all.
	Skipped    bool
	SkipReason string
}

// Failed reports how many files could not be tagged.
func (r Report) Failed() int { return len(r.Failures) }

// EmbedCover stamps coverPath into every matching audio file directly inside
// folder. Each file is rewritten to a temp sibling first and renamed over the
// original only when ffmpeg succeeds, so a failed embed never corrupts audio.
func (t *Tagger) EmbedCover(ctx context.Context, folder, coverPath string) Report {
	if _, err := exec.LookPath(t.binary); err != nil {
		reason := fmt.Sprintf("%s not found", t.binary)
		t.logger.Warn("skipping cover embed", logging.String("reason", reason))
		return Report{Skipped: true, SkipReason: reason}
	}

	files, err := t.audioFiles(folder)
	if err != nil {
		reason := fmt.Sprintf("list audio files: %v", err)
		t.logger.Warn("skipping cover embed", logging.String("reason", reason))
		return Report{Skipped: true, SkipReason: reason}
	}
	if len(files) == 0 {
		t.logger.Warn("no audio files to tag", logging.String("folder", folder))
		return Report{}
	}

	report := Report{Attempted: len(files)}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, FileResult{
				File: name,
				Err:  stage.Wrap(stage.ErrTagging, "tagging", "embed", "canceled", err),
			})
			break
		}
		if err := t.embedOne(ctx, filepath.Join(folder, name), coverPath); err != nil {
			t.logger.Warn("cover embed failed",
				logging.String("file", name),
				logging.Error(err))
			report.Failures = append(report.Failures, FileResult{File: name, Err: err})
			continue
		}
		report.Tagged++
		t.logger.Debug("cover embedded", logging.String("file", name))
	}

	summary := []logging.Attr{
		logging.Int("attempted", report.Attempted),
		logging.Int("tagged", report.Tagged),
	}
	if report.Failed() > 0 {
		summary = append(summary, logging.Int("failed", report.Failed()))
		t.logger.Warn("cover embed finished", logging.Args(summary...)...)
	} else {
		t.logger.Info("cover embed finished", logging.Args(summary...)...)
	}
	return report
}

// audioFiles lists matching files directly inside folder, in lexical order.
func (t *Tagger) audioFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), t.ext) {
			files = append(files, name)
		}
	}
	return files, nil
}

func (t *Tagger) embedOne(ctx context.Context, audioPath, coverPath string) error {
	dir, name := filepath.Split(audioPath)
	tempPath := filepath.Join(dir, tempPrefix+name)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-i", coverPath,
		"-map", "0:a",
		"-map", "1:v",
		"-c:a", "copy",
		"-c:v", "mjpeg",
		"-disposition:v", "attached_pic",
		tempPath,
	}
	if output, err := t.exec.Run(ctx, t.binary, args...); err != nil {
		os.Remove(tempPath)
		return stage.Wrap(stage.ErrTagging, "tagging", "embed",
			fmt.Sprintf("ffmpeg: %s", strings.TrimSpace(string(output))), err)
	}
	if err := os.Rename(tempPath, audioPath); err != nil {
		os.Remove(tempPath)
		return stage.Wrap(stage.ErrTagging, "tagging", "embed", "replace original", err)
	}
	return nil
}
