package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"storypack/internal/artwork"
	"storypack/internal/bundle"
	"storypack/internal/config"
	"storypack/internal/janitor"
	"storypack/internal/layout"
	"storypack/internal/ledger"
	"storypack/internal/logging"
	"storypack/internal/palette"
	"storypack/internal/preflight"
	"storypack/internal/render"
	"storypack/internal/stage"
	"storypack/internal/tagging"
	"storypack/internal/textutil"
)

// StoryConfig describes one story to package. Slug is required; every other
// field has a sensible default derived from it.
type StoryConfig struct {
	Slug     string
	Title    string
	Subtitle string
	Badge    string
	// Palette is a builtin palette name or a path to a palette JSON file.
	Palette string
	// ArtPath overrides art discovery. Relative paths resolve against the
	// stories folder.
	ArtPath string
	// OutName is the cover filename inside the story folder.
	OutName     string
	SkipTagging bool
}

// Result reports what a completed run produced.
type Result struct {
	Slug       string
	Title      string
	RunID      string
	Folder     string
	CoverPath  string
	BundlePath string
	ArtSource  string
	ArtDeleted bool
	Tagging    tagging.Report
	Duration   time.Duration
}

// Runner drives a story through the packaging stages: palette, artwork,
// compose, render, tagging, cleanup, bundle.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *ledger.Store
	chain     *render.Chain
	tagger    *tagging.Tagger
	clean     *janitor.Janitor
	ownsStore bool
}

// New builds a Runner from configuration. Run history is opened when enabled;
// a history that cannot be opened downgrades to a warning rather than
// blocking packaging.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	chain, err := render.NewChain(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store *ledger.Store
	if cfg.Ledger.Enabled {
		store, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logging.NewComponentLogger(logger, "pipeline").Warn("run history unavailable", logging.Error(err))
			store = nil
		}
	}

	runner := NewWithComponents(cfg, logger, store, chain, tagging.New(cfg, logger), janitor.New(logger))
	runner.ownsStore = true
	return runner, nil
}

// NewWithComponents wires a Runner from explicit parts. Tests use this to
// inject fakes; the caller keeps ownership of the ledger store.
func NewWithComponents(cfg *config.Config, logger *slog.Logger, store *ledger.Store, chain *render.Chain, tagger *tagging.Tagger, clean *janitor.Janitor) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		store:  store,
		chain:  chain,
		tagger: tagger,
		clean:  clean,
	}
}

// Close releases resources owned by the Runner.
func (r *Runner) Close() error {
	if r.ownsStore {
		return r.store.Close()
	}
	return nil
}

// Run packages one story end to end. Fatal stage errors abort the run;
// tagging failures and cleanup refusals are recorded and the run continues.
func (r *Runner) Run(ctx context.Context, story StoryConfig) (*Result, error) {
	began := time.Now()

	story, err := r.normalizeStory(story)
	if err != nil {
		return nil, err
	}
	ctx = stage.WithStory(ctx, story.Slug)

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "prepare", "create working directories", err)
	}
	if check := preflight.CheckDirectoryAccess("stories folder", r.cfg.Paths.BaseDir); !check.Passed {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "preflight", check.Detail, nil)
	}

	lock := flock.New(filepath.Join(r.cfg.LocksDir(), story.Slug+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "lock", "acquire story lock", err)
	}
	if !locked {
		return nil, stage.Wrap(stage.ErrConfiguration, "pipeline", "lock",
			fmt.Sprintf("story %q is already being packaged", story.Slug), nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID, err := r.store.StartRun(ctx, story.Slug, story.Title)
	if err != nil {
		r.logger.Warn("run history unavailable", logging.Error(err))
	}
	if runID != "" {
		ctx = stage.WithRunID(ctx, runID)
	}
	logger := logging.WithContext(ctx, r.logger)

	logger.Info("packaging started",
		logging.String("title", story.Title),
		logging.String("palette", story.Palette))

	result := &Result{Slug: story.Slug, Title: story.Title, RunID: runID}
	if err := r.execute(ctx, story, result); err != nil {
		r.finishRun(ctx, runID, ledger.StatusFailed, result.CoverPath, err.Error())
		logger.Error("packaging failed",
			logging.String("kind", stage.Kind(err)),
			logging.Error(err))
		return nil, err
	}

	result.Duration = time.Since(began)
	r.finishRun(ctx, runID, ledger.StatusCompleted, result.CoverPath, "")
	logger.Info("packaging complete",
		logging.String("bundle", result.BundlePath),
		logging.Duration("elapsed", result.Duration.Round(time.Millisecond)))
	return result, nil
}

// execute runs the stage sequence, filling result as it goes.
func (r *Runner) execute(ctx context.Context, story StoryConfig, result *Result) error {
	folder := r.cfg.StoryDir(story.Slug)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return stage.Wrap(stage.ErrConfiguration, "pipeline", "prepare",
			fmt.Sprintf("create story folder %s", folder), err)
	}
	result.Folder = folder

	var pal palette.Palette
	err := r.runStage(ctx, result.RunID, "palette", func(context.Context) (string, error) {
		p, err := palette.Resolve(story.Palette)
		if err != nil {
			return "", err
		}
		pal = p
		return story.Palette, nil
	})
	if err != nil {
		return err
	}

	var art *artwork.Art
	err = r.runStage(ctx, result.RunID, "artwork", func(context.Context) (string, error) {
		source, err := artwork.Discover(r.cfg.Paths.BaseDir, story.Slug, story.ArtPath)
		if err != nil {
			return "", err
		}
		art, err = artwork.Normalize(source)
		if err != nil {
			return "", err
		}
		result.ArtSource = art.SourcePath()
		detail := source
		if art.Resampled() {
			detail += " (resampled)"
		}
		return detail, nil
	})
	if err != nil {
		return err
	}

	var doc *layout.Document
	err = r.runStage(ctx, result.RunID, "compose", func(context.Context) (string, error) {
		var composeErr error
		doc, composeErr = layout.Compose(layout.Spec{
			Palette:  pal,
			Art:      art,
			Title:    story.Title,
			Subtitle: story.Subtitle,
			Badge:    story.Badge,
			Options:  r.layoutOptions(),
		})
		if composeErr != nil {
			return "", composeErr
		}
		return fmt.Sprintf("%d title lines", len(doc.Scene().Title.Lines)), nil
	})
	if err != nil {
		return err
	}

	coverPath := filepath.Join(folder, story.OutName)
	err = r.runStage(ctx, result.RunID, "render", func(stageCtx context.Context) (string, error) {
		workspace, err := render.NewWorkspace()
		if err != nil {
			return "", err
		}
		defer r.clean.Purge(workspace)

		raw, err := r.chain.Render(stageCtx, doc, workspace)
		if err != nil {
			return "", err
		}
		if err := render.Finalize(raw, coverPath, r.cfg.Cover.JPEGQuality, pal.BackgroundEnd); err != nil {
			return "", err
		}
		result.CoverPath = coverPath
		return coverPath, nil
	})
	if err != nil {
		return err
	}

	r.tagStage(ctx, story, result, folder, coverPath)
	r.cleanupStage(ctx, result)

	return r.runStage(ctx, result.RunID, "bundle", func(stageCtx context.Context) (string, error) {
		path, err := bundle.Zip(stageCtx, folder, story.Slug+".zip", r.logger)
		if err != nil {
			return "", err
		}
		result.BundlePath = path
		return path, nil
	})
}

// tagStage embeds the cover into the story's audio files. Failures here never
// abort the run; the outcome lands in the result and the ledger.
func (r *Runner) tagStage(ctx context.Context, story StoryConfig, result *Result, folder, coverPath string) {
	stageCtx := stage.WithName(ctx, "tagging")
	began := time.Now()

	if story.SkipTagging {
		logging.WithContext(stageCtx, r.logger).Info("tagging disabled for this run")
		result.Tagging = tagging.Report{Skipped: true, SkipReason: "disabled for this run"}
		r.recordStage(stageCtx, result.RunID, "tagging", ledger.StatusSkipped, result.Tagging.SkipReason, time.Since(began))
		return
	}

	report := r.tagger.EmbedCover(stageCtx, folder, coverPath)
	result.Tagging = report

	switch {
	case report.Skipped:
		r.recordStage(stageCtx, result.RunID, "tagging", ledger.StatusSkipped, report.SkipReason, time.Since(began))
	case report.Failed() > 0:
		detail := fmt.Sprintf("%d of %d files failed", report.Failed(), report.Attempted)
		r.recordStage(stageCtx, result.RunID, "tagging", ledger.StatusFailed, detail, time.Since(began))
	default:
		detail := fmt.Sprintf("tagged %d files", report.Tagged)
		r.recordStage(stageCtx, result.RunID, "tagging", ledger.StatusCompleted, detail, time.Since(began))
	}
}

// cleanupStage deletes the consumed source art. Art that resolves outside the
// stories folder (including symlink escapes) is kept and recorded as skipped;
// removal failures are recorded too, and neither aborts the run.
func (r *Runner) cleanupStage(ctx context.Context, result *Result) {
	stageCtx := stage.WithName(ctx, "cleanup")
	began := time.Now()

	deleted, err := r.clean.DeleteSourceArt(result.ArtSource, r.cfg.Paths.BaseDir)
	result.ArtDeleted = deleted
	switch {
	case err != nil:
		logging.WithContext(stageCtx, r.logger).Warn("source art kept", logging.Error(err))
		r.recordStage(stageCtx, result.RunID, "cleanup", ledger.StatusFailed, err.Error(), time.Since(began))
	case deleted:
		r.recordStage(stageCtx, result.RunID, "cleanup", ledger.StatusCompleted, "source art removed", time.Since(began))
	default:
		r.recordStage(stageCtx, result.RunID, "cleanup", ledger.StatusSkipped, "source art kept", time.Since(began))
	}
}

// runStage wraps one fatal stage with logging and ledger bookkeeping.
func (r *Runner) runStage(ctx context.Context, runID, name string, fn func(context.Context) (string, error)) error {
	stageCtx := stage.WithName(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	began := time.Now()

	logger.Info("stage started")
	detail, err := fn(stageCtx)
	elapsed := time.Since(began)
	if err != nil {
		logger.Error("stage failed", logging.Error(err))
		r.recordStage(stageCtx, runID, name, ledger.StatusFailed, err.Error(), elapsed)
		return err
	}

	logger.Info("stage completed",
		logging.String("detail", detail),
		logging.Duration("elapsed", elapsed.Round(time.Millisecond)))
	r.recordStage(stageCtx, runID, name, ledger.StatusCompleted, detail, elapsed)
	return nil
}

func (r *Runner) recordStage(ctx context.Context, runID, name, status, detail string, elapsed time.Duration) {
	if err := r.store.RecordStage(ctx, runID, name, status, detail, elapsed); err != nil {
		r.logger.Debug("record stage failed", logging.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, runID, status, coverPath, errMsg string) {
	if err := r.store.FinishRun(ctx, runID, status, coverPath, errMsg); err != nil {
		r.logger.Debug("finish run failed", logging.Error(err))
	}
}

func (r *Runner) layoutOptions() layout.Options {
	return layout.Options{
		TitleWrap:        r.cfg.Cover.TitleWrap,
		TitleMaxLines:    r.cfg.Cover.TitleMaxLines,
		SubtitleWrap:     r.cfg.Cover.SubtitleWrap,
		SubtitleMaxLines: r.cfg.Cover.SubtitleMaxLines,
		ArtCornerRadius:  r.cfg.Cover.ArtCornerRadius,
	}
}

// normalizeStory validates the slug and fills defaults: humanized title,
// default palette, conventional cover name.
func (r *Runner) normalizeStory(story StoryConfig) (StoryConfig, error) {
	story.Slug = strings.TrimSpace(story.Slug)
	if !textutil.IsSafeSlug(story.Slug) {
		msg := fmt.Sprintf("slug %q may only contain letters, digits, hyphens, and underscores", story.Slug)
		if suggestion := textutil.Slugify(story.Slug); suggestion != story.Slug {
			msg = fmt.Sprintf("%s (try %q)", msg, suggestion)
		}
		return story, stage.Wrap(stage.ErrConfiguration, "pipeline", "validate", msg, nil)
	}

	if strings.TrimSpace(story.Title) == "" {
		story.Title = textutil.Humanize(story.Slug)
	}
	if strings.TrimSpace(story.Palette) == "" {
		story.Palette = palette.DefaultName
	}
	if strings.TrimSpace(story.OutName) == "" {
		story.OutName = story.Slug + "_cover.jpg"
	}
	if story.OutName != filepath.Base(story.OutName) {
		return story, stage.Wrap(stage.ErrConfiguration, "pipeline", "validate",
			fmt.Sprintf("cover name %q must be a bare filename", story.OutName), nil)
	}
	return story, nil
}
