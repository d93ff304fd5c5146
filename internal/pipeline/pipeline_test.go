package pipeline_test

import (
	"archive/zip"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"storypack/internal/config"
	"storypack/internal/ledger"
	"storypack/internal/logging"
	"storypack/internal/pipeline"
	"storypack/internal/stage"
	"storypack/internal/testsupport"
)

// ffmpegTouch fakes a successful tag: it creates the output file named by the
// final argument so the tagger's rename step runs.
const ffmpegTouch = `#!/bin/sh
for last; do :; done
touch "$last"
`

const ffmpegFail = `#!/bin/sh
echo "boom" >&2
exit 1
`

func newRunner(t *testing.T, cfg *config.Config) *pipeline.Runner {
	t.Helper()
	runner, err := pipeline.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	t.Cleanup(func() { runner.Close() })
	return runner
}

// seedStory lays out one story the way operators deliver it: conventional
// art in the stories folder, audio inside the story folder.
func seedStory(t *testing.T, cfg *config.Config, slug string) string {
	t.Helper()
	folder := cfg.StoryDir(slug)
	testsupport.WriteArt(t, filepath.Join(cfg.Paths.BaseDir, slug+"_art.png"), 800, 600)
	testsupport.WriteFile(t, filepath.Join(folder, "01_intro.mp3"), 256)
	testsupport.WriteFile(t, filepath.Join(folder, "02_story.mp3"), 256)
	return folder
}

func assertCover(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open cover: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode cover: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("cover format = %q, want jpeg", format)
	}
	if cfg.Width != 3000 || cfg.Height != 3000 {
		t.Fatalf("cover is %dx%d, want 3000x3000", cfg.Width, cfg.Height)
	}
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestRunPackagesStoryEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaryScript("ffmpeg", ffmpegTouch))
	folder := seedStory(t, cfg, "friendly_dinosaurs")
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{
		Slug:     "friendly_dinosaurs",
		Subtitle: "A bedtime adventure",
		Badge:    "Robo Voice",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Title != "Friendly Dinosaurs" {
		t.Fatalf("derived title = %q", result.Title)
	}
	if result.Folder != folder {
		t.Fatalf("folder = %q, want %q", result.Folder, folder)
	}

	assertCover(t, result.CoverPath)
	if filepath.Base(result.CoverPath) != "friendly_dinosaurs_cover.jpg" {
		t.Fatalf("cover name = %s", filepath.Base(result.CoverPath))
	}

	if result.Tagging.Tagged != 2 || result.Tagging.Failed() != 0 {
		t.Fatalf("tagging report = %+v", result.Tagging)
	}

	if !result.ArtDeleted {
		t.Fatal("source art should be deleted after packaging")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.BaseDir, "friendly_dinosaurs_art.png")); !os.IsNotExist(err) {
		t.Fatal("source art still present")
	}

	want := []string{"01_intro.mp3", "02_story.mp3", "friendly_dinosaurs_cover.jpg"}
	got := archiveNames(t, result.BundlePath)
	if !slices.Equal(got, want) {
		t.Fatalf("bundle entries = %v, want %v", got, want)
	}

	if result.RunID == "" {
		t.Fatal("run id missing with history enabled")
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	runs, err := store.RecentRuns(context.Background(), "friendly_dinosaurs", 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != ledger.StatusCompleted {
		t.Fatalf("history runs = %+v", runs)
	}
	if runs[0].CoverPath != result.CoverPath {
		t.Fatalf("history cover = %q, want %q", runs[0].CoverPath, result.CoverPath)
	}

	stages, err := store.StagesForRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("StagesForRun: %v", err)
	}
	var names []string
	for _, s := range stages {
		names = append(names, s.Stage)
	}
	wantStages := []string{"palette", "artwork", "compose", "render", "tagging", "cleanup", "bundle"}
	if !slices.Equal(names, wantStages) {
		t.Fatalf("stage sequence = %v, want %v", names, wantStages)
	}
}

func TestRunSecondPassExcludesPriorBundle(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaryScript("ffmpeg", ffmpegTouch))
	seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	if _, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// The first run consumed the art; reseed it for the second pass.
	testsupport.WriteArt(t, filepath.Join(cfg.Paths.BaseDir, "dinos_art.png"), 800, 600)
	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for _, name := range archiveNames(t, result.BundlePath) {
		if strings.HasSuffix(name, ".zip") {
			t.Fatalf("second bundle contains an archive: %s", name)
		}
	}
}

func TestRunDiscoversConventionalArtUnderBase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	artPath := filepath.Join(cfg.Paths.BaseDir, "dinos_art.png")
	testsupport.WriteArt(t, artPath, 800, 600)
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos", SkipTagging: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ArtSource != artPath {
		t.Fatalf("art source = %q, want %q", result.ArtSource, artPath)
	}
	assertCover(t, result.CoverPath)
	if result.CoverPath != filepath.Join(cfg.StoryDir("dinos"), "dinos_cover.jpg") {
		t.Fatalf("cover path = %q", result.CoverPath)
	}
	if !result.ArtDeleted {
		t.Fatal("conventional art under the stories folder should be consumed")
	}
	if _, statErr := os.Stat(artPath); !os.IsNotExist(statErr) {
		t.Fatal("source art still present after packaging")
	}
}

func TestRunKeepsArtOutsideBase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	outside := filepath.Join(t.TempDir(), "dinos_art.png")
	testsupport.WriteArt(t, outside, 800, 600)
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{
		Slug:        "dinos",
		ArtPath:     outside,
		SkipTagging: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertCover(t, result.CoverPath)
	if result.ArtDeleted {
		t.Fatal("art outside the stories folder must never be deleted")
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Fatalf("outside art should be untouched: %v", statErr)
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	stages, err := store.StagesForRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("StagesForRun: %v", err)
	}
	for _, s := range stages {
		if s.Stage == "cleanup" && s.Status != ledger.StatusSkipped {
			t.Fatalf("cleanup stage = %+v, want skipped", s)
		}
	}
}

func TestRunFailsWithoutArt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	folder := cfg.StoryDir("dinos")
	testsupport.WriteFile(t, filepath.Join(folder, "01_intro.mp3"), 256)
	runner := newRunner(t, cfg)

	_, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"})
	if !errors.Is(err, stage.ErrArtwork) {
		t.Fatalf("expected artwork error, got %v", err)
	}

	store, openErr := ledger.Open(cfg.Ledger.Path)
	if openErr != nil {
		t.Fatalf("open history: %v", openErr)
	}
	defer store.Close()
	runs, listErr := store.RecentRuns(context.Background(), "dinos", 1)
	if listErr != nil || len(runs) != 1 {
		t.Fatalf("history after failure: runs=%v err=%v", runs, listErr)
	}
	if runs[0].Status != ledger.StatusFailed || runs[0].Error == "" {
		t.Fatalf("failed run not recorded: %+v", runs[0])
	}
}

func TestRunRejectsUnsafeSlug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := newRunner(t, cfg)

	_, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "Friendly Dinosaurs!"})
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "friendly_dinosaurs") {
		t.Fatalf("error should suggest a safe slug, got %v", err)
	}
}

func TestRunFallsBackWhenSubprocessBackendProducesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBackends(config.BackendInkscape, config.BackendLibrary),
		testsupport.WithStubbedBinaries())
	seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos", SkipTagging: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertCover(t, result.CoverPath)
}

func TestRunFailsWhenAllBackendsUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackends(config.BackendRsvg))
	cfg.Render.RsvgBinary = "rsvg-that-is-not-installed"
	folder := seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	_, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"})
	if !errors.Is(err, stage.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(folder, "dinos_cover.jpg")); !os.IsNotExist(statErr) {
		t.Fatal("failed run must not leave a cover behind")
	}
}

func TestRunTaggingFailureDoesNotAbort(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaryScript("ffmpeg", ffmpegFail))
	folder := seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"})
	if err != nil {
		t.Fatalf("tagging failures must not abort the run: %v", err)
	}
	if result.Tagging.Failed() != 2 || result.Tagging.Tagged != 0 {
		t.Fatalf("tagging report = %+v", result.Tagging)
	}
	if result.BundlePath == "" {
		t.Fatal("bundle missing after tagging failures")
	}

	// Originals keep their bytes when tagging fails.
	info, statErr := os.Stat(filepath.Join(folder, "01_intro.mp3"))
	if statErr != nil || info.Size() != 256 {
		t.Fatalf("audio modified by failed tagging: %v size=%d", statErr, info.Size())
	}
}

func TestRunSkipTagging(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaryScript("ffmpeg", ffmpegTouch))
	folder := seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos", SkipTagging: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Tagging.Skipped {
		t.Fatalf("tagging report = %+v, want skipped", result.Tagging)
	}
	info, statErr := os.Stat(filepath.Join(folder, "01_intro.mp3"))
	if statErr != nil || info.Size() != 256 {
		t.Fatalf("audio touched despite skip: %v size=%d", statErr, info.Size())
	}
}

func TestRunRefusesLockedStory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	lock := flock.New(filepath.Join(cfg.LocksDir(), "dinos.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	_, err = runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos"})
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error for locked story, got %v", err)
	}
	if !strings.Contains(err.Error(), "already being packaged") {
		t.Fatalf("error = %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, pipeline.StoryConfig{Slug: "dinos"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to surface, got %v", err)
	}
}

func TestRunWithoutLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	seedStory(t, cfg, "dinos")
	runner := newRunner(t, cfg)

	result, err := runner.Run(context.Background(), pipeline.StoryConfig{Slug: "dinos", SkipTagging: true})
	if err != nil {
		t.Fatalf("Run without history: %v", err)
	}
	if result.RunID != "" {
		t.Fatalf("run id = %q, want empty with history disabled", result.RunID)
	}
	assertCover(t, result.CoverPath)
}
