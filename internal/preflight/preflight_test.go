package preflight_test

import (
	"path/filepath"
	"testing"

	"storypack/internal/config"
	"storypack/internal/preflight"
	"storypack/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Stories folder", dir)
	if !result.Passed {
		t.Fatalf("expected pass for writable dir, got %+v", result)
	}

	missing := preflight.CheckDirectoryAccess("Stories folder", filepath.Join(dir, "missing"))
	if missing.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if missing.Detail == "" {
		t.Fatal("expected detail naming the problem")
	}

	file := filepath.Join(dir, "file.txt")
	testsupport.WriteFile(t, file, 4)
	notDir := preflight.CheckDirectoryAccess("Stories folder", file)
	if notDir.Passed {
		t.Fatal("expected failure for a regular file")
	}
}

func TestCheckRenderBackendsLibraryAlwaysUsable(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	result := preflight.CheckRenderBackends(cfg)
	if !result.Passed {
		t.Fatalf("library backend should always be usable, got %+v", result)
	}
}

func TestCheckRenderBackendsAllMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackends(config.BackendInkscape, config.BackendRsvg))
	cfg.Render.InkscapeBinary = "inkscape-that-is-not-installed"
	cfg.Render.RsvgBinary = "rsvg-that-is-not-installed"

	result := preflight.CheckRenderBackends(cfg)
	if result.Passed {
		t.Fatalf("no backend is usable, got %+v", result)
	}
}

func TestCheckRenderBackendsFindsStubbedBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBackends(config.BackendRsvg),
		testsupport.WithStubbedBinaries())

	result := preflight.CheckRenderBackends(cfg)
	if !result.Passed {
		t.Fatalf("stubbed rsvg-convert should be usable, got %+v", result)
	}
}

func TestCheckSystemDepsListsAllTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	statuses := preflight.CheckSystemDeps(cfg)
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}
	for _, status := range statuses {
		if !status.Optional {
			t.Fatalf("%s should be optional", status.Name)
		}
	}
}

func TestRunAllCoversPathsAndBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := preflight.RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("check %s failed in a healthy environment: %s", result.Name, result.Detail)
		}
	}

	if preflight.RunAll(nil) != nil {
		t.Fatal("nil config should produce no results")
	}
}
