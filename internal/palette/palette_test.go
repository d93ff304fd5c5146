package palette_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storypack/internal/palette"
	"storypack/internal/stage"
)

func TestResolveBuiltins(t *testing.T) {
	for _, name := range palette.Builtins() {
		p, err := palette.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", name, err)
		}
		for _, role := range palette.Roles() {
			if !palette.IsHexColor(p.Color(role)) {
				t.Fatalf("builtin %q role %s has invalid color %q", name, role, p.Color(role))
			}
		}
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	warm, err := palette.Resolve("warm")
	if err != nil {
		t.Fatalf("Resolve(warm): %v", err)
	}
	upper, err := palette.Resolve(" WARM ")
	if err != nil {
		t.Fatalf("Resolve(WARM): %v", err)
	}
	if warm != upper {
		t.Fatalf("case-insensitive resolve mismatch: %+v vs %+v", warm, upper)
	}
	if warm.BackgroundStart != "#1d2540" {
		t.Fatalf("warm BG1 = %q", warm.BackgroundStart)
	}
}

func TestResolveEmptyUsesDefault(t *testing.T) {
	p, err := palette.Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\"): %v", err)
	}
	want, _ := palette.Builtin(palette.DefaultName)
	if p != want {
		t.Fatalf("empty identifier resolved to %+v, want default %+v", p, want)
	}
}

func TestResolveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.json")
	content := `{
  "BG1": "#101010",
  "BG2": "#202020",
  "TITLE_COLOR": "#fff",
  "SUBTITLE_COLOR": "#eeeeee",
  "BADGE_BG": "#303030",
  "BADGE_COLOR": "#ffffff",
  "EXTRA": "ignored"
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write palette file: %v", err)
	}

	p, err := palette.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file): %v", err)
	}
	if p.Title != "#fff" || p.BackgroundStart != "#101010" {
		t.Fatalf("unexpected palette from file: %+v", p)
	}
}

func TestResolveFileMissingRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.json")
	content := `{"BG1": "#101010", "BG2": "#202020"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write palette file: %v", err)
	}

	_, err := palette.Resolve(path)
	if err == nil {
		t.Fatal("expected error for missing roles")
	}
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "TITLE_COLOR") {
		t.Fatalf("error should name the missing role, got %q", err)
	}
}

func TestResolveFileBadHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.json")
	content := `{
  "BG1": "blue",
  "BG2": "#202020",
  "TITLE_COLOR": "#ffffff",
  "SUBTITLE_COLOR": "#eeeeee",
  "BADGE_BG": "#303030",
  "BADGE_COLOR": "#ffffff"
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write palette file: %v", err)
	}

	_, err := palette.Resolve(path)
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error for bad hex, got %v", err)
	}
}

func TestResolveUnknownIdentifier(t *testing.T) {
	_, err := palette.Resolve("sunset")
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown identifier, got %v", err)
	}
	if !strings.Contains(err.Error(), "warm") {
		t.Fatalf("error should list builtin names, got %q", err)
	}
}

func TestIsHexColor(t *testing.T) {
	valid := []string{"#fff", "#FFF", "#1d2540", "#ABCDEF"}
	for _, v := range valid {
		if !palette.IsHexColor(v) {
			t.Fatalf("IsHexColor(%q) = false, want true", v)
		}
	}
	invalid := []string{"", "fff", "#ffff", "#gggggg", "#12345", "blue"}
	for _, v := range invalid {
		if palette.IsHexColor(v) {
			t.Fatalf("IsHexColor(%q) = true, want false", v)
		}
	}
}
