package layout_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"storypack/internal/artwork"
	"storypack/internal/layout"
	"storypack/internal/palette"
	"storypack/internal/stage"
	"storypack/internal/testsupport"
)

func warmPalette(t *testing.T) palette.Palette {
	t.Helper()
	p, err := palette.Resolve("warm")
	if err != nil {
		t.Fatalf("resolve warm: %v", err)
	}
	return p
}

func TestComposeSingleLineTitle(t *testing.T) {
	doc, err := layout.Compose(layout.Spec{
		Palette: warmPalette(t),
		Title:   "Friendly Dinosaurs",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	scene := doc.Scene()
	if len(scene.Title.Lines) != 1 {
		t.Fatalf("title lines = %v", scene.Title.Lines)
	}
	if scene.Title.Size != 140 {
		t.Fatalf("title size = %v, want 140", scene.Title.Size)
	}
	if scene.Title.Y != 2150 {
		t.Fatalf("title baseline = %v, want 2150", scene.Title.Y)
	}
	if doc.Canvas() != layout.DefaultCanvas {
		t.Fatalf("canvas = %d, want %d", doc.Canvas(), layout.DefaultCanvas)
	}
}

func TestComposeTwoLineTitleShiftsUp(t *testing.T) {
	doc, err := layout.Compose(layout.Spec{
		Palette: warmPalette(t),
		Title:   "The Quiet Forest Beyond the Silver River",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	scene := doc.Scene()
	if len(scene.Title.Lines) != 2 {
		t.Fatalf("title lines = %v, want 2 lines", scene.Title.Lines)
	}
	if scene.Title.Size != 120 {
		t.Fatalf("title size = %v, want 120", scene.Title.Size)
	}
	if scene.Title.Y != 2110 {
		t.Fatalf("title baseline = %v, want 2110 (lifted by 40)", scene.Title.Y)
	}
}

func TestComposeOverlongWordUsesFloorSize(t *testing.T) {
	doc, err := layout.Compose(layout.Spec{
		Palette: warmPalette(t),
		Title:   "Supercalifragilisticexpialidocious",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := doc.Scene().Title.Size; got != 96 {
		t.Fatalf("title size = %v, want floor 96", got)
	}
}

func TestComposeSubtitleOffset(t *testing.T) {
	oneLine, err := layout.Compose(layout.Spec{
		Palette:  warmPalette(t),
		Title:    "Short Title",
		Subtitle: "A gentle bedtime tale",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := oneLine.Scene().Subtitle.Y; got != 2150+160 {
		t.Fatalf("subtitle baseline = %v, want %v", got, 2150+160)
	}

	twoLine, err := layout.Compose(layout.Spec{
		Palette:  warmPalette(t),
		Title:    "The Quiet Forest Beyond the Silver River",
		Subtitle: "A gentle bedtime tale",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := twoLine.Scene().Subtitle.Y; got != 2110+160+150 {
		t.Fatalf("subtitle baseline = %v, want %v", got, 2110+160+150)
	}
}

func TestComposeOmitsEmptySubtitleAndBadge(t *testing.T) {
	doc, err := layout.Compose(layout.Spec{
		Palette:  warmPalette(t),
		Title:    "Short Title",
		Subtitle: "   ",
		Badge:    "",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	scene := doc.Scene()
	if !scene.Subtitle.Empty() {
		t.Fatalf("expected no subtitle, got %v", scene.Subtitle.Lines)
	}
	if scene.Badge != nil {
		t.Fatalf("expected no badge, got %+v", scene.Badge)
	}
	markup := string(doc.Markup())
	if strings.Contains(markup, "opacity=\"0.92\"") {
		t.Fatal("markup should not contain a subtitle block")
	}
}

func TestComposeBadgeWidths(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"AI", 320},
		{"Narrated by Fern", 80 + 36*16},
		{strings.Repeat("x", 100), 2400},
	}
	for _, tc := range cases {
		doc, err := layout.Compose(layout.Spec{
			Palette: warmPalette(t),
			Title:   "Short Title",
			Badge:   tc.text,
		})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		badge := doc.Scene().Badge
		if badge == nil {
			t.Fatal("expected badge")
		}
		if badge.Width != tc.want {
			t.Fatalf("badge %q width = %v, want %v", tc.text, badge.Width, tc.want)
		}
		if badge.X != 150 || badge.Y != 200 || badge.Height != 150 {
			t.Fatalf("badge geometry off: %+v", badge)
		}
		if badge.TextX != 190 || badge.TextY != 300 {
			t.Fatalf("badge text position off: %+v", badge)
		}
	}
}

func TestComposeRequiresTitle(t *testing.T) {
	_, err := layout.Compose(layout.Spec{Palette: warmPalette(t)})
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty title, got %v", err)
	}
}

func TestMarkupContent(t *testing.T) {
	artPath := filepath.Join(t.TempDir(), "art.png")
	testsupport.WriteArt(t, artPath, 64, 64)
	art, err := artwork.Normalize(artPath)
	if err != nil {
		t.Fatalf("normalize art: %v", err)
	}

	doc, err := layout.Compose(layout.Spec{
		Palette:  warmPalette(t),
		Art:      art,
		Title:    "Tom & Jerry <Night>",
		Subtitle: "A tale of \"quotes\" & tails",
		Badge:    "Narrated by Fern & Fog",
		Options:  layout.Options{ArtCornerRadius: 48},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	markup := string(doc.Markup())

	for _, want := range []string{
		`stop-color="#1d2540"`,
		`stop-color="#0c1326"`,
		`xlink:href="data:image/png;base64,`,
		`preserveAspectRatio="xMidYMid meet"`,
		`clip-path="url(#art-clip)"`,
		`rx="48"`,
		"Tom &amp; Jerry &lt;Night&gt;",
		"&quot;quotes&quot; &amp; tails",
		"Narrated by Fern &amp; Fog",
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("markup missing %q", want)
		}
	}
	if strings.Contains(markup, "<Night>") {
		t.Fatal("raw angle brackets leaked into markup")
	}
}

func TestMarkupNoClipWhenRadiusZero(t *testing.T) {
	artPath := filepath.Join(t.TempDir(), "art.png")
	testsupport.WriteArt(t, artPath, 64, 64)
	art, err := artwork.Normalize(artPath)
	if err != nil {
		t.Fatalf("normalize art: %v", err)
	}

	doc, err := layout.Compose(layout.Spec{
		Palette: warmPalette(t),
		Art:     art,
		Title:   "Short Title",
		Options: layout.Options{ArtCornerRadius: 0},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(string(doc.Markup()), "clip-path") {
		t.Fatal("markup should not clip with zero radius")
	}
}

func TestComposeDeterministicAndImmutable(t *testing.T) {
	spec := layout.Spec{
		Palette:  warmPalette(t),
		Title:    "Friendly Dinosaurs",
		Subtitle: "A gentle bedtime tale",
		Badge:    "Narrated by Fern",
	}
	first, err := layout.Compose(spec)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	second, err := layout.Compose(spec)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !bytes.Equal(first.Markup(), second.Markup()) {
		t.Fatal("identical specs produced different markup")
	}

	mutated := first.Markup()
	for i := range mutated {
		mutated[i] = 'x'
	}
	if bytes.Equal(mutated, first.Markup()) {
		t.Fatal("mutating the returned markup must not affect the document")
	}
}
