// Package layout composes cover scenes: gradient background, placed artwork,
// tiered typography, and the badge pill. Composition is pure geometry. Font
// sizes come from discrete tiers keyed on wrapped line counts, never from
// text measurement, so the same inputs always produce the same document.
package layout

import (
	"image"
	"strings"

	"storypack/internal/artwork"
	"storypack/internal/palette"
	"storypack/internal/stage"
	"storypack/internal/textutil"
)

// DefaultCanvas is the square cover edge length in pixels.
const DefaultCanvas = 3000

// Geometry of the composed cover, in canvas pixels.
const (
	artX       = 350
	artY       = 500
	artWidth   = 2300
	artHeight  = 1500
	artOpacity = 0.96

	textX        = 150
	textBaseY    = 2150
	twoLineLift  = 40
	titleAdvance = 150

	titleSizeSingle = 140
	titleSizeDouble = 120
	titleSizeFloor  = 96

	subtitleSize    = 80
	subtitleAdvance = 100
	subtitleOpacity = 0.92

	badgeX            = 150
	badgeY            = 200
	badgeHeight       = 150
	badgeCornerRadius = 20
	badgeOpacity      = 0.9
	badgeTextSize     = 64
	badgeTextInsetX   = 40
	badgeTextBaseline = 100
	badgePerRune      = 36
	badgeMinWidth     = 320
	badgeMaxWidth     = 2400
)

// Options tunes wrap budgets and art corners. Zero values fall back to the
// canonical defaults.
type Options struct {
	TitleWrap        int
	TitleMaxLines    int
	SubtitleWrap     int
	SubtitleMaxLines int
	ArtCornerRadius  int
}

func (o Options) withDefaults() Options {
	if o.TitleWrap <= 0 {
		o.TitleWrap = 22
	}
	if o.TitleMaxLines <= 0 {
		o.TitleMaxLines = 2
	}
	if o.SubtitleWrap <= 0 {
		o.SubtitleWrap = 38
	}
	if o.SubtitleMaxLines <= 0 {
		o.SubtitleMaxLines = 2
	}
	if o.ArtCornerRadius < 0 {
		o.ArtCornerRadius = 0
	}
	return o
}

// Spec carries everything a cover composition needs.
type Spec struct {
	Palette  palette.Palette
	Art      *artwork.Art
	Title    string
	Subtitle string
	Badge    string
	Canvas   int
	Options  Options
}

// Document is an immutable composed cover. It carries the SVG markup for
// subprocess raster backends and the typed scene for the in-process backend,
// both derived from the same geometry pass.
type Document struct {
	canvas int
	markup []byte
	scene  Scene
}

// Canvas returns the square edge length in pixels.
func (d *Document) Canvas() int { return d.canvas }

// Markup returns a copy of the SVG markup.
func (d *Document) Markup() []byte {
	out := make([]byte, len(d.markup))
	copy(out, d.markup)
	return out
}

// Scene returns the typed scene.
func (d *Document) Scene() Scene { return d.scene }

// Compose builds a cover document from spec. The title is required;
// subtitle and badge are drawn only when present.
func Compose(spec Spec) (*Document, error) {
	opts := spec.Options.withDefaults()
	canvas := spec.Canvas
	if canvas <= 0 {
		canvas = DefaultCanvas
	}

	titleLines := textutil.Wrap(spec.Title, opts.TitleWrap, opts.TitleMaxLines)
	if len(titleLines) == 0 {
		return nil, stage.Wrap(stage.ErrConfiguration, "layout", "compose", "title must not be empty", nil)
	}

	titleSize := titleSizeSingle
	if len(titleLines) >= 2 {
		titleSize = titleSizeDouble
	}
	if textutil.LongestLine(titleLines) > opts.TitleWrap {
		titleSize = titleSizeFloor
	}

	baseY := textBaseY
	if len(titleLines) > 1 {
		baseY -= twoLineLift
	}

	scene := Scene{
		Canvas:          canvas,
		BackgroundStart: spec.Palette.BackgroundStart,
		BackgroundEnd:   spec.Palette.BackgroundEnd,
		ArtOpacity:      artOpacity,
		ArtCornerRadius: opts.ArtCornerRadius,
		Title: TextRun{
			Lines:       titleLines,
			X:           textX,
			Y:           float64(baseY),
			LineAdvance: titleAdvance,
			Size:        float64(titleSize),
			Color:       spec.Palette.Title,
			Bold:        true,
			Opacity:     1,
		},
	}

	if spec.Art != nil {
		scene.Art = spec.Art.Image()
		scene.ArtRegion = image.Rect(artX, artY, artX+artWidth, artY+artHeight)
	}

	if subtitle := strings.TrimSpace(spec.Subtitle); subtitle != "" {
		subY := baseY + subtitleOffset(len(titleLines))
		scene.Subtitle = TextRun{
			Lines:       textutil.WrapEllipsis(subtitle, opts.SubtitleWrap, opts.SubtitleMaxLines),
			X:           textX,
			Y:           float64(subY),
			LineAdvance: subtitleAdvance,
			Size:        subtitleSize,
			Color:       spec.Palette.Subtitle,
			Opacity:     subtitleOpacity,
		}
	}

	if badge := strings.TrimSpace(spec.Badge); badge != "" {
		scene.Badge = composeBadge(badge, spec.Palette)
	}

	markup, err := renderMarkup(scene, spec.Art)
	if err != nil {
		return nil, stage.Wrap(stage.ErrConfiguration, "layout", "compose", "render markup", err)
	}

	return &Document{canvas: canvas, markup: markup, scene: scene}, nil
}

// subtitleOffset is the distance from the title's first baseline to the
// subtitle's first baseline.
func subtitleOffset(titleLines int) int {
	return 160 + titleAdvance*(titleLines-1)
}

// composeBadge sizes the pill to its text: fixed insets plus a per-rune
// advance, clamped so short badges stay legible pills and long ones never
// overrun the canvas.
func composeBadge(text string, p palette.Palette) *Badge {
	runes := len([]rune(text))
	width := 2*badgeTextInsetX + badgePerRune*runes
	if width < badgeMinWidth {
		width = badgeMinWidth
	}
	if width > badgeMaxWidth {
		width = badgeMaxWidth
	}
	return &Badge{
		X:            badgeX,
		Y:            badgeY,
		Width:        float64(width),
		Height:       badgeHeight,
		CornerRadius: badgeCornerRadius,
		Fill:         p.BadgeBackground,
		Opacity:      badgeOpacity,
		Text:         text,
		TextColor:    p.BadgeText,
		TextSize:     badgeTextSize,
		TextX:        badgeX + badgeTextInsetX,
		TextY:        badgeY + badgeTextBaseline,
	}
}
