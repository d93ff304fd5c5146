package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"storypack/internal/config"
	"storypack/internal/layout"
)

// libraryRenderer rasters the scene in-process. It embeds the Go fonts, so
// output is bit-stable across machines and needs no external tools.
type libraryRenderer struct {
	regular *sfnt.Font
	bold    *sfnt.Font
}

func newLibraryRenderer() (*libraryRenderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &libraryRenderer{regular: regular, bold: bold}, nil
}

func (r *libraryRenderer) Name() string { return config.BackendLibrary }

func (r *libraryRenderer) Available() bool { return true }

func (r *libraryRenderer) Render(ctx context.Context, doc *layout.Document, outPath string) error {
	scene := doc.Scene()
	size := float64(scene.Canvas)
	dc := gg.NewContext(scene.Canvas, scene.Canvas)

	start, err := parseHexColor(scene.BackgroundStart)
	if err != nil {
		return fmt.Errorf("background start: %w", err)
	}
	end, err := parseHexColor(scene.BackgroundEnd)
	if err != nil {
		return fmt.Errorf("background end: %w", err)
	}
	grad := gg.NewLinearGradient(0, 0, 0, size)
	grad.AddColorStop(0, start)
	grad.AddColorStop(1, end)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, size, size)
	dc.Fill()

	if scene.Art != nil {
		drawArt(dc, scene)
	}

	if err := r.drawTextRun(dc, scene.Title); err != nil {
		return fmt.Errorf("draw title: %w", err)
	}
	if !scene.Subtitle.Empty() {
		if err := r.drawTextRun(dc, scene.Subtitle); err != nil {
			return fmt.Errorf("draw subtitle: %w", err)
		}
	}
	if scene.Badge != nil {
		if err := r.drawBadge(dc, *scene.Badge); err != nil {
			return fmt.Errorf("draw badge: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return dc.SavePNG(outPath)
}

// drawArt scales the art to fit the region (aspect preserved, centered, the
// markup's xMidYMid meet), fades it to the scene opacity, and blits it under
// an optional rounded-corner clip.
func drawArt(dc *gg.Context, scene layout.Scene) {
	region := scene.ArtRegion
	fitted := imaging.Fit(scene.Art, region.Dx(), region.Dy(), imaging.Lanczos)
	faded := fade(fitted, scene.ArtOpacity)
	cx := region.Min.X + region.Dx()/2
	cy := region.Min.Y + region.Dy()/2

	if scene.ArtCornerRadius > 0 {
		dc.DrawRoundedRectangle(
			float64(region.Min.X), float64(region.Min.Y),
			float64(region.Dx()), float64(region.Dy()),
			float64(scene.ArtCornerRadius))
		dc.Clip()
		dc.DrawImageAnchored(faded, cx, cy, 0.5, 0.5)
		dc.ResetClip()
		return
	}
	dc.DrawImageAnchored(faded, cx, cy, 0.5, 0.5)
}

func fade(img image.Image, opacity float64) image.Image {
	if opacity >= 1 {
		return img
	}
	bounds := img.Bounds()
	faded := image.NewNRGBA(bounds)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(faded, bounds, img, bounds.Min, mask, image.Point{}, draw.Src)
	return faded
}

func (r *libraryRenderer) drawTextRun(dc *gg.Context, run layout.TextRun) error {
	face, err := r.face(run.Size, run.Bold)
	if err != nil {
		return err
	}
	defer face.Close()

	c, err := parseHexColor(run.Color)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	setColor(dc, c, run.Opacity)
	for i, line := range run.Lines {
		dc.DrawString(line, run.X, run.Y+float64(i)*run.LineAdvance)
	}
	return nil
}

func (r *libraryRenderer) drawBadge(dc *gg.Context, badge layout.Badge) error {
	fill, err := parseHexColor(badge.Fill)
	if err != nil {
		return err
	}
	setColor(dc, fill, badge.Opacity)
	dc.DrawRoundedRectangle(badge.X, badge.Y, badge.Width, badge.Height, badge.CornerRadius)
	dc.Fill()

	face, err := r.face(badge.TextSize, true)
	if err != nil {
		return err
	}
	defer face.Close()

	text, err := parseHexColor(badge.TextColor)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	setColor(dc, text, 1)
	dc.DrawString(badge.Text, badge.TextX, badge.TextY)
	return nil
}

func (r *libraryRenderer) face(size float64, bold bool) (font.Face, error) {
	src := r.regular
	if bold {
		src = r.bold
	}
	return opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func setColor(dc *gg.Context, c color.NRGBA, opacity float64) {
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, opacity)
}

// parseHexColor parses #RGB and #RRGGBB colors.
func parseHexColor(value string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(value, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", value)
	}
	parsed, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", value, err)
	}
	return color.NRGBA{
		R: uint8(parsed >> 16),
		G: uint8(parsed >> 8),
		B: uint8(parsed),
		A: 255,
	}, nil
}
