package layout

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"storypack/internal/artwork"
)

//go:embed cover.svg.tmpl
var coverTemplateSrc string

var coverTemplate = template.Must(template.New("cover").Parse(coverTemplateSrc))

// xmlEscaper escapes text nodes and attribute values for SVG markup.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

type markupData struct {
	Canvas          int
	BackgroundStart string
	BackgroundEnd   string

	HasArt     bool
	HasClip    bool
	ArtURI     string
	ArtX       int
	ArtY       int
	ArtW       int
	ArtH       int
	ArtOpacity float64
	ArtRadius  int

	TitleX       float64
	TitleY       float64
	TitleSize    float64
	TitleAdvance float64
	TitleColor   string
	TitleLines   []string

	HasSubtitle     bool
	SubtitleY       float64
	SubtitleSize    float64
	SubtitleAdvance float64
	SubtitleColor   string
	SubtitleOpacity float64
	SubtitleLines   []string

	HasBadge       bool
	BadgeX         float64
	BadgeY         float64
	BadgeW         float64
	BadgeH         float64
	BadgeRadius    float64
	BadgeFill      string
	BadgeOpacity   float64
	BadgeText      string
	BadgeTextColor string
	BadgeTextSize  float64
	BadgeTextX     float64
	BadgeTextY     float64
}

func renderMarkup(scene Scene, art *artwork.Art) ([]byte, error) {
	data := markupData{
		Canvas:          scene.Canvas,
		BackgroundStart: scene.BackgroundStart,
		BackgroundEnd:   scene.BackgroundEnd,
		TitleX:          scene.Title.X,
		TitleY:          scene.Title.Y,
		TitleSize:       scene.Title.Size,
		TitleAdvance:    scene.Title.LineAdvance,
		TitleColor:      scene.Title.Color,
		TitleLines:      escapeLines(scene.Title.Lines),
	}

	if scene.Art != nil && art != nil {
		data.HasArt = true
		data.HasClip = scene.ArtCornerRadius > 0
		data.ArtURI = art.DataURI()
		data.ArtX = scene.ArtRegion.Min.X
		data.ArtY = scene.ArtRegion.Min.Y
		data.ArtW = scene.ArtRegion.Dx()
		data.ArtH = scene.ArtRegion.Dy()
		data.ArtOpacity = scene.ArtOpacity
		data.ArtRadius = scene.ArtCornerRadius
	}

	if !scene.Subtitle.Empty() {
		data.HasSubtitle = true
		data.SubtitleY = scene.Subtitle.Y
		data.SubtitleSize = scene.Subtitle.Size
		data.SubtitleAdvance = scene.Subtitle.LineAdvance
		data.SubtitleColor = scene.Subtitle.Color
		data.SubtitleOpacity = scene.Subtitle.Opacity
		data.SubtitleLines = escapeLines(scene.Subtitle.Lines)
	}

	if badge := scene.Badge; badge != nil {
		data.HasBadge = true
		data.BadgeX = badge.X
		data.BadgeY = badge.Y
		data.BadgeW = badge.Width
		data.BadgeH = badge.Height
		data.BadgeRadius = badge.CornerRadius
		data.BadgeFill = badge.Fill
		data.BadgeOpacity = badge.Opacity
		data.BadgeText = xmlEscaper.Replace(badge.Text)
		data.BadgeTextColor = badge.TextColor
		data.BadgeTextSize = badge.TextSize
		data.BadgeTextX = badge.TextX - badge.X
		data.BadgeTextY = badge.TextY - badge.Y
	}

	var buf bytes.Buffer
	if err := coverTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = xmlEscaper.Replace(line)
	}
	return out
}
