package layout

import "image"

// Scene is the typed form of a composed cover: everything a raster backend
// needs to draw without parsing markup.
type Scene struct {
	Canvas          int
	BackgroundStart string
	BackgroundEnd   string

	// Art is nil when the cover has no artwork.
	Art             image.Image
	ArtRegion       image.Rectangle
	ArtOpacity      float64
	ArtCornerRadius int

	Title    TextRun
	Subtitle TextRun
	Badge    *Badge
}

// TextRun is a block of positioned text lines sharing one style. Y is the
// baseline of the first line; subsequent lines advance by LineAdvance.
type TextRun struct {
	Lines       []string
	X           float64
	Y           float64
	LineAdvance float64
	Size        float64
	Color       string
	Bold        bool
	Opacity     float64
}

// Empty reports whether the run has no lines to draw.
func (r TextRun) Empty() bool { return len(r.Lines) == 0 }

// Badge is the pill-shaped voice marker in the cover's upper band.
type Badge struct {
	X            float64
	Y            float64
	Width        float64
	Height       float64
	CornerRadius float64
	Fill         string
	Opacity      float64

	Text      string
	TextColor string
	TextSize  float64
	// TextX and TextY are absolute canvas coordinates of the text baseline.
	TextX float64
	TextY float64
}
