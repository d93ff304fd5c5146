package config

const (
	defaultBaseDir          = "~/stories"
	defaultLogDir           = "~/.local/share/storypack/logs"
	defaultStateDir         = "~/.local/share/storypack"
	defaultJPEGQuality      = 92
	defaultArtCornerRadius  = 48
	defaultTitleWrap        = 22
	defaultTitleMaxLines    = 2
	defaultSubtitleWrap     = 38
	defaultSubtitleMaxLines = 2
	defaultInkscapeBinary   = "inkscape"
	defaultRsvgBinary       = "rsvg-convert"
	defaultFFmpegBinary     = "ffmpeg"
	defaultAudioExtension   = ".mp3"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// BackendLibrary, BackendInkscape, and BackendRsvg name the raster backends
// accepted in render.backends, in default preference order.
const (
	BackendLibrary  = "library"
	BackendInkscape = "inkscape"
	BackendRsvg     = "rsvg-convert"
)

func defaultBackends() []string {
	return []string{BackendLibrary, BackendInkscape, BackendRsvg}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir:  defaultBaseDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Cover: Cover{
			JPEGQuality:      defaultJPEGQuality,
			ArtCornerRadius:  defaultArtCornerRadius,
			TitleWrap:        defaultTitleWrap,
			TitleMaxLines:    defaultTitleMaxLines,
			SubtitleWrap:     defaultSubtitleWrap,
			SubtitleMaxLines: defaultSubtitleMaxLines,
		},
		Render: Render{
			Backends:       defaultBackends(),
			InkscapeBinary: defaultInkscapeBinary,
			RsvgBinary:     defaultRsvgBinary,
		},
		Audio: Audio{
			FFmpegBinary: defaultFFmpegBinary,
			Extension:    defaultAudioExtension,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
