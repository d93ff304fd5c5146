package stage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks bad user input: unknown palettes, malformed
	// palette files, unsafe slugs, invalid settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrArtwork marks missing or undecodable source art.
	ErrArtwork = errors.New("artwork error")
	// ErrRender marks a render attempt that exhausted every backend.
	ErrRender = errors.New("render error")
	// ErrTagging marks a per-file cover embed failure. Tagging errors never
	// abort a run.
	ErrTagging = errors.New("tagging error")
	// ErrBundle marks a failure while building or placing the story archive.
	ErrBundle = errors.New("bundle error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stageName, operation, message string, err error) error {
	detail := buildDetail(stageName, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind reports the taxonomy bucket an error belongs to. Unrecognized errors
// map to "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrArtwork):
		return "artwork"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrTagging):
		return "tagging"
	case errors.Is(err, ErrBundle):
		return "bundle"
	default:
		return "internal"
	}
}

func buildDetail(stageName, operation, message string) string {
	parts := make([]string, 0, 3)
	if stageName = strings.TrimSpace(stageName); stageName != "" {
		parts = append(parts, stageName)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
