// Package render rasters composed cover documents and finalizes them as
// JPEG files.
//
// A Chain tries backends in configured order: the in-process library backend
// (fogleman/gg with embedded Go fonts, always available, bit-stable), then
// headless inkscape, then rsvg-convert. Unavailable backends are skipped and
// failures fall through; only an exhausted chain surfaces a render error.
// Subprocess invocations go through the Executor seam so tests can fake the
// binaries.
package render
