// Package pipeline orchestrates packaging a story into an upload-ready
// bundle: resolve the palette, normalize the artwork, compose and render the
// cover, embed it into the audio files, clean up the consumed art, and zip
// the folder.
//
// Each story is guarded by a file lock so concurrent invocations cannot
// interleave writes to the same folder. Stage outcomes are recorded in the
// run ledger when history is enabled. The error taxonomy in the stage package
// decides what aborts a run: palette, artwork, render, and bundle failures
// are fatal while tagging and cleanup problems are recorded and skipped.
package pipeline
