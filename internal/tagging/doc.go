// Package tagging embeds finished covers into audio files.
//
// Tagging is best-effort. A missing ffmpeg binary skips the stage
// with a warning, and a file that cannot be tagged is recorded and left
// byte-for-byte intact while the rest of the folder is still processed. The
// pipeline treats the whole stage as non-fatal.
package tagging
