// Package stage defines the shared error taxonomy and context plumbing used
// by every pipeline stage.
//
// Stages tag failures with one of the sentinel markers (configuration,
// artwork, render, tagging, bundle) via Wrap so the orchestrator and CLI can
// classify outcomes without string matching. Context helpers carry the story
// slug, stage name, and run identifier so log lines stay correlated across
// components.
package stage
