package stage

import "context"

type contextKey string

const (
	storyKey contextKey = "story"
	nameKey  contextKey = "stage"
	runIDKey contextKey = "run_id"
)

// WithStory annotates context with the story slug being processed.
func WithStory(ctx context.Context, slug string) context.Context {
	if slug == "" {
		return ctx
	}
	return context.WithValue(ctx, storyKey, slug)
}

// StoryFromContext returns the story slug if present.
func StoryFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(storyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithName annotates context with the pipeline stage name.
func WithName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, nameKey, name)
}

// NameFromContext returns the stage name if present.
func NameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(nameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
