package services

import "context"

type contextKey string

const (
	messageIDKey    contextKey = "message_id"
	experimentIDKey contextKey = "experiment_id"
	stageKey        contextKey = "stage"
)

// WithMessageID annotates context with the queue message identifier.
func WithMessageID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, messageIDKey, id)
}

// MessageIDFromContext extracts the queue message identifier if present.
func MessageIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(messageIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithExperimentID annotates context with the batch experiment identifier.
func WithExperimentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, experimentIDKey, id)
}

// ExperimentIDFromContext returns the experiment identifier if present.
func ExperimentIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(experimentIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithStage annotates context with the processing stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
