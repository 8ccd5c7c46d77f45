package logging

import (
	"context"
	"log/slog"

	"statmatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMessageID is the standardized structured logging key for queue message identifiers.
	FieldMessageID = "message_id"
	// FieldExperimentID is the standardized structured logging key for batch experiment identifiers.
	FieldExperimentID = "experiment_id"
	// FieldStage is the standardized structured logging key for processing stage names.
	FieldStage = "stage"
	// FieldFingerprintID is the standardized structured logging key for fingerprint identifiers.
	FieldFingerprintID = "fingerprint_id"
	// FieldRootID is the standardized structured logging key for root fingerprint identifiers.
	FieldRootID = "root_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.MessageIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldMessageID, id))
	}
	if id, ok := services.ExperimentIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldExperimentID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
