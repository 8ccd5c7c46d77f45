// Package logging builds the slog loggers used across statmatch and keeps
// structured field names consistent. It offers a human-oriented console
// handler and a JSON handler, typed attribute helpers, and helpers that
// derive standard fields (message id, experiment id, stage) from context.
package logging
