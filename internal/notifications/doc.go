// Package notifications delivers worker events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover batch milestones so the worker can
// emit consistent messages without duplicating HTTP glue.
package notifications
