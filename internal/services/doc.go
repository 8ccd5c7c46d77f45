// Package services provides shared plumbing for statmatch components:
// a sentinel error taxonomy used to classify failures during batch
// processing, and context helpers that thread message and experiment
// identifiers into structured logs.
package services
