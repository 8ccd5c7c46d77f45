// Package worker consumes batch requests from the inbound queue, ranks
// candidate fingerprints against the configured roots, and publishes a
// result document to the outbound queue.
package worker
