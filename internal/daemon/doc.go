// Package daemon coordinates the long-running statmatchd process.
//
// It wires configuration, the fingerprint store, the message queues, and the
// worker into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon exposes queue maintenance helpers and owns the test
// notification path.
//
// Keep orchestration logic here: batch processing lives in the worker
// package while the daemon focuses on startup, shutdown, and coordination.
package daemon
