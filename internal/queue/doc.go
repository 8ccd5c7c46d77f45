// Package queue provides durable named message queues backed by SQLite.
// Messages move through a small lifecycle (pending, processing, done, dead)
// and at most one message per queue is in flight at a time.
package queue
