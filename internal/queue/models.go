package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queued message.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusDead       Status = "dead"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusDone,
	StatusDead,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Message represents a queued message persisted in SQLite.
type Message struct {
	ID           int64
	Queue        string
	Body         []byte
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated message counts per lifecycle state
// for a single named queue.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Done       int
	Dead       int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status will never change again.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusDead
}
