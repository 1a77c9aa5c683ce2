package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

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

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Type distinguishes single-item jobs from batches.
type Type string

const (
	TypeSingle Type = "single"
	TypeBatch  Type = "batch"
)

// Job is the persisted record of one unit of requested work.
// Total is fixed at creation and never mutated; Completed+Failed never
// exceeds Total.
type Job struct {
	ID              string
	Type            Type
	Status          Status
	BadgeTypes      []string
	ItemIDs         []string
	Completed       int
	Failed          int
	Total           int
	CancelRequested bool
	ErrorMessage    string
	Extra           map[string]string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	UpdatedAt       time.Time
}

// Remaining returns how many items have not yet reported.
func (j *Job) Remaining() int {
	remaining := j.Total - j.Completed - j.Failed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ItemStatus describes the outcome of one item within a job.
type ItemStatus string

const (
	ItemCompleted ItemStatus = "completed"
	ItemFailed    ItemStatus = "failed"
)

// ItemRecord is the per-item outcome row. Records are created as items
// report and are append-only from the pipeline's perspective.
type ItemRecord struct {
	ID            int64
	JobID         string
	ItemID        string
	Status        ItemStatus
	Attempts      int
	AppliedBadges []string
	FailedBadges  []string
	OutputPath    string
	ErrorMessage  string
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// ItemResult is the input to RecordItemResult.
type ItemResult struct {
	JobID         string
	ItemID        string
	Status        ItemStatus
	Attempts      int
	AppliedBadges []string
	FailedBadges  []string
	OutputPath    string
	ErrorMessage  string
	Elapsed       time.Duration
}
