package models

import "time"

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

const (
	DefaultCategory = "General"
	DefaultPriority = PriorityMedium
)

// IsValidPriority reports whether p is one of the enumerated priorities.
// The comparison is case-sensitive.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          int64
	UserID      string
	Description string
	Completed   bool
	Category    string
	Priority    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
