package domain

import "strings"

// Status represents lifecycle states for published content
type Status string

const (
	// StatusDraft indicates a post still under preparation
	StatusDraft Status = "draft"
	// StatusScheduled marks a post with a future publish time configured
	StatusScheduled Status = "scheduled"
	// StatusPublished identifies a post available to readers
	StatusPublished Status = "published"
	// StatusArchived marks a post retained for history but no longer listed
	StatusArchived Status = "archived"
)

// NormalizeStatus coerces arbitrary status strings into a known value,
// defaulting to draft for empty input.
func NormalizeStatus(input string) Status {
	status := Status(strings.ToLower(strings.TrimSpace(input)))
	if status == "" {
		return StatusDraft
	}
	return status
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
