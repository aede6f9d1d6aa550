package posts

import (
	"errors"
	"fmt"
)

var (
	ErrSlugRequired             = errors.New("posts: slug is required")
	ErrSlugInvalid              = errors.New("posts: slug contains invalid characters")
	ErrSlugExists               = errors.New("posts: slug already exists")
	ErrNoTranslations           = errors.New("posts: at least one translation is required")
	ErrDuplicateLocale          = errors.New("posts: duplicate locale provided")
	ErrUnknownLocale            = errors.New("posts: unknown locale")
	ErrPostIDRequired           = errors.New("posts: post id required")
	ErrStatusInvalid            = errors.New("posts: unknown status")
	ErrStatusTransitionInvalid  = errors.New("posts: status transition not allowed")
	ErrVersioningDisabled       = errors.New("posts: versioning feature disabled")
	ErrVersionRequired          = errors.New("posts: version identifier required")
	ErrSchedulingDisabled       = errors.New("posts: scheduling feature disabled")
	ErrScheduleWindowInvalid    = errors.New("posts: publish_at must be before unpublish_at")
	ErrScheduleTimestampInvalid = errors.New("posts: schedule timestamp is invalid")
)

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
