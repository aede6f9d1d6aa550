package scheduler

import "github.com/google/uuid"

const (
	JobTypePostPublish   = "press.post.publish"
	JobTypePostUnpublish = "press.post.unpublish"
)

func PostPublishJobKey(id uuid.UUID) string {
	return "post:" + id.String() + ":publish"
}

func PostUnpublishJobKey(id uuid.UUID) string {
	return "post:" + id.String() + ":unpublish"
}
