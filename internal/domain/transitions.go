package domain

// transitions enumerates the allowed status changes. Archived posts can be
// restored to draft; everything else flows toward published.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusScheduled, StatusPublished, StatusArchived},
	StatusScheduled: {StatusDraft, StatusPublished, StatusArchived},
	StatusPublished: {StatusDraft, StatusScheduled, StatusArchived},
	StatusArchived:  {StatusDraft},
}

// CanTransition reports whether a post may move from one status to another.
// Identity transitions are always allowed so idempotent updates do not fail.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusOnPublish resolves the status a post should take when a publish is
// requested: an explicit future run time keeps it scheduled, otherwise the
// post goes live immediately.
func StatusOnPublish(deferred bool) Status {
	if deferred {
		return StatusScheduled
	}
	return StatusPublished
}

// StatusOnUnpublish resolves the status for an unpublish request. Posts that
// never went live fall back to draft rather than archived.
func StatusOnUnpublish(current Status) Status {
	if current == StatusPublished {
		return StatusArchived
	}
	return StatusDraft
}
