package github

import (
	"time"

	"example.com/devpulse/internal/domain"
)

// timestampLayout is the single wall-clock format used by provider event
// timestamps.
const timestampLayout = "2006-01-02T15:04:05Z"

// Classify maps a provider event type onto the internal activity taxonomy.
// The table is fixed product policy; events outside it are dropped, not
// errors. CreateEvent stays under coding even though it also covers branch
// and tag creation.
func Classify(eventType string) (domain.ActivityType, bool) {
	switch eventType {
	case "PushEvent", "PullRequestEvent", "CreateEvent":
		return domain.ActivityCoding, true
	case "IssuesEvent", "IssueCommentEvent":
		return domain.ActivityDebugging, true
	case "WatchEvent", "ForkEvent":
		return domain.ActivityLearning, true
	}
	return "", false
}

// EventDay parses an event timestamp and truncates it to its calendar date.
func EventDay(raw string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return domain.Day(ts), nil
}
