package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput marks a request rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable marks a transport-level failure reaching an external provider.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)

// UpstreamStatusError reports a non-success status returned by an external
// provider. Surfaced distinctly from ErrUpstreamUnavailable so callers can
// relay the original status.
type UpstreamStatusError struct {
	Status int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream provider returned status %d", e.Status)
}

// ActivityType is the internal activity taxonomy.
type ActivityType string

const (
	ActivityCoding    ActivityType = "coding"
	ActivityLearning  ActivityType = "learning"
	ActivityDebugging ActivityType = "debugging"
)

// ParseActivityType validates a raw activity type value.
func ParseActivityType(raw string) (ActivityType, error) {
	switch t := ActivityType(raw); t {
	case ActivityCoding, ActivityLearning, ActivityDebugging:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown activity_type %q", ErrInvalidInput, raw)
}

// Source values recorded on activities.
const (
	SourceManual = "manual"
	SourceGitHub = "github"
)

// ActivityRecord is one (user, date, type) entry. At most one record exists
// per triple; records are never mutated after creation.
type ActivityRecord struct {
	ID        string
	UserID    string
	Date      time.Time // calendar date, UTC midnight
	Type      ActivityType
	Source    string
	CreatedAt time.Time
}

// GitHubProfile links a user to an external GitHub account.
type GitHubProfile struct {
	UserID     string
	Username   string
	Token      string
	LastSynced *time.Time
	AutoSync   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Cursor models the keyset pagination token for activity listings.
type Cursor struct {
	Date time.Time
	ID   string
}

// Store captures persistence operations for activity records.
type Store interface {
	// UpsertIfAbsent inserts the record unless its (user, date, type) triple
	// already exists. Reports whether a row was actually created.
	UpsertIfAbsent(ctx context.Context, record ActivityRecord) (bool, error)
	// DistinctDates returns the set of dates with at least one activity.
	DistinctDates(ctx context.Context, userID string) ([]time.Time, error)
	// ListByUser returns records most recent date first.
	ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]ActivityRecord, *Cursor, error)
}

// ProfileStore persists linked GitHub profiles.
type ProfileStore interface {
	// SaveProfile inserts or updates the profile keyed on user id.
	SaveProfile(ctx context.Context, profile GitHubProfile) error
	// GetProfile returns nil without error when no profile is linked.
	GetProfile(ctx context.Context, userID string) (*GitHubProfile, error)
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
