package github

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/observability"
)

// EventsAPI is the slice of Client the syncer depends on.
type EventsAPI interface {
	UserEvents(ctx context.Context, username, token string) ([]Event, error)
}

// Syncer ingests provider events into the activity store. One sync run is a
// single best-effort attempt: upstream failures surface immediately and are
// never retried, while individual bad events are skipped without aborting
// the batch.
type Syncer struct {
	api      EventsAPI
	store    domain.Store
	profiles domain.ProfileStore
	limit    int
	now      func() time.Time
	logger   *log.Logger
}

// SyncerOption configures optional Syncer behaviour.
type SyncerOption func(*Syncer)

// WithSyncerClock overrides the clock used for record timestamps.
func WithSyncerClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithSyncerLogger overrides the logger used to report skipped events.
func WithSyncerLogger(logger *log.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// NewSyncer constructs a Syncer. limit caps how many of the most recent
// events one run will process.
func NewSyncer(api EventsAPI, store domain.Store, profiles domain.ProfileStore, limit int, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		api:      api,
		store:    store,
		profiles: profiles,
		limit:    limit,
		now:      time.Now,
		logger:   log.New(log.Writer(), "[sync] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report summarises one sync run.
type Report struct {
	Created        int
	EventsExamined int
	Username       string
	AutoSync       bool
}

// Sync fetches the user's recent provider events and upserts one activity
// record per classified (date, type) pair. Records already present are left
// untouched; the report counts only rows actually created. An empty username
// falls back to the caller's saved profile and is rejected before any
// network access when neither exists.
func (s *Syncer) Sync(ctx context.Context, userID, username, token string) (Report, error) {
	username = strings.TrimSpace(username)

	saved, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	if username == "" {
		if saved == nil {
			return Report{}, fmt.Errorf("%w: github_username is required", domain.ErrInvalidInput)
		}
		username = saved.Username
		if token == "" {
			token = saved.Token
		}
	}

	events, err := s.api.UserEvents(ctx, username, token)
	if err != nil {
		return Report{}, err
	}

	window := events
	if len(window) > s.limit {
		window = window[:s.limit]
	}

	created := 0
	for _, event := range window {
		activityType, ok := Classify(event.Type)
		if !ok {
			observability.RecordSyncSkipped("unmapped_type")
			continue
		}

		day, err := EventDay(event.CreatedAt)
		if err != nil {
			// One bad timestamp never fails the batch.
			s.logger.Printf("skipping %s event with timestamp %q: %v", event.Type, event.CreatedAt, err)
			observability.RecordSyncSkipped("bad_timestamp")
			continue
		}

		wasCreated, err := s.store.UpsertIfAbsent(ctx, domain.ActivityRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Date:      day,
			Type:      activityType,
			Source:    domain.SourceGitHub,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return Report{}, err
		}
		if wasCreated {
			created++
		}
	}

	syncedAt := s.now().UTC()
	profile := domain.GitHubProfile{
		UserID:     userID,
		Username:   username,
		Token:      token,
		LastSynced: &syncedAt,
	}
	if saved != nil {
		profile.AutoSync = saved.AutoSync
		if profile.Token == "" && saved.Username == username {
			profile.Token = saved.Token
		}
	}
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return Report{}, err
	}

	observability.RecordSyncCompleted(created, len(events), syncedAt)
	return Report{
		Created:        created,
		EventsExamined: len(events),
		Username:       username,
		AutoSync:       profile.AutoSync,
	}, nil
}
