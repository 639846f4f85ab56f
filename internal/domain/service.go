// Package domain defines the business logic for the devpulse service.
package domain

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/devpulse/internal/observability"
)

// Service orchestrates activity logging and streak queries.
type Service struct {
	store  Store
	now    func() time.Time
	logger *log.Logger
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithClock overrides the clock used for record timestamps and the advisory
// today-check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger overrides the logger used for advisory warnings.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: log.New(log.Writer(), "[domain] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogActivityInput captures the payload from the API layer.
type LogActivityInput struct {
	UserID string
	Date   time.Time
	Type   ActivityType
	Source string
}

// LogActivity records one activity with idempotent upsert semantics: an
// existing (user, date, type) record is left untouched and reported as a
// replay.
func (s *Service) LogActivity(ctx context.Context, input LogActivityInput) (ActivityRecord, bool, error) {
	record := ActivityRecord{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Date:      Day(input.Date),
		Type:      input.Type,
		Source:    input.Source,
		CreatedAt: s.now().UTC(),
	}
	if record.Source == "" {
		record.Source = SourceManual
	}

	created, err := s.store.UpsertIfAbsent(ctx, record)
	if err != nil {
		return ActivityRecord{}, false, err
	}
	return record, !created, nil
}

// ListActivities fetches the caller's records, most recent date first.
func (s *Service) ListActivities(ctx context.Context, userID string, cursor *Cursor, limit int) ([]ActivityRecord, *Cursor, error) {
	return s.store.ListByUser(ctx, userID, cursor, limit)
}

// Streaks recomputes the caller's streaks from the distinct-date set. When
// the query day itself has no activity the break is logged and counted but
// the returned result is unchanged.
func (s *Service) Streaks(ctx context.Context, userID string) (StreakResult, error) {
	dates, err := s.store.DistinctDates(ctx, userID)
	if err != nil {
		return StreakResult{}, err
	}

	result := ComputeStreaks(dates, s.now())
	if len(dates) > 0 && !result.ActiveToday {
		s.logger.Printf("streak broken for user %s: no activity today, last active %s", userID, result.LastActive.Format("2006-01-02"))
		observability.RecordStreakBroken()
	}
	return result, nil
}
