package github

import (
	"context"
	"fmt"
	"log"
	"strings"

	"example.com/devpulse/internal/domain"
)

// StatsAPI is the slice of Client the aggregator depends on.
type StatsAPI interface {
	UserProfile(ctx context.Context, username, token string) (*Profile, error)
	UserEvents(ctx context.Context, username, token string) ([]Event, error)
}

// Stats summarises a GitHub account's profile and recent activity. Derived
// on every request, never persisted.
type Stats struct {
	Username     string
	PublicRepos  int
	Followers    int
	Following    int
	ProfileURL   string
	Bio          string
	CreatedAt    string
	PushEvents   int
	PullRequests int
	TotalCommits int
	EventsCount  int
}

// Aggregator derives read-only stats from provider data.
type Aggregator struct {
	api    StatsAPI
	logger *log.Logger
}

// AggregatorOption configures optional Aggregator behaviour.
type AggregatorOption func(*Aggregator)

// WithAggregatorLogger overrides the logger used for degraded fetches.
func WithAggregatorLogger(logger *log.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator constructs an Aggregator.
func NewAggregator(api StatsAPI, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		api:    api,
		logger: log.New(log.Writer(), "[stats] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect fetches the profile and recent events and tallies activity counts.
// A profile failure surfaces as-is; a failed events fetch degrades to empty
// counts instead of failing the request.
func (a *Aggregator) Collect(ctx context.Context, username, token string) (Stats, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Stats{}, fmt.Errorf("%w: github_username is required", domain.ErrInvalidInput)
	}

	profile, err := a.api.UserProfile(ctx, username, token)
	if err != nil {
		return Stats{}, err
	}

	events, err := a.api.UserEvents(ctx, username, token)
	if err != nil {
		a.logger.Printf("events fetch failed for %s, returning profile-only stats: %v", username, err)
		events = nil
	}

	stats := Stats{
		Username:    username,
		PublicRepos: profile.PublicRepos,
		Followers:   profile.Followers,
		Following:   profile.Following,
		ProfileURL:  profile.HTMLURL,
		Bio:         profile.Bio,
		CreatedAt:   profile.CreatedAt,
		EventsCount: len(events),
	}
	for _, event := range events {
		switch event.Type {
		case "PushEvent":
			stats.PushEvents++
			stats.TotalCommits += len(event.Payload.Commits)
		case "PullRequestEvent":
			stats.PullRequests++
		}
	}
	return stats, nil
}
