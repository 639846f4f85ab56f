package github

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/devpulse/internal/domain"
)

type stubEventsAPI struct {
	events       []Event
	err          error
	calls        int
	lastUsername string
	lastToken    string
}

func (s *stubEventsAPI) UserEvents(_ context.Context, username, token string) ([]Event, error) {
	s.calls++
	s.lastUsername = username
	s.lastToken = token
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

type memStore struct {
	records map[string]domain.ActivityRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.ActivityRecord)}
}

func (m *memStore) UpsertIfAbsent(_ context.Context, record domain.ActivityRecord) (bool, error) {
	key := fmt.Sprintf("%s|%s|%s", record.UserID, record.Date.Format("2006-01-02"), record.Type)
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = record
	return true, nil
}

func (m *memStore) DistinctDates(context.Context, string) ([]time.Time, error) {
	return nil, nil
}

func (m *memStore) ListByUser(context.Context, string, *domain.Cursor, int) ([]domain.ActivityRecord, *domain.Cursor, error) {
	return nil, nil, nil
}

type memProfiles struct {
	profiles map[string]domain.GitHubProfile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[string]domain.GitHubProfile)}
}

func (m *memProfiles) SaveProfile(_ context.Context, profile domain.GitHubProfile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *memProfiles) GetProfile(_ context.Context, userID string) (*domain.GitHubProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func quietSyncer(api EventsAPI, store domain.Store, profiles domain.ProfileStore, limit int) *Syncer {
	return NewSyncer(api, store, profiles, limit,
		WithSyncerClock(func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }),
		WithSyncerLogger(log.New(io.Discard, "", 0)),
	)
}

func TestSyncIsIdempotent(t *testing.T) {
	api := &stubEventsAPI{events: []Event{
		{Type: "PushEvent", CreatedAt: "2024-03-05T10:00:00Z"},
		{Type: "PushEvent", CreatedAt: "2024-03-05T14:00:00Z"},
		{Type: "ForkEvent", CreatedAt: "2024-03-05T16:00:00Z"},
	}}
	store := newMemStore()
	syncer := quietSyncer(api, store, newMemProfiles(), 30)

	report, err := syncer.Sync(context.Background(), "user-1", "octocat", "")
	require.NoError(t, err)
	// Two pushes on the same day collapse into one coding record.
	require.Equal(t, 2, report.Created)
	require.Equal(t, 3, report.EventsExamined)
	require.Equal(t, "octocat", report.Username)

	report, err = syncer.Sync(context.Background(), "user-1", "octocat", "")
	require.NoError(t, err)
	require.Equal(t, 0, report.Created)
	require.Len(t, store.records, 2)
}

func TestSyncSkipsMalformedTimestamp(t *testing.T) {
	api := &stubEventsAPI{events: []Event{
		{Type: "PushEvent", CreatedAt: "2024-03-05T10:00:00Z"},
		{Type: "IssuesEvent", CreatedAt: "garbage"},
		{Type: "WatchEvent", CreatedAt: "2024-03-06T10:00:00Z"},
	}}
	store := newMemStore()
	syncer := quietSyncer(api, store, newMemProfiles(), 30)

	report, err := syncer.Sync(context.Background(), "user-1", "octocat", "")
	require.NoError(t, err)
	require.Equal(t, 2, report.Created)
	require.Equal(t, 3, report.EventsExamined)
}

func TestSyncDropsUnmappedEventTypes(t *testing.T) {
	api := &stubEventsAPI{events: []Event{
		{Type: "GollumEvent", CreatedAt: "2024-03-05T10:00:00Z"},
		{Type: "ReleaseEvent", CreatedAt: "2024-03-05T11:00:00Z"},
	}}
	store := newMemStore()
	syncer := quietSyncer(api, store, newMemProfiles(), 30)

	report, err := syncer.Sync(context.Background(), "user-1", "octocat", "")
	require.NoError(t, err)
	require.Equal(t, 0, report.Created)
	require.Empty(t, store.records)
}

func TestSyncCapsEventWindow(t *testing.T) {
	var events []Event
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		events = append(events, Event{
			Type:      "PushEvent",
			CreatedAt: base.AddDate(0, 0, i).Format("2006-01-02T15:04:05Z"),
		})
	}
	api := &stubEventsAPI{events: events}
	store := newMemStore()
	syncer := quietSyncer(api, store, newMemProfiles(), 30)

	report, err := syncer.Sync(context.Background(), "user-1", "octocat", "")
	require.NoError(t, err)
	require.Equal(t, 30, report.Created)
	require.Equal(t, 35, report.EventsExamined)
}

func TestSyncRejectsMissingHandleBeforeFetch(t *testing.T) {
	api := &stubEventsAPI{}
	syncer := quietSyncer(api, newMemStore(), newMemProfiles(), 30)

	_, err := syncer.Sync(context.Background(), "user-1", "  ", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Equal(t, 0, api.calls)
}

func TestSyncFallsBackToSavedProfile(t *testing.T) {
	api := &stubEventsAPI{events: []Event{
		{Type: "PushEvent", CreatedAt: "2024-03-05T10:00:00Z"},
	}}
	profiles := newMemProfiles()
	profiles.profiles["user-1"] = domain.GitHubProfile{
		UserID:   "user-1",
		Username: "octocat",
		Token:    "saved-token",
		AutoSync: true,
	}
	syncer := quietSyncer(api, newMemStore(), profiles, 30)

	report, err := syncer.Sync(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, "octocat", api.lastUsername)
	require.Equal(t, "saved-token", api.lastToken)
	require.True(t, report.AutoSync)
}

func TestSyncRecordsProfileWatermark(t *testing.T) {
	api := &stubEventsAPI{events: []Event{
		{Type: "PushEvent", CreatedAt: "2024-03-05T10:00:00Z"},
	}}
	profiles := newMemProfiles()
	syncer := quietSyncer(api, newMemStore(), profiles, 30)

	_, err := syncer.Sync(context.Background(), "user-1", "octocat", "tok")
	require.NoError(t, err)

	saved, err := profiles.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, "octocat", saved.Username)
	require.NotNil(t, saved.LastSynced)
	require.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), saved.LastSynced.UTC())
}

func TestSyncPropagatesUpstreamErrors(t *testing.T) {
	api := &stubEventsAPI{err: &domain.UpstreamStatusError{Status: 403}}
	syncer := quietSyncer(api, newMemStore(), newMemProfiles(), 30)

	_, err := syncer.Sync(context.Background(), "user-1", "octocat", "")
	var upstream *domain.UpstreamStatusError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 403, upstream.Status)
}
