// Package api exposes HTTP handlers for the devpulse service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/devpulse/internal/auth"
	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/github"
	"example.com/devpulse/internal/identity"
	"example.com/devpulse/internal/persistence"
)

const dateLayout = "2006-01-02"

// IdentityAPI is the slice of the identity client the handlers depend on.
type IdentityAPI interface {
	SignUp(ctx context.Context, email, password string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	service  *domain.Service
	syncer   *github.Syncer
	stats    *github.Aggregator
	identity IdentityAPI
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, syncer *github.Syncer, stats *github.Aggregator, identityAPI IdentityAPI) *Handler {
	return &Handler{service: service, syncer: syncer, stats: stats, identity: identityAPI}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/auth/signup", h.signup)
	mux.HandleFunc("/v1/auth/login", h.login)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/streak", h.streak)
	mux.HandleFunc("/v1/github/sync", h.githubSync)
	mux.HandleFunc("/v1/github/stats", h.githubStats)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	session, err := h.identity.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		Message: "user created successfully",
		UID:     session.UID,
		Email:   session.Email,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	session, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		UID:          session.UID,
		Email:        session.Email,
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	})
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	day, activityType, err := req.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record, replay, err := h.service.LogActivity(r.Context(), domain.LogActivityInput{
		UserID: caller.UserID,
		Date:   day,
		Type:   activityType,
		Source: domain.SourceManual,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, ActivityView{
		ActivityID:   record.ID,
		UserID:       record.UserID,
		Date:         record.Date.Format(dateLayout),
		ActivityType: string(record.Type),
		Source:       record.Source,
		CreatedAt:    record.CreatedAt,
		Replay:       replay,
	})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListActivities(r.Context(), caller.UserID, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(records))
	for _, record := range records {
		items = append(items, ActivityView{
			ActivityID:   record.ID,
			UserID:       record.UserID,
			Date:         record.Date.Format(dateLayout),
			ActivityType: string(record.Type),
			Source:       record.Source,
			CreatedAt:    record.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	result, err := h.service.Streaks(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StreakResponse{
		CurrentStreak: result.Current,
		LongestStreak: result.Longest,
	})
}

func (h *Handler) githubSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	report, err := h.syncer.Sync(r.Context(), caller.UserID, req.GitHubUsername, req.GitHubToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Message:        fmt.Sprintf("successfully synced %d activities from github", report.Created),
		GitHubUsername: report.Username,
		Created:        report.Created,
		EventsExamined: report.EventsExamined,
		AutoSync:       report.AutoSync,
	})
}

func (h *Handler) githubStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	if _, ok := auth.FromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	username := r.URL.Query().Get("github_username")
	token := r.URL.Query().Get("github_token")

	stats, err := h.stats.Collect(r.Context(), username, token)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		GitHubUsername: stats.Username,
		PublicRepos:    stats.PublicRepos,
		Followers:      stats.Followers,
		Following:      stats.Following,
		RecentActivity: RecentActivity{
			PushEvents:   stats.PushEvents,
			PullRequests: stats.PullRequests,
			TotalCommits: stats.TotalCommits,
			EventsCount:  stats.EventsCount,
		},
		ProfileURL: stats.ProfileURL,
		Bio:        stats.Bio,
		CreatedAt:  stats.CreatedAt,
	})
}

// CredentialsRequest is the payload for signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate ensures request correctness.
func (r CredentialsRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

// SignupResponse describes the response body for signup.
type SignupResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
}

// LoginResponse carries the identity provider's token bundle.
type LoginResponse struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// LogActivityRequest is the payload for POST /v1/activities.
type LogActivityRequest struct {
	Date         string `json:"date"`
	ActivityType string `json:"activity_type"`
}

// Parse validates the request and returns the typed values.
func (r LogActivityRequest) Parse() (time.Time, domain.ActivityType, error) {
	if strings.TrimSpace(r.Date) == "" {
		return time.Time{}, "", errors.New("date is required")
	}
	day, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("date must use format %s", dateLayout)
	}
	activityType, err := domain.ParseActivityType(r.ActivityType)
	if err != nil {
		return time.Time{}, "", err
	}
	return day, activityType, nil
}

// ActivityView exposes one activity record.
type ActivityView struct {
	ActivityID   string    `json:"activity_id"`
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"`
	ActivityType string    `json:"activity_type"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	Replay       bool      `json:"idempotent_replay,omitempty"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// StreakResponse reports the caller's streaks.
type StreakResponse struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// SyncRequest is the payload for POST /v1/github/sync. Both fields are
// optional when a profile is already linked.
type SyncRequest struct {
	GitHubUsername string `json:"github_username"`
	GitHubToken    string `json:"github_token"`
}

// SyncResponse summarises one sync run.
type SyncResponse struct {
	Message        string `json:"message"`
	GitHubUsername string `json:"github_username"`
	Created        int    `json:"created"`
	EventsExamined int    `json:"events_examined"`
	AutoSync       bool   `json:"auto_sync"`
}

// RecentActivity tallies provider event categories.
type RecentActivity struct {
	PushEvents   int `json:"push_events"`
	PullRequests int `json:"pull_requests"`
	TotalCommits int `json:"total_commits"`
	EventsCount  int `json:"events_count"`
}

// StatsResponse merges pass-through profile fields with activity tallies.
type StatsResponse struct {
	GitHubUsername string         `json:"github_username"`
	PublicRepos    int            `json:"public_repos"`
	Followers      int            `json:"followers"`
	Following      int            `json:"following"`
	RecentActivity RecentActivity `json:"recent_activity"`
	ProfileURL     string         `json:"profile_url"`
	Bio            string         `json:"bio"`
	CreatedAt      string         `json:"created_at"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	var upstream *domain.UpstreamStatusError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		writeError(w, http.StatusConflict, "conflict", "email already exists")
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	case errors.As(err, &upstream):
		writeError(w, http.StatusBadGateway, "upstream_rejected", fmt.Sprintf("provider returned status %d", upstream.Status))
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", "provider unreachable")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
