// Package github integrates the GitHub events API with the activity model.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/observability"
)

// Event is the transient provider event consumed by the classifier. It is
// never persisted as-is.
type Event struct {
	Type      string       `json:"type"`
	CreatedAt string       `json:"created_at"`
	Payload   EventPayload `json:"payload"`
}

// EventPayload carries the subset of the provider payload the service reads.
type EventPayload struct {
	Commits []EventCommit `json:"commits"`
}

// EventCommit identifies one commit embedded in a push event.
type EventCommit struct {
	SHA string `json:"sha"`
}

// Profile carries the pass-through profile fields surfaced by stats.
type Profile struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	HTMLURL     string `json:"html_url"`
	Bio         string `json:"bio"`
	CreatedAt   string `json:"created_at"`
}

// Client talks to the GitHub REST API. Every call is a single best-effort
// attempt bounded by the configured timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client. timeout is the hard upper bound per call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// UserProfile fetches the public profile for a username.
func (c *Client) UserProfile(ctx context.Context, username, token string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/users/%s", url.PathEscape(username))
	if err := c.get(ctx, "profile", path, token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UserEvents fetches the most recent public events for a username, most
// recent first.
func (c *Client) UserEvents(ctx context.Context, username, token string) ([]Event, error) {
	var events []Event
	path := fmt.Sprintf("/users/%s/events", url.PathEscape(username))
	if err := c.get(ctx, "events", path, token, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) get(ctx context.Context, endpoint, path, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordProviderRequest(endpoint, "unavailable", time.Since(start))
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordProviderRequest(endpoint, "rejected", time.Since(start))
		return &domain.UpstreamStatusError{Status: resp.StatusCode}
	}
	observability.RecordProviderRequest(endpoint, "ok", time.Since(start))

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
