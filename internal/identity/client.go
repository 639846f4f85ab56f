// Package identity talks to the external identity provider that owns user
// accounts and issues ID tokens. Account storage and verification protocols
// belong to the provider; this client only proxies signup and password login.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"example.com/devpulse/internal/domain"
)

var (
	// ErrEmailTaken is returned when signup hits an existing account.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials is returned when the provider rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the provider's token bundle for an authenticated user.
type Session struct {
	UID          string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// Client calls the identity provider's REST API. Each call is a single
// attempt bounded by the configured timeout.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// SignUp creates a provider account for the email/password pair.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.post(ctx, "accounts:signUp", email, password)
}

// SignIn exchanges credentials for an ID token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.post(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) post(ctx context.Context, action, email, password string) (*Session, error) {
	body, err := json.Marshal(credentialsRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.rejectError(action, resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	return &session, nil
}

func (c *Client) rejectError(action string, resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	switch {
	case apiErr.Error.Message == "EMAIL_EXISTS":
		return ErrEmailTaken
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		if action == "accounts:signInWithPassword" {
			return ErrInvalidCredentials
		}
	}
	return &domain.UpstreamStatusError{Status: resp.StatusCode}
}
