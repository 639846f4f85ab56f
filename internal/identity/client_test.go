package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/devpulse/internal/domain"
)

func fakeProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", 2*time.Second)
}

func TestSignInReturnsSession(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "dev@example.com", req["email"])
		require.Equal(t, true, req["returnSecureToken"])

		_, _ = io.WriteString(w, `{"localId":"uid-1","email":"dev@example.com","idToken":"tok","refreshToken":"refresh","expiresIn":"3600"}`)
	})

	session, err := client.SignIn(context.Background(), "dev@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "uid-1", session.UID)
	require.Equal(t, "tok", session.IDToken)
	require.Equal(t, "3600", session.ExpiresIn)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"INVALID_PASSWORD"}}`)
	})

	_, err := client.SignIn(context.Background(), "dev@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpConflict(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts:signUp", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"EMAIL_EXISTS"}}`)
	})

	_, err := client.SignUp(context.Background(), "dev@example.com", "hunter2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpSurfacesProviderStatus(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SignUp(context.Background(), "dev@example.com", "hunter2")
	var upstream *domain.UpstreamStatusError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusInternalServerError, upstream.Status)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := NewClient(server.URL, "test-key", time.Second)

	_, err := client.SignIn(context.Background(), "dev@example.com", "hunter2")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
