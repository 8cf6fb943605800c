// Package remote implements the HTTP client for the remote authority: the
// backend service the application reconciles with when a connection exists.
//
// The wire contract is plain JSON over HTTP:
//
//	POST /api/auth/login  {email, password} -> {success, data: {user, token}}
//	POST /api/sync/sync   SyncRequest       -> {data: {serverChanges, conflicts, syncTimestamp}}
//
// Status mapping: 401 means the authority is reachable but the credential is
// invalid (ErrUnauthorized); 404 or a transport failure means the authority
// is not available (ErrUnavailable); any other non-2xx is a generic failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/obraledger/obraledger/internal/models"
)

var (
	// ErrUnauthorized means the authority rejected the bearer credential or
	// the login credentials. The authority itself is reachable.
	ErrUnauthorized = errors.New("authority rejected credentials")

	// ErrUnavailable means the authority could not be reached at all or the
	// endpoint does not exist. Recoverable by retrying later.
	ErrUnavailable = errors.New("authority unavailable")
)

const (
	loginPath = "/api/auth/login"
	syncPath  = "/api/sync/sync"
)

// Client talks to the remote authority.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// NewClient creates an authority client. clientID is a stable per-device
// identifier stamped on every request for server-side bookkeeping.
func NewClient(baseURL, clientID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		http:     &http.Client{Timeout: timeout},
	}
}

// Login authenticates against the authority and returns the identity and
// bearer token. Bad credentials return ErrUnauthorized; an unreachable
// authority returns ErrUnavailable.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthUser, string, error) {
	body, err := json.Marshal(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, "", ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("%w: login endpoint missing", ErrUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", fmt.Errorf("login failed: %s", resp.Status)
	}

	var out models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if !out.Success || out.Data.Token == "" {
		return nil, "", ErrUnauthorized
	}
	return &out.Data.User, out.Data.Token, nil
}

// Sync pushes the client's unsynced changes and returns the authority's
// change set, conflicts and new checkpoint timestamp.
func (c *Client) Sync(ctx context.Context, token string, request models.SyncRequest) (*models.SyncResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+syncPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Client-ID", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: sync endpoint missing", ErrUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("sync failed: %s", resp.Status)
	}

	var out models.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sync response: %w", err)
	}
	return &out.Data, nil
}
