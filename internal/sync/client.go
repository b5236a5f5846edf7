// Package sync moves whole snapshots between the local store and the remote
// server. There is no diffing: push uploads everything, pull downloads
// everything, and the merge rules on each side decide what sticks.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
)

const userIDHeader = "X-User-ID"

// Client talks to the remote store over its HTTP JSON API.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

// NewClient constructs a Client. timeout bounds each individual request.
func NewClient(baseURL, userID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes the server. Any transport failure or non-200 status means
// unavailable; the probe never distinguishes why.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Download fetches the full remote snapshot.
func (c *Client) Download(ctx context.Context) (*model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sync/data", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(userIDHeader, c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download status %d", errs.ErrRemoteUnavailable, resp.StatusCode)
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Upload pushes the full local snapshot and returns the server's lastSync
// stamp.
func (c *Client) Upload(ctx context.Context, snap *model.Snapshot) (time.Time, error) {
	buf, err := json.Marshal(snap)
	if err != nil {
		return time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync/upload", bytes.NewReader(buf))
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("%w: upload status %d", errs.ErrRemoteUnavailable, resp.StatusCode)
	}

	var out struct {
		Success  bool      `json:"success"`
		LastSync time.Time `json:"lastSync"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return time.Time{}, fmt.Errorf("decode upload response: %w", err)
	}
	if !out.Success {
		return time.Time{}, fmt.Errorf("%w: server rejected upload", errs.ErrRemoteUnavailable)
	}
	return out.LastSync, nil
}
