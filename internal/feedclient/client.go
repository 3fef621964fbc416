// Package feedclient fetches the active-driver snapshot from a running
// driverfeed server.
package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"driverfeed/internal/domain/entities"
)

const (
	activeDriversPath = "/drivers/active"
	defaultTimeout    = 10 * time.Second
	maxErrorBody      = 512
)

var (
	// ErrUnavailable means the server answered 503: the snapshot query did
	// not finish in time. The next poll may succeed.
	ErrUnavailable = errors.New("feed unavailable")
	// ErrUnexpectedStatus covers every other non-200 answer.
	ErrUnexpectedStatus = errors.New("unexpected feed status")
)

// activeDriver mirrors one element of the GET /drivers/active array.
type activeDriver struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	HasCustomPhoto bool    `json:"hasCustomPhoto"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PostID         string  `json:"postId"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New builds a client for the server at baseURL, e.g. "http://localhost:8080".
// A nil httpClient gets one with a 10s timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		endpoint:   u.String() + activeDriversPath,
		httpClient: httpClient,
	}, nil
}

// FetchSnapshot returns the server's current active-driver set.
func (c *Client) FetchSnapshot(ctx context.Context) ([]entities.DriverLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrUnavailable
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var wire []activeDriver
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snapshot := make([]entities.DriverLocation, 0, len(wire))
	for _, d := range wire {
		snapshot = append(snapshot, entities.DriverLocation{
			DriverID:       d.ID,
			DisplayName:    d.Name,
			HasCustomPhoto: d.HasCustomPhoto,
			Coordinate:     entities.NewCoordinate(d.Latitude, d.Longitude),
			PostID:         d.PostID,
		})
	}
	return snapshot, nil
}
