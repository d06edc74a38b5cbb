// Package api provides the HTTP client for the DevScope backend
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devscope/tracker/internal/apperr"
	"github.com/devscope/tracker/syncer"
)

const (
	activitiesPath = "/api/v1/activities"

	requestTimeout = 10 * time.Second
)

var (
	errNoBaseURL = &apperr.Error{
		Message: "sync is enabled but no API base URL is configured",
	}

	errRequestFailed = &apperr.Error{
		Message: "creating activity record failed with status %d",
	}
)

// activityRequest is the create-activity wire format expected by the
// backend.
type activityRequest struct {
	SessionID       string         `json:"session_id"`
	ActivityType    string         `json:"activity_type"`
	DurationMinutes int            `json:"duration_minutes"`
	IdleMinutes     int            `json:"idle_minutes"`
	StartedAt       string         `json:"started_at"`
	EndedAt         string         `json:"ended_at"`
	Tags            []string       `json:"tags"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Final           bool           `json:"final"`
}

// Client posts activity records to the backend. It implements
// syncer.Transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient returns a Client for the given backend. The token may be empty
// for anonymous tracking.
func NewClient(baseURL, token string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errNoBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// CreateActivity delivers a single payload to the backend's create-activity
// endpoint. Any network error or non-2xx response is returned as an error so
// the scheduler can queue the payload.
func (c *Client) CreateActivity(ctx context.Context, p *syncer.Payload) error {
	reqBody := activityRequest{
		SessionID:       p.SessionID,
		ActivityType:    string(p.ActivityType),
		DurationMinutes: p.ActiveMinutes,
		IdleMinutes:     p.IdleMinutes,
		StartedAt:       p.StartTime.Format(time.RFC3339),
		EndedAt:         p.EndTime.Format(time.RFC3339),
		Tags:            p.Tags,
		Metadata:        p.Metadata,
		Final:           p.Final,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+activitiesPath,
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		return errRequestFailed.Fmt(resp.StatusCode)
	}

	return nil
}
