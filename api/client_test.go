package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/syncer"
)

func testPayload() *syncer.Payload {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	return &syncer.Payload{
		ID:            "p1",
		SessionID:     "sess-1",
		ActivityType:  session.Focus,
		ActiveMinutes: 24,
		IdleMinutes:   1,
		StartTime:     start,
		EndTime:       start.Add(25 * time.Minute),
		Tags:          []string{"writing"},
		Final:         true,
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient("", "token"); err == nil {
		t.Error("expected an empty base URL to be rejected")
	}

	c, err := NewClient("https://api.example.com/", "token")
	if err != nil {
		t.Fatal(err)
	}

	if c.baseURL != "https://api.example.com" {
		t.Errorf("expected the trailing slash to be trimmed, got %s", c.baseURL)
	}
}

func TestCreateActivity(t *testing.T) {
	var got activityRequest

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected method POST, got %s", r.Method)
			}

			if r.URL.Path != activitiesPath {
				t.Errorf("expected path %s, got %s", activitiesPath, r.URL.Path)
			}

			if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
				t.Errorf("unexpected authorization header: %s", auth)
			}

			b, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatal(err)
			}

			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatal(err)
			}

			w.WriteHeader(http.StatusCreated)
		}),
	)
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret")
	if err != nil {
		t.Fatal(err)
	}

	err = c.CreateActivity(context.Background(), testPayload())
	if err != nil {
		t.Fatal(err)
	}

	if got.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %s", got.SessionID)
	}

	if got.DurationMinutes != 24 {
		t.Errorf("expected 24 duration minutes, got %d", got.DurationMinutes)
	}

	if got.StartedAt != "2024-03-15T09:00:00Z" {
		t.Errorf("unexpected started_at: %s", got.StartedAt)
	}

	if !got.Final {
		t.Error("expected the final flag to be set")
	}
}

func TestCreateActivityWithoutToken(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "" {
				t.Errorf("expected no authorization header, got %s", auth)
			}
		}),
	)
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.CreateActivity(context.Background(), testPayload()); err != nil {
		t.Fatal(err)
	}
}

func TestCreateActivityServerError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}),
	)
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.CreateActivity(context.Background(), testPayload()); err == nil {
		t.Error("expected a non-2xx response to return an error")
	}
}

func TestCreateActivityNetworkError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	)
	srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.CreateActivity(context.Background(), testPayload()); err == nil {
		t.Error("expected an unreachable backend to return an error")
	}
}
