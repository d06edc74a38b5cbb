package syncer

import (
	"time"

	"github.com/google/uuid"

	"github.com/devscope/tracker/session"
)

// Payload is an immutable snapshot of session state bound for the backend.
// Queued payloads are keyed by the locally generated ID, never by session
// id, so a periodic payload and a final payload for the same session can
// coexist in the queue. The backend deduplicates on session id.
type Payload struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	ActivityType  session.Name   `json:"activity_type"`
	ActiveMinutes int            `json:"duration_minutes"`
	IdleMinutes   int            `json:"idle_minutes"`
	StartTime     time.Time      `json:"started_at"`
	EndTime       time.Time      `json:"ended_at"`
	Tags          []string       `json:"tags"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Final         bool           `json:"final"`
	Synced        bool           `json:"synced"`
	QueuedAt      time.Time      `json:"queued_at"`
	SyncedAt      time.Time      `json:"synced_at"`
}

// newProgressPayload builds a mid-session payload from a snapshot. The end
// time is the snapshot time; the backend overwrites it when the final
// payload for the session arrives.
func newProgressPayload(snap session.Snapshot, now time.Time) *Payload {
	return &Payload{
		ID:            uuid.NewString(),
		SessionID:     snap.SessionID,
		ActivityType:  snap.Name,
		ActiveMinutes: snap.ActiveMinutes,
		IdleMinutes:   snap.IdleMinutes,
		StartTime:     snap.StartTime,
		EndTime:       now,
		Tags:          snap.Tags,
		Metadata: map[string]any{
			"segments": snap.Segments,
		},
	}
}

// newFinalPayload builds the definitive payload for a finalized or
// cancelled session.
func newFinalPayload(sess *session.Session, meta map[string]any) *Payload {
	md := map[string]any{
		"segments": len(sess.Segments),
		"planned":  sess.Planned.String(),
		"status":   string(sess.Status),
	}

	for k, v := range meta {
		md[k] = v
	}

	return &Payload{
		ID:            uuid.NewString(),
		SessionID:     sess.ID,
		ActivityType:  sess.Name,
		ActiveMinutes: sess.ActiveMinutes(sess.EndTime),
		IdleMinutes:   sess.IdleMinutes(sess.EndTime),
		StartTime:     sess.StartTime,
		EndTime:       sess.EndTime,
		Tags:          sess.Tags,
		Metadata:      md,
		Final:         true,
	}
}
