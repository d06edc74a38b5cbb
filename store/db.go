package store

import (
	"time"

	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/syncer"
)

// DB is the database storage interface. It combines the sync scheduler's
// offline queue with the finalized-session archive.
type DB interface {
	// AppendPayload stores a payload in the offline queue.
	AppendPayload(p *syncer.Payload) error
	// ListUnsynced returns queued payloads that have not been delivered,
	// oldest first.
	ListUnsynced() ([]*syncer.Payload, error)
	// ListPayloads returns every payload still in the queue, oldest first.
	ListPayloads() ([]*syncer.Payload, error)
	// MarkSynced records a successful delivery for a queued payload.
	MarkSynced(id string, at time.Time) error
	// PrunePayloads removes synced payloads delivered before the cutoff.
	PrunePayloads(olderThan time.Time) error
	// SaveSession archives a finalized session. The session is created if it
	// doesn't exist already, or overwritten if it does.
	SaveSession(sess *session.Session) error
	// GetSessions returns archived sessions according to the time and tag
	// constraints.
	GetSessions(startTime, endTime time.Time, tags []string) ([]*session.Session, error)
	// Close ends the database connection.
	Close() error
}
