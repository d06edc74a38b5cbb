// Package store connects to the data store and manages the offline payload
// queue and the session archive
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/devscope/tracker/internal/apperr"
	"github.com/devscope/tracker/internal/timeutil"
	"github.com/devscope/tracker/session"
	"github.com/devscope/tracker/syncer"
)

var (
	queueBucket    = []byte("queue")
	sessionsBucket = []byte("sessions")
)

var (
	errTrackerRunning = &apperr.Error{
		Message: "is devscope already running? Only one instance can be active at a time",
	}

	errPayloadNotFound = &apperr.Error{
		Message: "payload not found in the offline queue: %s",
	}
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// NewClient opens (or creates) the database and ensures the necessary
// buckets exist.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(queueBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(sessionsBucket)

		return err
	})
	if err != nil {
		return nil, err
	}

	return &Client{db}, nil
}

// openDB creates or opens a database and locks it.
func openDB(dbPath string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		dbPath,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		// A timed-out exclusive open means another process holds the lock.
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errTrackerRunning
		}

		return nil, err
	}

	return db, nil
}

// AppendPayload stores a payload in the queue keyed by its generated id.
func (c *Client) AppendPayload(p *syncer.Payload) error {
	value, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(queueBucket).Put([]byte(p.ID), value)
	})
}

// ListUnsynced returns queued payloads that have not been delivered yet,
// oldest first.
func (c *Client) ListUnsynced() ([]*syncer.Payload, error) {
	payloads, err := c.listPayloads(func(p *syncer.Payload) bool {
		return !p.Synced
	})

	return payloads, err
}

// ListPayloads returns every payload still in the queue, oldest first.
func (c *Client) ListPayloads() ([]*syncer.Payload, error) {
	return c.listPayloads(func(*syncer.Payload) bool { return true })
}

func (c *Client) listPayloads(
	keep func(*syncer.Payload) bool,
) ([]*syncer.Payload, error) {
	var payloads []*syncer.Payload

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(queueBucket).ForEach(func(_, v []byte) error {
			var p syncer.Payload

			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}

			if keep(&p) {
				payloads = append(payloads, &p)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(payloads, func(a, b *syncer.Payload) int {
		return a.QueuedAt.Compare(b.QueuedAt)
	})

	return payloads, nil
}

// MarkSynced flags a queued payload as delivered.
func (c *Client) MarkSynced(id string, at time.Time) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(queueBucket)

		value := b.Get([]byte(id))
		if len(value) == 0 {
			return errPayloadNotFound.Fmt(id)
		}

		var p syncer.Payload

		if err := json.Unmarshal(value, &p); err != nil {
			return err
		}

		p.Synced = true
		p.SyncedAt = at

		updated, err := json.Marshal(&p)
		if err != nil {
			return err
		}

		return b.Put([]byte(id), updated)
	})
}

// PrunePayloads removes synced payloads delivered before the cutoff.
// Unsynced payloads are never pruned.
func (c *Client) PrunePayloads(olderThan time.Time) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(queueBucket)

		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var p syncer.Payload

			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}

			if p.Synced && p.SyncedAt.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}

			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveSession archives a finalized session keyed by its start time.
func (c *Client) SaveSession(sess *session.Session) error {
	value, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(
			timeutil.ToKey(sess.StartTime),
			value,
		)
	})
}

// GetSessions returns archived sessions whose start times fall within the
// given bounds, optionally filtered by tag.
func (c *Client) GetSessions(
	startTime, endTime time.Time,
	tags []string,
) ([]*session.Session, error) {
	var sessions []*session.Session

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(sessionsBucket).Cursor()

		min := timeutil.ToKey(startTime)
		max := timeutil.ToKey(endTime)

		for k, v := cur.Seek(min); k != nil && bytes.Compare(k, max) <= 0; k, v = cur.Next() {
			var sess session.Session

			if err := json.Unmarshal(v, &sess); err != nil {
				return err
			}

			if len(tags) != 0 && !matchesTags(&sess, tags) {
				continue
			}

			sessions = append(sessions, &sess)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func matchesTags(sess *session.Session, tags []string) bool {
	for _, t := range sess.Tags {
		if slices.Contains(tags, t) {
			return true
		}
	}

	return false
}
