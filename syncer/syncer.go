// Package syncer records session activity in a durable queue and delivers
// it to the backend in flushes
package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/devscope/tracker/session"
)

// Transport posts a single activity record to the persistence backend.
type Transport interface {
	CreateActivity(ctx context.Context, p *Payload) error
}

// Queue is the durable store for payloads awaiting delivery.
type Queue interface {
	AppendPayload(p *Payload) error
	ListUnsynced() ([]*Payload, error)
	MarkSynced(id string, at time.Time) error
	PrunePayloads(olderThan time.Time) error
}

const (
	// DefaultInterval is how often a running session is synced.
	DefaultInterval = 5 * time.Minute
	// DefaultRetention is how long synced payloads are kept in the queue
	// before being pruned.
	DefaultRetention = 7 * 24 * time.Hour
)

// Scheduler converts session state into payloads. Every payload is written
// to the durable queue on the event loop before any delivery is attempted,
// so a payload survives a crash, an abandoned prompt, or an unreachable
// backend. Delivery happens in flushes: BeginFlush and CompleteFlush mutate
// scheduler state and must run on the event loop, while Deliver only touches
// the transport and the queue and may run in a background goroutine.
type Scheduler struct {
	transport Transport
	queue     Queue
	now       func() time.Time
	inflight  map[string]struct{}
	lastTick  time.Time
	interval  time.Duration
	retention time.Duration
	online    bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval overrides the periodic sync interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRetention overrides the retention window for synced payloads.
func WithRetention(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retention = d
		}
	}
}

// New returns a Scheduler. The transport and queue collaborators are
// injected so both can be replaced in tests.
func New(t Transport, q Queue, opts ...Option) *Scheduler {
	s := &Scheduler{
		transport: t,
		queue:     q,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
		interval:  DefaultInterval,
		retention: DefaultRetention,
		online:    true,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.lastTick = s.now()

	return s
}

// Online reports whether the most recent delivery attempt succeeded.
func (s *Scheduler) Online() bool {
	return s.online
}

// Interval returns the periodic sync interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Due reports whether a periodic sync is due. The controller calls this from
// its own ticker so the scheduler does not need a timer of its own.
func (s *Scheduler) Due() bool {
	return s.now().Sub(s.lastTick) >= s.interval
}

// OnTick queues a snapshot of the running session for delivery.
func (s *Scheduler) OnTick(snap session.Snapshot) {
	s.lastTick = s.now()

	s.enqueue(newProgressPayload(snap, s.lastTick))
}

// OnSessionFinalized queues the definitive payload for a finalized or
// cancelled session. The write is synchronous: by the time this returns the
// payload is durable and cannot be lost to whatever happens next.
func (s *Scheduler) OnSessionFinalized(
	sess *session.Session,
	meta map[string]any,
) {
	s.enqueue(newFinalPayload(sess, meta))
}

// Annotate queues a follow-up payload for a session whose final payload has
// already been recorded, carrying late metadata such as reflection answers.
// The backend merges payloads for the same session id.
func (s *Scheduler) Annotate(sess *session.Session, meta map[string]any) {
	if len(meta) == 0 {
		return
	}

	s.enqueue(newFinalPayload(sess, meta))
}

// enqueue stores a payload for a later flush. A storage failure is the one
// place data loss is accepted: there is no lower fallback, so the payload is
// logged and dropped.
func (s *Scheduler) enqueue(p *Payload) {
	p.QueuedAt = s.now()

	if err := s.queue.AppendPayload(p); err != nil {
		slog.Error("offline queue unavailable, dropping payload",
			slog.String("session_id", p.SessionID),
			slog.Any("error", err),
		)
	}
}

// FlushResult is the outcome of delivering one batch of payloads. It must be
// handed back to CompleteFlush on the event loop.
type FlushResult struct {
	Delivered int
	Pending   int

	ids []string
}

// BeginFlush snapshots the queued payloads that are not already mid-flight
// and marks them inflight so a concurrent flush never re-delivers them.
// Must be called from the event loop. ok is false when there is nothing to
// deliver.
func (s *Scheduler) BeginFlush() (payloads []*Payload, ok bool) {
	pending, err := s.queue.ListUnsynced()
	if err != nil {
		slog.Error("listing offline queue failed", slog.Any("error", err))
		return nil, false
	}

	for _, p := range pending {
		if _, inflight := s.inflight[p.ID]; inflight {
			continue
		}

		s.inflight[p.ID] = struct{}{}
		payloads = append(payloads, p)
	}

	return payloads, len(payloads) > 0
}

// Deliver attempts delivery of the given payloads, marking successes synced
// and pruning synced payloads past the retention window. It touches only the
// transport and the queue, so it is safe to run off the event loop while the
// scheduler keeps accepting new payloads.
func (s *Scheduler) Deliver(
	ctx context.Context,
	payloads []*Payload,
) FlushResult {
	var res FlushResult

	for _, p := range payloads {
		res.ids = append(res.ids, p.ID)

		if err := s.transport.CreateActivity(ctx, p); err != nil {
			res.Pending++

			slog.Warn("payload delivery failed",
				slog.String("id", p.ID),
				slog.Any("error", err),
			)

			continue
		}

		res.Delivered++

		slog.Info("activity synced",
			slog.String("session_id", p.SessionID),
			slog.Bool("final", p.Final),
		)

		if err := s.queue.MarkSynced(p.ID, s.now()); err != nil {
			slog.Error("marking payload synced failed",
				slog.String("id", p.ID),
				slog.Any("error", err),
			)
		}
	}

	s.prune()

	return res
}

// CompleteFlush folds a finished flush back into scheduler state. Must be
// called from the event loop.
func (s *Scheduler) CompleteFlush(res FlushResult) {
	for _, id := range res.ids {
		delete(s.inflight, id)
	}

	if res.Delivered+res.Pending > 0 {
		s.online = res.Pending == 0
	}
}

// DrainQueue runs a full flush synchronously. Returns the number delivered
// and the number still pending.
func (s *Scheduler) DrainQueue(ctx context.Context) (delivered, pending int) {
	payloads, ok := s.BeginFlush()
	if !ok {
		return 0, 0
	}

	res := s.Deliver(ctx, payloads)
	s.CompleteFlush(res)

	return res.Delivered, res.Pending
}

// prune discards synced payloads older than the retention window. Unsynced
// payloads are retained regardless of age.
func (s *Scheduler) prune() {
	cutoff := s.now().Add(-s.retention)

	if err := s.queue.PrunePayloads(cutoff); err != nil {
		slog.Error("pruning offline queue failed", slog.Any("error", err))
	}
}
