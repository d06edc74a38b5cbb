package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devscope/tracker/session"
)

var errTransportDown = errors.New("connection refused")

type fakeTransport struct {
	failing   bool
	delivered []*Payload
}

func (t *fakeTransport) CreateActivity(_ context.Context, p *Payload) error {
	if t.failing {
		return errTransportDown
	}

	t.delivered = append(t.delivered, p)

	return nil
}

type memQueue struct {
	payloads []*Payload
}

func (q *memQueue) AppendPayload(p *Payload) error {
	cp := *p
	q.payloads = append(q.payloads, &cp)

	return nil
}

func (q *memQueue) ListUnsynced() ([]*Payload, error) {
	var out []*Payload

	for _, p := range q.payloads {
		if !p.Synced {
			out = append(out, p)
		}
	}

	return out, nil
}

func (q *memQueue) MarkSynced(id string, at time.Time) error {
	for _, p := range q.payloads {
		if p.ID == id {
			p.Synced = true
			p.SyncedAt = at

			return nil
		}
	}

	return errors.New("payload not found")
}

func (q *memQueue) PrunePayloads(olderThan time.Time) error {
	var kept []*Payload

	for _, p := range q.payloads {
		if p.Synced && p.SyncedAt.Before(olderThan) {
			continue
		}

		kept = append(kept, p)
	}

	q.payloads = kept

	return nil
}

func testSession() *session.Session {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Minute)

	return &session.Session{
		ID:        "sess-1",
		Name:      session.Focus,
		StartTime: start,
		EndTime:   end,
		Planned:   25 * time.Minute,
		Status:    session.StatusCompleted,
		Segments: []session.Segment{
			{StartTime: start, EndTime: end, Active: true},
		},
	}
}

func testSnapshot() session.Snapshot {
	return session.Snapshot{
		SessionID:     "sess-1",
		Name:          session.Focus,
		Status:        session.StatusRunning,
		StartTime:     time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		ActiveMinutes: 10,
		Segments:      1,
	}
}

func TestOnTickEnqueues(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnTick(testSnapshot())

	// Queueing must not touch the network.
	if len(transport.delivered) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(transport.delivered))
	}

	if len(queue.payloads) != 1 {
		t.Fatalf("expected 1 queued payload, got %d", len(queue.payloads))
	}

	p := queue.payloads[0]

	if p.Final {
		t.Error("expected a progress payload, got a final one")
	}

	if p.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %s", p.SessionID)
	}

	if p.QueuedAt.IsZero() {
		t.Error("expected a queued-at timestamp")
	}
}

func TestOnSessionFinalizedIsDurableBeforeDelivery(t *testing.T) {
	transport := &fakeTransport{failing: true}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnSessionFinalized(testSession(), nil)

	// The payload must be in the queue even though no flush has run.
	if len(queue.payloads) != 1 {
		t.Fatalf("expected exactly 1 queued payload, got %d", len(queue.payloads))
	}

	p := queue.payloads[0]

	if !p.Final {
		t.Error("expected the queued payload to be final")
	}

	if p.ActiveMinutes != 25 {
		t.Errorf("expected 25 active minutes, got %d", p.ActiveMinutes)
	}
}

func TestAnnotate(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}
	s := New(transport, queue)

	s.Annotate(testSession(), nil)

	if len(queue.payloads) != 0 {
		t.Fatalf("expected empty metadata to queue nothing, got %d payloads",
			len(queue.payloads))
	}

	s.Annotate(testSession(), map[string]any{"mood": "focused"})

	if len(queue.payloads) != 1 {
		t.Fatalf("expected 1 queued payload, got %d", len(queue.payloads))
	}

	p := queue.payloads[0]

	if p.Metadata["mood"] != "focused" {
		t.Errorf("expected the annotation metadata, got %v", p.Metadata)
	}

	if !p.Final {
		t.Error("expected the annotation payload to carry the final flag")
	}
}

func TestDrainQueueDelivers(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnSessionFinalized(testSession(), map[string]any{"mood": "focused"})
	s.OnTick(testSnapshot())

	delivered, pending := s.DrainQueue(context.Background())

	if delivered != 2 || pending != 0 {
		t.Fatalf(
			"expected 2 delivered and 0 pending, got %d and %d",
			delivered,
			pending,
		)
	}

	if transport.delivered[0].Metadata["mood"] != "focused" {
		t.Error("expected reflection metadata on the final payload")
	}

	unsynced, err := queue.ListUnsynced()
	if err != nil {
		t.Fatal(err)
	}

	if len(unsynced) != 0 {
		t.Errorf("expected no unsynced payloads, got %d", len(unsynced))
	}

	if !s.Online() {
		t.Error("expected the scheduler to report online")
	}
}

func TestDrainQueueKeepsFailures(t *testing.T) {
	transport := &fakeTransport{failing: true}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnTick(testSnapshot())

	delivered, pending := s.DrainQueue(context.Background())

	if delivered != 0 || pending != 1 {
		t.Errorf(
			"expected 0 delivered and 1 pending, got %d and %d",
			delivered,
			pending,
		)
	}

	if s.Online() {
		t.Error("expected the scheduler to report offline")
	}

	transport.failing = false

	delivered, pending = s.DrainQueue(context.Background())

	if delivered != 1 || pending != 0 {
		t.Errorf(
			"expected 1 delivered and 0 pending, got %d and %d",
			delivered,
			pending,
		)
	}

	if !s.Online() {
		t.Error("expected the scheduler to report online again")
	}

	// A further drain must not re-deliver.
	delivered, _ = s.DrainQueue(context.Background())

	if delivered != 0 {
		t.Errorf("expected no re-delivery, got %d", delivered)
	}
}

func TestFlushInflightNotRedelivered(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnSessionFinalized(testSession(), nil)

	first, ok := s.BeginFlush()
	if !ok || len(first) != 1 {
		t.Fatalf("expected 1 payload in the first flush, got %d", len(first))
	}

	// While the first flush is in flight, a second flush must skip its
	// payloads, and the loop must still be able to queue new ones.
	if _, ok := s.BeginFlush(); ok {
		t.Error("expected nothing to flush while the payload is inflight")
	}

	s.OnTick(testSnapshot())

	second, ok := s.BeginFlush()
	if !ok || len(second) != 1 {
		t.Fatalf("expected only the new payload, got %d", len(second))
	}

	if second[0].ID == first[0].ID {
		t.Error("expected the inflight payload to be excluded")
	}

	res := s.Deliver(context.Background(), first)
	s.CompleteFlush(res)

	if res.Delivered != 1 {
		t.Errorf("expected the first flush to deliver 1, got %d", res.Delivered)
	}
}

func TestCompleteFlushClearsInflight(t *testing.T) {
	transport := &fakeTransport{failing: true}
	queue := &memQueue{}
	s := New(transport, queue)

	s.OnSessionFinalized(testSession(), nil)

	payloads, ok := s.BeginFlush()
	if !ok {
		t.Fatal("expected a flush to begin")
	}

	res := s.Deliver(context.Background(), payloads)
	s.CompleteFlush(res)

	if s.Online() {
		t.Error("expected the scheduler to report offline")
	}

	// The failed payload must be eligible for the next flush.
	retry, ok := s.BeginFlush()
	if !ok || len(retry) != 1 {
		t.Fatalf("expected the failed payload to be retryable, got %d", len(retry))
	}
}

func TestDeliverPrunesOldSyncedPayloads(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}
	s := New(transport, queue, WithRetention(time.Hour))

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	queue.payloads = []*Payload{
		{ID: "old-synced", Synced: true, SyncedAt: now.Add(-2 * time.Hour)},
		{ID: "old-unsynced", QueuedAt: now.Add(-2 * time.Hour)},
	}

	s.DrainQueue(context.Background())

	ids := make(map[string]bool)
	for _, p := range queue.payloads {
		ids[p.ID] = true
	}

	if ids["old-synced"] {
		t.Error("expected the old synced payload to be pruned")
	}

	if !ids["old-unsynced"] {
		t.Error("expected the unsynced payload to be retained regardless of age")
	}
}

func TestDue(t *testing.T) {
	transport := &fakeTransport{}
	queue := &memQueue{}

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	s := New(transport, queue, WithInterval(5*time.Minute))
	s.now = func() time.Time { return now }
	s.lastTick = now

	if s.Due() {
		t.Error("expected no sync due immediately")
	}

	now = now.Add(5 * time.Minute)

	if !s.Due() {
		t.Error("expected a sync to be due after the interval")
	}

	s.OnTick(testSnapshot())

	if s.Due() {
		t.Error("expected the tick to reset the interval")
	}
}
