package monitor

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type recorder struct {
	transitions []bool
}

func (r *recorder) record(active bool) {
	r.transitions = append(r.transitions, active)
}

func newTestMonitor(t *testing.T) (*Monitor, *fakeClock, *recorder) {
	t.Helper()

	clock := &fakeClock{
		t: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	}

	rec := &recorder{}

	m, err := New(
		Config{
			IdleThreshold: 2 * time.Minute,
			PollInterval:  5 * time.Second,
		},
		rec.record,
	)
	if err != nil {
		t.Fatal(err)
	}

	m.now = clock.now
	m.lastInput = clock.t

	return m, clock, rec
}

func TestNewRejectsLowThreshold(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{
			name: "threshold below poll interval",
			cfg: Config{
				IdleThreshold: time.Second,
				PollInterval:  5 * time.Second,
			},
		},
		{
			name: "threshold equal to poll interval",
			cfg: Config{
				IdleThreshold: 5 * time.Second,
				PollInterval:  5 * time.Second,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, nil)
			if err == nil {
				t.Error("expected the configuration to be rejected")
			}
		})
	}
}

func TestCheckFlipsToIdle(t *testing.T) {
	m, clock, rec := newTestMonitor(t)

	// Just inside the threshold: still active.
	clock.advance(2 * time.Minute)
	m.Check()

	if m.State() != StateActive {
		t.Fatalf("expected state %s, got %s", StateActive, m.State())
	}

	// One poll later the threshold is exceeded.
	clock.advance(5 * time.Second)
	m.Check()

	if m.State() != StateIdle {
		t.Fatalf("expected state %s, got %s", StateIdle, m.State())
	}

	// Repeated checks while idle must not emit again.
	clock.advance(5 * time.Second)
	m.Check()

	want := []bool{false}
	if len(rec.transitions) != 1 || rec.transitions[0] != false {
		t.Errorf("expected transitions %v, got %v", want, rec.transitions)
	}
}

func TestRecordInputFlipsToActive(t *testing.T) {
	m, clock, rec := newTestMonitor(t)

	clock.advance(3 * time.Minute)
	m.Check()

	if m.State() != StateIdle {
		t.Fatalf("expected state %s, got %s", StateIdle, m.State())
	}

	m.RecordInput()

	if m.State() != StateActive {
		t.Fatalf("expected state %s, got %s", StateActive, m.State())
	}

	if !m.LastInput().Equal(clock.t) {
		t.Errorf("expected last input %v, got %v", clock.t, m.LastInput())
	}

	want := []bool{false, true}
	if len(rec.transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, rec.transitions)
	}

	for i := range want {
		if rec.transitions[i] != want[i] {
			t.Errorf("expected transitions %v, got %v", want, rec.transitions)
			break
		}
	}
}

func TestRecordInputWhileActive(t *testing.T) {
	m, clock, rec := newTestMonitor(t)

	clock.advance(time.Minute)
	m.RecordInput()

	if len(rec.transitions) != 0 {
		t.Errorf("expected no transitions, got %v", rec.transitions)
	}

	// The refreshed input time pushes the idle flip out.
	clock.advance(90 * time.Second)
	m.Check()

	if m.State() != StateActive {
		t.Errorf("expected state %s, got %s", StateActive, m.State())
	}
}

func TestReset(t *testing.T) {
	m, clock, _ := newTestMonitor(t)

	clock.advance(3 * time.Minute)
	m.Check()

	if m.State() != StateIdle {
		t.Fatalf("expected state %s, got %s", StateIdle, m.State())
	}

	m.Reset()

	if m.State() != StateActive {
		t.Errorf("expected state %s after reset, got %s", StateActive, m.State())
	}

	if !m.LastInput().Equal(clock.t) {
		t.Errorf("expected last input %v, got %v", clock.t, m.LastInput())
	}
}
