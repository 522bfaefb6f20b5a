package liar

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock only moves when a test calls Advance; due timers run on the
// caller's goroutine.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)

	for {
		var due *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(c.now) {
				due = t
				break
			}
		}
		if due == nil {
			return
		}
		due.fired = true
		due.fn()
	}
}

func (c *fakeClock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type delivery struct {
	to  string
	msg Message
}

// recorder is a Transport that remembers everything. An empty to means
// broadcast.
type recorder struct {
	mu   sync.Mutex
	sent []delivery
}

func (r *recorder) Broadcast(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{msg: m})
}

func (r *recorder) SendTo(id string, m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{to: id, msg: m})
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

func (r *recorder) Broadcasts() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, d := range r.sent {
		if d.to == "" {
			out = append(out, d.msg)
		}
	}
	return out
}

func (r *recorder) To(id string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, d := range r.sent {
		if d.to == id {
			out = append(out, d.msg)
		}
	}
	return out
}

// Inbox is everything id would have received, broadcasts included, in order.
func (r *recorder) Inbox(id string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, d := range r.sent {
		if d.to == "" || d.to == id {
			out = append(out, d.msg)
		}
	}
	return out
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func last[T Message](msgs []Message) (T, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m, ok := msgs[i].(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

func count[T Message](msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

// newTestSession joins players P1..Pn; P1 is host. Turns advance
// immediately and nothing restarts on its own unless opts say otherwise.
func newTestSession(t *testing.T, players int, opts Options) (*Session, *recorder, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	rec := &recorder{}

	opts.Clock = clock
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewPCG(7, uint64(players)))
	}

	s := NewSession("TESTROOM", rec, opts)
	for i := 1; i <= players; i++ {
		require.NoError(t, s.Join(fmt.Sprintf("P%d", i), fmt.Sprintf("n%d", i)))
	}

	return s, rec, clock
}

func speakAll(t *testing.T, s *Session) {
	t.Helper()

	for s.Phase() == PhaseAwaitingTurn {
		s.mu.Lock()
		current, ok := s.round.Turns.Current()
		s.mu.Unlock()
		require.True(t, ok)

		require.NoError(t, s.SendTurnMessage(current, "it is big"))
	}
}

func liarOf(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Roles.LiarID
}

func wordOf(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Config.Word
}
