package speech

import (
	"sync"
	"sync/atomic"
)

// session is the live playback state of one utterance: the device handle
// plus the flags the monitor goroutine and Stop coordinate through. One
// session exists per playing utterance and dies with it.
type session struct {
	id       uint64
	handle   PlaybackHandle
	envelope *Envelope

	cancelled atomic.Bool
	done      chan struct{}
	doneOnce  sync.Once
}

func newSession(id uint64, handle PlaybackHandle, envelope *Envelope) *session {
	return &session{
		id:       id,
		handle:   handle,
		envelope: envelope,
		done:     make(chan struct{}),
	}
}

// cancel marks the session for teardown. The monitor goroutine notices the
// flag on its next tick and exits; the consumer goroutine does the actual
// handle.Stop so device teardown happens exactly once.
func (s *session) cancel() {
	s.cancelled.Store(true)
}

// finish closes done, releasing the consumer waiting on this session.
// Safe to call more than once.
func (s *session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}
