package speech

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// smoothingRing is a fixed-size ring buffer that averages the last N raw
// volume samples. Until N samples have arrived it averages what it has.
type smoothingRing struct {
	buf []float64
	n   int
	idx int
}

func newSmoothingRing(size int) *smoothingRing {
	if size < 1 {
		size = 1
	}
	return &smoothingRing{buf: make([]float64, size)}
}

// push adds one sample and returns the mean of the samples held.
func (r *smoothingRing) push(v float64) float64 {
	r.buf[r.idx] = v
	r.idx = (r.idx + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}

	var sum float64
	for i := 0; i < r.n; i++ {
		sum += r.buf[i]
	}
	return sum / float64(r.n)
}

// monitor polls one playback session at Tuning.TickInterval, samples the
// envelope at the current position, and drives the activity state machine.
// Exactly one monitor goroutine runs per playing utterance.
type monitor struct {
	s      *session
	obs    Observer
	tuning func() Tuning
	volume *atomic.Uint64

	// lastState is written only by the monitor goroutine and read by the
	// consumer after done closes.
	lastState Activity
}

func newMonitor(s *session, obs Observer, tuning func() Tuning, volume *atomic.Uint64) *monitor {
	return &monitor{
		s:      s,
		obs:    obs,
		tuning: tuning,
		volume: volume,
	}
}

// run is the monitor loop. It exits when the session is cancelled or the
// clip stops being busy, then closes the session's done channel.
func (m *monitor) run() {
	defer m.s.finish()

	t := m.tuning()
	ring := newSmoothingRing(t.SmoothingWindow)
	tracker := newActivityTracker(time.Now())

	ticker := time.NewTicker(t.TickInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		if m.s.cancelled.Load() {
			return
		}
		if !m.s.handle.IsBusy() {
			return
		}

		// Re-read tuning each tick so threshold and dwell changes take
		// effect mid-utterance.
		t = m.tuning()

		var raw float64
		if m.s.envelope != nil {
			raw = m.s.envelope.At(m.s.handle.Elapsed())
		} else {
			raw = t.FallbackVolume
		}

		smoothed := ring.push(raw)
		m.volume.Store(math.Float64bits(smoothed))

		state, changed := tracker.observe(smoothed, t.VolumeThreshold, now, t.MinActiveDwell, t.MinSilentDwell)
		m.lastState = state
		if changed {
			switch state {
			case ActivityActive:
				safeNotify("OnActive", m.obs.OnActive)
			case ActivitySilent:
				safeNotify("OnSilent", m.obs.OnSilent)
			}
		}
	}
}

// safeNotify invokes an observer callback, recovering and logging any panic
// so a broken observer cannot kill the pipeline.
func safeNotify(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("observer callback panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
