package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/avatarsync/speech"
)

// MockClock satisfies the playback clock contract without an audio device.
// Clips "play" silently in wall-clock time, so queue behavior, envelope
// lookups, and activity timing are all exercised for real. Used by tests
// and by headless runs where no output device exists.
type MockClock struct {
	mu      sync.Mutex
	loadErr error
	speedup int
	loaded  []*MockHandle
}

// NewMockClock creates a silent playback clock.
func NewMockClock() *MockClock {
	return &MockClock{speedup: 1}
}

// SetSpeedup divides playback duration by factor, for tests that want
// long scripts without long waits.
func (c *MockClock) SetSpeedup(factor int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if factor >= 1 {
		c.speedup = factor
	}
}

// FailNextLoad makes the next Load return err.
func (c *MockClock) FailNextLoad(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadErr = err
}

// Load implements speech.PlaybackClock.
func (c *MockClock) Load(clip *speech.Audio) (speech.PlaybackHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadErr != nil {
		err := c.loadErr
		c.loadErr = nil
		return nil, err
	}

	pcm, rate, channels, err := speech.PCM(clip)
	if err != nil {
		return nil, err
	}
	if rate <= 0 || channels < 1 {
		return nil, fmt.Errorf("%w: %dHz/%dch", speech.ErrUnsupportedFormat, rate, channels)
	}

	frames := len(pcm) / (2 * channels)
	h := &MockHandle{
		duration: time.Duration(frames) * time.Second / time.Duration(rate*c.speedup),
	}
	c.loaded = append(c.loaded, h)
	return h, nil
}

// Loaded returns every handle this clock has handed out.
func (c *MockClock) Loaded() []*MockHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockHandle(nil), c.loaded...)
}

// MockHandle is one silently playing clip.
type MockHandle struct {
	mu       sync.Mutex
	duration time.Duration
	started  time.Time
	playing  bool
	stopped  bool
}

// Play implements speech.PlaybackHandle.
func (h *MockHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return speech.ErrNotPlaying
	}
	h.started = time.Now()
	h.playing = true
	return nil
}

// IsBusy implements speech.PlaybackHandle.
func (h *MockHandle) IsBusy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing && !h.stopped && time.Since(h.started) < h.duration
}

// Elapsed implements speech.PlaybackHandle.
func (h *MockHandle) Elapsed() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return 0
	}
	e := time.Since(h.started)
	if e > h.duration {
		e = h.duration
	}
	return e
}

// Stop implements speech.PlaybackHandle. Safe to call more than once.
func (h *MockHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return nil
}

// Stopped reports whether Stop has been called.
func (h *MockHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}
