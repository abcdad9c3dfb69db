// Package audio adapts the oto output device to the playback clock
// contract the speech queue polls against.
package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/avatarsync/speech"
)

// Clock owns one oto context and loads clips into it. The context's sample
// rate, channel count, and format are fixed at creation; every loaded clip
// must match them.
type Clock struct {
	context    *oto.Context
	sampleRate int
	channels   int
	volume     float64

	mu     sync.Mutex
	active *Handle
}

// ClockConfig contains audio device configuration.
type ClockConfig struct {
	SampleRate int     // Output sample rate in Hz
	Channels   int     // 1 = mono, 2 = stereo
	Volume     float64 // 0.0 to 2.0, applied to every clip
	BufferSize int     // Device buffer in bytes
}

// DefaultClockConfig returns the default device configuration.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		SampleRate: 44100,
		Channels:   1,
		Volume:     1.0,
		BufferSize: 4096,
	}
}

// NewClock opens the audio device and blocks until it is ready.
func NewClock(config ClockConfig) (*Clock, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*2),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrDeviceFailed, err)
	}
	<-readyChan

	return &Clock{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
		volume:     config.Volume,
	}, nil
}

// validateConfig validates the device configuration.
func validateConfig(config ClockConfig) error {
	validRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	rateValid := false
	for _, r := range validRates {
		if config.SampleRate == r {
			rateValid = true
			break
		}
	}
	if !rateValid {
		return fmt.Errorf("sample rate must be one of %v, got %d", validRates, config.SampleRate)
	}

	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}

	if config.Volume < 0.0 || config.Volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", config.Volume)
	}

	if config.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", config.BufferSize)
	}

	return nil
}

// Load decodes the clip to raw PCM, checks it against the device format,
// and returns a handle for one playback session. Any previous handle is
// stopped first; the device plays one clip at a time.
func (c *Clock) Load(clip *speech.Audio) (speech.PlaybackHandle, error) {
	if clip == nil || len(clip.Data) == 0 {
		return nil, fmt.Errorf("%w: empty clip", speech.ErrDeviceFailed)
	}

	pcm, rate, channels, err := speech.PCM(clip)
	if err != nil {
		return nil, err
	}
	if rate != c.sampleRate || channels != c.channels {
		return nil, fmt.Errorf("%w: clip is %dHz/%dch, device is %dHz/%dch",
			speech.ErrUnsupportedFormat, rate, channels, c.sampleRate, c.channels)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		_ = c.active.Stop()
		c.active = nil
	}

	// Copy so the handle owns its data for the lifetime of playback.
	// oto reads from the buffer asynchronously; the reference here is
	// what keeps it alive.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	frames := len(data) / (2 * channels)
	h := &Handle{
		data:     data,
		duration: time.Duration(frames) * time.Second / time.Duration(rate),
	}

	player := c.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(c.volume)
	h.player = player

	c.active = h
	return h, nil
}

// Handle is one loaded clip. It reports position from the wall clock
// rather than the device buffer; oto exposes no playback cursor, and a
// clamped wall-clock estimate is accurate enough for 10ms envelope lookups.
type Handle struct {
	mu       sync.Mutex
	player   *oto.Player
	data     []byte
	duration time.Duration
	started  time.Time
	playing  bool
	stopped  bool
}

// Play starts playback.
func (h *Handle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return speech.ErrNotPlaying
	}
	if h.playing {
		return speech.ErrAlreadyLoaded
	}

	h.player.Play()
	h.started = time.Now()
	h.playing = true
	return nil
}

// IsBusy reports whether the clip is still audible.
func (h *Handle) IsBusy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.playing || h.stopped {
		return false
	}
	return time.Since(h.started) < h.duration
}

// Elapsed returns the playback position, clamped to the clip's duration.
// Non-decreasing while busy.
func (h *Handle) Elapsed() time.Duration {
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

// Stop halts playback and releases the clip. Safe to call more than once.
func (h *Handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true

	if h.player != nil {
		h.player.Pause()
		if err := h.player.Close(); err != nil {
			h.player = nil
			h.data = nil
			return fmt.Errorf("%w: %s", speech.ErrDeviceFailed, err)
		}
		h.player = nil
	}
	h.data = nil
	return nil
}

// Duration returns the clip's total length.
func (h *Handle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}
