package speech

import (
	"context"
	"time"
)

// Synthesizer converts text into a playable audio clip. Implementations
// live under speech/engines; anything that can hand back an Audio works.
type Synthesizer interface {
	// Synthesize converts text to audio. Implementations are responsible
	// for their own network or process timeouts; the queue only cancels
	// the context on shutdown, never on Stop.
	Synthesize(ctx context.Context, text string) (*Audio, error)

	// Name identifies the backend in logs.
	Name() string
}

// PlaybackClock loads an audio clip into an output device and hands back a
// handle for a single playback session.
type PlaybackClock interface {
	Load(audio *Audio) (PlaybackHandle, error)
}

// PlaybackHandle controls one loaded clip. Elapsed must be cheap enough to
// poll at 50Hz or better and non-decreasing while the clip is busy.
type PlaybackHandle interface {
	// Play starts playback.
	Play() error

	// IsBusy reports whether the clip is still audible.
	IsBusy() bool

	// Elapsed returns the current playback position.
	Elapsed() time.Duration

	// Stop halts playback and releases the clip.
	Stop() error
}

// Observer receives utterance lifecycle and activity events.
//
// OnActive and OnSilent run synchronously on the monitor goroutine, which
// ticks every Tuning.TickInterval; a slow callback stalls the monitor loop
// and delays every later transition. OnStart and OnEnd run on the queue's
// consumer goroutine. A panicking callback is recovered and logged, never
// propagated.
type Observer interface {
	// OnStart fires when an utterance begins playing, before the first
	// volume sample is evaluated.
	OnStart()

	// OnActive fires on a Silent to Active transition.
	OnActive()

	// OnSilent fires on an Active to Silent transition.
	OnSilent()

	// OnEnd fires when playback finishes or is stopped.
	OnEnd()
}

// BaseObserver implements Observer with no-ops. Embed it to handle only
// the events you care about.
type BaseObserver struct{}

// OnStart implements Observer.
func (BaseObserver) OnStart() {}

// OnActive implements Observer.
func (BaseObserver) OnActive() {}

// OnSilent implements Observer.
func (BaseObserver) OnSilent() {}

// OnEnd implements Observer.
func (BaseObserver) OnEnd() {}

// Audio is one synthesized clip.
type Audio struct {
	Data       []byte      // Encoded audio bytes
	Format     AudioFormat // How Data is encoded
	SampleRate int         // Sample rate in Hz
	Channels   int         // 1 = mono, 2 = stereo
}

// AudioFormat identifies the encoding of an Audio clip's bytes.
type AudioFormat int

const (
	// FormatPCM16 is headerless 16-bit little-endian PCM.
	FormatPCM16 AudioFormat = iota
	// FormatWAV is a RIFF/WAVE container holding 16-bit PCM.
	FormatWAV
)

// String returns the format name.
func (f AudioFormat) String() string {
	switch f {
	case FormatPCM16:
		return "pcm16"
	case FormatWAV:
		return "wav"
	default:
		return "unknown"
	}
}
