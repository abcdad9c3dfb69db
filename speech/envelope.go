package speech

import (
	"fmt"
	"math"
	"time"
)

// Envelope is the RMS loudness contour of one clip: one non-negative sample
// per analysis window, windows spaced Hop apart. It is computed once per
// utterance, immutable afterwards, and discarded with the utterance.
type Envelope struct {
	Samples      []float64     // RMS per window, all >= 0
	Window       time.Duration // width of each analysis window
	Hop          time.Duration // spacing between consecutive samples
	MaxAmplitude float64       // maximum RMS, 1.0 for an empty or all-silent clip
}

// At returns the normalized volume in [0,1] at the given playback position.
// Positions past the end of the envelope read as 0 (trailing silence).
func (e *Envelope) At(pos time.Duration) float64 {
	if e == nil || e.Hop <= 0 || len(e.Samples) == 0 || e.MaxAmplitude <= 0 {
		return 0
	}

	idx := int(pos / e.Hop)
	if idx < 0 || idx >= len(e.Samples) {
		return 0
	}

	v := e.Samples[idx] / e.MaxAmplitude
	if v > 1 {
		v = 1
	}
	return v
}

// Duration returns the span of audio the envelope covers.
func (e *Envelope) Duration() time.Duration {
	if e == nil || len(e.Samples) == 0 {
		return 0
	}
	return time.Duration(len(e.Samples)-1)*e.Hop + e.Window
}

// ExtractEnvelope computes the RMS envelope of mono samples in [-1,1].
//
// The signal is split into windows of round(rate*window) samples spaced
// round(rate*hop) samples apart. The 20ms/10ms defaults in Tuning balance
// responsiveness against noise smoothing; both are tunable per voice.
// A clip shorter than one window yields an empty envelope with
// MaxAmplitude 1.0, which downstream reads as silence.
func ExtractEnvelope(samples []float64, sampleRate int, window, hop time.Duration) (*Envelope, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if window <= 0 || hop <= 0 || hop > window {
		return nil, fmt.Errorf("%w: window %v, hop %v", ErrInvalidConfig, window, hop)
	}

	winSize := int(math.Round(float64(sampleRate) * window.Seconds()))
	hopSize := int(math.Round(float64(sampleRate) * hop.Seconds()))
	if winSize < 1 {
		winSize = 1
	}
	if hopSize < 1 {
		hopSize = 1
	}

	env := &Envelope{
		Window:       window,
		Hop:          hop,
		MaxAmplitude: 1.0,
	}
	if len(samples) >= winSize {
		env.Samples = make([]float64, 0, (len(samples)-winSize)/hopSize+1)
	}

	for start := 0; start+winSize <= len(samples); start += hopSize {
		var sum float64
		for _, s := range samples[start : start+winSize] {
			sum += s * s
		}
		env.Samples = append(env.Samples, math.Sqrt(sum/float64(winSize)))
	}

	var maxRMS float64
	for _, v := range env.Samples {
		if v > maxRMS {
			maxRMS = v
		}
	}
	// All-silent clips keep MaxAmplitude 1.0 so normalization never
	// divides by zero.
	if maxRMS > 0 {
		env.MaxAmplitude = maxRMS
	}

	return env, nil
}
