// Package mock provides a synthesizer that fabricates audio instead of
// calling a real backend. Each word becomes a short sine burst followed by
// a gap, paced at the configured words per minute, so envelope extraction
// and activity detection see realistic loud/quiet structure without any
// network or process dependency.
package mock

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/avatarsync/speech"
)

const (
	// toneFrequency is the pitch of the generated word bursts.
	toneFrequency = 220.0
	// toneAmplitude leaves headroom below full scale.
	toneAmplitude = 0.6
	// voicedFraction of each word slot carries the tone; the rest is the
	// inter-word gap the activity detector should ride through.
	voicedFraction = 0.7
)

// Engine is the mock synthesizer.
type Engine struct {
	config speech.MockConfig

	mu       sync.Mutex
	failNext error
	calls    int
}

// New creates a mock engine.
func New(config speech.MockConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrInvalidConfig, err)
	}
	return &Engine{config: config}, nil
}

// Name identifies the backend in logs.
func (e *Engine) Name() string { return "mock" }

// FailNext makes the next Synthesize call return err.
func (e *Engine) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = err
}

// Calls returns how many times Synthesize has been invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Synthesize fabricates a PCM clip for the text. Sentence punctuation adds
// an extra silent word slot, mirroring how a real voice pauses.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	e.mu.Lock()
	e.calls++
	failErr := e.failNext
	e.failNext = nil
	e.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}

	if e.config.GenerationDelay > 0 {
		select {
		case <-time.After(e.config.GenerationDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, speech.ErrEmptyText
	}

	rate := e.config.SampleRate
	wordSlot := time.Minute / time.Duration(e.config.WordsPerMinute)
	slotFrames := int(float64(rate) * wordSlot.Seconds())
	voicedFrames := int(float64(slotFrames) * voicedFraction)

	var data []byte
	for _, word := range words {
		data = appendTone(data, voicedFrames, rate)
		data = appendSilence(data, slotFrames-voicedFrames)

		// A sentence boundary pauses for one extra slot.
		if strings.ContainsAny(word[len(word)-1:], ".!?") {
			data = appendSilence(data, slotFrames)
		}
	}

	return &speech.Audio{
		Data:       data,
		Format:     speech.FormatPCM16,
		SampleRate: rate,
		Channels:   1,
	}, nil
}

func appendTone(data []byte, frames, rate int) []byte {
	for i := 0; i < frames; i++ {
		// Fade the burst edges to avoid clicks.
		gain := 1.0
		fade := rate / 100 // 10ms ramp
		if fade > 0 {
			if i < fade {
				gain = float64(i) / float64(fade)
			} else if frames-i < fade {
				gain = float64(frames-i) / float64(fade)
			}
		}
		s := toneAmplitude * gain * math.Sin(2*math.Pi*toneFrequency*float64(i)/float64(rate))
		data = binary.LittleEndian.AppendUint16(data, uint16(int16(s*math.MaxInt16)))
	}
	return data
}

func appendSilence(data []byte, frames int) []byte {
	return append(data, make([]byte, frames*2)...)
}
