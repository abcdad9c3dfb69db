// Package speech drives avatar animation from synthesized speech. Text goes
// in through a FIFO queue; each utterance is synthesized by a pluggable
// backend, analyzed into an RMS volume envelope, played through a playback
// clock, and watched by a 100Hz monitor that tells an observer when the
// voice is actually making sound. The observer callbacks are what an avatar
// uses to switch between its speaking and idle art.
package speech

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Queue is a single-consumer speech queue. Producers enqueue text from any
// goroutine; one consumer goroutine plays utterances strictly in FIFO order
// with no overlap. The consumer starts lazily on the first enqueue and
// exits when the queue drains.
type Queue struct {
	synth Synthesizer
	clock PlaybackClock
	obs   Observer

	mu           sync.Mutex
	idle         *sync.Cond
	pending      []*utterance
	consumerLive bool
	closed       bool
	nextID       uint64

	// stopEpoch increments on every Stop so the consumer can discard
	// audio whose synthesis began before the stop.
	stopEpoch atomic.Uint64

	// current is the session of the playing utterance, nil between
	// utterances. Stop cancels through it.
	current atomic.Pointer[session]

	// tuning is swapped wholesale on any live-tuning change so the
	// monitor reads a consistent snapshot per tick.
	tuning atomic.Pointer[Tuning]

	// volume holds the latest smoothed volume as Float64bits, zeroed
	// between utterances.
	volume atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue creates a speech queue playing through the given backend, clock,
// and observer. A nil observer is replaced with a no-op one.
func NewQueue(cfg Config, synth Synthesizer, clock PlaybackClock, obs Observer) (*Queue, error) {
	if synth == nil {
		return nil, fmt.Errorf("%w: synthesizer is required", ErrInvalidConfig)
	}
	if clock == nil {
		return nil, fmt.Errorf("%w: playback clock is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if obs == nil {
		obs = BaseObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		synth:  synth,
		clock:  clock,
		obs:    obs,
		ctx:    ctx,
		cancel: cancel,
	}
	q.idle = sync.NewCond(&q.mu)

	tuning := cfg.Tuning
	q.tuning.Store(&tuning)

	log.Debug("speech queue created", "engine", synth.Name())
	return q, nil
}

// Enqueue submits text for playback. It never blocks on playback; the text
// is appended to the pending list and the consumer goroutine is started if
// none is running. Safe to call from any goroutine.
func (q *Queue) Enqueue(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.nextID++
	u := &utterance{id: q.nextID, text: text, state: utteranceQueued}
	q.pending = append(q.pending, u)
	log.Debug("utterance enqueued", "id", u.id, "pending", len(q.pending))

	if !q.consumerLive {
		q.consumerLive = true
		go q.consume()
	}

	return nil
}

// consume is the consumer loop. It pops utterances in order, plays each to
// a terminal state, and exits once the pending list drains.
func (q *Queue) consume() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.consumerLive = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		u := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.playOne(u)
	}
}

// Stop interrupts the currently playing utterance. The monitor notices the
// cancellation within one tick and playback tears down; queued utterances
// are untouched and the next one plays normally. An in-flight synthesis
// call is not cancelled, but its result is discarded.
func (q *Queue) Stop() {
	q.stopEpoch.Add(1)

	if s := q.current.Load(); s != nil {
		s.cancel()
		if err := s.handle.Stop(); err != nil {
			log.Debug("stopping playback handle", "id", s.id, "err", err)
		}
	}
}

// Close stops playback, rejects further enqueues, and cancels synthesis.
// Already queued utterances are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.Stop()
	q.cancel()
	q.Wait()
}

// Wait blocks until the pending list is empty and the consumer has exited.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.consumerLive {
		q.idle.Wait()
	}
}

// CurrentVolume returns the latest smoothed volume in [0,1], or 0 when
// nothing is playing. Safe to poll from any goroutine for a live meter.
func (q *Queue) CurrentVolume() float64 {
	return math.Float64frombits(q.volume.Load())
}

// Tuning returns the current activity-detection parameters.
func (q *Queue) Tuning() Tuning {
	return *q.tuning.Load()
}

// SetTuning replaces the activity-detection parameters. The change takes
// effect on the monitor's next tick, mid-utterance included.
func (q *Queue) SetTuning(t Tuning) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	q.tuning.Store(&t)
	log.Debug("tuning updated", "threshold", t.VolumeThreshold,
		"active_dwell", t.MinActiveDwell, "silent_dwell", t.MinSilentDwell)
	return nil
}

// SetVolumeThreshold adjusts only the activity threshold, live.
func (q *Queue) SetVolumeThreshold(threshold float64) error {
	t := q.Tuning()
	t.VolumeThreshold = threshold
	return q.SetTuning(t)
}
