package speech

import (
	"math"

	"github.com/charmbracelet/log"
)

// utteranceState tracks one utterance through its lifecycle.
type utteranceState int

const (
	// utteranceQueued means the text is waiting in the pending list.
	utteranceQueued utteranceState = iota
	// utteranceSynthesizing means the backend call is in flight.
	utteranceSynthesizing
	// utterancePlaying means audio is loaded and audible.
	utterancePlaying
	// utteranceFinished is the terminal success state.
	utteranceFinished
	// utteranceFailed is the terminal failure state.
	utteranceFailed
)

// String returns the string representation of the utterance state.
func (s utteranceState) String() string {
	switch s {
	case utteranceQueued:
		return "queued"
	case utteranceSynthesizing:
		return "synthesizing"
	case utterancePlaying:
		return "playing"
	case utteranceFinished:
		return "finished"
	case utteranceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// utterance is one queued text plus its lifecycle state.
type utterance struct {
	id    uint64
	text  string
	state utteranceState
}

// setState commits a state transition and logs it.
func (u *utterance) setState(next utteranceState) {
	log.Debug("utterance state change", "id", u.id, "from", u.state, "to", next)
	u.state = next
}

// playOne runs a single utterance end-to-end on the consumer goroutine:
// synthesize, extract envelope, play, monitor, tear down. Every failure is
// local to this utterance; playOne never returns an error because the
// consumer must always move on to the next item.
func (q *Queue) playOne(u *utterance) {
	// Snapshot the stop epoch before the backend call. Stop does not
	// cancel in-flight synthesis; it bumps the epoch so the result is
	// discarded once it arrives.
	epoch := q.stopEpoch.Load()

	u.setState(utteranceSynthesizing)
	audio, err := q.synth.Synthesize(q.ctx, u.text)
	if err != nil {
		u.setState(utteranceFailed)
		log.Warn("synthesis failed, skipping utterance",
			"id", u.id, "engine", q.synth.Name(), "err", err)
		return
	}
	if audio == nil || len(audio.Data) == 0 {
		u.setState(utteranceFailed)
		log.Warn("synthesizer returned no audio, skipping utterance",
			"id", u.id, "engine", q.synth.Name())
		return
	}

	if q.stopEpoch.Load() != epoch {
		u.setState(utteranceFailed)
		log.Debug("discarding synthesized audio, stop requested during synthesis", "id", u.id)
		return
	}

	tuning := q.Tuning()

	// Envelope extraction is best effort. A clip we cannot analyze still
	// plays; the monitor holds the fallback volume so the avatar animates
	// for the whole clip instead of not at all.
	var envelope *Envelope
	if samples, rate, derr := DecodeSamples(audio); derr != nil {
		log.Warn("envelope extraction disabled for utterance",
			"id", u.id, "err", derr)
	} else if env, eerr := ExtractEnvelope(samples, rate, tuning.EnvelopeWindow, tuning.EnvelopeHop); eerr != nil {
		log.Warn("envelope extraction disabled for utterance",
			"id", u.id, "err", eerr)
	} else {
		envelope = env
	}

	handle, err := q.clock.Load(audio)
	if err != nil {
		u.setState(utteranceFailed)
		log.Warn("audio device rejected clip, skipping utterance",
			"id", u.id, "err", newSpeechError(err, "clock", "load", u.id))
		return
	}

	if err := handle.Play(); err != nil {
		u.setState(utteranceFailed)
		_ = handle.Stop()
		log.Warn("playback failed to start, skipping utterance",
			"id", u.id, "err", newSpeechError(err, "clock", "play", u.id))
		return
	}

	u.setState(utterancePlaying)
	s := newSession(u.id, handle, envelope)
	q.current.Store(s)
	// Close the race with a Stop that landed between the epoch check and
	// the session becoming visible.
	if q.stopEpoch.Load() != epoch {
		s.cancel()
	}
	safeNotify("OnStart", q.obs.OnStart)

	mon := newMonitor(s, q.obs, q.Tuning, &q.volume)
	go mon.run()
	<-s.done

	// If playback was cut off while Active the monitor never saw the
	// trailing silence, so close the activity state here.
	if mon.lastState == ActivityActive {
		safeNotify("OnSilent", q.obs.OnSilent)
	}

	if err := handle.Stop(); err != nil {
		log.Debug("stopping playback handle", "id", u.id, "err", err)
	}
	q.volume.Store(math.Float64bits(0))
	q.current.Store(nil)
	safeNotify("OnEnd", q.obs.OnEnd)

	u.setState(utteranceFinished)
}
