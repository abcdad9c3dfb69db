// Package engines selects and combines speech synthesizers.
package engines

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/avatarsync/speech"
	"github.com/dgnsrekt/avatarsync/speech/engines/elevenlabs"
	"github.com/dgnsrekt/avatarsync/speech/engines/mock"
	"github.com/dgnsrekt/avatarsync/speech/engines/piper"
)

// Chain tries each synthesizer in order until one succeeds. A backend that
// errors for one utterance is still tried first for the next; transient
// failures (rate limits, network blips) should not demote it permanently.
type Chain struct {
	backends []speech.Synthesizer
}

// NewChain builds a fallback chain. At least one backend is required.
func NewChain(backends ...speech.Synthesizer) (*Chain, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: fallback chain needs at least one backend", speech.ErrInvalidConfig)
	}
	return &Chain{backends: backends}, nil
}

// Name identifies the chain's primary backend in logs.
func (c *Chain) Name() string {
	return "chain[" + c.backends[0].Name() + "]"
}

// Synthesize tries each backend in order, returning the first success.
// All failures are joined into the returned error.
func (c *Chain) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	var errs []error
	for _, backend := range c.backends {
		audio, err := backend.Synthesize(ctx, text)
		if err == nil {
			return audio, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		log.Warn("backend failed, trying next", "backend", backend.Name(), "err", err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

// ForConfig builds the synthesizer the configuration asks for. Engine
// "auto" chains every backend that can be constructed, preferring the
// highest-fidelity one available.
func ForConfig(cfg speech.Config) (speech.Synthesizer, error) {
	switch cfg.Engine {
	case "mock":
		e, err := mock.New(cfg.Mock)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "piper":
		e, err := piper.New(cfg.Piper)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "elevenlabs":
		e, err := elevenlabs.New(cfg.ElevenLabs, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "auto":
		return autoChain(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", speech.ErrInvalidConfig, cfg.Engine)
	}
}

// autoChain assembles elevenlabs > piper > mock from whatever constructs
// cleanly. The mock always constructs, so auto never fails outright.
func autoChain(cfg speech.Config) (speech.Synthesizer, error) {
	var backends []speech.Synthesizer

	if el, err := elevenlabs.New(cfg.ElevenLabs, cfg.SampleRate); err == nil {
		backends = append(backends, el)
	} else {
		log.Debug("elevenlabs unavailable", "err", err)
	}

	if pp, err := piper.New(cfg.Piper); err == nil {
		backends = append(backends, pp)
	} else {
		log.Debug("piper unavailable", "err", err)
	}

	mk, err := mock.New(cfg.Mock)
	if err != nil {
		return nil, err
	}
	backends = append(backends, mk)

	if len(backends) == 1 {
		log.Warn("no real speech backend available, using mock audio")
		return mk, nil
	}
	chain, err := NewChain(backends...)
	if err != nil {
		return nil, err
	}
	return chain, nil
}
