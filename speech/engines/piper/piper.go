// Package piper synthesizes speech by shelling out to the piper binary
// (https://github.com/rhasspy/piper). Output is raw 16-bit mono PCM read
// from the process's stdout.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/avatarsync/speech"
)

// Engine is the piper subprocess synthesizer.
type Engine struct {
	config     speech.PiperConfig
	binaryPath string
	modelPath  string
	voiceName  string
}

// New creates a piper engine, resolving the binary and voice model up
// front so a misconfiguration fails at startup rather than mid-queue.
func New(config speech.PiperConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrInvalidConfig, err)
	}

	e := &Engine{config: config}
	if err := e.resolveBinary(); err != nil {
		return nil, err
	}
	if err := e.resolveModel(); err != nil {
		return nil, err
	}
	return e, nil
}

// Name identifies the backend in logs.
func (e *Engine) Name() string {
	if e.voiceName != "" {
		return "piper (" + e.voiceName + ")"
	}
	return "piper"
}

// resolveBinary locates the piper executable.
func (e *Engine) resolveBinary() error {
	if filepath.IsAbs(e.config.Binary) {
		if _, err := os.Stat(e.config.Binary); err != nil {
			return fmt.Errorf("piper binary not found at %s: %w", e.config.Binary, err)
		}
		e.binaryPath = e.config.Binary
		return nil
	}

	path, err := exec.LookPath(e.config.Binary)
	if err == nil {
		e.binaryPath = path
		return nil
	}

	for _, candidate := range []string{
		"/usr/local/bin/piper",
		"/usr/bin/piper",
		"/opt/piper/piper",
		filepath.Join(os.Getenv("HOME"), ".local/bin/piper"),
	} {
		if _, serr := os.Stat(candidate); serr == nil {
			e.binaryPath = candidate
			return nil
		}
	}

	return fmt.Errorf("piper binary %q not found, install from https://github.com/rhasspy/piper: %w", e.config.Binary, err)
}

// resolveModel turns the configured model into an ONNX file path. A value
// ending in .onnx is used directly; anything else is treated as a voice
// name searched for in the standard voice directories.
func (e *Engine) resolveModel() error {
	model := e.config.Model

	if strings.HasSuffix(model, ".onnx") {
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("voice model not found at %s: %w", model, err)
		}
		e.modelPath = model
		e.voiceName = strings.TrimSuffix(filepath.Base(model), ".onnx")
		return nil
	}

	for _, dir := range []string{
		filepath.Join(os.Getenv("HOME"), ".local/share/piper-voices"),
		"/usr/share/piper-voices",
		"/usr/local/share/piper-voices",
	} {
		candidate := filepath.Join(dir, model+".onnx")
		if _, err := os.Stat(candidate); err == nil {
			e.modelPath = candidate
			e.voiceName = model
			return nil
		}
	}

	return fmt.Errorf("voice model %q not found, download from https://github.com/rhasspy/piper/releases", model)
}

// buildArgs assembles the piper command line.
func (e *Engine) buildArgs() []string {
	args := []string{
		"--model", e.modelPath,
		"--output-raw",
	}

	configPath := e.modelPath + ".json"
	if _, err := os.Stat(configPath); err == nil {
		args = append(args, "--config", configPath)
	}

	if e.config.LengthScale != 1.0 {
		args = append(args, "--length-scale", fmt.Sprintf("%.2f", e.config.LengthScale))
	}

	return args
}

// Synthesize runs piper with the text on stdin and collects raw PCM from
// stdout. The engine's timeout bounds the subprocess on top of whatever
// deadline the caller's context carries.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binaryPath, e.buildArgs()...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %s", speech.ErrSynthesisFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting piper: %s", speech.ErrSynthesisFailed, err)
	}

	var pcm bytes.Buffer
	if _, err := io.Copy(&pcm, stdout); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: reading audio: %s", speech.ErrSynthesisFailed, err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: piper timed out after %v", speech.ErrSynthesisFailed, e.config.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: piper: %s", speech.ErrSynthesisFailed, msg)
		}
		return nil, fmt.Errorf("%w: %s", speech.ErrSynthesisFailed, err)
	}

	data := pcm.Bytes()
	if len(data) == 0 {
		return nil, speech.ErrNoAudio
	}
	// Raw output must be whole 16-bit samples.
	if len(data)%2 != 0 {
		data = append(data, 0)
	}

	return &speech.Audio{
		Data:       data,
		Format:     speech.FormatPCM16,
		SampleRate: e.config.SampleRate,
		Channels:   1,
	}, nil
}
