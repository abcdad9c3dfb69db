package audio

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/avatarsync/speech"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClockConfig)
		wantErr bool
	}{
		{"defaults", func(c *ClockConfig) {}, false},
		{"22050 rate", func(c *ClockConfig) { c.SampleRate = 22050 }, false},
		{"stereo", func(c *ClockConfig) { c.Channels = 2 }, false},
		{"unsupported rate", func(c *ClockConfig) { c.SampleRate = 11025 }, true},
		{"three channels", func(c *ClockConfig) { c.Channels = 3 }, true},
		{"negative volume", func(c *ClockConfig) { c.Volume = -0.5 }, true},
		{"volume above two", func(c *ClockConfig) { c.Volume = 2.1 }, true},
		{"zero buffer", func(c *ClockConfig) { c.BufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClockConfig()
			tt.mutate(&cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func pcmClip(frames, rate int) *speech.Audio {
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(10000)))
	}
	return &speech.Audio{Data: data, Format: speech.FormatPCM16, SampleRate: rate, Channels: 1}
}

func TestMockClockPlaysInWallClockTime(t *testing.T) {
	clock := NewMockClock()

	// 800 frames at 8kHz is 100ms.
	handle, err := clock.Load(pcmClip(800, 8000))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if handle.IsBusy() {
		t.Error("handle busy before Play")
	}
	if err := handle.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !handle.IsBusy() {
		t.Error("handle not busy right after Play")
	}

	time.Sleep(30 * time.Millisecond)
	if e := handle.Elapsed(); e < 20*time.Millisecond || e > 90*time.Millisecond {
		t.Errorf("Elapsed() = %v after ~30ms", e)
	}

	time.Sleep(100 * time.Millisecond)
	if handle.IsBusy() {
		t.Error("handle still busy past clip duration")
	}
	if e := handle.Elapsed(); e != 100*time.Millisecond {
		t.Errorf("Elapsed() = %v past end, want clamped 100ms", e)
	}
}

func TestMockClockElapsedNonDecreasing(t *testing.T) {
	clock := NewMockClock()
	handle, err := clock.Load(pcmClip(1600, 8000))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := handle.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	var prev time.Duration
	for i := 0; i < 20; i++ {
		e := handle.Elapsed()
		if e < prev {
			t.Fatalf("Elapsed went backwards: %v after %v", e, prev)
		}
		prev = e
		time.Sleep(2 * time.Millisecond)
	}
}

func TestMockClockStop(t *testing.T) {
	clock := NewMockClock()
	handle, err := clock.Load(pcmClip(80000, 8000))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := handle.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if err := handle.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if handle.IsBusy() {
		t.Error("handle busy after Stop")
	}
	if err := handle.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
	if err := handle.Play(); !errors.Is(err, speech.ErrNotPlaying) {
		t.Errorf("Play after Stop error = %v, want %v", err, speech.ErrNotPlaying)
	}
}

func TestMockClockFailNextLoad(t *testing.T) {
	clock := NewMockClock()
	clock.FailNextLoad(speech.ErrDeviceFailed)

	if _, err := clock.Load(pcmClip(100, 8000)); !errors.Is(err, speech.ErrDeviceFailed) {
		t.Errorf("Load error = %v, want %v", err, speech.ErrDeviceFailed)
	}

	// Failure is one-shot.
	if _, err := clock.Load(pcmClip(100, 8000)); err != nil {
		t.Errorf("second Load failed: %v", err)
	}
}

func TestMockClockSpeedup(t *testing.T) {
	clock := NewMockClock()
	clock.SetSpeedup(10)

	// 8000 frames at 8kHz is 1s of audio, 100ms at 10x.
	handle, err := clock.Load(pcmClip(8000, 8000))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mh := handle.(*MockHandle)
	if mh.duration != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", mh.duration)
	}
}

func TestMockClockRejectsBadClip(t *testing.T) {
	clock := NewMockClock()
	clip := &speech.Audio{Data: []byte{1, 2}, Format: speech.AudioFormat(99), SampleRate: 8000, Channels: 1}

	if _, err := clock.Load(clip); !errors.Is(err, speech.ErrUnsupportedFormat) {
		t.Errorf("Load error = %v, want %v", err, speech.ErrUnsupportedFormat)
	}
}
