package speech

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"piper engine", func(c *Config) { c.Engine = "piper" }, false},
		{"elevenlabs engine", func(c *Config) { c.Engine = "elevenlabs" }, false},
		{"auto engine", func(c *Config) { c.Engine = "auto" }, false},
		{"case insensitive engine", func(c *Config) { c.Engine = "Mock" }, false},
		{"unknown engine", func(c *Config) { c.Engine = "festival" }, true},
		{"invalid sample rate", func(c *Config) { c.SampleRate = 11025 }, true},
		{"invalid channels", func(c *Config) { c.Channels = 3 }, true},
		{"negative volume", func(c *Config) { c.Volume = -0.1 }, true},
		{"excessive volume", func(c *Config) { c.Volume = 2.5 }, true},
		{"zero threshold", func(c *Config) { c.Tuning.VolumeThreshold = 0 }, true},
		{"threshold at one", func(c *Config) { c.Tuning.VolumeThreshold = 1.0 }, true},
		{"negative dwell", func(c *Config) { c.Tuning.MinActiveDwell = -time.Second }, true},
		{"zero smoothing window", func(c *Config) { c.Tuning.SmoothingWindow = 0 }, true},
		{"hop exceeds window", func(c *Config) { c.Tuning.EnvelopeHop = 30 * time.Millisecond }, true},
		{"fallback above one", func(c *Config) { c.Tuning.FallbackVolume = 1.5 }, true},
		{"tick too fast", func(c *Config) { c.Tuning.TickInterval = 100 * time.Microsecond }, true},
		{"mock wpm too low", func(c *Config) { c.Mock.WordsPerMinute = 10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateNormalizesEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine = "ElevenLabs"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Engine != "elevenlabs" {
		t.Errorf("engine = %q, want lowercased", cfg.Engine)
	}
}

func TestElevenLabsConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ElevenLabsConfig)
		wantErr bool
	}{
		{"defaults", func(c *ElevenLabsConfig) {}, false},
		{"empty voice", func(c *ElevenLabsConfig) { c.Voice = "" }, true},
		{"stability out of range", func(c *ElevenLabsConfig) { c.Stability = 1.5 }, true},
		{"similarity out of range", func(c *ElevenLabsConfig) { c.SimilarityBoost = -0.1 }, true},
		{"style out of range", func(c *ElevenLabsConfig) { c.Style = 2 }, true},
		{"timeout too short", func(c *ElevenLabsConfig) { c.Timeout = 100 * time.Millisecond }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultElevenLabsConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPiperConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PiperConfig)
		wantErr bool
	}{
		{"defaults", func(c *PiperConfig) {}, false},
		{"empty binary", func(c *PiperConfig) { c.Binary = "" }, true},
		{"empty model", func(c *PiperConfig) { c.Model = "" }, true},
		{"zero sample rate", func(c *PiperConfig) { c.SampleRate = 0 }, true},
		{"length scale too large", func(c *PiperConfig) { c.LengthScale = 5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPiperConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
