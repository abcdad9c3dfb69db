package speech

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all speech pipeline configuration options.
type Config struct {
	// Engine selection
	Engine string `yaml:"engine" env:"AVATARSYNC_ENGINE"`

	// Audio output settings
	SampleRate int     `yaml:"sample_rate" env:"AVATARSYNC_SAMPLE_RATE"`
	Channels   int     `yaml:"channels" env:"AVATARSYNC_CHANNELS"`
	Volume     float64 `yaml:"volume" env:"AVATARSYNC_VOLUME"`

	// Activity detection tunables
	Tuning Tuning `yaml:"tuning"`

	// Engine-specific configurations
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Piper      PiperConfig      `yaml:"piper"`
	Mock       MockConfig       `yaml:"mock"`
}

// Tuning holds the activity-detection parameters. None of these have
// principled defaults; the right values depend on the voice and are meant
// to be adjusted live while watching the avatar.
type Tuning struct {
	// VolumeThreshold is the normalized volume in (0,1) above which the
	// speaker counts as making sound.
	VolumeThreshold float64 `yaml:"volume_threshold" env:"AVATARSYNC_VOLUME_THRESHOLD"`

	// MinActiveDwell is how long the Active state must have held before a
	// drop below the threshold may transition to Silent.
	MinActiveDwell time.Duration `yaml:"min_active_dwell" env:"AVATARSYNC_MIN_ACTIVE_DWELL"`

	// MinSilentDwell is how long the Silent state must have held before a
	// rise above the threshold may transition to Active.
	MinSilentDwell time.Duration `yaml:"min_silent_dwell" env:"AVATARSYNC_MIN_SILENT_DWELL"`

	// SmoothingWindow is the number of raw volume samples averaged before
	// the threshold comparison. At the default 10ms tick, 5 samples add at
	// most ~50ms of lag while damping single-window spikes.
	SmoothingWindow int `yaml:"smoothing_window" env:"AVATARSYNC_SMOOTHING_WINDOW"`

	// EnvelopeWindow and EnvelopeHop control RMS extraction. 20ms windows
	// at a 10ms hop give 50% overlap.
	EnvelopeWindow time.Duration `yaml:"envelope_window" env:"AVATARSYNC_ENVELOPE_WINDOW"`
	EnvelopeHop    time.Duration `yaml:"envelope_hop" env:"AVATARSYNC_ENVELOPE_HOP"`

	// FallbackVolume is the constant volume assumed when envelope
	// extraction fails, degrading the avatar to "speaking for the whole
	// clip" rather than no animation at all. Must sit above
	// VolumeThreshold to have that effect.
	FallbackVolume float64 `yaml:"fallback_volume" env:"AVATARSYNC_FALLBACK_VOLUME"`

	// TickInterval is the monitor polling period.
	TickInterval time.Duration `yaml:"tick_interval" env:"AVATARSYNC_TICK_INTERVAL"`
}

// ElevenLabsConfig contains ElevenLabs backend settings.
type ElevenLabsConfig struct {
	APIKey          string        `yaml:"api_key" env:"ELEVENLABS_API_KEY"`
	Voice           string        `yaml:"voice" env:"AVATARSYNC_ELEVENLABS_VOICE"`
	ModelID         string        `yaml:"model_id" env:"AVATARSYNC_ELEVENLABS_MODEL_ID"`
	Stability       float64       `yaml:"stability" env:"AVATARSYNC_ELEVENLABS_STABILITY"`
	SimilarityBoost float64       `yaml:"similarity_boost" env:"AVATARSYNC_ELEVENLABS_SIMILARITY_BOOST"`
	Style           float64       `yaml:"style" env:"AVATARSYNC_ELEVENLABS_STYLE"`
	SpeakerBoost    bool          `yaml:"speaker_boost" env:"AVATARSYNC_ELEVENLABS_SPEAKER_BOOST"`
	Timeout         time.Duration `yaml:"timeout" env:"AVATARSYNC_ELEVENLABS_TIMEOUT"`
}

// PiperConfig contains Piper backend settings.
type PiperConfig struct {
	Binary      string        `yaml:"binary" env:"AVATARSYNC_PIPER_BINARY"`
	Model       string        `yaml:"model" env:"AVATARSYNC_PIPER_MODEL"`
	SampleRate  int           `yaml:"sample_rate" env:"AVATARSYNC_PIPER_SAMPLE_RATE"`
	LengthScale float64       `yaml:"length_scale" env:"AVATARSYNC_PIPER_LENGTH_SCALE"`
	Timeout     time.Duration `yaml:"timeout" env:"AVATARSYNC_PIPER_TIMEOUT"`
}

// MockConfig contains mock backend settings, used for testing and demos.
type MockConfig struct {
	SampleRate      int           `yaml:"sample_rate" env:"AVATARSYNC_MOCK_SAMPLE_RATE"`
	WordsPerMinute  int           `yaml:"words_per_minute" env:"AVATARSYNC_MOCK_WORDS_PER_MINUTE"`
	GenerationDelay time.Duration `yaml:"generation_delay" env:"AVATARSYNC_MOCK_GENERATION_DELAY"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:     "mock",
		SampleRate: 44100,
		Channels:   1,
		Volume:     1.0,
		Tuning:     DefaultTuning(),
		ElevenLabs: DefaultElevenLabsConfig(),
		Piper:      DefaultPiperConfig(),
		Mock:       DefaultMockConfig(),
	}
}

// DefaultTuning returns the default activity-detection parameters.
func DefaultTuning() Tuning {
	return Tuning{
		VolumeThreshold: 0.01,
		MinActiveDwell:  200 * time.Millisecond,
		MinSilentDwell:  50 * time.Millisecond,
		SmoothingWindow: 5,
		EnvelopeWindow:  20 * time.Millisecond,
		EnvelopeHop:     10 * time.Millisecond,
		FallbackVolume:  0.5,
		TickInterval:    10 * time.Millisecond,
	}
}

// DefaultElevenLabsConfig returns default ElevenLabs configuration.
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		Voice:           "Rachel (21m00Tcm4TlvDq8ikWAM)",
		ModelID:         "eleven_multilingual_v2",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		SpeakerBoost:    true,
		Timeout:         30 * time.Second,
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	return PiperConfig{
		Binary:      "piper",
		Model:       "en_US-lessac-medium",
		SampleRate:  22050,
		LengthScale: 1.0,
		Timeout:     30 * time.Second,
	}
}

// DefaultMockConfig returns default mock configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		SampleRate:     44100,
		WordsPerMinute: 150,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"mock", "piper", "elevenlabs", "auto"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, validEngines)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}

	if c.Volume < 0.0 || c.Volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", c.Volume)
	}

	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}

	switch c.Engine {
	case "piper":
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case "elevenlabs":
		if err := c.ElevenLabs.Validate(); err != nil {
			return fmt.Errorf("elevenlabs config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	return nil
}

// Validate checks if the tuning parameters are valid.
func (t *Tuning) Validate() error {
	if t.VolumeThreshold <= 0.0 || t.VolumeThreshold >= 1.0 {
		return fmt.Errorf("volume_threshold must be in (0,1), got %f", t.VolumeThreshold)
	}

	if t.MinActiveDwell < 0 || t.MinSilentDwell < 0 {
		return fmt.Errorf("dwell times must be non-negative, got active %v, silent %v", t.MinActiveDwell, t.MinSilentDwell)
	}

	if t.SmoothingWindow < 1 || t.SmoothingWindow > 100 {
		return fmt.Errorf("smoothing_window must be between 1 and 100, got %d", t.SmoothingWindow)
	}

	if t.EnvelopeWindow <= 0 || t.EnvelopeHop <= 0 {
		return fmt.Errorf("envelope window and hop must be positive, got %v and %v", t.EnvelopeWindow, t.EnvelopeHop)
	}

	if t.EnvelopeHop > t.EnvelopeWindow {
		return fmt.Errorf("envelope_hop %v must not exceed envelope_window %v", t.EnvelopeHop, t.EnvelopeWindow)
	}

	if t.FallbackVolume < 0.0 || t.FallbackVolume > 1.0 {
		return fmt.Errorf("fallback_volume must be between 0.0 and 1.0, got %f", t.FallbackVolume)
	}

	if t.TickInterval < time.Millisecond || t.TickInterval > time.Second {
		return fmt.Errorf("tick_interval must be between 1ms and 1s, got %v", t.TickInterval)
	}

	return nil
}

// Validate checks if the ElevenLabs configuration is valid.
func (c *ElevenLabsConfig) Validate() error {
	if c.Voice == "" {
		return fmt.Errorf("voice cannot be empty")
	}

	if c.Stability < 0.0 || c.Stability > 1.0 {
		return fmt.Errorf("stability must be between 0.0 and 1.0, got %f", c.Stability)
	}

	if c.SimilarityBoost < 0.0 || c.SimilarityBoost > 1.0 {
		return fmt.Errorf("similarity_boost must be between 0.0 and 1.0, got %f", c.SimilarityBoost)
	}

	if c.Style < 0.0 || c.Style > 1.0 {
		return fmt.Errorf("style must be between 0.0 and 1.0, got %f", c.Style)
	}

	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}

	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("piper binary path cannot be empty")
	}

	if c.Model == "" {
		return fmt.Errorf("piper model cannot be empty")
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}

	if c.LengthScale <= 0 || c.LengthScale > 3.0 {
		return fmt.Errorf("length_scale must be between 0.1 and 3.0, got %f", c.LengthScale)
	}

	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}

	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}

	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("words_per_minute must be between 50 and 500, got %d", c.WordsPerMinute)
	}

	return nil
}
