package speech

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	// Global speech settings
	if viper.IsSet("speech.engine") {
		cfg.Engine = viper.GetString("speech.engine")
	}

	// Audio settings
	if viper.IsSet("speech.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.sample_rate")
	}
	if viper.IsSet("speech.channels") {
		cfg.Channels = viper.GetInt("speech.channels")
	}
	if viper.IsSet("speech.volume") {
		cfg.Volume = viper.GetFloat64("speech.volume")
	}

	// Activity detection settings
	cfg.Tuning = loadTuning()

	// Load ElevenLabs config
	cfg.ElevenLabs = loadElevenLabsConfig()

	// Load Piper config
	cfg.Piper = loadPiperConfig()

	// Load Mock config
	cfg.Mock = loadMockConfig()

	// Validate the loaded configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}

	return cfg, nil
}

// loadTuning loads activity-detection tunables from Viper.
func loadTuning() Tuning {
	t := DefaultTuning()

	if viper.IsSet("speech.tuning.volume_threshold") {
		t.VolumeThreshold = viper.GetFloat64("speech.tuning.volume_threshold")
	}
	if viper.IsSet("speech.tuning.min_active_dwell") {
		if d, err := time.ParseDuration(viper.GetString("speech.tuning.min_active_dwell")); err == nil {
			t.MinActiveDwell = d
		}
	}
	if viper.IsSet("speech.tuning.min_silent_dwell") {
		if d, err := time.ParseDuration(viper.GetString("speech.tuning.min_silent_dwell")); err == nil {
			t.MinSilentDwell = d
		}
	}
	if viper.IsSet("speech.tuning.smoothing_window") {
		t.SmoothingWindow = viper.GetInt("speech.tuning.smoothing_window")
	}
	if viper.IsSet("speech.tuning.envelope_window") {
		if d, err := time.ParseDuration(viper.GetString("speech.tuning.envelope_window")); err == nil {
			t.EnvelopeWindow = d
		}
	}
	if viper.IsSet("speech.tuning.envelope_hop") {
		if d, err := time.ParseDuration(viper.GetString("speech.tuning.envelope_hop")); err == nil {
			t.EnvelopeHop = d
		}
	}
	if viper.IsSet("speech.tuning.fallback_volume") {
		t.FallbackVolume = viper.GetFloat64("speech.tuning.fallback_volume")
	}
	if viper.IsSet("speech.tuning.tick_interval") {
		if d, err := time.ParseDuration(viper.GetString("speech.tuning.tick_interval")); err == nil {
			t.TickInterval = d
		}
	}

	return t
}

// loadElevenLabsConfig loads ElevenLabs-specific configuration from Viper.
func loadElevenLabsConfig() ElevenLabsConfig {
	cfg := DefaultElevenLabsConfig()

	if viper.IsSet("speech.elevenlabs.api_key") {
		cfg.APIKey = viper.GetString("speech.elevenlabs.api_key")
	}
	if viper.IsSet("speech.elevenlabs.voice") {
		cfg.Voice = viper.GetString("speech.elevenlabs.voice")
	}
	if viper.IsSet("speech.elevenlabs.model_id") {
		cfg.ModelID = viper.GetString("speech.elevenlabs.model_id")
	}
	if viper.IsSet("speech.elevenlabs.stability") {
		cfg.Stability = viper.GetFloat64("speech.elevenlabs.stability")
	}
	if viper.IsSet("speech.elevenlabs.similarity_boost") {
		cfg.SimilarityBoost = viper.GetFloat64("speech.elevenlabs.similarity_boost")
	}
	if viper.IsSet("speech.elevenlabs.style") {
		cfg.Style = viper.GetFloat64("speech.elevenlabs.style")
	}
	if viper.IsSet("speech.elevenlabs.speaker_boost") {
		cfg.SpeakerBoost = viper.GetBool("speech.elevenlabs.speaker_boost")
	}
	if viper.IsSet("speech.elevenlabs.timeout") {
		if d, err := time.ParseDuration(viper.GetString("speech.elevenlabs.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig() PiperConfig {
	cfg := DefaultPiperConfig()

	if viper.IsSet("speech.piper.binary") {
		cfg.Binary = viper.GetString("speech.piper.binary")
	}
	if viper.IsSet("speech.piper.model") {
		cfg.Model = viper.GetString("speech.piper.model")
	}
	if viper.IsSet("speech.piper.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.piper.sample_rate")
	}
	if viper.IsSet("speech.piper.length_scale") {
		cfg.LengthScale = viper.GetFloat64("speech.piper.length_scale")
	}
	if viper.IsSet("speech.piper.timeout") {
		if d, err := time.ParseDuration(viper.GetString("speech.piper.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// loadMockConfig loads Mock-specific configuration from Viper.
func loadMockConfig() MockConfig {
	cfg := DefaultMockConfig()

	if viper.IsSet("speech.mock.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.mock.sample_rate")
	}
	if viper.IsSet("speech.mock.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("speech.mock.words_per_minute")
	}
	if viper.IsSet("speech.mock.generation_delay") {
		if d, err := time.ParseDuration(viper.GetString("speech.mock.generation_delay")); err == nil {
			cfg.GenerationDelay = d
		}
	}

	return cfg
}

// SetDefaults sets default values in Viper for speech configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	// Global speech settings
	viper.SetDefault("speech.engine", defaults.Engine)
	viper.SetDefault("speech.sample_rate", defaults.SampleRate)
	viper.SetDefault("speech.channels", defaults.Channels)
	viper.SetDefault("speech.volume", defaults.Volume)

	// Activity detection defaults
	viper.SetDefault("speech.tuning.volume_threshold", defaults.Tuning.VolumeThreshold)
	viper.SetDefault("speech.tuning.min_active_dwell", defaults.Tuning.MinActiveDwell.String())
	viper.SetDefault("speech.tuning.min_silent_dwell", defaults.Tuning.MinSilentDwell.String())
	viper.SetDefault("speech.tuning.smoothing_window", defaults.Tuning.SmoothingWindow)
	viper.SetDefault("speech.tuning.envelope_window", defaults.Tuning.EnvelopeWindow.String())
	viper.SetDefault("speech.tuning.envelope_hop", defaults.Tuning.EnvelopeHop.String())
	viper.SetDefault("speech.tuning.fallback_volume", defaults.Tuning.FallbackVolume)
	viper.SetDefault("speech.tuning.tick_interval", defaults.Tuning.TickInterval.String())

	// ElevenLabs defaults
	viper.SetDefault("speech.elevenlabs.voice", defaults.ElevenLabs.Voice)
	viper.SetDefault("speech.elevenlabs.model_id", defaults.ElevenLabs.ModelID)
	viper.SetDefault("speech.elevenlabs.stability", defaults.ElevenLabs.Stability)
	viper.SetDefault("speech.elevenlabs.similarity_boost", defaults.ElevenLabs.SimilarityBoost)
	viper.SetDefault("speech.elevenlabs.style", defaults.ElevenLabs.Style)
	viper.SetDefault("speech.elevenlabs.speaker_boost", defaults.ElevenLabs.SpeakerBoost)
	viper.SetDefault("speech.elevenlabs.timeout", defaults.ElevenLabs.Timeout.String())

	// Piper defaults
	viper.SetDefault("speech.piper.binary", defaults.Piper.Binary)
	viper.SetDefault("speech.piper.model", defaults.Piper.Model)
	viper.SetDefault("speech.piper.sample_rate", defaults.Piper.SampleRate)
	viper.SetDefault("speech.piper.length_scale", defaults.Piper.LengthScale)
	viper.SetDefault("speech.piper.timeout", defaults.Piper.Timeout.String())

	// Mock defaults
	viper.SetDefault("speech.mock.sample_rate", defaults.Mock.SampleRate)
	viper.SetDefault("speech.mock.words_per_minute", defaults.Mock.WordsPerMinute)
	viper.SetDefault("speech.mock.generation_delay", defaults.Mock.GenerationDelay.String())
}
