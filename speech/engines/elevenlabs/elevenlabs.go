// Package elevenlabs synthesizes speech through the ElevenLabs HTTP API,
// requesting raw PCM output so no decoding step sits between the network
// response and playback.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgnsrekt/avatarsync/speech"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// pcmFormats maps the sample rates the API offers as raw PCM output.
var pcmFormats = map[int]string{
	16000: "pcm_16000",
	22050: "pcm_22050",
	24000: "pcm_24000",
	44100: "pcm_44100",
}

// Engine is the ElevenLabs synthesizer.
type Engine struct {
	config     speech.ElevenLabsConfig
	voiceID    string
	sampleRate int
	baseURL    string
	client     *http.Client
}

// New creates an ElevenLabs engine producing PCM at the given sample rate.
func New(config speech.ElevenLabsConfig, sampleRate int) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrInvalidConfig, err)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: elevenlabs api key is not set", speech.ErrInvalidConfig)
	}
	if _, ok := pcmFormats[sampleRate]; !ok {
		return nil, fmt.Errorf("%w: elevenlabs cannot produce PCM at %dHz", speech.ErrInvalidConfig, sampleRate)
	}

	return &Engine{
		config:     config,
		voiceID:    parseVoiceID(config.Voice),
		sampleRate: sampleRate,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: config.Timeout},
	}, nil
}

// parseVoiceID extracts the id from a "Name (id)" voice string; a bare id
// passes through untouched.
func parseVoiceID(voice string) string {
	open := strings.LastIndex(voice, "(")
	end := strings.LastIndex(voice, ")")
	if open >= 0 && end > open {
		return strings.TrimSpace(voice[open+1 : end])
	}
	return strings.TrimSpace(voice)
}

// Name identifies the backend in logs.
func (e *Engine) Name() string { return "elevenlabs" }

// SetBaseURL overrides the API endpoint. Used by tests.
func (e *Engine) SetBaseURL(url string) {
	e.baseURL = strings.TrimRight(url, "/")
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize calls the text-to-speech endpoint and returns the response
// body as a mono PCM clip.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.config.Stability,
			SimilarityBoost: e.config.SimilarityBoost,
			Style:           e.config.Style,
			UseSpeakerBoost: e.config.SpeakerBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %s", speech.ErrSynthesisFailed, err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, e.voiceID, pcmFormats[e.sampleRate])
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %s", speech.ErrSynthesisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: elevenlabs returned %d: %s",
			speech.ErrSynthesisFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio: %s", speech.ErrSynthesisFailed, err)
	}
	if len(data) == 0 {
		return nil, speech.ErrNoAudio
	}
	if len(data)%2 != 0 {
		data = append(data, 0)
	}

	return &speech.Audio{
		Data:       data,
		Format:     speech.FormatPCM16,
		SampleRate: e.sampleRate,
		Channels:   1,
	}, nil
}
