package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/avatarsync/speech"
)

func testConfig() speech.ElevenLabsConfig {
	cfg := speech.DefaultElevenLabsConfig()
	cfg.APIKey = "test-key"
	return cfg
}

func TestParseVoiceID(t *testing.T) {
	tests := []struct {
		voice string
		want  string
	}{
		{"Rachel (21m00Tcm4TlvDq8ikWAM)", "21m00Tcm4TlvDq8ikWAM"},
		{"21m00Tcm4TlvDq8ikWAM", "21m00Tcm4TlvDq8ikWAM"},
		{"Name With (Parens) (voiceid)", "voiceid"},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		if got := parseVoiceID(tt.voice); got != tt.want {
			t.Errorf("parseVoiceID(%q) = %q, want %q", tt.voice, got, tt.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	if _, err := New(cfg, 44100); !errors.Is(err, speech.ErrInvalidConfig) {
		t.Errorf("missing key error = %v, want %v", err, speech.ErrInvalidConfig)
	}

	if _, err := New(testConfig(), 8000); !errors.Is(err, speech.ErrInvalidConfig) {
		t.Errorf("unsupported rate error = %v, want %v", err, speech.ErrInvalidConfig)
	}

	if _, err := New(testConfig(), 44100); err != nil {
		t.Errorf("valid config failed: %v", err)
	}
}

func TestSynthesizeRequest(t *testing.T) {
	pcm := make([]byte, 400)
	var gotPath, gotQuery, gotKey string
	var gotBody synthesisRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		_, _ = w.Write(pcm)
	}))
	defer srv.Close()

	engine, err := New(testConfig(), 44100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	engine.SetBaseURL(srv.URL)

	audio, err := engine.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if gotPath != "/v1/text-to-speech/21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "output_format=pcm_44100" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotBody.Text != "hello there" || gotBody.ModelID != "eleven_multilingual_v2" {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.VoiceSettings.Stability != 0.5 || !gotBody.VoiceSettings.UseSpeakerBoost {
		t.Errorf("voice settings = %+v", gotBody.VoiceSettings)
	}

	if audio.Format != speech.FormatPCM16 || audio.SampleRate != 44100 || audio.Channels != 1 {
		t.Errorf("audio = %dHz/%dch %v, want 44100Hz mono pcm16", audio.SampleRate, audio.Channels, audio.Format)
	}
	if len(audio.Data) != len(pcm) {
		t.Errorf("got %d audio bytes, want %d", len(audio.Data), len(pcm))
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	engine, err := New(testConfig(), 44100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	engine.SetBaseURL(srv.URL)

	if _, err := engine.Synthesize(context.Background(), "hello"); !errors.Is(err, speech.ErrSynthesisFailed) {
		t.Errorf("error = %v, want %v", err, speech.ErrSynthesisFailed)
	}
}

func TestSynthesizeEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	engine, err := New(testConfig(), 44100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	engine.SetBaseURL(srv.URL)

	if _, err := engine.Synthesize(context.Background(), "hello"); !errors.Is(err, speech.ErrNoAudio) {
		t.Errorf("error = %v, want %v", err, speech.ErrNoAudio)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	engine, err := New(testConfig(), 44100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := engine.Synthesize(context.Background(), ""); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("error = %v, want %v", err, speech.ErrEmptyText)
	}
}

func TestSynthesizeHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	engine, err := New(testConfig(), 44100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	engine.SetBaseURL(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Synthesize(ctx, "hello"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
