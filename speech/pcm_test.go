package speech

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// buildWAV wraps raw 16-bit PCM in a minimal RIFF/WAVE container.
func buildWAV(pcm []byte, rate, channels int) []byte {
	blockAlign := channels * 2
	out := make([]byte, 0, 44+len(pcm))

	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(rate))
	out = binary.LittleEndian.AppendUint32(out, uint32(rate*blockAlign))
	out = binary.LittleEndian.AppendUint16(out, uint16(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, 16)

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)

	return out
}

func int16PCM(values ...int16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

func TestDecodeSamplesPCM16(t *testing.T) {
	audio := &Audio{
		Data:       int16PCM(0, math.MaxInt16, math.MinInt16+1, math.MaxInt16/2),
		Format:     FormatPCM16,
		SampleRate: 8000,
		Channels:   1,
	}

	samples, rate, err := DecodeSamples(audio)
	if err != nil {
		t.Fatalf("DecodeSamples failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("rate = %d, want 8000", rate)
	}

	want := []float64{0, 1, -1, 0.5}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-3 {
			t.Errorf("sample %d = %f, want %f", i, samples[i], want[i])
		}
	}
}

func TestDecodeSamplesStereoDownmix(t *testing.T) {
	// L=max, R=0 in each frame averages to 0.5.
	audio := &Audio{
		Data:       int16PCM(math.MaxInt16, 0, math.MaxInt16, 0),
		Format:     FormatPCM16,
		SampleRate: 44100,
		Channels:   2,
	}

	samples, _, err := DecodeSamples(audio)
	if err != nil {
		t.Fatalf("DecodeSamples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d frames, want 2", len(samples))
	}
	for i, s := range samples {
		if math.Abs(s-0.5) > 1e-3 {
			t.Errorf("frame %d = %f, want 0.5", i, s)
		}
	}
}

func TestDecodeSamplesWAVRoundtrip(t *testing.T) {
	pcm := int16PCM(100, -200, 300, -400)
	audio := &Audio{
		Data:   buildWAV(pcm, 22050, 1),
		Format: FormatWAV,
	}

	samples, rate, err := DecodeSamples(audio)
	if err != nil {
		t.Fatalf("DecodeSamples failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("rate = %d, want 22050", rate)
	}
	if len(samples) != 4 {
		t.Errorf("got %d samples, want 4", len(samples))
	}
}

func TestDecodeSamplesErrors(t *testing.T) {
	tests := []struct {
		name  string
		audio *Audio
		want  error
	}{
		{
			name:  "nil audio",
			audio: nil,
			want:  ErrDecodeFailed,
		},
		{
			name:  "empty data",
			audio: &Audio{Format: FormatPCM16, SampleRate: 8000, Channels: 1},
			want:  ErrDecodeFailed,
		},
		{
			name: "odd byte count",
			audio: &Audio{
				Data:       []byte{1, 2, 3},
				Format:     FormatPCM16,
				SampleRate: 8000,
				Channels:   1,
			},
			want: ErrTruncatedAudio,
		},
		{
			name: "unknown format",
			audio: &Audio{
				Data:       int16PCM(1, 2),
				Format:     AudioFormat(99),
				SampleRate: 8000,
				Channels:   1,
			},
			want: ErrUnsupportedFormat,
		},
		{
			name: "zero sample rate",
			audio: &Audio{
				Data:       int16PCM(1, 2),
				Format:     FormatPCM16,
				SampleRate: 0,
				Channels:   1,
			},
			want: ErrInvalidSampleRate,
		},
		{
			name: "wav header only",
			audio: &Audio{
				Data:   []byte("RIFF"),
				Format: FormatWAV,
			},
			want: ErrTruncatedAudio,
		},
		{
			name: "not a wav",
			audio: &Audio{
				Data:   []byte("this is definitely not RIFF audio"),
				Format: FormatWAV,
			},
			want: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeSamples(tt.audio)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseWAVTruncatedData(t *testing.T) {
	wav := buildWAV(int16PCM(1, 2, 3, 4), 8000, 1)

	// Cut the data chunk short of its declared size.
	_, _, _, err := parseWAV(wav[:len(wav)-3])
	if !errors.Is(err, ErrTruncatedAudio) {
		t.Errorf("error = %v, want %v", err, ErrTruncatedAudio)
	}
}

func TestParseWAVNonPCMFormat(t *testing.T) {
	wav := buildWAV(int16PCM(1, 2), 8000, 1)

	// Flip the audio format field to IEEE float.
	binary.LittleEndian.PutUint16(wav[20:], 3)

	_, _, _, err := parseWAV(wav)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want %v", err, ErrUnsupportedFormat)
	}
}
