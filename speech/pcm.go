package speech

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeSamples converts an Audio clip into normalized mono float64 samples
// in [-1,1] for envelope extraction. Multi-channel audio is downmixed by
// averaging channels. The returned rate is the clip's sample rate.
func DecodeSamples(a *Audio) ([]float64, int, error) {
	if a == nil || len(a.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: no audio data", ErrDecodeFailed)
	}

	data, rate, channels, err := PCM(a)
	if err != nil {
		return nil, 0, err
	}
	if rate <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidSampleRate, rate)
	}
	if channels < 1 {
		return nil, 0, fmt.Errorf("%w: %d channels", ErrDecodeFailed, channels)
	}
	if len(data)%(2*channels) != 0 {
		return nil, 0, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel frames", ErrTruncatedAudio, len(data), channels)
	}

	frames := len(data) / (2 * channels)
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			s := int16(binary.LittleEndian.Uint16(data[off:]))
			sum += float64(s) / float64(math.MaxInt16)
		}
		samples[i] = sum / float64(channels)
	}

	return samples, rate, nil
}

// PCM returns the clip's raw 16-bit little-endian PCM bytes along with its
// sample rate and channel count, unwrapping a WAV container if present.
func PCM(a *Audio) ([]byte, int, int, error) {
	switch a.Format {
	case FormatPCM16:
		return a.Data, a.SampleRate, a.Channels, nil
	case FormatWAV:
		return parseWAV(a.Data)
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, a.Format)
	}
}

// parseWAV walks a RIFF/WAVE container and returns the 16-bit PCM payload.
// Only uncompressed 16-bit PCM is accepted; anything else is a format error.
func parseWAV(data []byte) ([]byte, int, int, error) {
	if len(data) < 12 {
		return nil, 0, 0, fmt.Errorf("%w: %d bytes is too short for a RIFF header", ErrTruncatedAudio, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}

	var (
		sampleRate int
		channels   int
		bitsPer    int
		sawFmt     bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, 0, 0, fmt.Errorf("%w: chunk %q claims %d bytes past end of data", ErrTruncatedAudio, id, size)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("%w: fmt chunk is %d bytes", ErrTruncatedAudio, size)
			}
			format := int(binary.LittleEndian.Uint16(data[body:]))
			if format != 1 { // PCM
				return nil, 0, 0, fmt.Errorf("%w: WAV audio format %d, want PCM", ErrUnsupportedFormat, format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitsPer = int(binary.LittleEndian.Uint16(data[body+14:]))
			if bitsPer != 16 {
				return nil, 0, 0, fmt.Errorf("%w: %d bits per sample, want 16", ErrUnsupportedFormat, bitsPer)
			}
			sawFmt = true
		case "data":
			if !sawFmt {
				return nil, 0, 0, fmt.Errorf("%w: data chunk before fmt chunk", ErrDecodeFailed)
			}
			return data[body : body+size], sampleRate, channels, nil
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	return nil, 0, 0, fmt.Errorf("%w: no data chunk", ErrTruncatedAudio)
}
