package speech

import "errors"

// Common errors for the speech pipeline.
var (
	// Queue errors
	ErrQueueClosed = errors.New("speech queue is closed")
	ErrEmptyText   = errors.New("utterance text is empty")

	// Synthesis errors
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	ErrNoAudio         = errors.New("synthesizer returned no audio")

	// Envelope/decode errors
	ErrDecodeFailed      = errors.New("audio decode failed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrTruncatedAudio    = errors.New("audio data is truncated")

	// Playback errors
	ErrDeviceFailed  = errors.New("audio device failed")
	ErrNotPlaying    = errors.New("no audio is playing")
	ErrAlreadyLoaded = errors.New("clip is already loaded")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsRecoverableError reports whether the queue consumer can continue after
// the given error. Everything that only affects a single utterance is
// recoverable; only shutdown and configuration errors are not.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrQueueClosed),
		errors.Is(err, ErrInvalidConfig):
		return false
	}

	return true
}

// SpeechError wraps an error with the component and utterance it came from.
type SpeechError struct {
	Err       error  // The underlying error
	Component string // Component that generated the error
	Action    string // Action being performed when the error occurred
	Utterance uint64 // Utterance id, 0 when not tied to one
}

// Error implements the error interface.
func (e *SpeechError) Error() string {
	if e.Err != nil {
		return e.Component + ": " + e.Action + ": " + e.Err.Error()
	}
	return e.Component + ": " + e.Action + ": unknown error"
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Err
}

// newSpeechError creates a wrapped error with component context.
func newSpeechError(err error, component, action string, utterance uint64) *SpeechError {
	return &SpeechError{
		Err:       err,
		Component: component,
		Action:    action,
		Utterance: utterance,
	}
}
