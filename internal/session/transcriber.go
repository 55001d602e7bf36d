package session

import (
	"context"
	"errors"
)

var (
	// ErrTranscriberUnavailable indicates the transcription endpoint could
	// not be reached or answered with a failure.
	ErrTranscriberUnavailable = errors.New("transcription service unavailable")
	// ErrEmptyTranscript indicates transcription completed but no usable
	// speech was recognized.
	ErrEmptyTranscript = errors.New("no speech recognized; check microphone input or mute state")
)

// Result is the transcriber output consumed by the session controller.
type Result struct {
	Text     string
	NoSpeech bool
}

// Transcriber converts one finished session buffer (16kHz mono float32)
// into text. It is invoked once per completed recording; retry and timeout
// policy belong to the implementation.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, language string, sensitivity string) (Result, error)
}
