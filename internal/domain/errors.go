package domain

import (
	"errors"
	"fmt"
)

// ErrMicrophoneUnavailable means capture could not start: permission denied,
// no input device, or the recorder process failed to launch.
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

// ErrEmptyCapture means a recording was stopped before any audio data was
// captured. The processing pipeline must not run for such a recording.
var ErrEmptyCapture = errors.New("no audio captured")

// TranscriptionError means the transcribe step failed or produced no usable
// text. It aborts the pipeline.
type TranscriptionError struct {
	Reason string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %s", e.Reason)
}

// ResponseError means the response-generation step failed. It aborts the
// pipeline.
type ResponseError struct {
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("response generation failed: %s", e.Reason)
}

// SynthesisError means text-to-speech failed for a reason other than rate
// limiting, or after retries were exhausted. Callers degrade to a text-only
// reply rather than failing the whole exchange.
type SynthesisError struct {
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %s", e.Reason)
}

// RateLimitedError is the transient too-many-requests signal from the
// synthesis endpoint. Detail usually embeds a server-suggested wait such as
// "Please try again in 1m30.5s".
type RateLimitedError struct {
	Detail string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("synthesis rate limited: %s", e.Detail)
}
