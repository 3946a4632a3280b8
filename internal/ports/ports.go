package ports

import (
	"context"

	"parley/internal/domain"
)

// CaptureConfig describes how the microphone should be captured.
type CaptureConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// RecordingSession is a live microphone capture.
//
// Finalize stops the capture and returns everything recorded so far as one
// immutable clip. Discard tears the capture down without producing a clip.
// Either call releases the underlying device; both are safe to call once.
type RecordingSession interface {
	Finalize() (domain.Clip, error)
	Discard()
}

// AudioCapture creates microphone recording sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg CaptureConfig) (RecordingSession, error)
}

// SpeechGateway is the remote voice-agent backend: one base URL serving
// transcription, response generation, and speech synthesis.
type SpeechGateway interface {
	Transcribe(ctx context.Context, clip domain.Clip) (string, error)
	GenerateResponse(ctx context.Context, prompt string, history []domain.ConversationEntry) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Playback is one active synthesized reply being spoken.
type Playback interface {
	Pause()
	Resume()
	Stop()
}

// Player turns synthesized audio into an active playback. onDone fires once
// when the audio finishes on its own (not when stopped).
type Player interface {
	Play(wav []byte, onDone func()) (Playback, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	TranscriptReady(text string)
	ReplyReady(entry domain.ConversationEntry, spoken bool)
	SessionError(code domain.ErrorCode, detail string)
}
