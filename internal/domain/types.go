package domain

// SessionState models the voice interaction lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateRecording  SessionState = "recording"
	SessionStateProcessing SessionState = "processing"
	SessionStateSpeaking   SessionState = "speaking"
	SessionStatePaused     SessionState = "paused"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady               SessionStateReason = "ready"
	SessionReasonRecordingStarted    SessionStateReason = "recording_started"
	SessionReasonRecordingRestarted  SessionStateReason = "recording_restarted"
	SessionReasonProcessing          SessionStateReason = "processing"
	SessionReasonEmptyCapture        SessionStateReason = "empty_capture"
	SessionReasonMicUnavailable      SessionStateReason = "mic_unavailable"
	SessionReasonResponding          SessionStateReason = "responding"
	SessionReasonTextOnlyReply       SessionStateReason = "text_only_reply"
	SessionReasonPlaybackFinished    SessionStateReason = "playback_finished"
	SessionReasonPlaybackPaused      SessionStateReason = "playback_paused"
	SessionReasonPlaybackResumed     SessionStateReason = "playback_resumed"
	SessionReasonTranscriptionFailed SessionStateReason = "transcription_failed"
	SessionReasonResponseFailed      SessionStateReason = "response_failed"
	SessionReasonInteractionEnded    SessionStateReason = "interaction_ended"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeMicrophone    ErrorCode = "microphone"
	ErrorCodeEmptyCapture  ErrorCode = "empty_capture"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeResponse      ErrorCode = "response"
	ErrorCodeSynthesis     ErrorCode = "synthesis"
	ErrorCodePlayback      ErrorCode = "playback"
)

// Clip is one finalized, immutable unit of captured audio.
type Clip struct {
	WAV        []byte
	SampleRate int
	Channels   int
}

// ConversationEntry is one completed user/AI exchange.
type ConversationEntry struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}

// Status summarizes the current runtime status for the UI.
type Status struct {
	State      SessionState `json:"state"`
	Message    string       `json:"message,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
}
