package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"parley/internal/conversation"
	"parley/internal/domain"
	"parley/internal/ports"
)

// Config controls recording and retry behavior.
type Config struct {
	Capture             ports.CaptureConfig
	MaxSynthesisRetries int
}

// SessionController orchestrates the voice interaction lifecycle: recording,
// the three-step processing pipeline, and reply playback.
//
// It is the single writer of the recording session, the cancellation scope,
// and the playback handle; every replacement releases the previous resource
// before assigning the new one.
type SessionController struct {
	capture ports.AudioCapture
	gateway ports.SpeechGateway
	player  ports.Player
	events  ports.EventSink
	history *conversation.Log
	cfg     Config
	logger  zerolog.Logger

	mu         sync.Mutex
	state      domain.SessionState
	message    string
	transcript string
	recording  ports.RecordingSession
	scope      *processingScope
	playback   ports.Playback
	playGen    uint64
}

func NewSessionController(
	capture ports.AudioCapture,
	gateway ports.SpeechGateway,
	player ports.Player,
	events ports.EventSink,
	cfg Config,
	logger zerolog.Logger,
) *SessionController {
	if cfg.MaxSynthesisRetries <= 0 {
		cfg.MaxSynthesisRetries = 3
	}
	return &SessionController{
		state:   domain.SessionStateIdle,
		capture: capture,
		gateway: gateway,
		player:  player,
		events:  events,
		history: conversation.NewLog(),
		cfg:     cfg,
		logger:  logger.With().Str("component", "controller").Logger(),
	}
}

// StartRecording begins a new capture session. Speaking again while a
// previous recording or processing run is live supersedes it: the old
// recording is discarded and its cancellation scope invalidated before any
// new work begins.
func (c *SessionController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	prevRecording := c.recording
	prevScope := c.scope
	c.recording = nil
	c.scope = nil
	if prevScope != nil {
		prevScope.cancel()
	}
	c.mu.Unlock()

	if prevRecording != nil {
		prevRecording.Discard()
	}

	session, err := c.capture.Start(ctx, c.cfg.Capture)
	if err != nil {
		c.logger.Error().Err(err).Msg("microphone capture failed to start")
		c.mu.Lock()
		c.state = domain.SessionStateIdle
		c.message = err.Error()
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeMicrophone, err.Error())
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonMicUnavailable)
		return err
	}

	reason := domain.SessionReasonRecordingStarted
	if prevRecording != nil || prevScope != nil {
		reason = domain.SessionReasonRecordingRestarted
	}

	c.mu.Lock()
	c.recording = session
	c.state = domain.SessionStateRecording
	c.message = ""
	c.transcript = ""
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateRecording, reason)
	return nil
}

// StopRecording finalizes the capture into one clip and hands it to the
// processing pipeline under a fresh cancellation scope. It is a no-op when
// no recording is in progress. A recording that captured no audio transitions
// back to idle without invoking the pipeline.
func (c *SessionController) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.SessionStateRecording || c.recording == nil {
		c.mu.Unlock()
		return nil
	}
	rec := c.recording
	c.recording = nil
	c.mu.Unlock()

	clip, err := rec.Finalize()
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyCapture) {
			c.logger.Error().Err(err).Msg("capture finalize failed")
		}
		c.mu.Lock()
		c.state = domain.SessionStateIdle
		c.message = err.Error()
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeEmptyCapture, err.Error())
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonEmptyCapture)
		return err
	}

	scope := newProcessingScope(ctx)
	c.mu.Lock()
	c.scope = scope
	c.state = domain.SessionStateProcessing
	history := c.history.Snapshot()
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateProcessing, domain.SessionReasonProcessing)
	go c.runPipeline(scope, clip, history)
	return nil
}

// PauseSpeech pauses an active reply playback. No-op outside the speaking
// state, including while processing.
func (c *SessionController) PauseSpeech() {
	c.mu.Lock()
	if c.state != domain.SessionStateSpeaking || c.playback == nil {
		c.mu.Unlock()
		return
	}
	c.state = domain.SessionStatePaused
	pb := c.playback
	c.mu.Unlock()

	pb.Pause()
	c.events.SessionStateChanged(domain.SessionStatePaused, domain.SessionReasonPlaybackPaused)
}

// ResumeSpeech resumes a paused reply playback.
func (c *SessionController) ResumeSpeech() {
	c.mu.Lock()
	if c.state != domain.SessionStatePaused || c.playback == nil {
		c.mu.Unlock()
		return
	}
	c.state = domain.SessionStateSpeaking
	pb := c.playback
	c.mu.Unlock()

	pb.Resume()
	c.events.SessionStateChanged(domain.SessionStateSpeaking, domain.SessionReasonPlaybackResumed)
}

// EndInteraction returns the session to idle from any state: the recording,
// playback, and cancellation scope are torn down, and the pending transcript
// and conversation history cleared.
func (c *SessionController) EndInteraction() {
	c.mu.Lock()
	scope := c.scope
	rec := c.recording
	pb := c.playback
	c.scope = nil
	c.recording = nil
	c.playback = nil
	c.state = domain.SessionStateIdle
	c.message = ""
	c.transcript = ""
	c.mu.Unlock()

	if scope != nil {
		scope.cancel()
	}
	if rec != nil {
		rec.Discard()
	}
	if pb != nil {
		pb.Stop()
	}
	c.history.Reset()

	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonInteractionEnded)
}

// Status returns the current session status.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:      c.state,
		Message:    c.message,
		Transcript: c.transcript,
	}
}

// History returns the conversation so far in append order.
func (c *SessionController) History() []domain.ConversationEntry {
	return c.history.Snapshot()
}

func (c *SessionController) playbackFinished(gen uint64) {
	c.mu.Lock()
	if c.playGen != gen || c.playback == nil {
		c.mu.Unlock()
		return
	}
	c.playback = nil
	if c.state != domain.SessionStateSpeaking && c.state != domain.SessionStatePaused {
		c.mu.Unlock()
		return
	}
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonPlaybackFinished)
}
