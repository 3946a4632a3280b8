package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"parley/internal/bootstrap"
	"parley/internal/config"
	"parley/internal/domain"
	"parley/internal/usecase"
)

const (
	eventSession    = "parley:session"
	eventTranscript = "parley:transcript"
	eventReply      = "parley:reply"
	eventError      = "parley:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

// StartRecording begins capturing the user's next utterance. Speaking again
// while a previous turn is recording or processing interrupts it.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.StartRecording(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// StopRecording finalizes the utterance and starts processing it.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.StopRecording(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// PauseSpeech pauses the reply currently being spoken.
func (a *App) PauseSpeech() domain.Status {
	if err := a.requireReady(); err != nil {
		return domain.Status{State: domain.SessionStateIdle}
	}
	a.controller.PauseSpeech()
	return a.controller.Status()
}

// ResumeSpeech resumes a paused reply.
func (a *App) ResumeSpeech() domain.Status {
	if err := a.requireReady(); err != nil {
		return domain.Status{State: domain.SessionStateIdle}
	}
	a.controller.ResumeSpeech()
	return a.controller.Status()
}

// EndInteraction tears everything down and starts a fresh conversation.
func (a *App) EndInteraction() domain.Status {
	if err := a.requireReady(); err != nil {
		return domain.Status{State: domain.SessionStateIdle}
	}
	a.controller.EndInteraction()
	return a.controller.Status()
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateIdle, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	return a.controller.Status()
}

// GetHistory returns the conversation so far.
func (a *App) GetHistory() []domain.ConversationEntry {
	if a.controller == nil {
		return nil
	}
	return a.controller.History()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"agentBaseURL":     a.cfg.Agent.BaseURL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// TranscriptReady emits the recognized utterance for immediate display.
func (a *App) TranscriptReady(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// ReplyReady emits one completed exchange; spoken reports whether audio
// playback accompanies the text.
func (a *App) ReplyReady(entry domain.ConversationEntry, spoken bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventReply, map[string]any{
		"user":   entry.User,
		"ai":     entry.AI,
		"spoken": spoken,
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Listening..."
	case domain.SessionReasonRecordingRestarted:
		return "Listening again; previous turn discarded"
	case domain.SessionReasonProcessing:
		return "Thinking..."
	case domain.SessionReasonEmptyCapture:
		return "No audio captured"
	case domain.SessionReasonMicUnavailable:
		return "Microphone unavailable"
	case domain.SessionReasonResponding:
		return "Responding..."
	case domain.SessionReasonTextOnlyReply:
		return "Response received (voice unavailable)"
	case domain.SessionReasonPlaybackFinished:
		return "Ready"
	case domain.SessionReasonPlaybackPaused:
		return "Paused"
	case domain.SessionReasonPlaybackResumed:
		return "Responding..."
	case domain.SessionReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.SessionReasonResponseFailed:
		return "Response generation failed"
	case domain.SessionReasonInteractionEnded:
		return "Conversation ended"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeMicrophone:
		return "Could not access the microphone"
	case domain.ErrorCodeEmptyCapture:
		return "Nothing was recorded"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeResponse:
		return "Response error"
	case domain.ErrorCodeSynthesis:
		return "Voice synthesis failed"
	case domain.ErrorCodePlayback:
		return "Playback failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
