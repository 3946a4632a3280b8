package usecase

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/domain"
)

// runPipeline takes one finalized clip through transcribe → generate →
// synthesize, strictly in sequence, every call bound to the scope's context.
// A superseded scope exits silently: the action that superseded it owns the
// visible state, so nothing is mutated on the way out.
func (c *SessionController) runPipeline(scope *processingScope, clip domain.Clip, history []domain.ConversationEntry) {
	defer close(scope.done)
	log := c.logger.With().Str("turn", scope.id).Logger()

	transcript, err := c.gateway.Transcribe(scope.ctx, clip)
	if err != nil {
		if scope.cancelled() {
			log.Debug().Msg("pipeline cancelled during transcription")
			return
		}
		log.Error().Err(err).Msg("transcription failed")
		c.applyFailure(scope, domain.ErrorCodeTranscription, domain.SessionReasonTranscriptionFailed, err)
		return
	}
	if !c.applyTranscript(scope, transcript) {
		return
	}

	reply, err := c.gateway.GenerateResponse(scope.ctx, transcript, history)
	if err != nil {
		if scope.cancelled() {
			log.Debug().Msg("pipeline cancelled during response generation")
			return
		}
		log.Error().Err(err).Msg("response generation failed")
		c.applyFailure(scope, domain.ErrorCodeResponse, domain.SessionReasonResponseFailed, err)
		return
	}

	// The textual exchange is recorded as soon as the response arrives; a
	// failed synthesis must not lose it.
	entry := domain.ConversationEntry{User: transcript, AI: reply}
	if !c.appendExchange(scope, entry) {
		return
	}

	audio, err := c.synthesizeWithRetry(scope, log, reply)
	if err != nil {
		if scope.cancelled() {
			log.Debug().Msg("pipeline cancelled during synthesis")
			return
		}
		log.Warn().Err(err).Msg("synthesis failed; falling back to text-only reply")
		c.events.SessionError(domain.ErrorCodeSynthesis, err.Error())
		c.applyReply(scope, entry, nil)
		return
	}

	c.applyReply(scope, entry, audio)
}

// synthesizeWithRetry calls the tts endpoint, re-issuing it after a
// server-suggested delay on rate limiting, at most MaxSynthesisRetries
// times. The wait honors scope cancellation. Exhausting the retry budget on
// rate limits surfaces a terminal synthesis error.
func (c *SessionController) synthesizeWithRetry(scope *processingScope, log zerolog.Logger, reply string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		audio, err := c.gateway.Synthesize(scope.ctx, reply)
		if err == nil {
			return audio, nil
		}
		if scope.cancelled() {
			return nil, scope.ctx.Err()
		}

		var rateLimited *domain.RateLimitedError
		if !errors.As(err, &rateLimited) {
			return nil, err
		}
		if attempt >= c.cfg.MaxSynthesisRetries {
			return nil, &domain.SynthesisError{Reason: rateLimited.Detail}
		}

		delay := retryDelay(rateLimited.Detail)
		log.Warn().Dur("delay", delay).Int("attempt", attempt+1).Msg("synthesis rate limited; waiting to retry")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-scope.ctx.Done():
			timer.Stop()
			return nil, scope.ctx.Err()
		}
	}
}

// applyTranscript publishes the pending transcript for immediate display.
// Returns false when the scope has been superseded.
func (c *SessionController) applyTranscript(scope *processingScope, transcript string) bool {
	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()
		return false
	}
	c.transcript = transcript
	c.mu.Unlock()

	c.events.TranscriptReady(transcript)
	return true
}

// appendExchange records one exchange in the conversation history, unless
// the scope has been superseded in the meantime.
func (c *SessionController) appendExchange(scope *processingScope, entry domain.ConversationEntry) bool {
	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()
		return false
	}
	c.history.Append(entry)
	c.mu.Unlock()
	return true
}

// applyFailure surfaces a fatal pipeline error and returns the session to
// idle, retaining any transcript already shown.
func (c *SessionController) applyFailure(scope *processingScope, code domain.ErrorCode, reason domain.SessionStateReason, err error) {
	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()
		return
	}
	c.scope = nil
	c.state = domain.SessionStateIdle
	c.message = err.Error()
	c.mu.Unlock()

	c.events.SessionError(code, err.Error())
	c.events.SessionStateChanged(domain.SessionStateIdle, reason)
}

// applyReply finishes a pipeline run: with audio it replaces the active
// playback and moves to speaking; without audio the reply is text-only and
// the session returns to idle.
func (c *SessionController) applyReply(scope *processingScope, entry domain.ConversationEntry, audio []byte) {
	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()
		return
	}
	c.scope = nil

	if audio == nil {
		c.state = domain.SessionStateIdle
		c.mu.Unlock()
		c.events.ReplyReady(entry, false)
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonTextOnlyReply)
		return
	}

	if c.playback != nil {
		c.playback.Stop()
		c.playback = nil
	}

	c.playGen++
	gen := c.playGen
	pb, err := c.player.Play(audio, func() { go c.playbackFinished(gen) })
	if err != nil {
		c.logger.Error().Err(err).Msg("reply playback failed to start")
		c.state = domain.SessionStateIdle
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
		c.events.ReplyReady(entry, false)
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonTextOnlyReply)
		return
	}
	c.playback = pb
	c.state = domain.SessionStateSpeaking
	c.mu.Unlock()

	c.events.ReplyReady(entry, true)
	c.events.SessionStateChanged(domain.SessionStateSpeaking, domain.SessionReasonResponding)
}
