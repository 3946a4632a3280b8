package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog"

	"parley/internal/ports"
)

// BeepPlayer plays synthesized WAV replies through the system speaker.
//
// The speaker is initialized lazily with the sample rate of the first clip;
// later clips at a different rate are resampled.
type BeepPlayer struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	logger      zerolog.Logger
}

var _ ports.Player = (*BeepPlayer)(nil)

func NewBeepPlayer(logger zerolog.Logger) *BeepPlayer {
	return &BeepPlayer{logger: logger.With().Str("component", "playback").Logger()}
}

// Play decodes one synthesized clip and starts speaking it. onDone fires from
// the speaker goroutine when the clip drains on its own; it must not touch
// the speaker lock.
func (p *BeepPlayer) Play(wavBytes []byte, onDone func()) (ports.Playback, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(wavBytes))
	if err != nil {
		p.logger.Error().Err(err).Int("bytes", len(wavBytes)).Msg("could not decode synthesized audio")
		return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}

	p.mu.Lock()
	if !p.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			p.mu.Unlock()
			_ = streamer.Close()
			return nil, fmt.Errorf("failed to open speaker: %w", err)
		}
		p.sampleRate = format.SampleRate
		p.initialized = true
	}
	rate := p.sampleRate
	p.mu.Unlock()

	var src beep.Streamer = streamer
	if format.SampleRate != rate {
		src = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	ctrl := &beep.Ctrl{Streamer: beep.Seq(src, beep.Callback(onDone))}
	speaker.Play(ctrl)
	return &beepPlayback{ctrl: ctrl, streamer: streamer}, nil
}

type beepPlayback struct {
	ctrl      *beep.Ctrl
	streamer  beep.StreamSeekCloser
	closeOnce sync.Once
}

func (b *beepPlayback) Pause() {
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
}

func (b *beepPlayback) Resume() {
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
}

// Stop detaches the clip from the speaker; the completion callback will not
// fire afterwards.
func (b *beepPlayback) Stop() {
	speaker.Lock()
	b.ctrl.Streamer = nil
	speaker.Unlock()
	b.closeOnce.Do(func() { _ = b.streamer.Close() })
}
