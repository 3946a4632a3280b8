package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/domain"
	"parley/internal/ports"
)

// FFMPEGCapture records microphone PCM audio using ffmpeg.
type FFMPEGCapture struct {
	command string
	logger  zerolog.Logger
}

func NewFFMPEGCapture(command string, logger zerolog.Logger) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{
		command: command,
		logger:  logger.With().Str("component", "capture").Logger(),
	}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.CaptureConfig) (ports.RecordingSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create recorder pipe: %v", domain.ErrMicrophoneUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start recorder: %v", domain.ErrMicrophoneUnavailable, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		detail := trimmed(stderr.String())
		c.logger.Error().Str("stderr", detail).Msg("recorder exited before capture started")
		if err != nil {
			return nil, fmt.Errorf("%w: recorder exited: %v: %s", domain.ErrMicrophoneUnavailable, err, detail)
		}
		return nil, fmt.Errorf("%w: recorder exited before capture started", domain.ErrMicrophoneUnavailable)
	case <-time.After(250 * time.Millisecond):
	}

	session := &ffmpegSession{
		stdout:     stdout,
		stderr:     &stderr,
		process:    cmd.Process,
		waitErr:    waitErr,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		readDone:   make(chan struct{}),
		logger:     c.logger,
	}
	go session.accumulate()
	return session, nil
}

type ffmpegSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	sampleRate int
	channels   int

	mu  sync.Mutex
	pcm []byte

	readDone chan struct{}
	stopOnce sync.Once
	stopErr  error

	logger zerolog.Logger
}

// accumulate drains recorder output into the fragment buffer until the
// process stops or the pipe closes.
func (s *ffmpegSession) accumulate() {
	defer close(s.readDone)

	buf := make([]byte, 4096)
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.pcm = append(s.pcm, buf[:n]...)
			s.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Warn().Err(err).Msg("recorder read ended abnormally")
			}
			return
		}
	}
}

// Finalize stops the recorder and returns the accumulated audio as one WAV
// clip. Zero captured bytes is reported as domain.ErrEmptyCapture.
func (s *ffmpegSession) Finalize() (domain.Clip, error) {
	if err := s.stop(); err != nil {
		s.logger.Warn().Err(err).Msg("recorder did not stop cleanly")
	}

	s.mu.Lock()
	pcm := s.pcm
	s.pcm = nil
	s.mu.Unlock()

	if len(pcm) == 0 {
		return domain.Clip{}, domain.ErrEmptyCapture
	}
	return domain.Clip{
		WAV:        encodeWAV(pcm, s.sampleRate, s.channels),
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}, nil
}

// Discard stops the recorder and drops everything captured so far.
func (s *ffmpegSession) Discard() {
	_ = s.stop()
	s.mu.Lock()
	s.pcm = nil
	s.mu.Unlock()
}

func (s *ffmpegSession) stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		<-s.readDone
		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
