package bootstrap

import (
	"os"

	"github.com/rs/zerolog"

	"parley/internal/audio"
	"parley/internal/config"
	"parley/internal/ports"
	"parley/internal/providers/agentapi"
	"parley/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	gateway := agentapi.NewClient(agentapi.Config{
		BaseURL: cfg.Agent.BaseURL,
		Timeout: cfg.Agent.Timeout,
	}, logger)

	controller := usecase.NewSessionController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand, logger),
		gateway,
		audio.NewBeepPlayer(logger),
		events,
		usecase.Config{
			Capture: ports.CaptureConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			MaxSynthesisRetries: cfg.Session.MaxSynthesisRetries,
		},
		logger,
	)

	return Services{Controller: controller, Config: cfg}, nil
}
