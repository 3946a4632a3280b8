package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the voice assistant.
type Config struct {
	Agent   AgentConfig
	Audio   AudioConfig
	Session SessionConfig
}

// AgentConfig locates the remote voice-agent backend.
type AgentConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	MaxSynthesisRetries int
}

// Load resolves configuration from a .env file (when present), environment
// variables, and sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Agent: AgentConfig{
			BaseURL: envOrDefault("PARLEY_AGENT_BASE_URL", "http://localhost:8000"),
			Timeout: time.Duration(envOrDefaultInt("PARLEY_AGENT_TIMEOUT_MS", 60000)) * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("PARLEY_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("PARLEY_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("PARLEY_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("PARLEY_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("PARLEY_CHANNELS", 1),
		},
		Session: SessionConfig{
			MaxSynthesisRetries: envOrDefaultInt("PARLEY_MAX_SYNTHESIS_RETRIES", 3),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.MaxSynthesisRetries <= 0 {
		cfg.Session.MaxSynthesisRetries = 3
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
