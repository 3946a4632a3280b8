package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/domain"
	"parley/internal/ports"
)

const defaultBaseURL = "http://localhost:8000"

// Config controls the voice-agent backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.SpeechGateway against the voice-agent HTTP API:
// POST /transcribe, POST /generate_response, POST /tts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.SpeechGateway = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "agentapi").Logger(),
	}
}

// errorResponse is the backend's failure payload.
type errorResponse struct {
	Detail string `json:"detail"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type generateRequest struct {
	Prompt      string                     `json:"prompt"`
	ChatHistory []domain.ConversationEntry `json:"chat_history"`
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Transcribe uploads one captured clip and returns its transcript.
func (c *Client) Transcribe(ctx context.Context, clip domain.Clip) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart payload: %w", err)
	}
	if _, err := part.Write(clip.WAV); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &domain.TranscriptionError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readDetail(resp.Body, resp.Status)
		c.logger.Error().Int("status", resp.StatusCode).Str("detail", detail).Msg("transcription request failed")
		return "", &domain.TranscriptionError{Reason: detail}
	}

	var payload transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.TranscriptionError{Reason: fmt.Sprintf("invalid transcription response: %v", err)}
	}
	if strings.TrimSpace(payload.Transcription) == "" {
		return "", &domain.TranscriptionError{Reason: "transcription is empty"}
	}
	return payload.Transcription, nil
}

// GenerateResponse asks the backend for an AI reply, conditioned on the
// conversation so far.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, history []domain.ConversationEntry) (string, error) {
	if history == nil {
		history = []domain.ConversationEntry{}
	}
	req := generateRequest{Prompt: prompt, ChatHistory: history}

	resp, err := c.postJSON(ctx, "/generate_response", req)
	if err != nil {
		return "", &domain.ResponseError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readDetail(resp.Body, resp.Status)
		c.logger.Error().Int("status", resp.StatusCode).Str("detail", detail).Msg("response generation failed")
		return "", &domain.ResponseError{Reason: detail}
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.ResponseError{Reason: fmt.Sprintf("invalid response payload: %v", err)}
	}
	return payload.Response, nil
}

// Synthesize converts reply text to speech and returns WAV audio bytes.
// A 429 from the backend is reported as *RateLimitedError so the caller can
// schedule a retry.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.postJSON(ctx, "/tts", promptRequest{Prompt: text})
	if err != nil {
		return nil, &domain.SynthesisError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		detail := readDetail(resp.Body, resp.Status)
		c.logger.Warn().Str("detail", detail).Msg("synthesis rate limited")
		return nil, &domain.RateLimitedError{Detail: detail}
	}
	if resp.StatusCode != http.StatusOK {
		detail := readDetail(resp.Body, resp.Status)
		c.logger.Error().Int("status", resp.StatusCode).Str("detail", detail).Msg("synthesis failed")
		return nil, &domain.SynthesisError{Reason: detail}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.SynthesisError{Reason: fmt.Sprintf("failed to read audio payload: %v", err)}
	}
	return audio, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(httpReq)
}

func readDetail(body io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return fallback
	}
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Detail) != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(raw))
}
