package stt

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LocalSTTConfig holds configuration for a local whisper server exposing the
// OpenAI-compatible /audio/transcriptions route.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178"
	Model   string // default: "base"
	Timeout time.Duration
}

// LocalSTT wraps OpenAISTT pointing at a local whisper server.
type LocalSTT struct {
	*OpenAISTT
}

// NewLocalSTT creates a LocalSTT backed by a local whisper HTTP server.
func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	model := cfg.Model
	if model == "" {
		model = "base"
	}
	return &LocalSTT{
		OpenAISTT: NewOpenAISTT(OpenAISTTConfig{
			BaseURL: baseURL,
			Model:   model,
			Timeout: cfg.Timeout,
			// Plain json is the one format every whisper server speaks.
			Format: openai.AudioResponseFormatJSON,
		}),
	}
}

func (l *LocalSTT) Name() string { return "local-whisper" }

func (l *LocalSTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	return l.OpenAISTT.Transcribe(ctx, req)
}
