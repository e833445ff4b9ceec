package stt

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/voiceui/internal/config"
)

// NewProvider builds the configured backend. Call it once at startup and share
// the result; close it on shutdown if it implements io.Closer.
func NewProvider(ctx context.Context, cfg config.STTConfig) (Provider, error) {
	switch cfg.Backend {
	case config.STTLocal, "":
		return NewLocalSTT(LocalSTTConfig{
			BaseURL: cfg.LocalBaseURL,
			Model:   cfg.LocalModel,
			Timeout: cfg.Timeout,
		}), nil
	case config.STTOpenAI:
		return NewOpenAISTT(OpenAISTTConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}), nil
	case config.STTGoogle:
		return NewGoogleSTT(ctx, GoogleSTTConfig{LanguageCode: cfg.GoogleLanguage})
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.Backend)
	}
}
