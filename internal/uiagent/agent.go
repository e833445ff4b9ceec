// Package uiagent turns free-text UI change requests into HTML/JS results by
// prompting a generation backend and parsing its JSON reply.
package uiagent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nikhilbhutani/voiceui/internal/cache"
	"github.com/nikhilbhutani/voiceui/internal/config"
	"github.com/nikhilbhutani/voiceui/internal/llm"
)

var (
	// ErrDelegateUnreachable covers transport failures and non-success
	// replies from the generation backend.
	ErrDelegateUnreachable = errors.New("generation delegate unreachable")
	// ErrMalformedDelegateOutput means the backend answered but its text
	// was not a JSON object.
	ErrMalformedDelegateOutput = errors.New("malformed delegate output")

	errNotObject = errors.New("expected a JSON object")
)

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedDelegateOutput, err)
}

// ResultCache is the subset of cache.Cache the service needs.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Options struct {
	Mode       string // config.ModeGenerate or config.ModeChat
	Provider   string // empty uses the gateway default
	Model      string // empty uses the gateway default
	JSONFormat bool
	Cache      ResultCache // nil disables caching
	CacheTTL   time.Duration
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	gw   llm.Gateway
	opts Options
}

func NewService(gw llm.Gateway, opts Options) *Service {
	if opts.Mode == "" {
		opts.Mode = config.ModeGenerate
	}
	return &Service{gw: gw, opts: opts}
}

// Respond never fails: any delegate or parse error is folded into Fallback.
func (s *Service) Respond(ctx context.Context, text string) Result {
	res, err := s.Generate(ctx, text)
	if err != nil {
		slog.Warn("ui agent fell back", "error", err, "mode", s.opts.Mode)
		return Fallback(err)
	}
	return res
}

// Generate asks the backend for a UI change and parses the reply. Errors wrap
// ErrDelegateUnreachable or ErrMalformedDelegateOutput.
func (s *Service) Generate(ctx context.Context, text string) (Result, error) {
	key := s.cacheKey(text)
	if s.opts.Cache != nil {
		var cached Result
		err := s.opts.Cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			slog.Debug("ui agent cache hit", "key", key)
			return cached, nil
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("ui agent cache read failed", "error", err)
		}
	}

	output, err := s.complete(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrDelegateUnreachable, err)
	}
	slog.Debug("ui agent model output", "output", output)

	res, err := parseOutput(output)
	if err != nil {
		return Result{}, err
	}

	if s.opts.Cache != nil && s.opts.CacheTTL > 0 {
		if err := s.opts.Cache.Set(ctx, key, res, s.opts.CacheTTL); err != nil {
			slog.Warn("ui agent cache write failed", "error", err)
		}
	}
	return res, nil
}

func (s *Service) complete(ctx context.Context, text string) (string, error) {
	var format string
	if s.opts.JSONFormat {
		format = llm.FormatJSON
	}

	switch s.opts.Mode {
	case config.ModeChat:
		system, err := chatSystemPrompt.Render(nil)
		if err != nil {
			return "", err
		}
		resp, err := s.gw.Chat(ctx, llm.ChatRequest{
			Provider: s.opts.Provider,
			Model:    s.opts.Model,
			Format:   format,
			Messages: []llm.Message{
				{Role: "system", Content: system},
				{Role: "user", Content: text},
			},
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	default:
		p, err := generatePrompt.Render(map[string]string{"text": text})
		if err != nil {
			return "", err
		}
		resp, err := s.gw.Generate(ctx, llm.GenerateRequest{
			Provider: s.opts.Provider,
			Model:    s.opts.Model,
			Prompt:   p,
			Format:   format,
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

func (s *Service) cacheKey(text string) string {
	h := sha256.New()
	for _, part := range []string{s.opts.Mode, s.opts.Provider, s.opts.Model, strconv.FormatBool(s.opts.JSONFormat), text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
