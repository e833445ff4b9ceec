package llm

import (
	"context"
)

// Provider abstracts a text generation backend (Ollama, OpenAI, Anthropic).
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Generate runs a single-prompt completion.
	Generate(ctx context.Context, req GenerateRequest) (*ChatResponse, error)
	Name() string
	Models() []string
}

// Gateway routes requests to a default provider with retry and fallback.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Generate(ctx context.Context, req GenerateRequest) (*ChatResponse, error)
	Provider(name string) (Provider, error)
	ListModels() []ModelInfo
}

// FormatJSON asks the backend to constrain its output to a JSON value.
const FormatJSON = "json"

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is the input for chat completions.
type ChatRequest struct {
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Format      string    `json:"format,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// GenerateRequest is the input for single-prompt completions.
type GenerateRequest struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Format      string  `json:"format,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ChatResponse is the output of both chat and single-prompt completions.
type ChatResponse struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// ModelInfo describes an available model.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// asChat turns a single prompt into a one-message chat for providers
// that only expose a chat API.
func (r GenerateRequest) asChat() ChatRequest {
	return ChatRequest{
		Provider:    r.Provider,
		Model:       r.Model,
		Messages:    []Message{{Role: "user", Content: r.Prompt}},
		Format:      r.Format,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
}
