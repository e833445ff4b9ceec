package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","response":"{\"codeSnippet\":\"x\"}","done":true,"prompt_eval_count":12,"eval_count":30}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", time.Second)
	resp, err := p.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "make it blue", Format: FormatJSON})
	require.NoError(t, err)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "make it blue", got["prompt"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
	assert.NotContains(t, got, "options")

	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, `{"codeSnippet":"x"}`, resp.Content)
	assert.Equal(t, 42, resp.TotalTokens)
	assert.Zero(t, resp.CostUSD)
}

func TestOllamaChat(t *testing.T) {
	var got ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message":{"role":"assistant","content":"done"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, time.Second)
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model: "llama3",
		Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "hi"},
		},
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.2, got.Options.Temperature)
	assert.Equal(t, "done", resp.Content)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"llama9\" not found"}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, time.Second)
	_, err := p.Generate(context.Background(), GenerateRequest{Model: "llama9", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), `model "llama9" not found`)
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOllamaProvider(url, time.Second)
	_, err := p.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama generate")
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.3.0"}`))
	}))
	defer srv.Close()

	require.NoError(t, NewOllamaProvider(srv.URL, time.Second).Ping(context.Background()))
}
