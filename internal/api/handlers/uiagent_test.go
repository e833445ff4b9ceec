package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/voiceui/internal/config"
	"github.com/nikhilbhutani/voiceui/internal/llm"
	"github.com/nikhilbhutani/voiceui/internal/uiagent"
)

// replyProvider is an llm.Provider that returns a fixed completion.
type replyProvider struct {
	content string
	err     error
	prompts []string
}

func (p *replyProvider) Name() string     { return "ollama" }
func (p *replyProvider) Models() []string { return []string{"llama3"} }

func (p *replyProvider) ChatCompletion(ctx context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	return p.Generate(ctx, llm.GenerateRequest{})
}

func (p *replyProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.ChatResponse, error) {
	p.prompts = append(p.prompts, req.Prompt)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Content: p.content}, nil
}

func newUIAgentHandler(p *replyProvider) *UIAgentHandler {
	gw := llm.NewGatewayWithProviders(config.LLMConfig{DefaultProvider: "ollama", DefaultModel: "llama3"}, p)
	return NewUIAgentHandler(uiagent.NewService(gw, uiagent.Options{}))
}

func postUIAgent(h *UIAgentHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ui-agent/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestUIAgentHandler_Success(t *testing.T) {
	h := newUIAgentHandler(&replyProvider{content: `{"appliedHTML":"<b>hi</b>","codeSnippet":"","fullHTML":"<html/>"}`})

	rec := postUIAgent(h, `{"text":"bold greeting"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"appliedHTML":"<b>hi</b>","codeSnippet":"","fullHTML":"<html/>"}`, rec.Body.String())
}

func TestUIAgentHandler_FallbackOnDelegateFailure(t *testing.T) {
	for name, p := range map[string]*replyProvider{
		"unreachable": {err: errors.New("connection refused")},
		"malformed":   {content: "Sure! Here is the code you asked for."},
	} {
		t.Run(name, func(t *testing.T) {
			rec := postUIAgent(newUIAgentHandler(p), `{"text":"x"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			var res uiagent.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, "<p>Error applying changes.</p>", res.AppliedHTML)
			assert.Equal(t, "<html><body><p>Error generating full HTML.</p></body></html>", res.FullHTML)
			assert.True(t, strings.HasPrefix(res.CodeSnippet, "console.error('Error: "))
		})
	}
}

func TestUIAgentHandler_BadBody(t *testing.T) {
	p := &replyProvider{content: "{}"}
	rec := postUIAgent(newUIAgentHandler(p), `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
	assert.Empty(t, p.prompts)
}

func TestUIAgentHandler_EmptyTextIsForwarded(t *testing.T) {
	for _, body := range []string{`{"text":""}`, `{}`} {
		p := &replyProvider{content: `{"appliedHTML":"<p></p>"}`}
		rec := postUIAgent(newUIAgentHandler(p), body)

		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.JSONEq(t, `{"appliedHTML":"<p></p>","codeSnippet":"","fullHTML":""}`, rec.Body.String())
		require.Len(t, p.prompts, 1)
		assert.Contains(t, p.prompts[0], `User request: ""`)
	}
}
