package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/voiceui/internal/api/handlers"
	"github.com/nikhilbhutani/voiceui/internal/api/middleware"
	"github.com/nikhilbhutani/voiceui/internal/config"
	"github.com/nikhilbhutani/voiceui/internal/llm"
	"github.com/nikhilbhutani/voiceui/internal/stt"
	"github.com/nikhilbhutani/voiceui/internal/uiagent"
)

// Deps are the long-lived services shared by every request.
type Deps struct {
	STT     stt.Provider
	Gateway llm.Gateway
	UIAgent *uiagent.Service
	Checks  map[string]handlers.Checker
	Limiter *middleware.RateLimiter // nil disables rate limiting
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	// The limiter keys on the socket address, so it runs before RealIP
	// rewrites RemoteAddr from client-supplied headers.
	if rt.deps.Limiter != nil {
		r.Use(rt.deps.Limiter.Limit)
	}
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/", health.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	llmH := handlers.NewLLMHandler(rt.deps.Gateway)
	r.Get("/models", llmH.Models)

	audioH := handlers.NewAudioHandler(rt.deps.STT, rt.cfg.Server.TempDir, rt.cfg.Server.MaxUploadBytes, rt.cfg.STT.Language)
	r.Post("/process-audio/", audioH.Process)
	r.Post("/process-audio", audioH.Process)

	uiH := handlers.NewUIAgentHandler(rt.deps.UIAgent)
	r.Post("/ui-agent/", uiH.Handle)
	r.Post("/ui-agent", uiH.Handle)

	return r
}
