package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/voiceui/internal/uiagent"
)

type UIAgentHandler struct {
	svc *uiagent.Service
}

func NewUIAgentHandler(svc *uiagent.Service) *UIAgentHandler {
	return &UIAgentHandler{svc: svc}
}

type uiAgentRequest struct {
	Text string `json:"text"`
}

// Handle always answers 200 once the body decodes, even for empty or missing
// text: delegate failures come back as the fallback result.
func (h *UIAgentHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req uiAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slog.Debug("ui agent request", "text", req.Text)
	writeJSON(w, http.StatusOK, h.svc.Respond(r.Context(), req.Text))
}
