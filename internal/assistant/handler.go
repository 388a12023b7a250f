package assistant

import (
	"encoding/json"
	"errors"
	"net/http"

	"aidocs/middleware"
	"aidocs/pkg/logger"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/ai/generate", middleware.AuthMiddleware(http.HandlerFunc(h.Generate)))
	mux.Handle("POST /api/ai/accept", middleware.AuthMiddleware(http.HandlerFunc(h.Accept)))
}

type generateRequest struct {
	Action    string `json:"action"`
	Selection string `json:"selection"`
}

type generateResponse struct {
	Result string `json:"result"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Generate(r.Context(), Action(req.Action), req.Selection)
	if errors.Is(err, ErrUnknownAction) {
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Assistant generation failed: %v", err)
		http.Error(w, "Generation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(generateResponse{Result: result})
}

type acceptRequest struct {
	Text string `json:"text"`
}

type acceptResponse struct {
	Delivered bool `json:"delivered"`
}

// Accept forwards a user-approved result to the mounted editor.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acceptResponse{Delivered: h.svc.Accept(req.Text)})
}
