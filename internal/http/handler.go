package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/client"
	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

// Handler handles HTTP requests. It fronts the throttled, audited
// completion core; research pipelines embed the library directly and bring
// their own prompt and retrieval collaborators.
type Handler struct {
	client  *client.Client
	limiter domain.Limiter
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(c *client.Client, limiter domain.Limiter) *Handler {
	return &Handler{
		client:  c,
		limiter: limiter,
	}
}

type completionResponse struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

// HandleCompletion processes completion requests.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		http.Error(w, "model is required", http.StatusBadRequest)
		return
	}

	ctx = observability.WithModel(ctx, req.Model)
	logger := observability.FromContext(ctx)
	logger.Info("completion request received",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
	)

	if err := h.limiter.Acquire(ctx); err != nil {
		logger.Warn("rate limiter wait aborted", zap.Error(err))
		http.Error(w, "request cancelled while waiting for rate quota", http.StatusRequestTimeout)
		return
	}

	content, err := h.client.Complete(ctx, &req)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(completionResponse{
		Model:   req.Model,
		Content: content,
	}); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
