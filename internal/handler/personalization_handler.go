package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/internal/services/personalization"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxPersonalizationBody = 1 << 20

// Personalizer produces the personalization response for a raw webhook body.
type Personalizer interface {
	Personalize(ctx context.Context, body []byte) personalization.Result
}

// PersonalizationHandler serves the voice-agent platform's personalization webhook.
type PersonalizationHandler struct {
	service Personalizer
}

// NewPersonalizationHandler creates a new personalization webhook handler
func NewPersonalizationHandler(service Personalizer) *PersonalizationHandler {
	return &PersonalizationHandler{service: service}
}

// SetupPersonalizationRoutes registers the webhook route on router.
func (h *PersonalizationHandler) SetupPersonalizationRoutes(router *mux.Router) {
	router.HandleFunc("/webhook/twilio-personalization", h.HandlePersonalizationWebhook).Methods("POST")
	logger.Base().Info("personalization webhook registered", zap.String("path", "/webhook/twilio-personalization"))
}

// HandlePersonalizationWebhook godoc
// @Summary Per-call dynamic variables and agent override
// @Description Always answers 200; internal failures produce a generic fallback body.
// @Accept json
// @Produce json
// @Success 200 {object} domain.PersonalizationResponse
// @Router /webhook/twilio-personalization [post]
func (h *PersonalizationHandler) HandlePersonalizationWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPersonalizationBody))
	if err != nil {
		logger.Warn(ctx, "failed to read personalization body", zap.Error(err))
		body = nil
	}
	defer r.Body.Close()

	result := h.service.Personalize(ctx, body)

	data, err := json.Marshal(result.Response)
	if err != nil {
		logger.Error(ctx, "failed to encode personalization response", zap.Error(err))
		data, _ = json.Marshal(domain.FallbackResponse())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
