package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// CallRegistry records connected calls for later correlation.
type CallRegistry interface {
	Register(ctx context.Context, call domain.InboundCall) error
	Unregister(ctx context.Context, callSID string) error
}

// terminalCallStatuses are the CallStatus values after which Twilio sends no more webhooks for a call.
var terminalCallStatuses = map[string]bool{
	"completed": true,
	"busy":      true,
	"failed":    true,
	"no-answer": true,
	"canceled":  true,
}

// TwilioHandler answers Twilio's voice webhook by bridging the call to the media stream.
type TwilioHandler struct {
	publicHost      string
	mediaStreamPath string
	registry        CallRegistry
}

// NewTwilioHandler creates a new Twilio voice handler. registry may be nil.
func NewTwilioHandler(publicHost, mediaStreamPath string, registry CallRegistry) *TwilioHandler {
	return &TwilioHandler{
		publicHost:      publicHost,
		mediaStreamPath: mediaStreamPath,
		registry:        registry,
	}
}

// SetupTwilioRoutes registers the Twilio routes on router.
func (h *TwilioHandler) SetupTwilioRoutes(router *mux.Router) {
	router.HandleFunc("/inbound_call", h.HandleInboundCall).Methods("POST")
	router.HandleFunc("/call_status", h.HandleCallStatus).Methods("POST")
	logger.Base().Info("twilio routes registered")
}

// HandleInboundCall godoc
// @Summary Connect an inbound call to the media stream
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param CallSid formData string false "Twilio call SID"
// @Param From formData string false "Caller number"
// @Param To formData string false "Called number"
// @Success 200 {string} string "TwiML"
// @Router /twilio/inbound_call [post]
func (h *TwilioHandler) HandleInboundCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		logger.Warn(ctx, "failed to parse inbound call form, continuing with defaults", zap.Error(err))
	}

	call := domain.InboundCall{
		CallSID: formValueOrUnknown(r, "CallSid"),
		From:    formValueOrUnknown(r, "From"),
		To:      formValueOrUnknown(r, "To"),
	}

	logger.Info(ctx, "incoming call received",
		zap.String("call_sid", call.CallSID),
		zap.String("from", call.From),
		zap.String("to", call.To),
	)

	if h.registry != nil && call.CallSID != domain.UnknownValue {
		if err := h.registry.Register(ctx, call); err != nil {
			logger.Warn(ctx, "failed to register call", zap.String("call_sid", call.CallSID), zap.Error(err))
		}
	}

	body, err := ConnectStreamTwiML(h.streamURL(r))
	if err != nil {
		logger.Error(ctx, "failed to render twiml", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// HandleCallStatus godoc
// @Summary Twilio status callback; forgets calls that have ended
// @Accept x-www-form-urlencoded
// @Param CallSid formData string true "Twilio call SID"
// @Param CallStatus formData string true "Twilio call status"
// @Success 204
// @Router /twilio/call_status [post]
func (h *TwilioHandler) HandleCallStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		logger.Warn(ctx, "failed to parse call status form", zap.Error(err))
	}
	callSID := formValueOrUnknown(r, "CallSid")
	status := strings.ToLower(formValueOrUnknown(r, "CallStatus"))

	logger.Info(ctx, "call status received", zap.String("call_sid", callSID), zap.String("status", status))

	if h.registry != nil && callSID != domain.UnknownValue && terminalCallStatuses[status] {
		if err := h.registry.Unregister(ctx, callSID); err != nil {
			logger.Warn(ctx, "failed to unregister call", zap.String("call_sid", callSID), zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// streamURL is wss://<host><media stream path>, host being the public host when
// configured and the request host (port stripped) otherwise.
func (h *TwilioHandler) streamURL(r *http.Request) string {
	host := h.publicHost
	if host == "" {
		host = r.Host
		if hostname, _, err := net.SplitHostPort(host); err == nil {
			host = hostname
		}
	}
	// IPv6 literals lose their brackets in SplitHostPort
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return "wss://" + host + h.mediaStreamPath
}

// ConnectStreamTwiML renders <Response><Connect><Stream url="..."/></Connect></Response>.
func ConnectStreamTwiML(streamURL string) (string, error) {
	stream := &twiml.VoiceStream{Url: streamURL}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return twiml.Voice([]twiml.Element{connect})
}

func formValueOrUnknown(r *http.Request, key string) string {
	if v := strings.TrimSpace(r.PostFormValue(key)); v != "" {
		return v
	}
	return domain.UnknownValue
}
