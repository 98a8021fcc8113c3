package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

const serviceBanner = "Twilio-ElevenLabs Integration Server"

// StatusHandler serves the identification and health endpoints.
type StatusHandler struct{}

// SetupStatusRoutes registers / and /health.
func (h *StatusHandler) SetupStatusRoutes(router *mux.Router) {
	router.HandleFunc("/", h.handleRoot).Methods("GET")
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
}

func (h *StatusHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": serviceBanner})
}

func (h *StatusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
