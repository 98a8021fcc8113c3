package handler

import (
	"net/http"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/google/uuid"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestIDMiddleware propagates X-Request-ID, generating one when the caller sent none,
// and stores it in the request context for the logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

// GlobalLoggingMiddleware logs all HTTP requests
func GlobalLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Info(r.Context(), "http request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// TwilioSignatureMiddleware rejects requests whose X-Twilio-Signature does not match
// the request URL and form parameters. publicHost, when set, replaces the request host
// in the signed URL (Twilio signs the URL it called, not the one the proxy forwarded).
func TwilioSignatureMiddleware(authToken, publicHost string) func(http.Handler) http.Handler {
	validator := client.NewRequestValidator(authToken)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get("X-Twilio-Signature")
			if signature == "" {
				logger.Warn(r.Context(), "missing twilio signature",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if err := r.ParseForm(); err != nil {
				logger.Warn(r.Context(), "failed to parse twilio form", zap.Error(err))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			params := make(map[string]string, len(r.PostForm))
			for key, values := range r.PostForm {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}

			if !validator.Validate(signedURL(r, publicHost), params, signature) {
				logger.Warn(r.Context(), "invalid twilio signature",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// signedURL rebuilds the absolute URL Twilio used for the request.
func signedURL(r *http.Request, publicHost string) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil && publicHost == "" {
		scheme = "http"
	}

	host := r.Host
	if publicHost != "" {
		host = publicHost
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
