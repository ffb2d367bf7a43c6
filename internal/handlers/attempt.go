package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/internal/services"
	pkghttp "github.com/BradenHooton/lure/pkg/http"
	json "github.com/goccy/go-json"
)

const genericErrorMessage = "Internal server error"

// Headers sent on every capture response, including preflight
var captureCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// AttemptCapturer defines the capture service contract
type AttemptCapturer interface {
	Capture(ctx context.Context, sub services.Submission) (*models.LoginAttempt, error)
}

// AttemptHandler receives submissions from decoy login pages
type AttemptHandler struct {
	service      AttemptCapturer
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewAttemptHandler creates a new AttemptHandler. maxBodyBytes <= 0 leaves the body unbounded.
func NewAttemptHandler(service AttemptCapturer, maxBodyBytes int64, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// ServeHTTP handles POST and OPTIONS on the capture routes
func (h *AttemptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCaptureCORSHeaders(w)

	// Decoy pages expect 200 with an empty body here; admin preflight in middleware.CORS answers 204
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(r.Context(), "panic while capturing attempt", slog.Any("panic", rec))
			pkghttp.WriteMessage(w, http.StatusInternalServerError, genericErrorMessage)
		}
	}()

	h.Capture(w, r)
}

// Capture handles POST /functions/v1/log-attempt
func (h *AttemptHandler) Capture(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var sub services.Submission
	if err := json.NewDecoder(body).Decode(&sub); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to decode attempt payload", slog.Any("error", err))
		pkghttp.WriteMessage(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	sub.HeaderUserAgent = r.UserAgent()
	sub.ClientIP = pkghttp.ExtractAttemptIP(r)

	_, err := h.service.Capture(r.Context(), sub)
	if err != nil {
		var persistErr *services.PersistenceError
		switch {
		case errors.Is(err, models.ErrCampaignIDRequired):
			pkghttp.WriteMessage(w, http.StatusBadRequest, models.ErrCampaignIDRequired.Error())
		case errors.As(err, &persistErr):
			pkghttp.WriteMessage(w, http.StatusInternalServerError, persistErr.Message())
		default:
			h.logger.ErrorContext(r.Context(), "unexpected capture failure", slog.Any("error", err))
			pkghttp.WriteMessage(w, http.StatusInternalServerError, genericErrorMessage)
		}
		return
	}

	pkghttp.WriteAck(w)
}

func setCaptureCORSHeaders(w http.ResponseWriter) {
	for k, v := range captureCORSHeaders {
		w.Header().Set(k, v)
	}
}

// CaptureRateLimited answers throttled capture requests in the decoy page's error shape
func CaptureRateLimited(w http.ResponseWriter, r *http.Request) {
	setCaptureCORSHeaders(w)
	pkghttp.WriteMessage(w, http.StatusTooManyRequests, "Rate limit exceeded")
}
