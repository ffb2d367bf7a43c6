package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/lure/internal/auth"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/internal/services"
	pkghttp "github.com/BradenHooton/lure/pkg/http"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

// CampaignServiceInterface defines the campaign administration contract
type CampaignServiceInterface interface {
	Create(ctx context.Context, name, description, actorID string) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	Get(ctx context.Context, id string) (*models.Campaign, error)
	Delete(ctx context.Context, id, actorID string) error
	ListAttempts(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, int64, error)
}

// CreateCampaignRequest is the body of POST /api/admin/campaigns
type CreateCampaignRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CampaignResponse is a campaign as shown to administrators
type CampaignResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	AttemptCount int64     `json:"attempt_count"`
	PhishingURL  string    `json:"phishing_url"`
}

// AttemptListResponse is one page of captured attempts
type AttemptListResponse struct {
	Attempts []*models.LoginAttempt `json:"attempts"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// CampaignHandler handles the campaign administration API
type CampaignHandler struct {
	service         CampaignServiceInterface
	phishingBaseURL string
	logger          *slog.Logger
}

// NewCampaignHandler creates a new CampaignHandler. phishingBaseURL is where the decoy page is served.
func NewCampaignHandler(service CampaignServiceInterface, phishingBaseURL string, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		service:         service,
		phishingBaseURL: strings.TrimRight(phishingBaseURL, "/"),
		logger:          logger,
	}
}

// Create handles POST /api/admin/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	campaign, err := h.service.Create(r.Context(), req.Name, req.Description, actorID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, h.toResponse(campaign))
}

// List handles GET /api/admin/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, h.toResponse(c))
	}

	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// Get handles GET /api/admin/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.toResponse(campaign))
}

// Delete handles DELETE /api/admin/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actorID(r)); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAttempts handles GET /api/admin/campaigns/{id}/attempts
// Query params: limit (1-500, default 100), offset, q.
func (h *CampaignHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := parseIntParam(query.Get("limit"), services.DefaultAttemptPageSize)
	if err != nil || limit < 1 || limit > services.MaxAttemptPageSize {
		pkghttp.WriteBadRequest(w, "limit must be an integer between 1 and 500")
		return
	}

	offset, err := parseIntParam(query.Get("offset"), 0)
	if err != nil || offset < 0 {
		pkghttp.WriteBadRequest(w, "offset must be a non-negative integer")
		return
	}

	filter := models.AttemptFilter{
		CampaignID: chi.URLParam(r, "id"),
		Search:     strings.TrimSpace(query.Get("q")),
		Limit:      limit,
		Offset:     offset,
	}

	attempts, total, err := h.service.ListAttempts(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	pkghttp.WriteJSON(w, http.StatusOK, AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (h *CampaignHandler) toResponse(c *models.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		AttemptCount: c.AttemptCount,
		PhishingURL:  h.phishingBaseURL + "/login?c=" + url.QueryEscape(c.ID),
	}
}

func (h *CampaignHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "invalid campaign id")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "campaign not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "campaign already exists")
	default:
		h.logger.Error("campaign request failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

func actorID(r *http.Request) string {
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
