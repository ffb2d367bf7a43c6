package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/lure/internal/auth"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/internal/services"
	pkghttp "github.com/BradenHooton/lure/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAdminContext adds admin session claims to the request context
func WithAdminContext(req *http.Request, subject string) *http.Request {
	claims := &models.SessionClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam attaches a chi route parameter to the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid admin error envelope
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// AssertMessageResponse checks a capture endpoint error body {"error": message}
func AssertMessageResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, map[string]interface{}{"error": expectedMessage}, resp)
}

// MockAttemptCapturer implements AttemptCapturer for testing
type MockAttemptCapturer struct {
	CaptureFunc func(ctx context.Context, sub services.Submission) (*models.LoginAttempt, error)
	Received    []services.Submission
}

func (m *MockAttemptCapturer) Capture(ctx context.Context, sub services.Submission) (*models.LoginAttempt, error) {
	m.Received = append(m.Received, sub)
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, sub)
	}
	return &models.LoginAttempt{CampaignID: sub.CampaignID}, nil
}

// MockCampaignService implements CampaignServiceInterface for testing
type MockCampaignService struct {
	CreateFunc       func(ctx context.Context, name, description, actorID string) (*models.Campaign, error)
	ListFunc         func(ctx context.Context) ([]*models.Campaign, error)
	GetFunc          func(ctx context.Context, id string) (*models.Campaign, error)
	DeleteFunc       func(ctx context.Context, id, actorID string) error
	ListAttemptsFunc func(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, int64, error)
}

func (m *MockCampaignService) Create(ctx context.Context, name, description, actorID string) (*models.Campaign, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, description, actorID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCampaignService) List(ctx context.Context) ([]*models.Campaign, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

func (m *MockCampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCampaignService) Delete(ctx context.Context, id, actorID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, actorID)
	}
	return nil
}

func (m *MockCampaignService) ListAttempts(ctx context.Context, filter models.AttemptFilter) ([]*models.LoginAttempt, int64, error) {
	if m.ListAttemptsFunc != nil {
		return m.ListAttemptsFunc(ctx, filter)
	}
	return []*models.LoginAttempt{}, 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
