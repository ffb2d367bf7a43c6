//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BradenHooton/lure/internal/auth"
	"github.com/BradenHooton/lure/internal/database"
	"github.com/BradenHooton/lure/internal/geo"
	"github.com/BradenHooton/lure/internal/handlers"
	middlewareCustom "github.com/BradenHooton/lure/internal/middleware"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/BradenHooton/lure/internal/repositories"
	"github.com/BradenHooton/lure/internal/routes"
	"github.com/BradenHooton/lure/internal/services"
	pkglogger "github.com/BradenHooton/lure/pkg/logger"
)

const testJWTSecret = "test-secret-32-characters-long-for-testing"

// TestServer wraps httptest.Server with the real database and a stubbed geolocation service
type TestServer struct {
	Server    *httptest.Server
	GeoServer *httptest.Server
	DB        *database.DB
}

// NewTestServer wires the production router over db. Geolocation requests go
// to a local stub that answers every IP with Testville, Testland.
func NewTestServer(db *database.DB) *TestServer {
	logger := quietLogger()

	geoStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"Testville","country":"Testland"}`))
	}))

	attemptRepo := repositories.NewLoginAttemptRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	auditLogger := pkglogger.NewAuditLogger(logger)

	locator := geo.NewClient(geo.Config{BaseURL: geoStub.URL, Timeout: 2 * time.Second})
	attemptService := services.NewAttemptService(attemptRepo, locator, auditLogger, logger, 5*time.Second)
	campaignService := services.NewCampaignService(campaignRepo, attemptRepo, auditLogger, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(r,
		handlers.NewAttemptHandler(attemptService, 64<<10, logger),
		handlers.NewCampaignHandler(campaignService, "http://decoy.test", logger),
		auth.NewTokenVerifier(testJWTSecret),
		routes.Config{AdminRateLimitPerMinute: 1000},
	)

	return &TestServer{
		Server:    httptest.NewServer(r),
		GeoServer: geoStub,
		DB:        db,
	}
}

// Close shuts down the test servers
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.GeoServer != nil {
		ts.GeoServer.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestAsAdmin makes a request carrying a freshly signed admin token
func (ts *TestServer) RequestAsAdmin(method, path string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + AdminToken(),
	})
}

// AdminToken signs a token the way the external auth service would
func AdminToken() string {
	claims := models.SessionClaims{
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "11111111-2222-3333-4444-555555555555",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	return token
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
