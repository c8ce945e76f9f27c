package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanitation-complaints/internal/config"
	httpDelivery "github.com/sanitation-complaints/internal/delivery/http"
	"github.com/sanitation-complaints/internal/delivery/http/handler"
	"github.com/sanitation-complaints/internal/pkg/auth"
	"github.com/sanitation-complaints/internal/pkg/metrics"
)

func newTestServer(t *testing.T) (*httpDelivery.Server, *auth.TokenService) {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 0, Env: "test", CORSOrigins: "http://localhost:3000"},
		Media:     config.MediaConfig{RootDir: t.TempDir()},
		RateLimit: config.RateLimitConfig{RPS: 1, Burst: 1},
	}
	tokens := auth.NewTokenService("secret", "issuer", "audience")
	log := zap.NewNop()

	// Services are never reached by the requests below.
	server := httpDelivery.NewServer(cfg, log, metrics.NewNop(), tokens, httpDelivery.Handlers{
		Complaints:   handler.NewComplaintHandler(nil, 1024, log),
		Geography:    handler.NewGeographyHandler(nil, log),
		Positions:    handler.NewPositionHandler(nil, log),
		Analytics:    handler.NewAnalyticsHandler(nil, log),
		Jurisdiction: handler.NewJurisdictionHandler(nil, nil, log),
		Health:       handler.NewHealthHandler(map[string]handler.HealthChecker{}, log),
	})
	return server, tokens
}

func errorCode(t *testing.T, server *httpDelivery.Server, method, target, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body.Error.Code
}

func TestServer_RouteGuards(t *testing.T) {
	server, tokens := newTestServer(t)
	staff, err := tokens.IssueStaffToken(700, time.Hour)
	require.NoError(t, err)
	citizen, err := tokens.IssueCitizenToken("9876543210", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		status int
		code   string
	}{
		{name: "complaints need a token", method: "GET", target: "/api/v1/complaints", status: fiber.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "staff cannot file", method: "POST", target: "/api/v1/complaints", token: staff, status: fiber.StatusForbidden, code: "FORBIDDEN"},
		{name: "citizens cannot appoint", method: "POST", target: "/api/v1/positions", token: citizen, status: fiber.StatusForbidden, code: "FORBIDDEN"},
		{name: "citizens cannot read analytics", method: "GET", target: "/api/v1/analytics/status", token: citizen, status: fiber.StatusForbidden, code: "FORBIDDEN"},
		{name: "citizens cannot preview assignment", method: "GET", target: "/api/v1/assignment/villages/3/worker", token: citizen, status: fiber.StatusForbidden, code: "FORBIDDEN"},
		{name: "geography needs a token", method: "GET", target: "/api/v1/geography/districts", status: fiber.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "unknown route", method: "GET", target: "/api/v1/nope", token: staff, status: fiber.StatusNotFound, code: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorCode(t, server, tt.method, tt.target, tt.token)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := server.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
