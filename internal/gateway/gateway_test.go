package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/registry"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	reg := registry.New(nil, map[string]config.Instance{
		"default": {URL: "http://127.0.0.1:8384", APIKey: "k"},
	})
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mcp"))
	})
	return New(config.HTTP{BearerToken: "secret"}, nil, mcpHandler, reg, nil, nil, nil, "test")
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "invalid or missing bearer token" {
		t.Fatalf("body = %v", body)
	}
}

func TestAuthMiddleware_RejectsWrongToken(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "mcp" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHealth_IsPublic(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("health status = %q", resp.Status)
	}
}

func TestStatus_ReportsInstances(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != "test" {
		t.Fatalf("version = %q", resp.Version)
	}
	if len(resp.Instances) != 1 || resp.Instances[0] != "default" {
		t.Fatalf("instances = %v", resp.Instances)
	}
}

func TestStart_RequiresBearerToken(t *testing.T) {
	t.Parallel()

	g := New(config.HTTP{Bind: "127.0.0.1:0"}, nil, nil, nil, nil, nil, nil, "test")
	err := g.Start()
	if err == nil {
		t.Fatal("expected error for missing bearer token")
	}
	if !strings.Contains(err.Error(), "bearer token") {
		t.Fatalf("error = %v", err)
	}
}
