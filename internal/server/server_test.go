package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apicoin/apicoin/internal/config"
	"github.com/apicoin/apicoin/internal/infra"
	"github.com/apicoin/apicoin/internal/logging"
)

func TestErrorsRenderAsJSON(t *testing.T) {
	srv, err := New(config.Config{
		AppName:     "apicoin-test",
		Env:         "test",
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		PlatformID:  "platform-token",
		MaxPageSize: 10,
	}, &infra.Backends{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/apps/unknown", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "app not found") {
		t.Fatalf("unexpected error body %v", body)
	}
}
