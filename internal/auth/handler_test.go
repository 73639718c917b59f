package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestTokenHandlerIssuesVerifiableToken(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour, "apicoin")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	app := fiber.New()
	app.Post("/token", NewHandler(issuer).Token)

	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"subject":" alice "}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := issuer.Verify(body.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected trimmed subject, got %q", claims.Subject)
	}

	req = httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"subject":""}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if resp, _ := app.Test(req, -1); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty subject, got %d", resp.StatusCode)
	}
}
