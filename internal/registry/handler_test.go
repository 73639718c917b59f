package registry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/auth"
	"github.com/apicoin/apicoin/internal/middleware"
)

func TestHandlerCreateAndList(t *testing.T) {
	h := newHarness(t)
	issuer, err := auth.NewIssuer("test-secret", time.Hour, "")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	handler := NewHandler(h.registry, 10)
	app := fiber.New()
	app.Get("/apps", handler.List)
	app.Get("/creators/:creator/apps", handler.ListByCreator)
	app.Post("/apps", middleware.Caller(issuer), handler.Create)

	token, _, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/apps", strings.NewReader(`{"name":"Maps","symbol":"MP"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var entry Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.Creator != "alice" || entry.Name != "Maps" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/creators/alice/apps?limit=100", nil), -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var listing struct {
		Apps  []Entry `json:"apps"`
		Total int     `json:"total"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		t.Fatalf("decode listing %s: %v", raw, err)
	}
	if listing.Total != 1 || listing.Apps[0].Handle != entry.Handle {
		t.Fatalf("unexpected listing %s", raw)
	}

	anon := httptest.NewRequest(http.MethodPost, "/apps", strings.NewReader(`{}`))
	anon.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if resp, _ := app.Test(anon, -1); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}
