package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/events"
)

func TestPublishCountsEvents(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	at := time.Now()
	_ = r.Publish(ctx, events.New(events.KindCharge, "app", "acc1", decimal.RequireFromString("0.5"), at))
	_ = r.Publish(ctx, events.New(events.KindCharge, "app", "acc2", decimal.RequireFromString("1.5"), at))
	_ = r.Publish(ctx, events.New(events.KindAppCreated, "app", "alice", decimal.Zero, at))

	if got := testutil.ToFloat64(r.events.WithLabelValues("charge")); got != 2 {
		t.Fatalf("expected 2 charge events, got %v", got)
	}
	if got := testutil.ToFloat64(r.amounts.WithLabelValues("charge")); got != 2 {
		t.Fatalf("expected charged amount 2, got %v", got)
	}
	if got := testutil.ToFloat64(r.events.WithLabelValues("app_created")); got != 1 {
		t.Fatalf("expected one app_created event, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	r := NewRecorder()
	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/apps/:app", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/missing/:id", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusNotFound, "nope") })
	app.Get("/metrics", r.Handler())

	for _, path := range []string{"/apps/a", "/apps/b", "/missing/1"} {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1); err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
	}
	if got := testutil.ToFloat64(r.requests.WithLabelValues("GET", "/apps/:app", "200")); got != 2 {
		t.Fatalf("expected 2 requests on /apps/:app, got %v", got)
	}
	if got := testutil.ToFloat64(r.requests.WithLabelValues("GET", "/missing/:id", "404")); got != 1 {
		t.Fatalf("expected one 404, got %v", got)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "apicoin_http_requests_total") {
		t.Fatalf("scrape output missing request counter")
	}
}
