package appledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/auth"
	"github.com/apicoin/apicoin/internal/middleware"
)

var errNoApp = apperr.New(apperr.KindNotFound, "app not found")

type staticResolver map[string]*Ledger

func (r staticResolver) App(_ context.Context, handle string) (*Ledger, error) {
	if l, ok := r[handle]; ok {
		return l, nil
	}
	return nil, errNoApp
}

type httpFixture struct {
	fixture
	app    *fiber.App
	issuer *auth.Issuer
}

func newHTTPFixture(t *testing.T) httpFixture {
	t.Helper()
	f := newFixture(t)
	issuer, err := auth.NewIssuer("test-secret", time.Hour, "")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	h := NewHandler(staticResolver{"app-1": f.ledger}, 50)

	app := fiber.New()
	app.Get("/apps/:app", h.Info)
	app.Get("/apps/:app/accounts/:user", h.Account)
	app.Get("/apps/:app/users", h.ListUsers)
	app.Get("/apps/:app/users/top", h.TopUsers)
	app.Get("/apps/:app/resources", h.ListResources)
	app.Get("/apps/:app/resources/:id", h.Resource)
	authed := app.Group("/apps/:app", middleware.Caller(issuer))
	authed.Post("/charges", h.Charge)
	authed.Post("/freezes", h.Freeze)
	authed.Post("/withdraw-requests", h.WithdrawRequest)
	authed.Post("/withdrawals", h.Withdraw)
	authed.Put("/withdraw-delay", h.SetWithdrawDelay)
	authed.Put("/owner", h.TransferOwnership)
	authed.Post("/airdrops", h.Airdrop)
	authed.Post("/resources", h.ConfigureResources)
	return httpFixture{fixture: f, app: app, issuer: issuer}
}

func (f httpFixture) do(t *testing.T, method, path, caller, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if caller != "" {
		token, _, err := f.issuer.Issue(caller)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	} else {
		out["message"] = string(raw)
	}
	return resp.StatusCode, out
}

func TestHandlerChargeFlow(t *testing.T) {
	f := newHTTPFixture(t)
	f.deposit(t, acc1, "1")

	status, body := f.do(t, http.MethodPost, "/apps/app-1/charges", owner, `{"user":"acc1","amount":"0.25","memo":"GET /v1/x"}`)
	if status != http.StatusOK || body["charged"] != "0.25" {
		t.Fatalf("unexpected charge response %d %v", status, body)
	}
	status, body = f.do(t, http.MethodGet, "/apps/app-1/accounts/acc1", "", "")
	if status != http.StatusOK || body["balance"] != "0.75" {
		t.Fatalf("unexpected account %d %v", status, body)
	}
	status, body = f.do(t, http.MethodGet, "/apps/app-1/users?limit=10", "", "")
	if status != http.StatusOK || body["total"] != float64(1) {
		t.Fatalf("unexpected users %d %v", status, body)
	}
}

func TestHandlerMapsErrors(t *testing.T) {
	f := newHTTPFixture(t)
	f.deposit(t, acc1, "1")

	cases := []struct {
		name, method, path, caller, body string
		want                             int
	}{
		{"no token", http.MethodPost, "/apps/app-1/charges", "", `{"user":"acc1","amount":"0.1"}`, http.StatusUnauthorized},
		{"not owner", http.MethodPost, "/apps/app-1/charges", acc2, `{"user":"acc1","amount":"0.1"}`, http.StatusForbidden},
		{"overdraw", http.MethodPost, "/apps/app-1/charges", owner, `{"user":"acc1","amount":"5"}`, http.StatusPaymentRequired},
		{"bad amount", http.MethodPost, "/apps/app-1/charges", owner, `{"user":"acc1","amount":"-1"}`, http.StatusBadRequest},
		{"withdraw early", http.MethodPost, "/apps/app-1/withdrawals", acc1, "", http.StatusConflict},
		{"unknown app", http.MethodGet, "/apps/nope", "", "", http.StatusNotFound},
		{"mismatch", http.MethodPost, "/apps/app-1/resources", owner, `{"ops":[{"id":1,"resource_id":"other","weight":2,"op":"update"}]}`, http.StatusUnprocessableEntity},
		{"malformed", http.MethodPost, "/apps/app-1/charges", owner, `{"user":`, http.StatusBadRequest},
		{"unknown resource", http.MethodGet, "/apps/app-1/resources/9", "", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if status, body := f.do(t, tc.method, tc.path, tc.caller, tc.body); status != tc.want {
				t.Fatalf("expected %d, got %d %v", tc.want, status, body)
			}
		})
	}
}

func TestHandlerWithdrawFlow(t *testing.T) {
	f := newHTTPFixture(t)
	f.deposit(t, acc1, "1")

	if status, _ := f.do(t, http.MethodPut, "/apps/app-1/withdraw-delay", owner, `{"seconds":60}`); status != http.StatusOK {
		t.Fatalf("set delay: %d", status)
	}
	if status, _ := f.do(t, http.MethodPost, "/apps/app-1/withdraw-requests", acc1, ""); status != http.StatusAccepted {
		t.Fatalf("withdraw request: %d", status)
	}
	f.clock.Advance(61 * time.Second)
	status, body := f.do(t, http.MethodPost, "/apps/app-1/withdrawals", acc1, "")
	if status != http.StatusOK || body["refunded"] != "1" {
		t.Fatalf("unexpected withdraw %d %v", status, body)
	}
	if got := f.treasury.total(acc1); !got.Equal(d("1")) {
		t.Fatalf("expected treasury refund 1, got %s", got)
	}
}

func TestHandlerResourcesAndAirdrops(t *testing.T) {
	f := newHTTPFixture(t)

	status, body := f.do(t, http.MethodPost, "/apps/app-1/resources", owner,
		`{"ops":[{"resource_id":"p2","weight":3,"op":"add"},{"id":2,"resource_id":"p2","weight":7,"op":"update"}]}`)
	if status != http.StatusOK || body["total"] != float64(2) || body["next_id"] != float64(3) {
		t.Fatalf("unexpected resources response %d %v", status, body)
	}
	status, body = f.do(t, http.MethodGet, "/apps/app-1/resources/2", "", "")
	if status != http.StatusOK || body["weight"] != float64(7) {
		t.Fatalf("unexpected resource %d %v", status, body)
	}

	status, _ = f.do(t, http.MethodPost, "/apps/app-1/airdrops", owner, `{"drops":[{"user":"acc2","amount":"2","reason":"welcome"}]}`)
	if status != http.StatusOK {
		t.Fatalf("airdrop: %d", status)
	}
	total, airdrop := f.ledger.BalanceWithAirdrop(acc2)
	if !total.Equal(d("2")) || !airdrop.Equal(d("2")) {
		t.Fatalf("unexpected airdrop balances %s/%s", total, airdrop)
	}

	if status, _ := f.do(t, http.MethodPut, "/apps/app-1/owner", owner, `{"owner":"acc3"}`); status != http.StatusOK {
		t.Fatalf("transfer ownership: %d", status)
	}
	if status, _ := f.do(t, http.MethodPost, "/apps/app-1/airdrops", owner, `{"drops":[{"user":"acc2","amount":"1"}]}`); status != http.StatusForbidden {
		t.Fatalf("former owner must lose airdrop rights, got %d", status)
	}
}
