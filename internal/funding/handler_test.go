package funding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/auth"
	"github.com/apicoin/apicoin/internal/ledger"
	"github.com/apicoin/apicoin/internal/logging"
	"github.com/apicoin/apicoin/internal/middleware"
)

func TestHandlerTopUpAndPayout(t *testing.T) {
	issuer, err := auth.NewIssuer("test-secret", time.Hour, "")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	h := NewHandler(NewService(ledger.NewInMemory(), nil, logging.Discard()))
	app := fiber.New()
	app.Post("/topups", middleware.Caller(issuer), h.TopUp)
	app.Post("/payouts", middleware.Caller(issuer), h.Payout)

	token, _, err := issuer.Issue("acc1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	send := func(path, body string) (int, Result) {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		defer resp.Body.Close()
		var res Result
		_ = json.NewDecoder(resp.Body).Decode(&res)
		return resp.StatusCode, res
	}

	status, res := send("/topups", `{"amount":"5","card_number":"4111111111111111","client_tx_id":"t1"}`)
	if status != http.StatusCreated || res.Holder != "acc1" || !res.Balance.Equal(d("5")) {
		t.Fatalf("top up: %d %+v", status, res)
	}
	if status, _ := send("/topups", `{"amount":"5","card_number":"4111111111111111","client_tx_id":"t1"}`); status != http.StatusOK {
		t.Fatalf("replayed top up should return 200, got %d", status)
	}
	if status, _ := send("/topups", `{"amount":"5","card_number":"12"}`); status != http.StatusBadRequest {
		t.Fatalf("bad card should be 400, got %d", status)
	}
	if status, _ := send("/payouts", `{"amount":"6","card_number":"4111111111111111"}`); status != http.StatusPaymentRequired {
		t.Fatalf("overdrawn payout should be 402, got %d", status)
	}
	status, res = send("/payouts", `{"amount":"5","card_number":"4111111111111111"}`)
	if status != http.StatusCreated || !res.Balance.IsZero() {
		t.Fatalf("payout: %d %+v", status, res)
	}

	req := httptest.NewRequest(http.MethodPost, "/topups", strings.NewReader(`{"amount":"1"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("anonymous top up: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous top up should be 401, got %d", resp.StatusCode)
	}
}
