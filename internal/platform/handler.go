package platform

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/appledger"
	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/middleware"
	"github.com/apicoin/apicoin/internal/paging"
)

// Handler exposes platform token endpoints.
type Handler struct {
	token   *Token
	apps    appledger.Resolver
	maxPage int
}

// NewHandler constructs a platform token handler.
func NewHandler(token *Token, apps appledger.Resolver, maxPage int) *Handler {
	return &Handler{token: token, apps: apps, maxPage: maxPage}
}

type depositRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ClientTxID string          `json:"client_tx_id"`
}

// Deposit funds the app at :app on behalf of the caller.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	payer, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	app, err := h.apps.App(c.UserContext(), c.Params("app"))
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	res, err := h.token.DepositToApp(c.UserContext(), payer, app, req.Amount, req.ClientTxID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// PaidApps lists the apps a payer has deposited into.
func (h *Handler) PaidApps(c *fiber.Ctx) error {
	payer := c.Params("payer")
	apps, total, err := h.token.ListPaidApps(c.UserContext(), payer, c.QueryInt("offset"), paging.Limit(c.QueryInt("limit"), h.maxPage))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"payer": payer, "apps": apps, "total": total})
}

// Balance returns a holder's platform token balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	holder := c.Params("holder")
	bal, err := h.token.BalanceOf(c.UserContext(), holder)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"holder": holder, "balance": bal})
}
