package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/ledger"
	"github.com/apicoin/apicoin/internal/middleware"
)

// Handler exposes card top-ups and payouts for the authenticated holder.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type topUpRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ClientTxID string          `json:"client_tx_id"`
	CardNumber string          `json:"card_number"`
	Expiry     string          `json:"expiry"`
	CVV        string          `json:"cvv"`
}

type payoutRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ClientTxID string          `json:"client_tx_id"`
	CardNumber string          `json:"card_number"`
}

// TopUp buys platform tokens for the caller.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	holder, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.TopUp(c.UserContext(), TopUpInput{
		Holder:     holder,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
		CardNumber: req.CardNumber,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
	})
	return respond(c, res, err)
}

// Payout cashes the caller's platform tokens out to a card.
func (h *Handler) Payout(c *fiber.Ctx) error {
	holder, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	var req payoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Payout(c.UserContext(), PayoutInput{
		Holder:     holder,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
		CardNumber: req.CardNumber,
	})
	return respond(c, res, err)
}

func respond(c *fiber.Ctx, res Result, err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return c.Status(http.StatusOK).JSON(res)
	case err != nil:
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(res)
}
