package appledger

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/middleware"
	"github.com/apicoin/apicoin/internal/paging"
	"github.com/apicoin/apicoin/internal/resource"
)

// Resolver finds the ledger for an app handle.
type Resolver interface {
	App(ctx context.Context, handle string) (*Ledger, error)
}

// Handler exposes app ledger operations over HTTP. Every route is scoped by :app.
type Handler struct {
	apps    Resolver
	maxPage int
}

// NewHandler constructs an app ledger handler.
func NewHandler(apps Resolver, maxPage int) *Handler {
	return &Handler{apps: apps, maxPage: maxPage}
}

type amountRequest struct {
	User   string          `json:"user"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo"`
}

type freezeRequest struct {
	User   string `json:"user"`
	Frozen bool   `json:"frozen"`
}

type delayRequest struct {
	Seconds int64 `json:"seconds"`
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

type airdropRequest struct {
	Drops []Drop `json:"drops"`
}

type resourcesRequest struct {
	Ops []resource.Op `json:"ops"`
}

func fail(err error) error {
	return fiber.NewError(apperr.HTTPStatus(err), err.Error())
}

func badRequest(err error) error {
	return fiber.NewError(http.StatusBadRequest, err.Error())
}

func (h *Handler) app(c *fiber.Ctx) (*Ledger, error) {
	l, err := h.apps.App(c.UserContext(), c.Params("app"))
	if err != nil {
		return nil, fail(err)
	}
	return l, nil
}

// resolve loads the app and the authenticated caller.
func (h *Handler) resolve(c *fiber.Ctx) (*Ledger, string, error) {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return nil, "", err
	}
	l, err := h.app(c)
	if err != nil {
		return nil, "", err
	}
	return l, caller, nil
}

// Info returns the app summary.
func (h *Handler) Info(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(l.Info())
}

// Charge debits a user for API usage.
func (h *Handler) Charge(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	res, err := l.Charge(c.UserContext(), caller, req.User, req.Amount, req.Memo)
	if err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// Freeze sets or clears the admin freeze on a user.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req freezeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if err := l.Freeze(c.UserContext(), caller, req.User, req.Frozen); err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(l.Account(req.User))
}

// WithdrawRequest starts the caller's exit from the app.
func (h *Handler) WithdrawRequest(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	if err := l.WithdrawRequest(c.UserContext(), caller); err != nil {
		return fail(err)
	}
	return c.Status(http.StatusAccepted).JSON(l.Account(caller))
}

// Withdraw completes the caller's exit once the delay has passed.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	refunded, err := l.ForceWithdraw(c.UserContext(), caller)
	if err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": caller, "refunded": refunded})
}

// SetWithdrawDelay changes the app's withdraw delay.
func (h *Handler) SetWithdrawDelay(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req delayRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if err := l.SetWithdrawDelay(c.UserContext(), caller, time.Duration(req.Seconds)*time.Second); err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(l.Info())
}

// TransferOwnership hands the app to a new owner.
func (h *Handler) TransferOwnership(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req ownerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if err := l.TransferAppOwnership(c.UserContext(), caller, req.Owner); err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(l.Info())
}

// Airdrop credits promotional balance to one or more users.
func (h *Handler) Airdrop(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req airdropRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if err := l.AirdropBatch(c.UserContext(), caller, req.Drops); err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"drops": len(req.Drops)})
}

// ConfigureResources applies a batch of resource operations.
func (h *Handler) ConfigureResources(c *fiber.Ctx) error {
	l, caller, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req resourcesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if err := l.ConfigureResourceBatch(c.UserContext(), caller, req.Ops); err != nil {
		return fail(err)
	}
	slots, total := l.ListResources(0, h.maxPage)
	return c.Status(http.StatusOK).JSON(fiber.Map{"resources": slots, "total": total, "next_id": l.Info().NextResource})
}

// ListResources pages through the resource table.
func (h *Handler) ListResources(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	slots, total := l.ListResources(c.QueryInt("offset"), paging.Limit(c.QueryInt("limit"), h.maxPage))
	return c.Status(http.StatusOK).JSON(fiber.Map{"resources": slots, "total": total})
}

// Resource returns one resource slot by id.
func (h *Handler) Resource(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(err)
	}
	slot, ok := l.Resource(id)
	if !ok {
		return fiber.NewError(http.StatusNotFound, "resource not found")
	}
	return c.Status(http.StatusOK).JSON(slot)
}

// ListUsers pages through charged users in first-seen order.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	users, total := l.ListUsers(c.QueryInt("offset"), paging.Limit(c.QueryInt("limit"), h.maxPage))
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": users, "total": total})
}

// TopUsers ranks charged users by cumulative spend.
func (h *Handler) TopUsers(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": l.TopUsers(paging.Limit(c.QueryInt("n"), h.maxPage))})
}

// Account returns a user's balances.
func (h *Handler) Account(c *fiber.Ctx) error {
	l, err := h.app(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(l.Account(c.Params("user")))
}
