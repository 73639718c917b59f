package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/appledger"
	"github.com/apicoin/apicoin/internal/funding"
	"github.com/apicoin/apicoin/internal/platform"
	"github.com/apicoin/apicoin/internal/registry"
)

// RegisterRegistryRoutes wires app creation and listings.
func RegisterRegistryRoutes(r fiber.Router, h *registry.Handler, g Guards) {
	r.Get("/apps", h.List)
	r.Post("/apps", g.mutate(h.Create)...)
	r.Get("/creators/:creator/apps", h.ListByCreator)
}

// RegisterFundingRoutes wires card top-ups and payouts of platform tokens.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, g Guards) {
	r.Post("/topups", g.money(h.TopUp)...)
	r.Post("/payouts", g.money(h.Payout)...)
}

// RegisterPlatformRoutes wires platform token deposits and balances.
func RegisterPlatformRoutes(r fiber.Router, h *platform.Handler, g Guards) {
	r.Post("/apps/:app/deposits", g.money(h.Deposit)...)
	r.Get("/payers/:payer/apps", h.PaidApps)
	r.Get("/holders/:holder/balance", h.Balance)
}

// RegisterAppRoutes wires the per-app ledger endpoints.
func RegisterAppRoutes(r fiber.Router, h *appledger.Handler, g Guards) {
	app := r.Group("/apps/:app")
	app.Get("", h.Info)
	app.Get("/accounts/:user", h.Account)
	app.Get("/users", h.ListUsers)
	app.Get("/users/top", h.TopUsers)
	app.Get("/resources", h.ListResources)
	app.Get("/resources/:id", h.Resource)

	app.Post("/charges", g.money(h.Charge)...)
	app.Post("/withdrawals", g.money(h.Withdraw)...)
	app.Post("/airdrops", g.money(h.Airdrop)...)
	app.Post("/freezes", g.mutate(h.Freeze)...)
	app.Post("/withdraw-requests", g.mutate(h.WithdrawRequest)...)
	app.Put("/withdraw-delay", g.mutate(h.SetWithdrawDelay)...)
	app.Put("/owner", g.mutate(h.TransferOwnership)...)
	app.Post("/resources", g.mutate(h.ConfigureResources)...)
}
