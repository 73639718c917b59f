package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/apicoin/apicoin/internal/appledger"
	"github.com/apicoin/apicoin/internal/auth"
	"github.com/apicoin/apicoin/internal/config"
	"github.com/apicoin/apicoin/internal/events"
	"github.com/apicoin/apicoin/internal/funding"
	"github.com/apicoin/apicoin/internal/ledger"
	"github.com/apicoin/apicoin/internal/metrics"
	"github.com/apicoin/apicoin/internal/middleware"
	"github.com/apicoin/apicoin/internal/platform"
	"github.com/apicoin/apicoin/internal/registry"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	NATS   *nats.Conn
	Logger *slog.Logger

	// Acquirer processes card top-ups and payouts. Nil approves everything.
	Acquirer funding.Acquirer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	issuer, err := auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.TokenTTL, d.Cfg.AppName)
	if err != nil {
		return fmt.Errorf("build token issuer: %w", err)
	}
	recorder := metrics.NewRecorder()

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDevelopment() {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	app.Use(recorder.Middleware())

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", recorder.Handler())

	// Backends
	var tokenLedger ledger.Ledger
	var appRepo registry.Repository
	var states appledger.StateStore
	publishers := events.Fanout{events.NewLogPublisher(d.Logger), recorder}
	if d.DB != nil {
		tokenLedger = ledger.NewPostgresLedger(d.DB)
		appRepo = registry.NewPostgresRepository(d.DB)
		states = appledger.NewPostgresStore(d.DB)
		publishers = append(publishers, events.NewPostgresJournal(d.DB))
	} else {
		tokenLedger = ledger.NewInMemory()
		appRepo = registry.NewMemoryRepository()
		states = appledger.NewMemoryStore()
	}
	if err := tokenLedger.EnsureAccount(context.Background(), ledger.IssuanceAccountCode); err != nil {
		return fmt.Errorf("ensure issuance account: %w", err)
	}
	var paid platform.PaidIndex
	if d.Cache != nil {
		paid = platform.NewRedisPaidIndex(d.Cache)
	} else {
		paid = platform.NewMemoryPaidIndex()
	}
	if d.NATS != nil {
		publishers = append(publishers, events.NewNATSPublisher(d.NATS, d.Cfg.NATSSubject))
	}

	// Services and handlers
	token := platform.NewToken(d.Cfg.PlatformID, tokenLedger, paid, d.Logger)
	cards := funding.NewService(tokenLedger, d.Acquirer, d.Logger)
	apps := registry.New(
		registry.Config{Platform: d.Cfg.PlatformID, WithdrawDelay: d.Cfg.WithdrawDelay},
		appRepo, token,
		registry.WithStore(states),
		registry.WithPublisher(publishers),
		registry.WithLogger(d.Logger),
	)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	if d.Cfg.IsDevelopment() {
		api.Post("/auth/token", auth.NewHandler(issuer).Token)
	}

	guards := Guards{
		Caller:      middleware.Caller(issuer),
		RateLimit:   middleware.RateLimit(d.Cache, d.Cfg.RateLimit),
		Idempotency: passThrough,
	}
	if d.Cache != nil {
		guards.Idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterRegistryRoutes(api, registry.NewHandler(apps, d.Cfg.MaxPageSize), guards)
	RegisterFundingRoutes(api, funding.NewHandler(cards), guards)
	RegisterPlatformRoutes(api, platform.NewHandler(token, apps, d.Cfg.MaxPageSize), guards)
	RegisterAppRoutes(api, appledger.NewHandler(apps, d.Cfg.MaxPageSize), guards)

	return nil
}

// Guards are the middleware chains applied to authenticated routes.
type Guards struct {
	Caller      fiber.Handler
	RateLimit   fiber.Handler
	Idempotency fiber.Handler
}

// mutate authenticates and rate limits.
func (g Guards) mutate(h fiber.Handler) []fiber.Handler {
	return []fiber.Handler{g.Caller, g.RateLimit, h}
}

// money additionally makes the request replay-safe.
func (g Guards) money(h fiber.Handler) []fiber.Handler {
	return []fiber.Handler{g.Caller, g.RateLimit, g.Idempotency, h}
}

func passThrough(c *fiber.Ctx) error { return c.Next() }
