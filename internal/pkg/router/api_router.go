package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/SumanthChary/postpro-backend/internal/api/v1"
	"github.com/SumanthChary/postpro-backend/internal/pkg/env"
)

// Deps carries the wired API server and its route-level configuration.
type Deps struct {
	Server        *apiv1.APIServer
	InternalToken string
}

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The dashboard is served from a different origin, so the API group
	// allows any origin.
	api := app.Group("/api",
		cors.New(cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Whop-Signature, X-Internal-Token",
			AllowMethods: "GET, POST, OPTIONS",
		}),
		limiter.New(limiter.Config{
			Max: env.GetEnvInt("RATE_LIMIT_MAX", 60),
		}),
	)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiv1.RegisterHandlers(v1, h.deps.Server, h.deps.InternalToken)
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
