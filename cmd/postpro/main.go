package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	apiv1 "github.com/SumanthChary/postpro-backend/internal/api/v1"
	"github.com/SumanthChary/postpro-backend/internal/pkg/cache"
	"github.com/SumanthChary/postpro-backend/internal/pkg/credits"
	"github.com/SumanthChary/postpro-backend/internal/pkg/database"
	"github.com/SumanthChary/postpro-backend/internal/pkg/enhance"
	"github.com/SumanthChary/postpro-backend/internal/pkg/env"
	"github.com/SumanthChary/postpro-backend/internal/pkg/gemini"
	"github.com/SumanthChary/postpro-backend/internal/pkg/payments"
	"github.com/SumanthChary/postpro-backend/internal/pkg/promo"
	"github.com/SumanthChary/postpro-backend/internal/pkg/router"
	"github.com/SumanthChary/postpro-backend/internal/pkg/sharing"
	"github.com/SumanthChary/postpro-backend/internal/pkg/subscription"
	"github.com/SumanthChary/postpro-backend/internal/pkg/usage"
	"github.com/SumanthChary/postpro-backend/internal/pkg/whop"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()

	// Domain services
	creditService := credits.NewService(credits.NewRepository(db))
	statusCache := subscription.NewRedisStatusCache(cache.GetClient(), env.GetEnvDuration("SUBSCRIPTION_CACHE_TTL", 0))
	subscriptionService := subscription.NewService(
		subscription.NewRepository(db),
		statusCache,
		env.GetEnvList("UNLIMITED_EMAILS"),
	)
	paymentService := payments.NewService(
		payments.NewRepository(db),
		payments.NewRazorpayClientFromEnv(),
		creditService,
		subscriptionService,
	)
	whopService := whop.NewService(
		whop.NewEventStore(db),
		whop.NewUserDirectory(db),
		paymentService,
		subscriptionService,
		env.GetEnv("WHOP_WEBHOOK_SECRET", ""),
	)
	enhanceService := enhance.NewService(gemini.NewClientFromEnv())
	usageService := usage.NewService(usage.NewRepository(db))
	promoService := promo.NewService(promo.NewRepository(db), creditService)
	sharingService := sharing.NewService(sharing.NewRepository(db))

	server := apiv1.NewAPIServer()
	server.Credits = creditService
	server.Subscriptions = subscriptionService
	server.Payments = paymentService
	server.Whop = whopService
	server.Enhance = enhanceService
	server.Usage = usageService
	server.Promo = promoService
	server.Sharing = sharingService
	server.SiteURL = env.GetEnv("PUBLIC_SITE_URL", "")

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "PostPro Backend",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Server:        server,
		InternalToken: env.GetEnv("INTERNAL_API_TOKEN", ""),
	})

	return app
}

func findOpenAPISpec() string {
	// The binary may run from the project root or from cmd/postpro.
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
