package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/handlers"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/middleware"
)

// Options selects environment-dependent routes
type Options struct {
	Version           string
	Development       bool
	ValidateSignature bool
	TwilioAuthToken   string
	PublicBaseURL     string
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler, health *handlers.HealthHandler, opts Options) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		endpoints := fiber.Map{
			"health":  "/health",
			"metrics": "/metrics",
			"webhook": "/webhook/whatsapp",
		}
		if opts.Development {
			endpoints["test_whatsapp"] = "/test/whatsapp"
		}
		return c.JSON(fiber.Map{
			"message":   "PV-COLLECT WhatsApp bot",
			"version":   opts.Version,
			"endpoints": endpoints,
		})
	})

	app.Get("/health", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	if opts.ValidateSignature {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(opts.TwilioAuthToken, opts.PublicBaseURL), whatsapp.HandleWebhook)
	} else {
		// Development: Skip validation for ngrok
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
	}

	// ========== TEST ROUTES (Development Only) ==========
	if opts.Development {
		app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
	}
}
