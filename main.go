package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/NERO-TECHNOLOGIE/godabeg/database"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/config"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/handlers"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/jobs"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/routes"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/services"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/storage"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

const (
	version         = "1.0.0"
	janitorInterval = time.Minute
	dedupeTTL       = 24 * time.Hour
	dedupeMaxSize   = 100000
	shutdownTimeout = 30 * time.Second
)

// logSender stands in for Twilio when no credentials are configured
type logSender struct{}

func (logSender) SendText(_ context.Context, to, text string) error {
	log.Printf("📤 Reply to %s (not sent - Twilio not configured):\n%s", to, text)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	clock := clockwork.NewRealClock()

	// Initialize storage
	var (
		store storage.Store
		db    *gorm.DB
	)
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("❌ %v", err)
		}
		store = storage.NewDatabaseStore(db)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Initialize Twilio service
	var (
		sender     services.Sender = logSender{}
		downloader services.MediaDownloader
	)
	if cfg.TwilioConfigured() {
		twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Twilio service: %v", err)
		}
		sender = twilioService
		downloader = twilioService
		log.Println("✅ Twilio service initialized")
	} else {
		log.Println("⚠️  Twilio credentials not found - replies will only be logged")
	}

	// Outbound pacing
	pacing := services.PacingOptions{
		Delay:       cfg.ReplyDelay,
		RatePerSec:  cfg.SendRatePerSecond,
		IdleTimeout: cfg.WorkerIdleTimeout,
	}
	var outbox services.Outbox
	if cfg.RedisURL != "" {
		rdb, err := services.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer rdb.Close()
		redisOutbox := services.NewRedisOutbox(rdb, sender, pacing, clock)
		redisOutbox.Start(context.Background())
		outbox = redisOutbox
		log.Println("✅ Using Redis outbox")
	} else {
		outbox = services.NewMemoryOutbox(sender, pacing, clock)
		log.Println("✅ Using in-memory outbox")
	}

	// Conversation engine
	tokens := services.NewTokenCache(cfg.TokenCacheSize, cfg.TokenDefaultTTL, clock)
	api := services.NewAPIClient(cfg.APIBaseURL, cfg.APITimeout, tokens, clock)
	sessions := services.NewSessionManager(cfg.SessionTTL, clock)
	bot := services.NewBotService(sessions, api, services.NewNavigator(api), services.NewRegistry(store),
		services.BotOptions{PosteLevel: cfg.LocalesPosteLevel})
	dispatcher := services.NewDispatcher(bot, outbox, cfg.WorkerIdleTimeout, clock)

	dedupe := utils.NewDedupeCache(dedupeTTL, dedupeMaxSize, clock)
	janitor := jobs.NewJanitorJob(janitorInterval, clock, map[string]jobs.Evictor{
		"sessions":    sessions,
		"tokens":      tokens,
		"webhook ids": dedupe,
	})
	janitor.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "PV-COLLECT v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	whatsappHandler := handlers.NewWhatsAppHandler(dispatcher, downloader, dedupe)
	healthHandler := handlers.NewHealthHandler(version, handlers.Counters{
		Sessions:        sessions.Count,
		ActiveUsers:     dispatcher.ActiveUsers,
		Representatives: store.CountRepresentatives,
	})
	routes.SetupRoutes(app, whatsappHandler, healthHandler, routes.Options{
		Version:           version,
		Development:       cfg.IsDevelopment(),
		ValidateSignature: !cfg.IsDevelopment() && !cfg.DisableWebhookValidation,
		TwilioAuthToken:   cfg.TwilioAuthToken,
		PublicBaseURL:     cfg.PublicBaseURL,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server shutdown: %v", err)
		}
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 PV-COLLECT starting on port %s", cfg.Port)
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("🔗 Backend: %s", cfg.APIBaseURL)
	log.Printf("⏱️  Reply delay: %v, send rate: %.1f/s", cfg.ReplyDelay, cfg.SendRatePerSecond)
	log.Println("========================================")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Println("⏹️  Draining inbound messages...")
	if err := dispatcher.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Dispatcher shutdown: %v", err)
	}
	log.Println("⏹️  Flushing outbox...")
	if err := outbox.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Outbox shutdown: %v", err)
	}
	janitor.Stop()
	if db != nil {
		database.Close(db)
	}
	log.Println("👋 Bye")
}
