package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/sarrtle/fbtools/config"
	"github.com/sarrtle/fbtools/events"
	"github.com/sarrtle/fbtools/handlers"
	"github.com/sarrtle/fbtools/listener"
	"github.com/sarrtle/fbtools/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG_WEBHOOK") == "true" {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize MongoDB when configured; without it events are
	// dispatched but not persisted
	var store *services.EventStore
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := services.InitMongoDB(ctx, cfg.MongoURI)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer db.Disconnect(ctx)

		store = services.NewEventStore(db, cfg.DatabaseName)
		if err := store.EnsureIndexes(ctx); err != nil {
			slog.Error("Failed to create event indexes", "error", err)
			// Continue anyway, writes still work without indexes
		}
	} else {
		slog.Info("MONGO_URI not set, event persistence disabled")
	}

	// Build the webhook pipeline
	client := services.NewGraphClient(cfg.GraphVersion, cfg.PageAccessToken)
	cache := services.NewDedupCache(cfg.DedupCacheSize)
	classifier := events.NewClassifier(client)
	dispatcher := events.NewDispatcher()
	stream := services.NewEventStream()

	handlers.RegisterDefaults(dispatcher, store, stream)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("Request error", "error", err, "status", code)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))

	// Register webhook routes
	l := listener.New(cfg, cache, classifier, dispatcher)
	l.RegisterRoutes(app)

	// Live event stream
	app.Get("/ws/events", handlers.StreamUpgrade, websocket.New(handlers.HandleStream(stream)))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "fbtools",
		})
	})

	slog.Info("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
