package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"eroz/backend/config"
	"eroz/backend/metrics"
	"eroz/backend/middleware"
	"eroz/backend/routes"
	"eroz/backend/seed"
	"eroz/backend/services"
	"eroz/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		Level:        cfg.LogLevel,
		EnableColors: cfg.LogFormat == "text",
	})
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatalw("Error initializing database", "driver", cfg.DBDriver, "error", err)
	}

	if cfg.SeedDemoData {
		if err := seed.Run(db, seed.WithSeed(cfg.SeedRandom), seed.WithLogger(logger)); err != nil {
			logger.Fatalw("Error seeding demo data", "error", err)
		}
	}

	m := metrics.NewManager()

	// Create Fiber app
	app := fiber.New(fiber.Config{AppName: cfg.AppName})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger, m))

	// Setup routes
	err = routes.SetupRoutes(app, routes.Dependencies{
		DB:      db,
		Cfg:     cfg,
		Metrics: m,
		Logger:  logger,
		Rand:    services.NewLockedRand(time.Now().UnixNano()),
		Clock:   services.SystemClock,
	})
	if err != nil {
		logger.Fatalw("Error setting up routes", "error", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Infow("Shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	logger.Infow("Listening", "port", cfg.ServerPort, "stats_mode", cfg.StatsMode)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("Server stopped", "error", err)
	}
}
