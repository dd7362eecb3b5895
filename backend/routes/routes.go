package routes

import (
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/controllers"
	"eroz/backend/metrics"
	"eroz/backend/middleware"
	"eroz/backend/services"
)

// Dependencies are the shared collaborators of every route.
type Dependencies struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Metrics *metrics.Manager
	Logger  *zap.SugaredLogger
	// Rand draws invite codes and random series; it must be safe for concurrent use.
	Rand  *rand.Rand
	Clock services.Clock
}

func SetupRoutes(app *fiber.App, deps Dependencies) error {
	db, cfg := deps.DB, deps.Cfg
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.Rand == nil {
		deps.Rand = services.NewLockedRand(time.Now().UnixNano())
	}

	statsMode, err := services.ParseStatsMode(cfg.StatsMode)
	if err != nil {
		return err
	}
	opts := []services.Option{
		services.WithClock(deps.Clock),
		services.WithMetrics(deps.Metrics),
		services.WithStatsMode(statsMode),
		services.WithLogger(deps.Logger),
	}

	catalog := services.NewSeriesCatalog(db)
	tracker := services.NewProgressTracker(db, catalog, opts...)
	ledger := services.NewStatsLedger(db, opts...)
	recorder := services.NewSessionRecorder(db, catalog, tracker, opts...)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg, db)
	staffOnly := middleware.StaffOnly()
	adminOnly := middleware.AdminMiddleware()

	app.Get("/api/auth/me", authMiddleware, authController.Me)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, ledger)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/stats", progressController.GetStats)
	progress.Get("/sessions", progressController.GetSessions)
	progress.Get("/weekly-activity", progressController.GetWeeklyActivity)
	progress.Get("/xp-progress", progressController.GetXpProgress)
	progress.Post("/rebuild", progressController.RebuildStats)

	// Series routes
	seriesController := controllers.NewSeriesController(db, cfg, catalog, tracker, recorder, deps.Rand)
	series := app.Group("/api/series", authMiddleware)
	series.Post("/join", seriesController.JoinSeries)
	series.Get("/training/random", seriesController.GetRandomSeries)
	series.Get("/by-class/:classId", seriesController.ListClassSeries)
	series.Post("/", staffOnly, seriesController.CreateSeries)
	series.Get("/:id", seriesController.GetSeries)
	series.Delete("/:id", staffOnly, seriesController.DeleteSeries)
	series.Get("/:id/progress", staffOnly, seriesController.GetSeriesProgress)
	series.Post("/:id/submit", seriesController.SubmitResult)

	// Classes routes
	classesController := controllers.NewClassesController(db, cfg, deps.Rand, deps.Clock)
	classes := app.Group("/api/classes", authMiddleware)
	classes.Post("/join", classesController.JoinClass)
	classes.Get("/my", classesController.MyClasses)
	classes.Get("/", staffOnly, classesController.ListClasses)
	classes.Post("/", staffOnly, classesController.CreateClass)
	classes.Get("/:id", classesController.GetClass)
	classes.Put("/:id", staffOnly, classesController.UpdateClass)
	classes.Delete("/:id", staffOnly, classesController.DeleteClass)

	// Admin routes for users
	userController := controllers.NewUserController(db, cfg)
	users := app.Group("/api/users", authMiddleware, adminOnly)
	users.Get("/", userController.ListUsers)
	users.Put("/:id/role", userController.UpdateRole)
	users.Delete("/:id", userController.DeleteUser)

	return nil
}
