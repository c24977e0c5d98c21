package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/database"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/handlers"
	"github.com/showsync/reccore/internal/health"
	"github.com/showsync/reccore/internal/middleware"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
)

// App wires the storage tiers, the profile/generator/store/scheduler
// domain packages, and the §6 REST surface into a single gin.Engine.
type App struct {
	config    *config.Config
	logger    *logrus.Logger
	db        *database.Database
	scheduler *scheduler.Scheduler
	handlers  *handlers.Handlers
	router    *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	builder := profile.NewBuilder(db.PG, cfg)
	gen := generator.NewGenerator(db.PG, db.Neo4j, builder, cfg, app.logger)
	warm := store.RedisCacheClient{Client: db.Redis.Warm}
	st := store.NewStore(db.PG, warm, cfg)
	sched := scheduler.New(db.PG, db.Redis.Hot, st, gen, builder, cfg, app.logger)
	checker := health.NewChecker(db, app.logger)

	app.scheduler = sched
	app.handlers = handlers.New(db.PG, db.Redis.Hot, st, gen, builder, sched, checker, cfg, app.logger)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Start launches the scheduler's cron jobs and worker pool; it must run
// before the HTTP server starts accepting traffic that can enqueue work.
func (a *App) Start(ctx context.Context) error {
	return a.scheduler.Start(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	a.scheduler.Stop()

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.CompressionMiddleware())

	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(a.config, a.logger))
		api.Use(middleware.RateLimit(a.db.Redis.Hot, a.config.Security.RateLimit.RequestsPerWindow, a.config.Security.RateLimit.Window, a.logger))

		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("/personal", a.handlers.Recommendation.Personal)
			recommendations.GET("/realtime", a.handlers.Recommendation.Realtime)
			recommendations.GET("/trending", a.handlers.Recommendation.Trending)
			recommendations.GET("/similar/:mediaId", a.handlers.Recommendation.Similar)
			recommendations.GET("/type", a.handlers.Recommendation.ByType)
			recommendations.GET("/groups", a.handlers.Recommendation.Groups)
			recommendations.GET("/groups/:groupId/content", a.handlers.Recommendation.GroupContent)

			recommendations.POST("/:kind/:id/view", a.handlers.Action.View)
			recommendations.POST("/:kind/:id/dismiss", a.handlers.Action.Dismiss)
			recommendations.POST("/:kind/:id/feedback", a.handlers.Action.Feedback)
		}

		me := api.Group("/me")
		{
			me.POST("/generate", a.handlers.Me.Generate)
			me.GET("/insights", a.handlers.Me.Insights)
			me.GET("/summary", a.handlers.Me.Summary)
		}

		admin := api.Group("/admin")
		{
			admin.Use(middleware.RequireAdmin())
			admin.POST("/generate", a.handlers.Admin.Generate)
			admin.GET("/analytics", a.handlers.Admin.Analytics)
		}
	}

	a.router = router
}
