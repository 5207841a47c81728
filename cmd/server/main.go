package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/localnerve/dbreview/internal/config"
	"github.com/localnerve/dbreview/internal/database"
	"github.com/localnerve/dbreview/internal/handlers"
	"github.com/localnerve/dbreview/internal/lock"
	"github.com/localnerve/dbreview/internal/logger"
	"github.com/localnerve/dbreview/internal/middleware"
	"github.com/localnerve/dbreview/internal/notifier"
	"github.com/localnerve/dbreview/internal/scheduler"
	"github.com/localnerve/dbreview/internal/services"
	"go.uber.org/zap"

	_ "github.com/localnerve/dbreview/docs/api" // Swagger docs
)

// @title DBReview API
// @version 1.0.0
// @description Database classification intake and owner-manager review notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/dbreview
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /
// @schemes http https

const dispatchLockKey = "dbreview:notify:lock"

func main() {
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to a .env file")
	flag.Parse()

	if envFilename != "" {
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables from %s: %v", envFilename, err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	mailer, closeMailer, err := notifier.New(cfg, zlog.Named("notifier"))
	if err != nil {
		zlog.Fatal("failed to create mail transport", zap.Error(err))
	}
	defer closeMailer()

	dispatcher := services.NewDispatcher(db, mailer, zlog.Named("dispatch"))
	dispatcher.Concurrency = cfg.NotifyConcurrency

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = lock.NewClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		dispatcher.Lock = lock.NewRedisLocker(rdb, dispatchLockKey, cfg.NotifyLockTTL, zlog)
	}

	if cfg.NotifySchedule != "" {
		sched, err := scheduler.New(cfg.NotifySchedule, dispatcher, cfg.NotifyLockTTL, zlog.Named("scheduler"))
		if err != nil {
			zlog.Fatal("failed to schedule escalation dispatch", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(zlog.Named("http")))
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New(cfg.ServiceName)
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(middleware.VersionMiddleware())

	// Create handlers
	employeeHandler := &handlers.EmployeeHandler{DB: db}
	dbInfoHandler := &handlers.DBInfoHandler{DB: db}
	notifyHandler := &handlers.NotifyHandler{Dispatcher: dispatcher}
	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db, Redis: rdb}

	app.Post("/employees/upload", employeeHandler.Upload)

	app.Post("/db_info/upload", dbInfoHandler.Upload)
	app.Get("/db_info/unclassified", dbInfoHandler.GetUnclassified)
	app.Get("/db_info/classification/:level", dbInfoHandler.GetByClassification)

	app.Post("/notify", notifyHandler.Notify)
	app.Get("/health", healthHandler.Health)

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		zlog.Info("gracefully shutting down")
		_ = app.ShutdownWithTimeout(30 * time.Second)
	}()

	// Start server
	port := cfg.Port
	zlog.Info("starting server", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		zlog.Error("failed to start server", zap.Error(err))
		return
	}

	zlog.Info("server stopped")
}
