package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/auth"
	"trigger-settings/internal/config"
	"trigger-settings/internal/engine"
	"trigger-settings/internal/instrument"
	"trigger-settings/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.WithFields(log.Fields{
		"port":     cfg.Server.Port,
		"driver":   cfg.Database.Driver,
		"base_url": cfg.Server.BaseURL,
	}).Info("config loaded")

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// 3. Bootstrap system tables
	if err := db.Bootstrap(ctx); err != nil {
		log.WithError(err).Fatal("failed to bootstrap system tables")
	}
	log.Info("system tables ready")

	// 4. Audit trail
	var recorder instrument.Recorder = instrument.NoopRecorder{}
	if cfg.Audit.Enabled {
		buffer := instrument.NewEventBuffer(
			&instrument.SQLEventWriter{DB: db.DB, Dialect: db.Dialect},
			cfg.Audit.BufferSize, cfg.Audit.FlushIntervalMs)
		defer buffer.Stop()
		recorder = buffer
		go instrument.RunCleanup(ctx, db.DB, db.Dialect, cfg.Audit.RetentionDays, 24*time.Hour)
	}

	// 5. Expected body parse cache
	parser, err := engine.NewBodyParser(cfg.Cache.MaxCostBytes)
	if err != nil {
		log.WithError(err).Fatal("failed to create body parser cache")
	}
	defer parser.Close()

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 7. Auth routes (no auth required)
	auth.RegisterAuthRoutes(app, auth.NewAuthHandler(db, cfg.JWTSecret))

	authMW := auth.AuthMiddleware(cfg.JWTSecret)
	workspaceMW := auth.RequireWorkspace()

	// 8. Settings routes
	triggers := engine.NewTriggerService(engine.NewSQLWorkflowStore(db), parser, recorder, cfg.Server.BaseURL)
	engine.RegisterTriggerRoutes(app, engine.NewTriggerHandler(triggers), authMW, workspaceMW)

	sso := engine.NewSSOService(engine.NewSQLIdentityProviderStore(db), recorder, cfg.Server.BaseURL, cfg.Server.FrontOrigin)
	engine.RegisterSSORoutes(app, engine.NewSSOHandler(sso), authMW, workspaceMW, auth.RequireAdmin())

	instrument.RegisterEventRoutes(app, instrument.NewEventHandler(db.DB, db.Dialect), authMW, workspaceMW, auth.RequireAdmin())

	// 9. Start server
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("addr", addr).Info("starting server")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
