package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/Colorata/WeatherComposePoc/internal/api/http"
	"github.com/Colorata/WeatherComposePoc/internal/appstate"
	"github.com/Colorata/WeatherComposePoc/internal/config"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
	"github.com/Colorata/WeatherComposePoc/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}
	appLogger := logging.New(os.Stderr, level)

	// Wait for termination signal; the same context bounds every screen.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := appstate.New(ctx, cfg, appLogger)
	defer state.Close()

	// The screen is shown from startup, as in the app.
	state.WeatherScreen.Mount()

	sched := scheduler.New(cfg.RefreshInterval, state, appLogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-compose",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          40 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-compose",
			"city":    state.City,
			"mounted": state.WeatherScreen.Mounted(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, state)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLogger.Error("main", "fiber server stopped: "+err.Error())
		}
	}()
	appLogger.Info("main", "listening on :"+cfg.Port+", city "+cfg.City)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("main", "error during shutdown: "+err.Error())
	}
}
