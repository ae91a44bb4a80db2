package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/i474232898/weather-view/internal/api/http"
	"github.com/i474232898/weather-view/internal/config"
	"github.com/i474232898/weather-view/internal/geo"
	"github.com/i474232898/weather-view/internal/scheduler"
	"github.com/i474232898/weather-view/internal/store"
	"github.com/i474232898/weather-view/internal/view"
	"github.com/i474232898/weather-view/internal/weather"
	"github.com/i474232898/weather-view/internal/weather/providers"
)

func main() {
	zcfg := zap.NewProductionConfig()
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level.SetLevel(level)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory reading log with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	backoff := providers.BackoffConfig{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInterval,
		MaxInterval:     5 * time.Second,
	}

	// Providers in failover order.
	var provs []weather.Provider
	for _, name := range cfg.Providers {
		switch name {
		case "openweather":
			provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, backoff, logger))
		case "weatherapi":
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, backoff, logger))
		case "openmeteo":
			provs = append(provs, providers.NewOpenMeteoProvider(httpClient, backoff, logger))
		}
	}

	service := weather.NewService(memStore, provs, logger)

	sched := scheduler.New(memStore, cfg.StoreSweepInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	var locator geo.Locator
	switch cfg.Geolocation {
	case config.GeoIP:
		locator = geo.NewIPLocator(httpClient, logger)
	case config.GeoGeocode:
		locator = geo.NewGeocodeLocator(cfg.GeocoderAPIKey, cfg.HomeCity, cfg.HomeCountry)
	case config.GeoStatic:
		locator = geo.StaticLocator{Location: weather.Location{
			Lat:     cfg.HomeLat,
			Lon:     cfg.HomeLon,
			City:    cfg.HomeCity,
			Country: cfg.HomeCountry,
		}}
	case config.GeoBrowser:
		// The page reports the position itself.
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v := view.New(service, locator, view.Options{
		Timeout: cfg.HTTPTimeout,
		Logger:  logger.Named("view"),
	})
	v.Mount(ctx)
	defer v.Close()

	app := fiber.New(fiber.Config{
		AppName:               "weather-view",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				zap.L().Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-view",
		})
	})

	httpapi.RegisterRoutes(app, v, service, httpapi.Options{
		IconBaseURL:     cfg.IconBaseURL,
		BrowserLocation: locator == nil,
		Logger:          logger.Named("http"),
	})

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
