package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpadapter "github.com/posterforge/posterforge/internal/adapters/http"
	natsadapter "github.com/posterforge/posterforge/internal/adapters/nats"
	"github.com/posterforge/posterforge/internal/adapters/nominatim"
	"github.com/posterforge/posterforge/internal/adapters/overpass"
	"github.com/posterforge/posterforge/internal/adapters/valkey"
	"github.com/posterforge/posterforge/internal/core/ports"
	"github.com/posterforge/posterforge/internal/core/usecases"
	"github.com/posterforge/posterforge/internal/pkg/config"
	"github.com/posterforge/posterforge/internal/pkg/logging"
	"github.com/posterforge/posterforge/internal/pkg/ratelimit"
	"github.com/posterforge/posterforge/internal/pkg/telemetry"
	"github.com/posterforge/posterforge/internal/render"
	"github.com/posterforge/posterforge/internal/themes"
)

func main() {
	cfg, err := config.Load("posterforge-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if err := os.MkdirAll(cfg.Assets.OutputDir, 0o755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	// Cache (optional)
	var cache *valkey.Cache
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr, "posterforge")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// NATS event mirror (optional)
	var publisher *natsadapter.Publisher
	if cfg.NATS.Enabled {
		publisher, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Rendering assets
	fonts, err := render.LoadFonts(cfg.Assets.FontsDir)
	if err != nil {
		log.Fatalf("load fonts: %v", err)
	}
	renderer := render.New(fonts, render.PosterOptions(cfg.Poster.DPI))
	themeLoader := themes.NewLoader(cfg.Assets.ThemesDir, logging.Component("themes"))

	// Upstream OSM clients share one rate limiter
	limiter := ratelimit.New(time.Duration(cfg.Upstream.RateLimitDelay * float64(time.Second)))
	geocoder := nominatim.New(time.Duration(cfg.Upstream.NominatimTimeout)*time.Second, logging.Component("nominatim"))
	fetcher := overpass.New(
		&http.Client{Timeout: time.Duration(cfg.Upstream.OverpassTimeout) * time.Second},
		limiter,
		logging.Component("overpass"),
	)

	svcCfg := usecases.ServiceConfig{
		Workers:           cfg.Jobs.Workers,
		QueueSize:         cfg.Jobs.QueueSize,
		OutputDir:         cfg.Assets.OutputDir,
		MinDistance:       cfg.Poster.MinDistance,
		MaxDistance:       cfg.Poster.MaxDistance,
		DefaultDistance:   cfg.Poster.DefaultDistance,
		DefaultTheme:      cfg.Poster.DefaultTheme,
		GenerationTimeout: cfg.Jobs.GenerationTimeoutDuration(),
		RerenderTimeout:   cfg.Jobs.RerenderTimeoutDuration(),
		JobTTL:            time.Duration(cfg.Jobs.RetentionTTL) * time.Second,
		JanitorInterval:   time.Duration(cfg.Jobs.JanitorInterval) * time.Second,
		FeatureCacheTTL:   time.Duration(cfg.Jobs.FeatureCacheTTL) * time.Second,
		FeatureCacheSize:  cfg.Jobs.FeatureCacheSize,
	}

	// nil interfaces must stay nil, not wrap nil pointers
	var geoCache ports.CacheService
	if cache != nil {
		geoCache = cache
	}
	var events ports.EventPublisher
	if publisher != nil {
		events = publisher
	}

	posters := usecases.NewPosterService(svcCfg, geocoder, fetcher, themeLoader, renderer, geoCache, events, logging.Component("posters"))
	posters.Start(ctx)

	deps := &httpadapter.Dependencies{
		Posters:   posters,
		Locations: geocoder,
		Cache:     cache,
		NATS:      publisher,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "PosterForge API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	httpadapter.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// Stop workers and wait for in-flight jobs to settle
	cancel()
	posters.Wait()

	slog.Info("server stopped")
}
