package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/database"
	"github.com/example/rcn/internal/dedup"
	"github.com/example/rcn/internal/routes"
	"github.com/example/rcn/internal/services"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	var dedupStore dedup.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		dedupStore = dedup.NewRedisStore(client, "")
		log.Info().Str("addr", cfg.RedisAddr).Msg("alert dedup backed by redis")
	} else {
		dedupStore = dedup.NewMemoryStore()
	}
	monitor := services.NewMonitorService(cfg.AlertWebhookURL, dedupStore, cfg.AlertDedupTTL)

	var minter services.Minter = services.NoopMinter{}
	if cfg.MinterBaseURL != "" {
		minter = services.NewMinterClient(cfg.MinterBaseURL, cfg.MinterSecret)
	} else {
		log.Warn().Msg("no minter configured, settlement is a no-op")
	}

	tokens := services.NewTokenService(db, cfg, minter, monitor)
	sessions := services.NewSessionService(db, cfg, tokens, monitor)
	promos := services.NewPromoService(db, tokens)
	referrals := services.NewReferralService(db, tokens)

	app := fiber.New(fiber.Config{
		AppName: "RCN Engine",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.Register(app, db, cfg, routes.Deps{
		Tokens:    tokens,
		Sessions:  sessions,
		Promos:    promos,
		Referrals: referrals,
	})

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go sessions.Sweep(sweepCtx, cfg.SweepInterval)

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen error")
	}
}
