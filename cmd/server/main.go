package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/handler"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/ledger"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/middleware"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/telegram"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Server.Environment == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	// Ledger services share one lock manager so every operation takes
	// per-account mutation rights through the same ordering.
	locker := ledger.NewLocker()
	registry := ledger.NewAccountRegistry(repo)
	reconciler := ledger.NewBalanceReconciler(repo, locker, log)
	transferEngine := ledger.NewTransferEngine(repo, registry, cfg.Ledger, locker, log)
	depositAuth := ledger.NewDepositAuthorizer(repo, cfg.Ledger, locker, log)
	referralLedger := ledger.NewReferralLedger(repo, registry, cfg.Ledger, locker, log)

	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg, registry, reconciler, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create Telegram bot")
		} else {
			transferEngine.SetNotifier(bot)
			depositAuth.SetNotifier(bot)
			log.Info().Str("username", bot.GetBotUsername()).Msg("Telegram bot initialized")
		}
	}

	// Resolve transfers interrupted by a previous crash before taking
	// traffic.
	intentWorker := ledger.NewIntentWorker(repo, reconciler, cfg.Ledger, log)
	if err := intentWorker.ReplayPending(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to replay pending transfer intents")
	}

	h := handler.New(cfg, registry, reconciler, transferEngine, depositAuth, referralLedger, repo, repo)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data",
	}))

	h.RegisterRoutes(app, middleware.TelegramAuth(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bot != nil {
		go bot.StartPolling(ctx)
		log.Info().Msg("Telegram bot started with long polling")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
