package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/m760622/snabbaLexinTSR/internal/bootstrap"
	"github.com/m760622/snabbaLexinTSR/internal/config"
	"github.com/m760622/snabbaLexinTSR/internal/delivery/telegram"
	"github.com/m760622/snabbaLexinTSR/internal/logger"
	"github.com/m760622/snabbaLexinTSR/internal/repository"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

func main() {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := repository.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		lg.Fatal("failed to load catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	lg.Info("catalog loaded",
		zap.String("path", cfg.CatalogPath),
		zap.Int("items", catalog.Len()),
	)

	kv, closeKV, err := bootstrap.OpenKV(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open progress store", zap.Error(err))
	}
	defer closeKV()

	token, err := cfg.BotToken()
	if err != nil {
		lg.Fatal("telegram token is not set", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		lg.Fatal("failed to create bot", zap.Error(err))
	}
	bot.Debug = cfg.Env != "production"
	lg.Info("authorized", zap.String("account", bot.Self.UserName))

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(telegram.BotCommands()...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	var handler *telegram.Handler
	registry := service.NewSessionRegistry(
		catalog,
		kv,
		bootstrap.EngineConfig(cfg),
		lg,
		service.WithListenerFactory(func(learner string) service.Listener {
			return handler.Listener(learner)
		}),
	)
	defer registry.Close()

	handler = telegram.NewHandler(bot, lg, registry)
	autosave := service.NewAutosaveService(registry, cfg.Storage.Autosave, cfg.Storage.Timeout, lg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handler.Run(gctx)
	})
	g.Go(func() error {
		return autosave.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("bot stopped with error", zap.Error(err))
	}

	lg.Info("shutdown signal received")
}
