package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/agent"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/config"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage/bolt"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage/memory"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/infrastructure/storage/sqlite"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/server"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/version"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/utils"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации: окружение, затем флаги поверх
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Log.Fatal("Invalid configuration: ", err)
	}

	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Master seed (0 for random)")
	flag.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Path to topology TOML file")
	flag.Parse()

	logger.Log.Info("Starting Goofworld economy...")
	logger.Log.Info(version.String())

	engineCfg, err := cfg.Engine()
	if err != nil {
		logger.Log.Fatal("Invalid topology config: ", err)
	}

	// 2. Хранилище
	store, closer, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store: ", err)
	}
	defer func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close store")
		}
	}()
	logger.Log.Infof("Using %s store", cfg.Store)

	// 3. Ядро
	gameService := engine.NewService(engineCfg, store, nil)
	logger.Log.Infof("Using Master Seed: %d", gameService.Seed())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gameService.Bootstrap(ctx); err != nil {
		logger.Log.Fatal("Bootstrap failed: ", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gameService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.WithError(err).Error("Engine loop failed")
		}
	}()

	// 4. Боты
	for i := 0; i < cfg.Bots; i++ {
		// Сид бота выводится из мастер-сида и номера бота
		botSeed := utils.StringToSeed(fmt.Sprintf("bot-%d-%d", gameService.Seed(), i))
		bot := agent.NewBot(gameService, cfg.BotInterval, botSeed)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil {
				logger.Log.WithError(err).Warn("Bot exited")
			}
		}()
	}

	// 5. HTTP сервер
	srv := server.New(gameService, cfg.Addr())
	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error: ", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown")
	}
	// Закрываем сокеты: writePump'ы получат закрытый канал
	gameService.Hub.CloseAll()

	wg.Wait()
	logger.Log.Info("Done.")
}

func openStore(cfg config.Server) (engine.Store, io.Closer, error) {
	switch strings.ToLower(cfg.Store) {
	case config.StoreBolt:
		s, err := bolt.Open(cfg.DBPath)
		return s, s, err
	case config.StoreMemory:
		return memory.New(), nil, nil
	default:
		s, err := sqlite.Open(cfg.DBPath)
		return s, s, err
	}
}
