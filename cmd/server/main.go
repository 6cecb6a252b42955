package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hunomina/wave-function-collapse/internal/engine"
	"github.com/hunomina/wave-function-collapse/internal/server"
	"github.com/hunomina/wave-function-collapse/internal/version"
	"github.com/hunomina/wave-function-collapse/pkg/catalog"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/sirupsen/logrus"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	cfg := engine.NewConfig()

	var seed int64
	// По умолчанию 0 (значит сгенерировать случайно).
	flag.Int64Var(&seed, "seed", 0, "Master seed (0 for random)")
	flag.StringVar(&cfg.TilesPath, "tiles", cfg.TilesPath, "Path to tiles.json")
	flag.IntVar(&cfg.MapSize, "size", cfg.MapSize, "Map side length in cells")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Delay between automatic collapse steps")
	flag.BoolVar(&cfg.AutoRestart, "auto-restart", cfg.AutoRestart, "Start a new map right after a contradiction")
	flag.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "Directory for solved maps (empty = do not save)")
	flag.Parse()

	logger.Log.Info("Starting WFC generator...")
	logger.Log.Info(version.String())

	if seed != 0 {
		cfg.Seed = seed
		logger.Log.Infof("Using explicit master seed: %d", seed)
	} else {
		logger.Log.Infof("Using random master seed: %d", cfg.Seed)
	}

	// 2. Каталог тайлов
	cat, err := catalog.Load(cfg.TilesPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load tiles: %v", err)
	}
	if report := catalog.Analyze(cat.Variants); !report.Closed() {
		logger.Log.WithFields(logrus.Fields{
			"component": "catalog",
			"dead_ends": len(report.DeadEnds),
		}).Warn("Catalog is not closed, contradictions are likely")
	}

	port := os.Getenv("WFC_PORT")
	if port == "" {
		port = "8080"
	}

	// 3. Инициализация генератора с конфигом
	service, err := engine.NewService(cfg, cat.Variants)
	if err != nil {
		logger.Log.Fatalf("Failed to create service: %v", err)
	}
	service.Start()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 4. Запуск сервера
	srv := server.New(service, port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown error")
	}
	service.Stop()

	logger.Log.Info("Done.")
}
