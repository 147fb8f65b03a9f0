package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellojohn-guard/internal/app"
	"github.com/dropDatabas3/hellojohn-guard/internal/config"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/server"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
)

var version = "dev"

func main() {
	// .env es opcional; las variables del sistema siempre ganan.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  error loading .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al config YAML (env CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "hellojohn-guard",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("service")

	a, err := app.New(cfg, app.Deps{})
	if err != nil {
		lg.Fatal("app wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	lg.Info("guard listening",
		logger.String("addr", cfg.Server.Addr),
		logger.KeyID(a.Codec.KeyRing().Current.ID),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)

	if err := server.Run(ctx, server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.Handler, nil); err != nil {
		lg.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
	lg.Info("server stopped")
}
