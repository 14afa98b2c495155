package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"spacebook/internal/config"
	"spacebook/internal/database"
	jwtsvc "spacebook/internal/pkg/jwt"
	"spacebook/internal/pkg/logger"
	"spacebook/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.IsProduction(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.Database.URL, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}

	sessions := session.NewService(
		session.NewRepository(db),
		session.NewSealer(cfg.Session.Secret),
		jwtsvc.New(cfg.Upstream.JWTSecret),
		cfg.Session.TTL,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := sessions.Cleanup(ctx)
	if err != nil {
		lg.Fatal("session cleanup failed", zap.Error(err))
	}
	lg.Info("session cleanup completed", zap.Int64("deleted", n))
}
