package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/izinapp/izin-api/internal/config"
	"github.com/izinapp/izin-api/internal/db"
	"github.com/izinapp/izin-api/internal/events"
	"github.com/izinapp/izin-api/internal/hash"
	"github.com/izinapp/izin-api/internal/httpserver"
	"github.com/izinapp/izin-api/internal/logging"
	"github.com/izinapp/izin-api/internal/middleware"
	"github.com/izinapp/izin-api/internal/repo"
	"github.com/izinapp/izin-api/internal/service"
	"github.com/izinapp/izin-api/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaAddress)
	defer producer.Close()

	svc := &service.AuthService{
		Repo: &repo.Repo{
			DB:     gormDB,
			Hasher: hash.NewTokenHasher(cfg.TokenHashKey),
		},
		Signer: &tokens.Signer{
			AccessSecret:  cfg.JWTSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     config.AccessTokenTTL,
			RefreshTTL:    config.RefreshTokenTTL,
			Issuer:        config.Issuer,
		},
		Events: producer,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: svc},
		AccessSecret: cfg.JWTSecret,
	})

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
