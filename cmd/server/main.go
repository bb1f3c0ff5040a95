package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/thejavamonster/ohswebsite/internal/config"
	routes "github.com/thejavamonster/ohswebsite/internal/http"
	"github.com/thejavamonster/ohswebsite/internal/logger"
	"github.com/thejavamonster/ohswebsite/internal/reviews"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

func main() {
	// A missing .env is fine: production sets env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	zl, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	cfg := config.Load()

	// The backend is picked exactly once, here. Relational credentials
	// present means the SQL store; otherwise the flat JSON document file.
	var st store.Store
	if cfg.Relational() {
		db, err := store.OpenDB(cfg.DatabaseURL)
		if err != nil {
			zl.Fatal("failed to open database", zap.Error(err))
		}
		sqlStore := store.NewSQLStore(db)
		if err := sqlStore.AutoMigrate(); err != nil {
			zl.Fatal("failed to run migrations", zap.Error(err))
		}
		st = sqlStore
		zl.Info("using relational backend")
	} else {
		st = store.NewDocumentStore(cfg.ReviewsFile)
		zl.Info("using document backend", zap.String("file", cfg.ReviewsFile))
	}

	svc := reviews.NewService(st)

	router := gin.New()
	routes.SetupRoutes(router, svc, cfg, zl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-quit
	zl.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Fatal("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exiting")
}
