// Command migrate copies the document-backend reviews file into the
// relational backend. It is a one-shot batch job keyed by id, so aborting
// and re-running it never duplicates rows.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/thejavamonster/ohswebsite/internal/config"
	"github.com/thejavamonster/ohswebsite/internal/logger"
	"github.com/thejavamonster/ohswebsite/internal/migrate"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	zl, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	cfg := config.Load()
	if !cfg.Relational() {
		zl.Fatal("DATABASE_URL must be set: the migration target is the relational backend")
	}

	db, err := store.OpenDB(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	if err := store.NewSQLStore(db).AutoMigrate(); err != nil {
		zl.Fatal("failed to prepare schema", zap.Error(err))
	}

	doc := store.NewDocumentStore(cfg.ReviewsFile)

	stats, err := migrate.Run(doc, db, zl)
	if err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	zl.Info("migration complete",
		zap.Int("courses", stats.Courses),
		zap.Int("reviews", stats.Reviews),
		zap.Int("replies", stats.Replies),
		zap.Int("skipped", stats.Skipped),
	)
}
