package main

import (
	"context"
	"time"

	mongoMigration "staybook/internal/migrations/mongo"
	"staybook/pkg/client"
	"staybook/pkg/config"
)

const JobName = "staybook-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	if !cfg.JournalEnabled() {
		cfg.Log.Fatal("MONGO_URI is required for migrations")
	}

	c := &client.Client{}
	c.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	defer c.GracefulShutdown(context.Background(), cfg.Log)

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, c.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
