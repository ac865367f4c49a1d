package main

import (
	"context" // Context for Mongo operations
	"time"    // Migration timeout

	"ebank_api/internal/config" // Custom import path (Config)
	"ebank_api/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer client.Disconnect(context.Background())
		if err := db.MigrateMongo(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			logrus.Fatalf("%v", err)
		}
	case config.StoreMySQL:
		gdb, err := db.OpenMySQL(cfg.MySQLDSN())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("%v", err)
		}
	default:
		logrus.Infof("Nothing to migrate for STORE_DRIVER=%q", cfg.StoreDriver)
	}
}
