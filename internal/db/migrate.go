package db

import (
	"context" // Context for Mongo operations
	"fmt"     // Error wrapping

	"ebank_api/internal/domain" // Importing domain models
	"ebank_api/internal/store"  // Mongo index bootstrap

	"github.com/sirupsen/logrus"           // Logging
	"go.mongodb.org/mongo-driver/v2/mongo" // MongoDB driver
	"gorm.io/gorm"                         // GORM ORM library
)

// Migrate performs automatic migration for the relational schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("MySQL migration completed.") // Log successful migration
	return nil
}

// MigrateMongo creates the indexes the user collection relies on
func MigrateMongo(ctx context.Context, database *mongo.Database) error {
	if err := store.NewMongoStore(database).EnsureIndexes(ctx); err != nil {
		return err
	}
	logrus.Info("Mongo indexes ensured.")
	return nil
}
