package db

import (
	"context" // Context for Mongo operations
	"fmt"     // Error wrapping

	"go.mongodb.org/mongo-driver/v2/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options" // Client options
	"gorm.io/driver/mysql"                         // MySQL driver for GORM
	"gorm.io/gorm"                                 // GORM ORM library
	"gorm.io/gorm/logger"                          // GORM logger levels
)

// OpenMySQL opens a GORM connection with driver errors translated to GORM errors
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return Open(mysql.Open(dsn))
}

// Open opens GORM on any dialector using the settings the user store expects
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,                                // Surface duplicate keys as gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Warn), // Only slow queries and errors
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return db, nil
}

// ConnectMongo connects to MongoDB and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping Mongo: %w", err)
	}
	return client, nil
}
