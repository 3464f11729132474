package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectMongoDB opens a client, pings it and returns the configured database.
func ConnectMongoDB(ctx context.Context, cfg *Config, logger zerolog.Logger) (*mongo.Database, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MongoDB URI not provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	return client.Database(cfg.MongoDatabase), nil
}

// ConnectPostgres opens a gorm connection using the pgx based postgres driver.
func ConnectPostgres(cfg *Config, logger zerolog.Logger) (*gorm.DB, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres DSN not provided")
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger.Info().Msg("connected to postgres")
	return db, nil
}
