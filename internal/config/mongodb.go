package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ErrMongoDisabled is returned when no URI is configured.
var ErrMongoDisabled = errors.New("MongoDB URI not provided")

func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

// OpenMongoDB creates a client without contacting the server. The driver
// connects lazily and keeps reconnecting in the background.
func OpenMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if !cfg.Enabled() {
		return nil, nil, ErrMongoDisabled
	}

	clientOptions := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// ConnectMongoDB opens a client and pings the server. The caller owns the
// returned client and must disconnect it.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	log.Info().Str("module", "mongodb").Str("database", cfg.Database).Msg("connecting to MongoDB")

	client, db, err := OpenMongoDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("module", "mongodb").Str("database", cfg.Database).Msg("connected to MongoDB")
	return client, db, nil
}
