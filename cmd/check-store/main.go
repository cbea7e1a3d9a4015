// Command check-store verifies that the configured stores are reachable and
// prints how many member records each one holds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coolmember/internal/config"
	"coolmember/internal/core/repository"
	"coolmember/internal/localstore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.SetupLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	remoteOK := checkRemote(ctx, cfg.MongoDB, logger)
	localOK := checkLocal(ctx, cfg.Local, logger)

	switch {
	case remoteOK:
		fmt.Println("active backend: remote")
	case localOK:
		fmt.Println("active backend: local (remote unreachable)")
	default:
		fmt.Println("no backend reachable")
		os.Exit(1)
	}
}

func checkRemote(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) bool {
	client, db, err := config.ConnectMongoDB(ctx, cfg)
	if errors.Is(err, config.ErrMongoDisabled) {
		fmt.Println("remote: not configured")
		return false
	}
	if err != nil {
		logger.Error().Err(err).Msg("remote store check failed")
		fmt.Println("remote: unreachable")
		return false
	}
	defer client.Disconnect(context.Background())

	repo := repository.NewMongoMemberRepository(db, cfg.Timeout)
	count, err := repo.Count(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to count remote members")
		fmt.Println("remote: reachable, count failed")
		return false
	}
	fmt.Printf("remote: %s.%s holds %d documents\n", cfg.Database, repository.MembersCollection, count)
	return true
}

func checkLocal(ctx context.Context, cfg config.LocalConfig, logger zerolog.Logger) bool {
	kv, err := localstore.Open(ctx, cfg.Options())
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Driver).Msg("failed to open local store")
		fmt.Println("local: unavailable")
		return false
	}
	defer kv.Close()

	key := localstore.KeyPrefix + repository.MembersCollection
	if _, err := kv.Get(ctx, key); err != nil && !errors.Is(err, localstore.ErrKeyNotFound) {
		logger.Error().Err(err).Str("key", key).Msg("failed to read local store")
		fmt.Println("local: unreadable")
		return false
	}

	store := localstore.NewStore(kv, logger)
	records := store.Collection(ctx, repository.MembersCollection)
	fmt.Printf("local: %s (%s) holds %d records\n", key, cfg.Driver, len(records))
	return true
}
