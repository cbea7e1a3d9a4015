package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"coolmember/internal/api/router"
	"coolmember/internal/config"
	"coolmember/internal/core/repository"
	"coolmember/internal/core/service"
	"coolmember/internal/localstore"
	"coolmember/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.SetupLogger(cfg.Log)

	// Local fallback store
	kv, err := localstore.Open(ctx, cfg.Local.Options())
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Local.Driver).Msg("failed to open local store")
	}
	defer kv.Close()
	store := localstore.NewStore(kv, logger)
	local := repository.NewLocalMemberRepository(store)

	// Remote document store, optional
	var remote repository.MemberRepository
	var client *mongo.Client
	if cfg.MongoDB.Enabled() {
		var db *mongo.Database
		client, db, err = config.OpenMongoDB(ctx, cfg.MongoDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid MongoDB configuration")
		}
		mongoRepo := repository.NewMongoMemberRepository(db, cfg.MongoDB.Timeout)
		if err := mongoRepo.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("MongoDB unreachable at startup, calls will fall back to the local store")
		} else {
			logger.Info().Str("database", cfg.MongoDB.Database).Msg("connected to MongoDB")
		}
		remote = mongoRepo
	} else {
		logger.Info().Msg("no MongoDB URI configured, running on the local store only")
	}

	mode, err := repository.ParseFallbackMode(cfg.Fallback.Mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid fallback mode")
	}

	m := metrics.New()
	repo := repository.NewFallbackMemberRepository(remote, local, repository.FallbackOptions{
		Mode:       mode,
		RetryAfter: cfg.Fallback.RetryAfter,
		Logger:     logger,
		Metrics:    m,
	})

	memberService := service.NewMemberService(repo)
	r := router.NewRouter(memberService, cfg.Server, cfg.Auth, m, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("fallback", string(mode)).Msg("CoolMember server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
		exitCode = 1
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if client != nil {
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}
	logger.Info().Msg("Server exited gracefully")
	if exitCode != 0 {
		shutdownCancel()
		_ = kv.Close()
		os.Exit(exitCode)
	}
}
