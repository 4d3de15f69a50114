package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery/internal/cache"
	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/logging"
	"gallery/internal/password"
	"gallery/internal/server"
	"gallery/internal/services"
	"gallery/internal/storage"
	"gallery/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gallery: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.App.IsProduction())
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// --- Object store ---
	store, err := newObjectStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	// --- Password hashing ---
	hasher, err := password.New(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Config: cfg,
		DB:     db,
		Store:  store,
		Hasher: password.NewPool(hasher, cfg.Auth.HashWorkers),
		Logger: log,
	}

	// --- Optional RabbitMQ client ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.URL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log.Named("rabbitmq"))
		if err != nil {
			return err
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				log.Warn("failed to close RabbitMQ client", zap.Error(err))
			}
		}()
		deps.Publisher = mqClient
	} else {
		log.Info("RABBITMQ_URL not set, image events are disabled")
	}

	// --- Optional Redis listing cache ---
	if cfg.Redis.URL != "" {
		rdb, err := cache.Open(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Cache = cache.NewRedisListCache(rdb, cfg.Images.CacheTTL)
	} else {
		log.Info("REDIS_URL not set, image listing cache is disabled")
	}

	srv, err := server.New(deps)
	if err != nil {
		return err
	}

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := srv.Auth().EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// --- Start HTTP Server ---
	g.Go(func() error {
		return srv.Listen(cfg.App.Port)
	})

	// --- Start RabbitMQ Consumer ---
	if mqClient != nil {
		g.Go(func() error {
			return mqClient.ConsumeEvents(gctx, logImageEvent(log))
		})
	}

	// Wait for interrupt signal to gracefully shut down the server
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (storage.ObjectStore, error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory object store, uploads are lost on restart")
		return storage.NewMemoryStore(cfg.PublicBaseURL), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:      cfg.Endpoint,
		Region:        cfg.Region,
		Bucket:        cfg.Bucket,
		AccessKey:     cfg.AccessKey,
		SecretKey:     cfg.SecretKey,
		PublicBaseURL: cfg.PublicBaseURL,
		UsePathStyle:  cfg.UsePathStyle,
	})
}

// logImageEvent records every image event delivered by the broker.
// Undecodable messages are rejected so they get one redelivery.
func logImageEvent(log *zap.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var ev services.ImageEvent
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			return fmt.Errorf("failed to decode image event: %w", err)
		}
		log.Info("image event received",
			zap.String("type", ev.Type),
			zap.String("imageID", ev.ImageID),
			zap.String("userID", ev.UserID),
			zap.Time("at", ev.At))
		return nil
	}
}
