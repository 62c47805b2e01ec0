package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashdeal/internal/app"
	"flashdeal/internal/config"
	"flashdeal/internal/events"
	"flashdeal/internal/gateway"
	"flashdeal/internal/logger"
	"flashdeal/internal/repositories"
	"flashdeal/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so this is the one place we write to stderr directly.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Open(repositories.DBConfig{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	}, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	deps := app.Deps{
		DB:        db,
		Publisher: events.Noop{},
		Gateway:   gateway.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			deps.Redis = rdb
		}
		cancel()
	}

	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Warn("rabbitmq unreachable, events disabled", zap.Error(err))
		} else {
			defer mq.Close()
			deps.Publisher = mq

			go func() {
				log.Info("starting marketplace event consumer", zap.String("queue", rabbitmq.QueueName))
				if err := mq.Consume(ctx, rabbitmq.LogHandler(log)); err != nil {
					log.Error("event consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	server := app.New(cfg, log, deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort))
		errCh <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}
