package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vncsmyrnk/polls/internal/adapters/events/kafka"
	"github.com/vncsmyrnk/polls/internal/adapters/events/redis"
	"github.com/vncsmyrnk/polls/internal/adapters/handler/http"
	"github.com/vncsmyrnk/polls/internal/adapters/live"
	"github.com/vncsmyrnk/polls/internal/adapters/metrics"
	"github.com/vncsmyrnk/polls/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/polls/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/polls/internal/config"
	"github.com/vncsmyrnk/polls/internal/core/ports"
	"github.com/vncsmyrnk/polls/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, hub.Subscribers)

	var publishers []ports.VotePublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publishers = append(publishers, producer)
		logger.Info("publishing votes to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		// Every instance, this one included, feeds its hub from the channel.
		publishers = append(publishers, redis.NewPublisher(client, cfg.RedisChannel))
		subscriber := redis.NewSubscriber(client, cfg.RedisChannel, logger)
		go func() {
			if err := subscriber.Run(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis subscriber stopped", "error", err)
			}
		}()
		logger.Info("fanning out live votes through redis", "channel", cfg.RedisChannel)
	} else {
		publishers = append(publishers, hub)
	}

	questionSvc := services.NewQuestionService(repo)
	voteSvc := services.NewVoteService(repo, m, logger, publishers...)

	pages, err := http.NewPageHandler(questionSvc, voteSvc, logger)
	if err != nil {
		return err
	}

	handler := http.NewHandler(http.Handlers{
		Pages:     pages,
		Questions: http.NewQuestionHandler(questionSvc, logger),
		Votes:     http.NewVoteHandler(voteSvc, logger),
		Live:      http.NewLiveHandler(questionSvc, hub, logger),
		Metrics:   m,
		Health:    db.PingContext,
		Logger:    logger,
	})

	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "driver", cfg.DatabaseDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.Config) (*sql.DB, ports.QuestionRepository, error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewQuestionRepository(db), nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, postgres.NewQuestionRepository(db), nil
}
