package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/broker"
	"github.com/syntaxarena/arena/internal/config"
	"github.com/syntaxarena/arena/internal/database"
	"github.com/syntaxarena/arena/internal/handler/battle"
	"github.com/syntaxarena/arena/internal/handler/health"
	"github.com/syntaxarena/arena/internal/handler/live"
	"github.com/syntaxarena/arena/internal/history"
	"github.com/syntaxarena/arena/internal/migrations"
	"github.com/syntaxarena/arena/internal/problem"
	"github.com/syntaxarena/arena/internal/server"
	"github.com/syntaxarena/arena/internal/sweeper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{"sqlite": dbChecker{db}}
	local := broker.New()
	publishers := broker.Fanout{local}

	// --- Redis ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", "channel_prefix", cfg.RedisChannelPrefix)

		checks["redis"] = redisChecker{rdb}
		publishers = append(publishers, broker.NewRedis(rdb, cfg.RedisChannelPrefix, logger))
	}

	// --- Kafka ---
	if len(cfg.KafkaBrokers) > 0 {
		k := broker.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer k.Close()
		logger.Info("publishing to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

		checks["kafka"] = kafkaChecker{addr: cfg.KafkaBrokers[0]}
		publishers = append(publishers, k)
	}

	// --- Arena ---
	results := history.NewStore(db)
	problems := problem.NewGemini(problem.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.ProblemTimeout,
	}, logger)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, serving built-in problems")
	}

	engine := arena.NewEngine(arena.Config{
		Duration:  cfg.BattleDuration,
		Retention: cfg.CompletedRetention,
		Matchmaker: arena.MatchmakerConfig{
			Topic:      cfg.ProblemTopic,
			Difficulty: cfg.ProblemDifficulty,
			Language:   cfg.ProblemLanguage,
		},
	}, problems, publishers, results, logger)

	liveHandler := live.NewHandler(engine, local, cfg.AllowedOrigins, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Get("/api/arena/events", liveHandler.Events)
		r.Mount("/api/arena", battle.NewHandler(engine, results, logger).Routes())
		r.Mount("/ws", liveHandler.Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return sweeper.New(engine, cfg.SweepInterval, logger).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// kafkaChecker dials the first broker.
type kafkaChecker struct{ addr string }

func (k kafkaChecker) Check(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
