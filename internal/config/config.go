package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/arena.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Empty disables the Redis mirror and its health check.
	RedisURL           string `env:"REDIS_URL"`
	RedisChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"arena:"`

	// Empty disables the Kafka event log.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"arena-events"`

	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiBaseURL  string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	ProblemTimeout time.Duration `env:"PROBLEM_TIMEOUT" envDefault:"20s"`

	ProblemTopic      string `env:"PROBLEM_TOPIC" envDefault:"Arrays"`
	ProblemDifficulty string `env:"PROBLEM_DIFFICULTY" envDefault:"Medium"`
	ProblemLanguage   string `env:"PROBLEM_LANGUAGE" envDefault:"java"`

	BattleDuration     time.Duration `env:"BATTLE_DURATION" envDefault:"15m"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"5s"`
	CompletedRetention time.Duration `env:"COMPLETED_RETENTION" envDefault:"2m"`

	// Origins allowed to open websockets; empty accepts any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
