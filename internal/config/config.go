package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "default-secret-change-in-production"

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	DatabaseURI     string        `env:"DATABASE_URI"`
	RedisAddress    string        `env:"REDIS_ADDRESS"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenExpiration time.Duration `env:"TOKEN_EXPIRATION"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LoginRateLimit  float64       `env:"LOGIN_RATE_LIMIT"`
}

// Load загружает конфигурацию из флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > значения по умолчанию.
// Файл .env, если он есть, подмешивается в окружение до разбора.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.StringVar(&cfg.RedisAddress, "r", "", "адрес Redis для счётчика номеров заказов")
	flag.DurationVar(&cfg.TokenExpiration, "t", 30*24*time.Hour, "время жизни JWT токена")
	flag.StringVar(&cfg.LogLevel, "l", "info", "уровень логирования")
	flag.Float64Var(&cfg.LoginRateLimit, "login-rate", 5, "лимит запросов на вход в секунду")
	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}
	if cfg.TokenExpiration <= 0 {
		return nil, fmt.Errorf("token expiration must be positive, got %s", cfg.TokenExpiration)
	}

	return cfg, nil
}
