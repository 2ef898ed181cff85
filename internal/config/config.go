package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервиса черновиков историй.
type Config struct {
	// Настройки сервера
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (сессии редактора, черновики идей, отзыв токенов)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Настройки RabbitMQ (события для WebSocket-уведомлений)
	RabbitMQURL          string `envconfig:"RABBITMQ_URL" required:"true"`
	ClientEventsExchange string `envconfig:"CLIENT_EVENTS_EXCHANGE" default:"client_events"`

	// Настройки AI-провайдера
	AIProvider  string        `envconfig:"AI_PROVIDER" default:"openrouter"` // openrouter или ollama
	AIBaseURL   string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel     string        `envconfig:"AI_MODEL" default:"google/gemini-2.5-flash"`
	AITimeout   time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	OllamaURL   string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel string        `envconfig:"OLLAMA_MODEL" default:"llama3"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string

	// Настройки JWT
	JWTAccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
	JWTRefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"720h"`
	// Секретное поле БЕЗ envconfig тега
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	// Пароль теперь в c.DBPassword
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = readSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = readSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// Ключ AI-провайдера нужен только для openrouter; ollama работает без ключа
	if cfg.AIProvider != "ollama" {
		cfg.AIAPIKey, loadErr = readSecret("ai_api_key")
		if loadErr != nil {
			return nil, loadErr
		}
	}

	log.Printf("Конфигурация загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Client Events Exchange: %s", cfg.ClientEventsExchange)
	log.Printf("  AI Provider: %s (model %s)", cfg.AIProvider, cfg.AIModel)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
