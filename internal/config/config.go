package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultSessionSecret = "change-me-in-production"

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables (caarlos0/env)
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Session   SessionConfig   `envPrefix:"SESSION_"`
	Processor ProcessorConfig `envPrefix:"PROCESSOR_"`
	Payment   PaymentConfig   `envPrefix:"PAYMENT_"`
	RabbitMQ  RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	Recovery  RecoveryConfig  `envPrefix:"RECOVERY_"`
	Worker    WorkerConfig    `envPrefix:"WORKER_"`
	Bootstrap BootstrapConfig `envPrefix:"BOOTSTRAP_ADMIN_"`
}

type AppConfig struct {
	Name        string `env:"NAME" envDefault:"Roastery API"`
	Environment string `env:"ENV" envDefault:"development"` // development, staging, production
	Port        string `env:"PORT" envDefault:"8080"`
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SessionConfig struct {
	Secret           string        `env:"SECRET" envDefault:"change-me-in-production"`
	TTL              time.Duration `env:"TTL" envDefault:"1h"`
	CookieName       string        `env:"COOKIE_NAME" envDefault:"session"`
	CookieSecure     bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDomain     string        `env:"COOKIE_DOMAIN"`
	MaxFailedLogins  int64         `env:"MAX_FAILED_LOGINS" envDefault:"5"`
	FailedLoginAfter time.Duration `env:"FAILED_LOGIN_WINDOW" envDefault:"15m"`
}

// ProcessorConfig là cấu hình card processor (Stripe-compatible API)
type ProcessorConfig struct {
	APIURL             string        `env:"API_URL" envDefault:"https://api.stripe.com"`
	SecretKey          string        `env:"SECRET_KEY"`
	WebhookSecret      string        `env:"WEBHOOK_SECRET"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"10s"`
	SignatureTolerance time.Duration `env:"SIGNATURE_TOLERANCE" envDefault:"5m"`
	UseMock            bool          `env:"USE_MOCK" envDefault:"false"`
}

type PaymentConfig struct {
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"aed"`
}

type RabbitMQConfig struct {
	URL   string `env:"URL"`
	Queue string `env:"ORDER_QUEUE" envDefault:"order.paid"`
}

// RecoveryConfig điều khiển sweep job tìm payment intents bị kẹt
type RecoveryConfig struct {
	Cron      string        `env:"SWEEP_CRON" envDefault:"*/15 * * * *"`
	MinAge    time.Duration `env:"MIN_AGE" envDefault:"10m"`
	BatchSize int           `env:"BATCH" envDefault:"50"`
	RPS       float64       `env:"RPS" envDefault:"5"`

	// delay trước khi retry một intent mà webhook không ghi được
	RetryDelay time.Duration `env:"RETRY_DELAY" envDefault:"30s"`
}

type WorkerConfig struct {
	Concurrency int    `env:"CONCURRENCY" envDefault:"10"`
	HealthPort  string `env:"HEALTH_PORT" envDefault:"9999"`
}

type BootstrapConfig struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
}

// Load đọc config từ .env (nếu có) rồi environment variables
func Load() (*Config, error) {
	// .env chỉ dùng cho local, production dùng system env
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Processor.Timeout <= 0 {
		return errors.New("PROCESSOR_TIMEOUT must be positive")
	}
	if c.Recovery.BatchSize <= 0 {
		return errors.New("RECOVERY_BATCH must be positive")
	}
	if len(c.Payment.DefaultCurrency) != 3 {
		return fmt.Errorf("PAYMENT_DEFAULT_CURRENCY must be an ISO 4217 code, got %q", c.Payment.DefaultCurrency)
	}

	if c.IsProduction() {
		if c.Session.Secret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return errors.New("DB_PASSWORD must be set in production")
		}
		if c.Processor.UseMock {
			return errors.New("PROCESSOR_USE_MOCK is not allowed in production")
		}
		if c.Processor.SecretKey == "" || c.Processor.WebhookSecret == "" {
			return errors.New("PROCESSOR_SECRET_KEY and PROCESSOR_WEBHOOK_SECRET must be set in production")
		}
	}

	return nil
}
