package config

import (
	"fmt"
	"net/url"
	"time"

	"roastery-backend/internal/infrastructure/database"
)

type DatabaseConfig struct {
	Host              string        `env:"HOST" envDefault:"localhost"`
	Port              int           `env:"PORT" envDefault:"5432"`
	User              string        `env:"USER" envDefault:"roastery"`
	Password          string        `env:"PASSWORD"`
	Name              string        `env:"NAME" envDefault:"roastery_dev"`
	SSLMode           string        `env:"SSLMODE" envDefault:"disable"`
	MaxConns          int32         `env:"MAX_CONNECTIONS" envDefault:"25"`
	MinConns          int32         `env:"MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"5m"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"1m"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"5"`
	RetryDelay        time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// DSN trả về postgres URL, dùng cho pgxpool và migrate (lib/pq)
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// ToDBConfig chuyển env config sang DBConfig của infrastructure layer
func (c DatabaseConfig) ToDBConfig() *database.DBConfig {
	return &database.DBConfig{
		DSN:               c.DSN(),
		MaxConns:          c.MaxConns,
		MinConns:          c.MinConns,
		MaxConnLifetime:   c.MaxConnLifetime,
		MaxConnIdleTime:   c.MaxConnIdleTime,
		HealthCheckPeriod: c.HealthCheckPeriod,
		MaxRetries:        c.MaxRetries,
		RetryDelay:        c.RetryDelay,
		ConnectTimeout:    c.ConnectTimeout,
	}
}
