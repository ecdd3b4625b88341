package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Events    EventsConfig    `mapstructure:"events"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Grpc      GrpcConfig      `mapstructure:"grpc"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout   int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout    int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	// Proxies (addresses or CIDRs) whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	// Requests per window on /api/auth routes, keyed by client IP.
	RateLimit       int           `mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// EventsConfig selects the broker domain events are published to.
// Driver is one of "nats", "kafka", "amqp" or "none". A non-empty Prefix is
// prepended to every subject, e.g. "staging.applications.submitted".
type EventsConfig struct {
	Driver   string   `mapstructure:"driver"`
	NATSURL  string   `mapstructure:"nats_url"`
	Brokers  []string `mapstructure:"kafka_brokers"`
	AMQPURL  string   `mapstructure:"amqp_url"`
	Exchange string   `mapstructure:"amqp_exchange"`
	Prefix   string   `mapstructure:"subject_prefix"`
}

type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type GrpcConfig struct {
	Port string `mapstructure:"port"`
}

var ErrMissingDatabaseURL = errors.New("database url is required")

func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")

	setDefaults(v)

	// Config file is optional, ENV variables cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("smtp.host", "SMTP_HOST")
	v.BindEnv("smtp.port", "SMTP_PORT")
	v.BindEnv("smtp.username", "SMTP_USER")
	v.BindEnv("smtp.password", "SMTP_PASS")
	v.BindEnv("smtp.from", "SMTP_FROM")
	v.BindEnv("redis.url", "REDIS_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = env

	// CORS_ORIGINS arrives as a single comma separated string.
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.Server.CORSOrigins = SplitOrigins(raw)
	}
	if raw := os.Getenv("TRUSTED_PROXIES"); raw != "" {
		cfg.Server.TrustedProxies = SplitOrigins(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.rate_limit", 20)
	v.SetDefault("auth.rate_limit_window", 15*time.Minute)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.amqp_exchange", "internship.events")
	v.SetDefault("uploads.dir", "uploads/resumes")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}
	return nil
}

// SplitOrigins parses a comma separated origin list, dropping blanks.
func SplitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// SMTPEnabled reports whether owner emails can be sent at all.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}
