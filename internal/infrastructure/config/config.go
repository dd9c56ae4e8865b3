package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App              AppConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Auth             AuthConfig
	IdentityProvider IdentityProviderConfig
	Webhook          WebhookConfig
	Storage          StorageConfig
	Email            EmailConfig
	Log              LogConfig
	HTTP             HTTPConfig
	RateLimit        RateLimitConfig
	Realtime         RealtimeConfig
	Sweep            SweepConfig
	Telemetry        TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name      string
	Env       string
	Port      string
	ClientURL string // allowed browser origin, also used in email links
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. An empty host disables Redis
// and the in-memory idempotency store is used instead.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds session-token verification settings. Tokens are issued by
// the identity provider; this service only verifies them.
type AuthConfig struct {
	Algorithm     string // HS256 or RS256
	Secret        string // HS256 shared secret
	PublicKeyPEM  string // RS256 public key
	Issuer        string // expected iss, empty skips the check
	Leeway        time.Duration
	AllowQueryKey bool // accept ?token= on websocket upgrades
}

// IdentityProviderConfig holds the provider REST API settings
type IdentityProviderConfig struct {
	BaseURL          string
	SecretKey        string
	Timeout          time.Duration
	BreakerMaxFails  uint32
	BreakerOpenFor   time.Duration
	BreakerHalfOpens uint32
}

// WebhookConfig holds inbound webhook verification settings
type WebhookConfig struct {
	Secret      string        // "whsec_" prefixed signing secret
	Tolerance   time.Duration // max clock skew of the signed timestamp
	MaxBodySize int64
	IdemTTL     time.Duration
}

// StorageConfig holds blob store settings
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint, empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// EmailConfig holds SMTP settings. An empty host disables outgoing mail.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// RateLimitConfig holds the per-client request limit
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// RealtimeConfig holds websocket hub settings
type RealtimeConfig struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
}

// SweepConfig holds the expiry sweep trigger settings
type SweepConfig struct {
	Enabled     bool
	Interval    time.Duration
	RunOnStart  bool
	Timeout     time.Duration
	Token       string // shared token for POST /api/internal/sweep, empty disables the endpoint
	EmailJobs   int    // max concurrent background jobs
	JobTimeout  time.Duration
	StopTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	LogsEnabled       bool    // Export zap logs through the otel bridge
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with TASKFLOW_ prefix (e.g., TASKFLOW_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			Port:      v.GetString("app.port"),
			ClientURL: v.GetString("app.client_url"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Algorithm:     v.GetString("auth.algorithm"),
			Secret:        v.GetString("auth.secret"),
			PublicKeyPEM:  v.GetString("auth.public_key_pem"),
			Issuer:        v.GetString("auth.issuer"),
			Leeway:        v.GetDuration("auth.leeway"),
			AllowQueryKey: v.GetBool("auth.allow_query_token"),
		},
		IdentityProvider: IdentityProviderConfig{
			BaseURL:          v.GetString("identity_provider.base_url"),
			SecretKey:        v.GetString("identity_provider.secret_key"),
			Timeout:          v.GetDuration("identity_provider.timeout"),
			BreakerMaxFails:  v.GetUint32("identity_provider.breaker_max_failures"),
			BreakerOpenFor:   v.GetDuration("identity_provider.breaker_open_timeout"),
			BreakerHalfOpens: v.GetUint32("identity_provider.breaker_half_open_requests"),
		},
		Webhook: WebhookConfig{
			Secret:      v.GetString("webhook.secret"),
			Tolerance:   v.GetDuration("webhook.tolerance"),
			MaxBodySize: v.GetInt64("webhook.max_body_size"),
			IdemTTL:     v.GetDuration("webhook.idempotency_ttl"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Email: EmailConfig{
			Host:     v.GetString("email.host"),
			Port:     v.GetInt("email.port"),
			Username: v.GetString("email.username"),
			Password: v.GetString("email.password"),
			From:     v.GetString("email.from"),
			FromName: v.GetString("email.from_name"),
			UseTLS:   v.GetBool("email.use_tls"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("rate_limit.enabled"),
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		Realtime: RealtimeConfig{
			SendBuffer:     v.GetInt("realtime.send_buffer"),
			MaxMessageSize: v.GetInt64("realtime.max_message_size"),
			WriteWait:      v.GetDuration("realtime.write_wait"),
			PongWait:       v.GetDuration("realtime.pong_wait"),
		},
		Sweep: SweepConfig{
			Enabled:     v.GetBool("sweep.enabled"),
			Interval:    v.GetDuration("sweep.interval"),
			RunOnStart:  v.GetBool("sweep.run_on_start"),
			Timeout:     v.GetDuration("sweep.timeout"),
			Token:       v.GetString("sweep.token"),
			EmailJobs:   v.GetInt("sweep.background_jobs"),
			JobTimeout:  v.GetDuration("sweep.job_timeout"),
			StopTimeout: v.GetDuration("sweep.stop_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "taskflow-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "taskflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.Algorithm == "" {
		cfg.Auth.Algorithm = "RS256"
	}
	if cfg.Auth.Leeway == 0 {
		cfg.Auth.Leeway = 5 * time.Second
	}
	if cfg.IdentityProvider.BaseURL == "" {
		cfg.IdentityProvider.BaseURL = "https://api.clerk.com/v1"
	}
	if cfg.IdentityProvider.Timeout == 0 {
		cfg.IdentityProvider.Timeout = 10 * time.Second
	}
	if cfg.IdentityProvider.BreakerMaxFails == 0 {
		cfg.IdentityProvider.BreakerMaxFails = 5
	}
	if cfg.IdentityProvider.BreakerOpenFor == 0 {
		cfg.IdentityProvider.BreakerOpenFor = 30 * time.Second
	}
	if cfg.IdentityProvider.BreakerHalfOpens == 0 {
		cfg.IdentityProvider.BreakerHalfOpens = 1
	}
	if cfg.Webhook.Tolerance == 0 {
		cfg.Webhook.Tolerance = 5 * time.Minute
	}
	if cfg.Webhook.MaxBodySize == 0 {
		cfg.Webhook.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Webhook.IdemTTL == 0 {
		cfg.Webhook.IdemTTL = 24 * time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "task-assets"
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Taskflow"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// An empty origin list blocks cross-origin requests until configured.
	if len(cfg.HTTP.CORSAllowOrigins) == 0 && cfg.App.ClientURL != "" {
		cfg.HTTP.CORSAllowOrigins = []string{cfg.App.ClientURL}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Sweep-Token"}
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 5000
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 15 * time.Minute
	}
	if cfg.Realtime.SendBuffer == 0 {
		cfg.Realtime.SendBuffer = 256
	}
	if cfg.Realtime.MaxMessageSize == 0 {
		cfg.Realtime.MaxMessageSize = 512 * 1024
	}
	if cfg.Realtime.WriteWait == 0 {
		cfg.Realtime.WriteWait = 10 * time.Second
	}
	if cfg.Realtime.PongWait == 0 {
		cfg.Realtime.PongWait = 60 * time.Second
	}
	if cfg.Sweep.Interval == 0 {
		cfg.Sweep.Interval = 24 * time.Hour
	}
	if cfg.Sweep.Timeout == 0 {
		cfg.Sweep.Timeout = 30 * time.Minute
	}
	if cfg.Sweep.EmailJobs == 0 {
		cfg.Sweep.EmailJobs = 4
	}
	if cfg.Sweep.JobTimeout == 0 {
		cfg.Sweep.JobTimeout = 2 * time.Minute
	}
	if cfg.Sweep.StopTimeout == 0 {
		cfg.Sweep.StopTimeout = 30 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "taskflow-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch strings.ToUpper(c.Auth.Algorithm) {
	case "HS256", "RS256":
	default:
		return fmt.Errorf("auth.algorithm must be HS256 or RS256, got %q", c.Auth.Algorithm)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests cannot be negative")
	}

	if c.App.Env == "production" {
		if strings.EqualFold(c.Auth.Algorithm, "HS256") && len(c.Auth.Secret) < 32 {
			return fmt.Errorf("auth.secret must be at least 32 characters in production")
		}
		if strings.EqualFold(c.Auth.Algorithm, "RS256") && c.Auth.PublicKeyPEM == "" {
			return fmt.Errorf("auth.public_key_pem is required in production")
		}
		if c.IdentityProvider.SecretKey == "" {
			return fmt.Errorf("identity_provider.secret_key is required in production")
		}
		if c.Webhook.Secret == "" {
			return fmt.Errorf("webhook.secret is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address, or "" when Redis is not configured
func (r *RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsProduction reports whether the app runs in production
func (a *AppConfig) IsProduction() bool {
	return a.Env == "production"
}
