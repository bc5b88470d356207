package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Mail     MailConfig
	Sweep    SweepConfig
	Queue    QueueConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	ResetExpiration   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig configures the SES transport and sender identity.
type MailConfig struct {
	Enabled   bool
	Region    string
	FromEmail string
}

// SweepConfig governs the periodic scan for due draws.
type SweepConfig struct {
	Enabled    bool
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
}

// ExportConfig governs roster export files and their signed download links.
type ExportConfig struct {
	Dir     string
	URLTTL  time.Duration
	FileTTL time.Duration
	Secret  string
}

// QueueConfig tunes the in-process draw worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		ResetExpiration:   parseDuration(v.GetString("RESET_TOKEN_EXPIRATION"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Enabled:   v.GetBool("MAIL_ENABLED"),
		Region:    v.GetString("AWS_SES_REGION"),
		FromEmail: v.GetString("SES_FROM_EMAIL"),
	}

	cfg.Sweep = SweepConfig{
		Enabled:    v.GetBool("SWEEP_ENABLED"),
		Interval:   parseDuration(v.GetString("SWEEP_INTERVAL"), time.Hour),
		StaleAfter: parseDuration(v.GetString("SWEEP_STALE_AFTER"), 2*time.Hour),
		BatchSize:  v.GetInt("SWEEP_BATCH_SIZE"),
	}

	cfg.Export = ExportConfig{
		Dir:     v.GetString("EXPORT_DIR"),
		URLTTL:  parseDuration(v.GetString("EXPORT_URL_TTL"), 24*time.Hour),
		FileTTL: parseDuration(v.GetString("EXPORT_FILE_TTL"), 48*time.Hour),
		Secret:  v.GetString("EXPORT_URL_SECRET"),
	}
	if cfg.Export.Secret == "" {
		cfg.Export.Secret = cfg.JWT.Secret
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("QUEUE_WORKERS"),
		BufferSize: v.GetInt("QUEUE_BUFFER_SIZE"),
		MaxRetries: v.GetInt("QUEUE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("QUEUE_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "secret_santa")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("RESET_TOKEN_EXPIRATION", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("AWS_SES_REGION", "eu-west-1")
	v.SetDefault("SES_FROM_EMAIL", "noreply@localhost")

	v.SetDefault("SWEEP_ENABLED", false)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_STALE_AFTER", "2h")
	v.SetDefault("SWEEP_BATCH_SIZE", 50)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_URL_TTL", "24h")
	v.SetDefault("EXPORT_FILE_TTL", "48h")
	v.SetDefault("EXPORT_URL_SECRET", "")

	v.SetDefault("QUEUE_WORKERS", 2)
	v.SetDefault("QUEUE_BUFFER_SIZE", 16)
	v.SetDefault("QUEUE_MAX_RETRIES", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
