package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	ServiceName string
	LogLevel    string

	// store
	StoreDriver string
	DBURL       string
	DBMigrate   bool

	// sessions
	JWTSecret   string
	JWTTTLHours int

	// redis backs the session revocation list when set
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSAllowedOrigins []string

	// proxies whose X-Forwarded-For is believed; empty means none
	TrustedProxies []string

	// uploads
	StorageDriver  string
	UploadDir      string
	MaxUploadBytes int64
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// llm
	LLMProvider   string
	LLMAPIKey     string
	LLMModel      string
	LLMBaseURL    string
	LLMTimeout    time.Duration
	QuestionCount int

	// consecutive model failures before calls fail fast for LLMBreakerCooldown
	LLMBreakerThreshold int
	LLMBreakerCooldown  time.Duration

	// tracing
	OtelEnabled     bool
	OtelEndpoint    string
	OtelSampleRatio float64
}

func Load() Config {
	// a missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "err", err)
	}

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:         env,
		Port:        getEnvInt("PORT", 5000),
		ServiceName: getEnv("SERVICE_NAME", "interview-api"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		DBMigrate:   getEnvBool("DB_MIGRATE", true),

		JWTSecret:   getEnv("JWT_SECRET", devSecret(env)),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", nil),

		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "resumes"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", ""),
		LLMBaseURL:    getEnv("LLM_BASE_URL", "https://api.together.xyz/v1"),
		LLMTimeout:    getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		QuestionCount: getEnvInt("QUESTION_COUNT", 5),

		LLMBreakerThreshold: getEnvInt("LLM_BREAKER_THRESHOLD", 5),
		LLMBreakerCooldown:  getEnvDuration("LLM_BREAKER_COOLDOWN", 30*time.Second),

		OtelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// GenerationTimeout is the worst case of one question set: the questions
// call, the batch answer call, and one call per question when the batch
// comes back misaligned.
func (c Config) GenerationTimeout() time.Duration {
	n := c.QuestionCount
	if n <= 0 {
		n = 5
	}
	return c.LLMTimeout * time.Duration(n+2)
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "interview")
	pass := getEnv("DB_PASSWORD", "interview")
	name := getEnv("DB_NAME", "interview_app_db")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// only dev gets a built-in secret; everything else must set JWT_SECRET
func devSecret(env string) string {
	if env == "dev" || env == "test" {
		return "dev-only-jwt-secret"
	}
	return ""
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v)
			return fallback
		}
		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env value, using default", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
