package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"apartment-estimator/features"
	"apartment-estimator/regression"
)

// Corpus sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CorpusSource     string
	CorpusCSVPath    string
	EstimatesCSVPath string
	SQLitePath       string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ModelStrategy     string
	RidgeAlpha        float64
	TestFraction      float64
	RandomSeed        int64
	FeatureNoise      bool
	GroundFloorPolicy string
	ConditionEncoding string
	Currency          string

	HTTPAddr        string
	CORSOrigins     []string
	RateLimitPerMin int

	MaxConcurrency int
	MaxRetries     int

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		CorpusSource:     strings.ToLower(getEnv("CORPUS_SOURCE", SourceCSV)),
		CorpusCSVPath:    getEnv("CORPUS_CSV_PATH", "./data/serbian_apartments_clean.csv"),
		EstimatesCSVPath: getEnv("ESTIMATES_CSV_PATH", "./output/estimates.csv"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/apartments.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "estimator"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "estimator123"),
		PostgresDB:       getEnv("POSTGRES_DB", "apartments"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ModelStrategy:     getEnv("MODEL_STRATEGY", string(regression.StrategyPolynomial)),
		RidgeAlpha:        getEnvFloat("RIDGE_ALPHA", regression.DefaultAlpha),
		TestFraction:      getEnvFloat("TEST_FRACTION", regression.DefaultTestFraction),
		RandomSeed:        getEnvInt64("RANDOM_SEED", 42),
		FeatureNoise:      getEnvBool("FEATURE_NOISE", true),
		GroundFloorPolicy: getEnv("GROUND_FLOOR_POLICY", string(features.GroundExclude)),
		ConditionEncoding: getEnv("CONDITION_ENCODING", string(features.ConditionOneHot)),
		Currency:          getEnv("CURRENCY", "EUR"),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:     getEnvInt("MAX_RETRIES", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate rejects unknown option values.
func (c *Config) Validate() error {
	switch c.CorpusSource {
	case SourceCSV, SourcePostgres, SourceSQLite:
	default:
		return fmt.Errorf("config: unknown CORPUS_SOURCE %q", c.CorpusSource)
	}
	if _, err := regression.ParseStrategy(c.ModelStrategy); err != nil {
		return fmt.Errorf("config: MODEL_STRATEGY: %w", err)
	}
	if _, err := features.ParseGroundFloorPolicy(c.GroundFloorPolicy); err != nil {
		return fmt.Errorf("config: GROUND_FLOOR_POLICY: %w", err)
	}
	if _, err := features.ParseConditionEncoding(c.ConditionEncoding); err != nil {
		return fmt.Errorf("config: CONDITION_ENCODING: %w", err)
	}
	if c.RidgeAlpha <= 0 {
		return fmt.Errorf("config: RIDGE_ALPHA must be positive, got %g", c.RidgeAlpha)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("config: TEST_FRACTION must be in (0, 1), got %g", c.TestFraction)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
