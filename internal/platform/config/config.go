package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
)

// Store drivers supported by the page repository.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds runtime configuration values for the Rara studio API.
type Config struct {
	StoreDriver     string
	DBPath          string
	DBURI           string
	DBName          string
	ServerPort      int
	LogLevel        string
	SentryDSN       string
	Environment     string
	AdminToken      string
	ContentRegistry string
	CORSOrigin      string
	RateLimit       RateLimitConfig
	ShutdownGrace   time.Duration
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultStoreDriver   = DriverSQLite
	defaultDBPath        = "./data/rara.db"
	defaultDBName        = "rara"
	defaultServerPort    = 3000
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultCORSOrigin    = "*"
	defaultShutdownGrace = 10 * time.Second
	defaultRateBurst     = 30
	defaultRateRPS       = 10.0
	defaultRateTTL       = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", defaultStoreDriver)),
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		DBURI:           os.Getenv("DB_URI"),
		DBName:          getEnv("DB_NAME", defaultDBName),
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Environment:     getEnv("ENV", defaultEnvironment),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		ContentRegistry: os.Getenv("CONTENT_REGISTRY"),
		CORSOrigin:      getEnv("CORS_ORIGIN", defaultCORSOrigin),
		ShutdownGrace:   defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", getEnv("PORT", strconv.Itoa(defaultServerPort)))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateBurst))
	burst, err := strconv.Atoi(burstValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", burstValue)
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateRPS, 'f', -1, 64))
	rps, err := strconv.ParseFloat(rpsValue, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}

	ttlValue := getEnv("RATE_LIMIT_TTL", defaultRateTTL.String())
	ttl, err := time.ParseDuration(ttlValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_TTL value: %s", ttlValue)
	}

	cfg.RateLimit = RateLimitConfig{Burst: burst, RequestsPerSecond: rps, ClientTTL: ttl}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// Validate checks value ranges and driver specific requirements.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.StoreDriver, validation.Required, validation.In(DriverSQLite, DriverMongo).Error("STORE_DRIVER must be sqlite or mongo")),
		validation.Field(&c.DBPath, validation.When(c.StoreDriver == DriverSQLite, validation.Required.Error("DB_PATH is required for sqlite"))),
		validation.Field(&c.DBURI, validation.When(c.StoreDriver == DriverMongo, validation.Required.Error("DB_URI is required for mongo"))),
		validation.Field(&c.DBName, validation.When(c.StoreDriver == DriverMongo, validation.Required)),
		validation.Field(&c.ServerPort, validation.Required.Error("SERVER_PORT must be between 1 and 65535"), validation.Min(1).Error("SERVER_PORT must be between 1 and 65535"), validation.Max(65535).Error("SERVER_PORT must be between 1 and 65535")),
		validation.Field(&c.RateLimit),
	)
}

// Validate checks the limiter settings.
func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Burst, validation.Required.Error("RATE_LIMIT_BURST must be positive"), validation.Min(1).Error("RATE_LIMIT_BURST must be positive")),
		validation.Field(&r.RequestsPerSecond, validation.Required.Error("RATE_LIMIT_RPS must be positive"), validation.Min(0.001).Error("RATE_LIMIT_RPS must be positive")),
		validation.Field(&r.ClientTTL, validation.Required.Error("RATE_LIMIT_TTL must be at least 1s"), validation.Min(time.Second).Error("RATE_LIMIT_TTL must be at least 1s")),
	)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
