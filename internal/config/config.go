package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env         string
	HTTPPort    string
	DatabaseURL string
	Migrate     bool

	RateRPS        int
	RateBurst      int
	RequestTimeout time.Duration

	MaxPoint        int64
	MinChargeAmount int64
	MinUseAmount    int64

	AdminResetEnabled bool
	AuditWorkers      int

	OTLPEndpoint string
	ServiceName  string
}

func Load() Config {
	cfg := Config{
		Env:         get("APP_ENV", "dev"),
		HTTPPort:    get("HTTP_PORT", "8080"),
		DatabaseURL: get("DATABASE_URL", ""),
		Migrate:     getBool("APP_MIGRATE", false),

		RateRPS:        getInt("RATE_RPS", 100),
		RateBurst:      getInt("RATE_BURST", 200),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 5*time.Second),

		MaxPoint:        getInt64("POINT_MAX", 100_000),
		MinChargeAmount: getInt64("POINT_MIN_CHARGE", 100),
		MinUseAmount:    getInt64("POINT_MIN_USE", 100),

		AdminResetEnabled: getBool("ADMIN_RESET_ENABLED", false),
		AuditWorkers:      getInt("AUDIT_WORKERS", 4),

		OTLPEndpoint: get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  get("OTEL_SERVICE_NAME", "point-ledger"),
	}
	return cfg
}

func get(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getInt64(key string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

// getDuration accepts Go duration strings ("750ms", "5s").
func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
