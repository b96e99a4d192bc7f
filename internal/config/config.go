package config

import (
	"os"
	"strconv"
	"time"
)

// Config is read once from the environment at startup. The server uses the
// Port..JWKSURL block; the shell and seed commands use the API block.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	TablePrefix string
	CORSOrigins string
	// JWKSURL enables bearer-token auth on /api routes. Empty disables it.
	JWKSURL string

	// Remote service as seen by the shell and seed commands
	APIURL         string
	APIToken       string
	RequestTimeout time.Duration
	SerializeSaves bool

	LogDir      string
	LogMaxFiles int
	// Debug lowers the log level to debug
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWKSURL:     getEnv("JWKS_URL", ""),

		APIURL:         getEnv("API_URL", "http://localhost:8080"),
		APIToken:       getEnv("API_TOKEN", ""),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
		SerializeSaves: getBool("SERIALIZE_SAVES", false),

		LogDir:      getEnv("LOG_DIR", "logs"),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getBool("DEBUG", env != "prod"),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// getDuration accepts Go durations ("15s") or whole seconds ("15").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
