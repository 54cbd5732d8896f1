package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultEnv           = "development"
	defaultLogLevel      = "info"
	defaultStorageDriver = StorageSQLite
)

// Storage drivers for the calculation history.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	Port          string
	DBPath        string
	StorageDriver string
	LogLevel      string
	CORSOrigins   []string
	AutoMigrate   bool
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == defaultEnv
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg := Config{
		Env:           getenv("APP_ENV", defaultEnv),
		Port:          getenv("PORT", defaultPort),
		DBPath:        getenv("DB_PATH", defaultDBPath),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", defaultStorageDriver)),
		LogLevel:      getenv("LOG_LEVEL", defaultLogLevel),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "*")),
		AutoMigrate:   true,
	}

	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("AUTO_MIGRATE is not a boolean, keeping default")
		} else {
			cfg.AutoMigrate = v
		}
	}

	if cfg.StorageDriver != StorageSQLite && cfg.StorageDriver != StorageMemory {
		log.Warn().Str("value", cfg.StorageDriver).Msg("unknown STORAGE_DRIVER, using sqlite")
		cfg.StorageDriver = StorageSQLite
	}
	if cfg.StorageDriver == StorageMemory && !cfg.IsDev() {
		log.Warn().Msg("memory storage driver loses calculation history on restart")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
