package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from the process environment. An optional
// .env file in the working directory is loaded first; variables already set
// in the environment win over the file, which is godotenv's default.
//
// Recognized variables:
//
//	DATABASE_DSN, HASH_ITERATIONS, MIN_PASSWORD_LENGTH,
//	DB_WORKERS, IO_WORKERS, QUEUE_DEPTH,
//	SESSION_TOKEN_SECRET, SESSION_TOKEN_TTL (time.ParseDuration format),
//	BOOTSTRAP_ADMIN_USER, BOOTSTRAP_ADMIN_PASSWORD
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookupInt("HASH_ITERATIONS"); ok {
		config.HashIterations = v
	}
	if v, ok := lookupInt("MIN_PASSWORD_LENGTH"); ok {
		config.MinPasswordLength = v
	}
	if v, ok := lookupInt("DB_WORKERS"); ok {
		config.DBWorkers = v
	}
	if v, ok := lookupInt("IO_WORKERS"); ok {
		config.IOWorkers = v
	}
	if v, ok := lookupInt("QUEUE_DEPTH"); ok {
		config.QueueDepth = v
	}
	if v, ok := os.LookupEnv("SESSION_TOKEN_SECRET"); ok {
		config.SessionTokenSecret = v
	}
	if v, ok := os.LookupEnv("SESSION_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionTokenTTL = d
		}
	}
	if v, ok := os.LookupEnv("BOOTSTRAP_ADMIN_USER"); ok {
		config.BootstrapAdminUser = v
	}
	if v, ok := os.LookupEnv("BOOTSTRAP_ADMIN_PASSWORD"); ok {
		config.BootstrapAdminPassword = v
	}
}

func lookupInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
