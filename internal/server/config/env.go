package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "MNEME_"

// dotenvFile is loaded before reading the environment. Variables already set
// in the process environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays MNEME_* environment variables onto config.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	strs := map[string]*string{
		"HTTP_ADDR":        &config.EndpointAddrHTTP,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"SECRET_KEY":       &config.SecretKey,
		"INSTANCE":         &config.Instance,
		"BACKUP_DIR":       &config.BackupDir,
		"ADMIN_USERNAME":   &config.AdminUsername,
		"ADMIN_PASSWORD":   &config.AdminPassword,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"LOG_LEVEL":        &config.LogLevel,
		"LOG_BACKEND":      &config.LogBackend,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":      &config.AccessTokenValidityDuration,
		"SWEEP_INTERVAL":        &config.SweepInterval,
		"BACKUP_INTERVAL":       &config.BackupInterval,
		"BACKUP_PRUNE_INTERVAL": &config.BackupPruneInterval,
		"BACKUP_RETENTION":      &config.BackupRetention,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "DELETE_AFTER_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDELETE_AFTER_DAYS: %w", envPrefix, err)
		}
		config.DeleteAfterDays = n
	}
	if v, ok := os.LookupEnv(envPrefix + "ADMIN_ENCRYPTED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sADMIN_ENCRYPTED: %w", envPrefix, err)
		}
		config.AdminEncrypted = b
	}
	if v, ok := os.LookupEnv(envPrefix + "CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}

	return nil
}
