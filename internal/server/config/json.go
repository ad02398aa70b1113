package config

import (
	"os"

	"github.com/dmitrijs2005/mneme/internal/flagx"
	"github.com/dmitrijs2005/mneme/internal/timex"
	"github.com/goccy/go-json"
)

// JsonConfig is the on-disk shape of the config file. Interval fields use
// timex.Duration so both "2h" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from zero values.
type JsonConfig struct {
	EndpointAddrHTTP            string          `json:"endpoint_addr_http"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	Instance                    string          `json:"instance"`
	DeleteAfterDays             *int            `json:"delete_after"`
	SweepInterval               *timex.Duration `json:"sweep_interval"`
	BackupDir                   string          `json:"backup_dir"`
	BackupInterval              *timex.Duration `json:"backup_interval"`
	BackupPruneInterval         *timex.Duration `json:"backup_prune_interval"`
	BackupRetention             *timex.Duration `json:"backup_retention"`
	AdminUsername               string          `json:"admin_username"`
	AdminPassword               string          `json:"admin_password"`
	AdminEncrypted              *bool           `json:"admin_encrypted"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	CORSAllowedOrigins          []string        `json:"cors_allowed_origins"`
	LogLevel                    string          `json:"log_level"`
	LogBackend                  string          `json:"log_backend"`
}

// parseJson overlays the file named by -c/-config (or MNEME_CONFIG) onto
// config. Only fields present in the file are applied. No file means nothing
// to load.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.StringValue(args, "c", "config")
	if jsonConfigFile == "" {
		jsonConfigFile = os.Getenv(envPrefix + "CONFIG")
	}
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Instance, c.Instance)
	setString(&config.BackupDir, c.BackupDir)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.BackupInterval != nil {
		config.BackupInterval = c.BackupInterval.Duration
	}
	if c.BackupPruneInterval != nil {
		config.BackupPruneInterval = c.BackupPruneInterval.Duration
	}
	if c.BackupRetention != nil {
		config.BackupRetention = c.BackupRetention.Duration
	}
	if c.DeleteAfterDays != nil {
		config.DeleteAfterDays = *c.DeleteAfterDays
	}
	if c.AdminEncrypted != nil {
		config.AdminEncrypted = *c.AdminEncrypted
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
