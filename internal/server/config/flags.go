package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/mneme/internal/flagx"
)

var allowedFlags = []string{
	"-a", "-d", "-s", "-t", "-i", "-k", "-w",
	"-o", "-n", "-m", "-y", "-u", "-b", "-g", "-e", "-l",
	"-log-backend", "-cors",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-i string   instance mode (private|public|commercial)
//	-k int      days a tombstoned journal/entry is kept before purge
//	-w int      sweeper interval, minutes
//	-o string   backup directory
//	-n int      backup interval, minutes
//	-m int      backup prune interval, minutes
//	-y int      backup retention, days
//	-u string   admin username
//	-b string   S3 bucket for snapshots (empty keeps them local)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//	-log-backend string  slog or zerolog
//	-cors string         comma separated allowed origins
//
// Duration flags are integers in minutes (retention in days) and are
// converted to time.Duration values when given explicitly. The admin password is never taken from
// the command line.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, allowedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.Instance, "i", config.Instance, "instance mode")
	fs.IntVar(&config.DeleteAfterDays, "k", config.DeleteAfterDays, "days to keep deleted journals and entries")
	sweepInterval := fs.Int("w", int(config.SweepInterval.Minutes()), "sweep interval (in minutes)")

	fs.StringVar(&config.BackupDir, "o", config.BackupDir, "backup directory")
	backupInterval := fs.Int("n", int(config.BackupInterval.Minutes()), "backup interval (in minutes)")
	pruneInterval := fs.Int("m", int(config.BackupPruneInterval.Minutes()), "backup prune interval (in minutes)")
	retentionDays := fs.Int("y", int(config.BackupRetention.Hours()/24), "backup retention (in days)")

	fs.StringVar(&config.AdminUsername, "u", config.AdminUsername, "admin username")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend (slog|zerolog)")
	cors := fs.String("cors", "", "comma separated CORS allowed origins")

	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Only explicit duration flags override, so sub-minute values from
	// JSON or the environment survive.
	minutes := map[string]struct {
		dst *time.Duration
		v   *int
	}{
		"t": {&config.AccessTokenValidityDuration, accessTokenValidity},
		"w": {&config.SweepInterval, sweepInterval},
		"n": {&config.BackupInterval, backupInterval},
		"m": {&config.BackupPruneInterval, pruneInterval},
	}
	for name, m := range minutes {
		if set[name] {
			*m.dst = time.Duration(*m.v) * time.Minute
		}
	}
	if set["y"] {
		config.BackupRetention = time.Duration(*retentionDays) * 24 * time.Hour
	}
	if set["cors"] {
		config.CORSAllowedOrigins = splitList(*cors)
	}
	return nil
}
