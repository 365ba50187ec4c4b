package config

import (
	"flag"
	"os"
	"time"

	"github.com/drivepool/drivepool/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-q int      default per-account quota, bytes
//	-k bool     capacity-aware account selection
//	-w int      stats snapshot freshness window, minutes
//	-t int      source fetch timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-q", "-k", "-w", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.Int64Var(&config.AccountQuotaBytes, "q", config.AccountQuotaBytes, "default per-account quota in bytes")
	fs.BoolVar(&config.CapacityAware, "k", config.CapacityAware, "skip accounts at quota when selecting")

	statsFreshness := fs.Int("w", int(config.StatsFreshness.Minutes()), "stats_freshness (in minutes)")
	sourceFetchTimeout := fs.Int("t", int(config.SourceFetchTimeout.Seconds()), "source_fetch_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StatsFreshness = time.Duration(*statsFreshness) * time.Minute
	config.SourceFetchTimeout = time.Duration(*sourceFetchTimeout) * time.Second
}
