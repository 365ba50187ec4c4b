package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/drivepool/drivepool/internal/flagx"
	"github.com/drivepool/drivepool/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr       string         `json:"endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	AccountQuotaBytes  int64          `json:"account_quota_bytes"`
	CapacityAware      *bool          `json:"capacity_aware"`
	StatsFreshness     timex.Duration `json:"stats_freshness"`
	SourceFetchTimeout timex.Duration `json:"source_fetch_timeout"`
	Accounts           []Account      `json:"accounts"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccountQuotaBytes > 0 {
		config.AccountQuotaBytes = c.AccountQuotaBytes
	}
	if c.CapacityAware != nil {
		config.CapacityAware = *c.CapacityAware
	}
	if c.StatsFreshness.Duration > 0 {
		config.StatsFreshness = time.Duration(c.StatsFreshness.Duration)
	}
	if c.SourceFetchTimeout.Duration > 0 {
		config.SourceFetchTimeout = time.Duration(c.SourceFetchTimeout.Duration)
	}
	config.Accounts = append(config.Accounts, c.Accounts...)
}
