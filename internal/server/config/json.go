package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/userauth/internal/flagx"
	"github.com/dmitrijs2005/userauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file.
//
// The token lifetime can be given either as a duration ("token_lifetime":
// "24h") or in milliseconds ("token_lifetime_ms": 86400000); the millisecond
// form wins when both are present. Absent fields leave the current value
// untouched.
type JsonConfig struct {
	EndpointAddrHTTP   string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	TokenLifetime      timex.Duration `json:"token_lifetime"`
	TokenLifetimeMs    int64          `json:"token_lifetime_ms"`
	BcryptCost         int            `json:"bcrypt_cost"`
	LoginRatePerSecond int            `json:"login_rate_per_second"`
	LoginRateBurst     int            `json:"login_rate_burst"`
	SeedDemoUsers      *bool          `json:"seed_demo_users"`
	LogLevel           string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config.
// Nothing happens when neither flag is set. An unreadable file or invalid
// JSON panics: the server must not start on a half-read configuration.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.TokenLifetime.Duration > 0 {
		config.TokenLifetime = c.TokenLifetime.Duration
	}
	if c.TokenLifetimeMs > 0 {
		config.TokenLifetime = time.Duration(c.TokenLifetimeMs) * time.Millisecond
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.LoginRatePerSecond > 0 {
		config.LoginRatePerSecond = c.LoginRatePerSecond
	}
	if c.LoginRateBurst > 0 {
		config.LoginRateBurst = c.LoginRateBurst
	}
	if c.SeedDemoUsers != nil {
		config.SeedDemoUsers = *c.SeedDemoUsers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
