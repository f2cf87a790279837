package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"server",
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
				"-t", "60000", "-b", "4", "-l", "1", "-r", "2", "-v", "debug", "-seed",
			},
			expected: &Config{
				EndpointAddrHTTP:   "127.0.0.1:9090",
				EndpointAddrGRPC:   "127.0.0.1:9091",
				DatabaseDSN:        "db",
				SecretKey:          "secret",
				TokenLifetime:      time.Minute,
				BcryptCost:         4,
				LoginRatePerSecond: 1,
				LoginRateBurst:     2,
				SeedDemoUsers:      true,
				LogLevel:           "debug",
			},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"server", "-x", "1", "-s", "other"},
			expected: func() *Config {
				c := defaults()
				c.SecretKey = "other"
				return c
			}(),
		},
		{
			name:        "non numeric lifetime panics",
			args:        []string{"server", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := defaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
