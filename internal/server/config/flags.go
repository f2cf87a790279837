package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/userauth/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8081")
//	-g string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      token lifetime, milliseconds
//	-b int      bcrypt cost
//	-l int      login/register requests per second per client
//	-r int      login/register burst per client
//	-v string   log level
//	-seed       insert the demo users at startup
//
// Only these flags are read from os.Args, so the JSON -c flag and
// subcommands of other binaries do not collide with them.
func parseFlags(config *Config) {
	args := flagx.FilterFlagArgs(os.Args[1:],
		[]string{"-a", "-g", "-d", "-s", "-t", "-b", "-l", "-r", "-v"},
		[]string{"-seed"},
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")

	lifetimeMs := fs.Int64("t", config.TokenLifetime.Milliseconds(), "token lifetime (in milliseconds)")

	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.LoginRatePerSecond, "l", config.LoginRatePerSecond, "login requests per second per client")
	fs.IntVar(&config.LoginRateBurst, "r", config.LoginRateBurst, "login burst per client")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.BoolVar(&config.SeedDemoUsers, "seed", config.SeedDemoUsers, "seed demo users")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenLifetime = time.Duration(*lifetimeMs) * time.Millisecond
}
