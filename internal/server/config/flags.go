package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/taskmaster/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-t", "-d", "-s", "-v", "-b", "-o", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   REST bind address (e.g. ":3001")
//	-g string   gRPC health bind address, empty disables
//	-t string   storage type: memory | postgres
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-v int      access token validity, hours
//	-b int      bcrypt cost
//	-o string   allowed CORS origin
//	-l string   log format: json | text | zerolog
//
// args is os.Args[1:]; anything not listed above is filtered out first so
// that -c/-config does not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the REST API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health service")
	fs.StringVar(&config.StorageType, "t", config.StorageType, "storage type (memory|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	validity := fs.Int("v", int(config.AccessTokenValidityDuration.Hours()), "access token validity (in hours)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.AllowedOrigin, "o", config.AllowedOrigin, "allowed CORS origin")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json|text|zerolog)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			config.AccessTokenValidityDuration = time.Duration(*validity) * time.Hour
		}
	})

	return nil
}
