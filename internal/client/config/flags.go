package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cribfeed/internal/flagx"
)

var clientFlags = []string{"-s", "-b", "-d", "-k", "-m", "-a", "-l", "-demo", "-v"}

// parseFlags overlays cfg with the short flags listed in the package
// documentation. Flags belonging to other layers are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, clientFlags)

	fs := flag.NewFlagSet("cribfeed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.StoragePath, "s", cfg.StoragePath, "local session database path")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "store backend (memory|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "session token signing key")
	fs.StringVar(&cfg.AckMode, "m", cfg.AckMode, "acknowledgement mode (simulated|grpc)")
	fs.StringVar(&cfg.AckEndpoint, "a", cfg.AckEndpoint, "acknowledgement service address")
	fs.StringVar(&cfg.LogBackend, "l", cfg.LogBackend, "log backend (slog|text|zap)")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "load demo community")
	fs.BoolVar(&cfg.Debug, "v", cfg.Debug, "debug logging")

	return fs.Parse(args)
}
