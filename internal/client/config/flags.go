package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-d string   path of the local cache database
//	-i int      idle threshold before remote updates apply (milliseconds)
//	-p int      push debounce after the last keystroke (milliseconds)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend server")
	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "path of the local cache database")
	idleThreshold := fs.Int("i", int(cfg.IdleThreshold.Milliseconds()), "idle threshold (in milliseconds)")
	pushDebounce := fs.Int("p", int(cfg.PushDebounce.Milliseconds()), "push debounce (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.IdleThreshold = time.Duration(*idleThreshold) * time.Millisecond
	cfg.PushDebounce = time.Duration(*pushDebounce) * time.Millisecond
}
