package config

import (
	"flag"
	"os"
	"time"

	"github.com/aerialops/uplink/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the tasking backend
//	-j string   path to the local batch journal
//	-n int      upload chunk size
//	-w int      pause between chunks, in milliseconds
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, so CLI subcommand flags pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-j", "-n", "-w"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "a", cfg.Endpoint, "base URL of the tasking backend")
	fs.StringVar(&cfg.JournalPath, "j", cfg.JournalPath, "path to the local batch journal")
	fs.IntVar(&cfg.ChunkSize, "n", cfg.ChunkSize, "upload chunk size")
	pauseMs := fs.Int("w", int(cfg.ChunkPause.Milliseconds()), "pause between chunks (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ChunkPause = time.Duration(*pauseMs) * time.Millisecond
}
