package config

import (
	"flag"
	"os"

	"github.com/dkravets/irisvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., "127.0.0.1:5173")
//	-r string   storage root directory
//	-f string   directory snapshot file path
//	-y string   directory backend ("file" or "postgres")
//	-d string   PostgreSQL DSN
//	-b string   blob backend ("disk" or "s3")
//	-s string   session token HMAC secret
//	-w int      maximum concurrent conversions
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled by
// the JSON overlay.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-f", "-y", "-d", "-b", "-s", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.StorageRoot, "r", config.StorageRoot, "storage root directory")
	fs.StringVar(&config.SnapshotPath, "f", config.SnapshotPath, "directory snapshot file")
	fs.StringVar(&config.DirectoryBackend, "y", config.DirectoryBackend, "directory backend (file|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "b", config.BlobBackend, "blob backend (disk|s3)")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session token secret")
	fs.IntVar(&config.ConvertWorkers, "w", config.ConvertWorkers, "max concurrent conversions")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
