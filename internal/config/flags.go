package config

import (
	"flag"
	"os"
	"time"

	"github.com/avoronov/peopledesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-i int      PBKDF2 iteration count
//	-m int      minimum password length
//	-w int      db pool worker count
//	-o int      io pool worker count
//	-q int      task queue depth per pool
//	-s string   session token HMAC secret
//	-t int      session token TTL, minutes
//	-u string   bootstrap admin username
//	-p string   bootstrap admin password
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. The TTL flag
// is accepted as an integer in minutes and converted to a time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-m", "-w", "-o", "-q", "-s", "-t", "-u", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.HashIterations, "i", config.HashIterations, "password hash iteration count")
	fs.IntVar(&config.MinPasswordLength, "m", config.MinPasswordLength, "minimum password length")
	fs.IntVar(&config.DBWorkers, "w", config.DBWorkers, "db pool workers")
	fs.IntVar(&config.IOWorkers, "o", config.IOWorkers, "io pool workers")
	fs.IntVar(&config.QueueDepth, "q", config.QueueDepth, "task queue depth per pool")
	fs.StringVar(&config.SessionTokenSecret, "s", config.SessionTokenSecret, "session token secret")

	ttl := fs.Int("t", int(config.SessionTokenTTL.Minutes()), "session token TTL (in minutes)")

	fs.StringVar(&config.BootstrapAdminUser, "u", config.BootstrapAdminUser, "bootstrap admin username")
	fs.StringVar(&config.BootstrapAdminPassword, "p", config.BootstrapAdminPassword, "bootstrap admin password")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenTTL = time.Duration(*ttl) * time.Minute
}
