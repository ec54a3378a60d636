package config

import (
	"flag"
	"os"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   store mode ("local" or "rest")
//	-e string   Geode REST base endpoint (e.g., "http://127.0.0.1:7070")
//	-n string   region name
//	-o string   GitHub content owner of the default tenant
//	-r string   GitHub content repo of the default tenant
//	-d bool     write mutations through to GitHub (direct update)
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-b string   S3 bucket name
//	-g string   S3 region
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes and then converted to
// time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-m", "-e", "-n", "-o", "-r", "-d", "-s", "-t", "-b", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.StoreMode, "m", config.StoreMode, "store mode (local|rest)")
	fs.StringVar(&config.StoreBaseURL, "e", config.StoreBaseURL, "Geode REST base endpoint")
	fs.StringVar(&config.StoreRegion, "n", config.StoreRegion, "region name")
	fs.StringVar(&config.ContentOwner, "o", config.ContentOwner, "GitHub content owner")
	fs.StringVar(&config.ContentRepo, "r", config.ContentRepo, "GitHub content repo")
	fs.BoolVar(&config.DirectUpdate, "d", config.DirectUpdate, "write mutations through to GitHub")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityMinutes := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityMinutes) * time.Minute
}
