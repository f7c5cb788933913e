package config

import (
	"flag"
	"fmt"

	"github.com/sampottinger/kipling-package-index/internal/flagx"
)

var ownFlags = []string{"-a", "-m", "-d", "-l", "-u", "-t", "-b", "-o", "-k", "-s", "-g", "-e"}

// parseFlags overlays command-line flags.
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-m string     store driver: postgres or memory
//	-d string     PostgreSQL DSN
//	-l string     log level
//	-u string     upload signer: query or presign
//	-t duration   upload credential lifetime (e.g. "15m")
//	-b string     bucket name
//	-o string     object host (defaults to <bucket>.s3.amazonaws.com)
//	-k string     S3 access key id
//	-s string     S3 secret key
//	-g string     S3 region
//	-e string     S3 base endpoint for presigned URLs
//
// Arguments not in this list are ignored so other layers can share os.Args.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.StoreDriver, "m", config.StoreDriver, "store driver (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.UploadSigner, "u", config.UploadSigner, "upload signer (query|presign)")
	fs.DurationVar(&config.UploadTTL, "t", config.UploadTTL, "upload credential lifetime")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3ObjectHost, "o", config.S3ObjectHost, "S3 object host")
	fs.StringVar(&config.S3AccessKey, "k", config.S3AccessKey, "S3 access key id")
	fs.StringVar(&config.S3SecretKey, "s", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
