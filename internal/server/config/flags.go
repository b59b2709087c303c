package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/lostfound/internal/flagx"
)

// serverFlags are the short flags owned by the server configuration.
var serverFlags = []string{
	"-a", "-m", "-d", "-k", "-x", "-s", "-f", "-l",
	"-r", "-t", "-n", "-u", "-p", "-b", "-g", "-e", "-v",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string   HTTP bind address
//	-m string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-k string   secrets key (64 hex chars, 32 raw chars or base64)
//	-x string   secrets cipher (aes-256-gcm, xchacha20-poly1305)
//	-s string   webhook JWT secret
//	-f string   map front-end URL
//	-l string   catalog YAML path
//	-r float    match radius, km
//	-t float    match threshold, 0..100
//	-n int      matches returned after publish
//	-u string   S3 user
//	-p string   S3 password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint
//	-v string   log level
//
// Unknown flags are filtered out first so other layers may share the
// command line.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address")
	fs.StringVar(&config.GRPCAddr, "m", config.GRPCAddr, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretsKey, "k", config.SecretsKey, "secrets key")
	fs.StringVar(&config.SecretsCipher, "x", config.SecretsCipher, "secrets cipher")
	fs.StringVar(&config.WebhookSecret, "s", config.WebhookSecret, "webhook secret")
	fs.StringVar(&config.FrontURL, "f", config.FrontURL, "front URL")
	fs.StringVar(&config.CatalogPath, "l", config.CatalogPath, "catalog path")
	fs.Float64Var(&config.MatchRadiusKm, "r", config.MatchRadiusKm, "match radius, km")
	fs.Float64Var(&config.MatchThreshold, "t", config.MatchThreshold, "match threshold")
	fs.IntVar(&config.MatchLimit, "n", config.MatchLimit, "match limit")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, serverFlags))
}
