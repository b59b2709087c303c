package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/lostfound/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "10s" or
// integer nanoseconds.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	GRPCAddr        string         `json:"grpc_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretsKey      string         `json:"secrets_key"`
	SecretsCipher   string         `json:"secrets_cipher"`
	WebhookSecret   string         `json:"webhook_secret"`
	FrontURL        string         `json:"front_url"`
	CatalogPath     string         `json:"catalog_path"`
	MatchRadiusKm   float64        `json:"match_radius_km"`
	MatchThreshold  float64        `json:"match_threshold"`
	MatchLimit      int            `json:"match_limit"`
	CandidateCap    int            `json:"candidate_cap"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	PhotoHosts      []string       `json:"photo_hosts"`
	LogLevel        string         `json:"log_level"`
	LogFormat       string         `json:"log_format"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays the file at path onto config. Keys missing from the
// file keep their current value. An empty path is a no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCAddr = c.GRPCAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretsKey = c.SecretsKey
	config.SecretsCipher = c.SecretsCipher
	config.WebhookSecret = c.WebhookSecret
	config.FrontURL = c.FrontURL
	config.CatalogPath = c.CatalogPath
	config.MatchRadiusKm = c.MatchRadiusKm
	config.MatchThreshold = c.MatchThreshold
	config.MatchLimit = c.MatchLimit
	config.CandidateCap = c.CandidateCap
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.PhotoHosts = c.PhotoHosts
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
	return nil
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		HTTPAddr:        c.HTTPAddr,
		GRPCAddr:        c.GRPCAddr,
		DatabaseDSN:     c.DatabaseDSN,
		SecretsKey:      c.SecretsKey,
		SecretsCipher:   c.SecretsCipher,
		WebhookSecret:   c.WebhookSecret,
		FrontURL:        c.FrontURL,
		CatalogPath:     c.CatalogPath,
		MatchRadiusKm:   c.MatchRadiusKm,
		MatchThreshold:  c.MatchThreshold,
		MatchLimit:      c.MatchLimit,
		CandidateCap:    c.CandidateCap,
		S3RootUser:      c.S3RootUser,
		S3RootPassword:  c.S3RootPassword,
		S3Bucket:        c.S3Bucket,
		S3Region:        c.S3Region,
		S3BaseEndpoint:  c.S3BaseEndpoint,
		PhotoHosts:      c.PhotoHosts,
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
		ShutdownTimeout: timex.Duration{Duration: c.ShutdownTimeout},
	}
}
