package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// defaultEnvFile is read when ENV_FILE is not set. It is optional.
const defaultEnvFile = ".env"

// loadDotEnv loads ENV_FILE, or .env when present, into the process
// environment. Variables already set win over the file.
func loadDotEnv(lookup func(string) (string, bool)) error {
	path, explicit := lookup("ENV_FILE")
	if !explicit || path == "" {
		path = defaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// parseEnv overlays the environment onto config.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &config.HTTPAddr,
		"GRPC_ADDR":        &config.GRPCAddr,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"SECRETS_KEY":      &config.SecretsKey,
		"SECRETS_CIPHER":   &config.SecretsCipher,
		"WEBHOOK_SECRET":   &config.WebhookSecret,
		"FRONT_ORIGIN":     &config.FrontURL,
		"CATALOG_PATH":     &config.CatalogPath,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"LOG_LEVEL":        &config.LogLevel,
		"LOG_FORMAT":       &config.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"MATCH_RADIUS_KM": &config.MatchRadiusKm,
		"MATCH_THRESHOLD": &config.MatchThreshold,
	}
	for name, dst := range floats {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = f
	}

	if v, ok := lookup("PHOTO_HOSTS"); ok {
		config.PhotoHosts = splitList(v)
	}

	ints := map[string]*int{
		"MATCH_LIMIT":   &config.MatchLimit,
		"CANDIDATE_CAP": &config.CandidateCap,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// splitList splits a comma separated value and drops empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
