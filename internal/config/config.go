// Package config reads erpcore settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"erpcore/internal/blob"
)

// Environment variables read by Load.
const (
	EnvStorageDriver  = "ERPCORE_STORAGE_DRIVER"
	EnvDataDir        = "ERPCORE_DATA_DIR"
	EnvSQLitePath     = "ERPCORE_SQLITE_PATH"
	EnvPostgresDSN    = "ERPCORE_POSTGRES_DSN"
	EnvS3Bucket       = "ERPCORE_S3_BUCKET"
	EnvS3Region       = "ERPCORE_S3_REGION"
	EnvS3Endpoint     = "ERPCORE_S3_ENDPOINT"
	EnvS3Prefix       = "ERPCORE_S3_PREFIX"
	EnvS3PathStyle    = "ERPCORE_S3_PATH_STYLE"
	EnvS3AccessKeyID  = "ERPCORE_S3_ACCESS_KEY_ID"
	EnvS3SecretKey    = "ERPCORE_S3_SECRET_ACCESS_KEY"
	EnvLogLevel       = "ERPCORE_LOG_LEVEL"
	EnvMetricsAddress = "ERPCORE_METRICS_ADDR"
)

// DefaultDataDir holds instance files for the fs driver.
const DefaultDataDir = "./instances"

// Config is the resolved runtime configuration.
type Config struct {
	Driver      blob.Driver
	DataDir     string
	SQLitePath  string
	PostgresDSN string
	S3          blob.S3Config
	LogLevel    slog.Level
	MetricsAddr string
}

// Load reads files (default ".env") with godotenv and then the process
// environment. Variables already present in the environment win over file
// values; missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fileValues := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", file, err)
		}
		maps.Copy(fileValues, values)
	}
	return FromEnv(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileValues[key]
	})
}

// FromEnv builds a Config from getenv, applying documented defaults:
//
//	ERPCORE_STORAGE_DRIVER: fs|memory|s3|sqlite|postgres (default fs)
//	ERPCORE_DATA_DIR: instance directory for fs (default ./instances)
//	ERPCORE_SQLITE_PATH: database file for sqlite (default erpcore.db)
//	ERPCORE_POSTGRES_DSN: connection string for postgres
//	ERPCORE_S3_*: bucket, region, endpoint, prefix, path style and static keys for s3
//	ERPCORE_LOG_LEVEL: debug|info|warn|error (default info)
//	ERPCORE_METRICS_ADDR: listen address for /metrics (disabled when empty)
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	cfg := Config{
		Driver:      blob.Driver(get(EnvStorageDriver)),
		DataDir:     get(EnvDataDir),
		SQLitePath:  get(EnvSQLitePath),
		PostgresDSN: get(EnvPostgresDSN),
		MetricsAddr: get(EnvMetricsAddress),
		S3: blob.S3Config{
			Bucket:          get(EnvS3Bucket),
			Region:          get(EnvS3Region),
			Endpoint:        get(EnvS3Endpoint),
			Prefix:          get(EnvS3Prefix),
			AccessKeyID:     get(EnvS3AccessKeyID),
			SecretAccessKey: get(EnvS3SecretKey),
		},
	}
	if cfg.Driver == "" {
		cfg.Driver = blob.DriverFilesystem
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = blob.DefaultSQLitePath
	}
	if raw := get(EnvS3PathStyle); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvS3PathStyle, err)
		}
		cfg.S3.PathStyle = v
	}
	if raw := get(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the driver and its required settings.
func (c Config) Validate() error {
	if !blob.ValidDriver(c.Driver) {
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	if c.Driver == blob.DriverS3 && c.S3.Bucket == "" {
		return fmt.Errorf("%s is required for the s3 driver", EnvS3Bucket)
	}
	return nil
}

// BlobOptions returns the options that open the configured backend.
func (c Config) BlobOptions() blob.Options {
	return blob.Options{
		Driver:      c.Driver,
		FSRoot:      c.DataDir,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		S3:          c.S3,
	}
}
