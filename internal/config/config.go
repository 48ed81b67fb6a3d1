// Package config reads the command-line tool's settings from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

type Config struct {
	Backend   string
	LocalRoot string

	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	DDBTable string

	AccessKey string
	SecretKey string
	Secure    bool

	SnapshotExt string
	Codec       string
	LogLevel    slog.Level
	LogFormat   string

	VerifyConcurrency int
	VerifyRate        float64

	// CacheBytes enables an in-memory block cache of this size for remote
	// backends. 0 disables it.
	CacheBytes int64
}

// Load reads the given .env files (".env" when none are given) and then the
// STUDYSET_* environment variables. Missing .env files are ignored; variables
// already set in the environment take precedence.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the STUDYSET_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Backend:           strings.ToLower(getenv("STUDYSET_BACKEND", BackendLocal)),
		LocalRoot:         getenv("STUDYSET_LOCAL_ROOT", "./data"),
		Bucket:            getenv("STUDYSET_BUCKET", ""),
		Prefix:            getenv("STUDYSET_PREFIX", ""),
		Region:            getenv("STUDYSET_REGION", ""),
		Endpoint:          getenv("STUDYSET_ENDPOINT", ""),
		DDBTable:          getenv("STUDYSET_DDB_TABLE", ""),
		AccessKey:         getenv("STUDYSET_ACCESS_KEY", ""),
		SecretKey:         getenv("STUDYSET_SECRET_KEY", ""),
		SnapshotExt:       getenv("STUDYSET_SNAPSHOT_EXT", ".snap.zst"),
		Codec:             getenv("STUDYSET_CODEC", "go-json"),
		LogFormat:         strings.ToLower(getenv("STUDYSET_LOG_FORMAT", "text")),
		VerifyConcurrency: 8,
	}

	var err error
	if cfg.Secure, err = getenvBool("STUDYSET_SECURE", true); err != nil {
		return Config{}, err
	}
	if cfg.VerifyConcurrency, err = getenvInt("STUDYSET_VERIFY_CONCURRENCY", 8); err != nil {
		return Config{}, err
	}
	if cfg.VerifyRate, err = getenvFloat("STUDYSET_VERIFY_RATE", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheBytes, err = getenvInt64("STUDYSET_CACHE_BYTES", 0); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("STUDYSET_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("STUDYSET_LOG_LEVEL: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the settings for the selected backend are complete.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.LocalRoot == "" {
			return errors.New("STUDYSET_LOCAL_ROOT is required for the local backend")
		}
	case BackendS3:
		if c.Bucket == "" {
			return errors.New("STUDYSET_BUCKET is required for the s3 backend")
		}
	case BackendMinIO:
		if c.Bucket == "" || c.Endpoint == "" {
			return errors.New("STUDYSET_BUCKET and STUDYSET_ENDPOINT are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown STUDYSET_BACKEND %q", c.Backend)
	}
	if c.CacheBytes < 0 {
		return errors.New("STUDYSET_CACHE_BYTES must not be negative")
	}
	if c.SnapshotExt != "" && !strings.HasPrefix(c.SnapshotExt, ".") {
		return fmt.Errorf("STUDYSET_SNAPSHOT_EXT %q must start with a dot", c.SnapshotExt)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown STUDYSET_LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getenvInt64(k string, fallback int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getenvFloat(k string, fallback float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func getenvBool(k string, fallback bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
