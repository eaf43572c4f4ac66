package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/san-kum/mcerdsim/internal/artifacts"
)

const (
	EnvBinary      = "MCERD_BINARY"
	EnvPlatform    = "MCERD_PLATFORM"
	EnvMaxParallel = "MCERD_MAX_PARALLEL"
	EnvWaitDelay   = "MCERD_KILL_WAIT"

	EnvS3Endpoint  = "MCERD_S3_ENDPOINT"
	EnvS3Region    = "MCERD_S3_REGION"
	EnvS3AccessKey = "MCERD_S3_ACCESS_KEY"
	EnvS3SecretKey = "MCERD_S3_SECRET_KEY"
	EnvS3Bucket    = "MCERD_S3_BUCKET"
	EnvS3Prefix    = "MCERD_S3_PREFIX"
	EnvS3UseSSL    = "MCERD_S3_USE_SSL"
)

// Environment holds the settings taken from MCERD_* variables.
type Environment struct {
	Binary      string
	Platform    string
	MaxParallel int
	WaitDelay   time.Duration
	Artifacts   artifacts.Config
}

// FromEnv reads the environment after loading dotenv files. With no files
// given a ./.env is loaded when present.
func FromEnv(files ...string) (*Environment, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	maxParallel, err := Int(EnvMaxParallel, 0)
	if err != nil {
		return nil, err
	}
	waitDelay, err := Duration(EnvWaitDelay, 0)
	if err != nil {
		return nil, err
	}
	useSSL, err := Bool(EnvS3UseSSL, true)
	if err != nil {
		return nil, err
	}

	return &Environment{
		Binary:      String(EnvBinary, ""),
		Platform:    String(EnvPlatform, ""),
		MaxParallel: maxParallel,
		WaitDelay:   waitDelay,
		Artifacts: artifacts.Config{
			Endpoint:  String(EnvS3Endpoint, ""),
			Region:    firstNonEmpty(String(EnvS3Region, ""), "us-east-1"),
			AccessKey: String(EnvS3AccessKey, ""),
			SecretKey: String(EnvS3SecretKey, ""),
			Bucket:    firstNonEmpty(String(EnvS3Bucket, ""), artifacts.DefaultBucket),
			Prefix:    String(EnvS3Prefix, ""),
			UseSSL:    useSSL,
		},
	}, nil
}

// Apply overrides the file settings with whatever the environment set.
func (e *Environment) Apply(c *Config) {
	if e.Binary != "" {
		c.Executable = e.Binary
	}
	if e.Platform != "" {
		c.Platform = e.Platform
	}
	if e.MaxParallel > 0 {
		c.MaxParallel = e.MaxParallel
	}
}

func String(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func Int(key string, def int) (int, error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}

func Bool(key string, def bool) (bool, error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}

func Duration(key string, def time.Duration) (time.Duration, error) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
