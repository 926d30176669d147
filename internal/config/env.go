package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays JOBQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("JOBQ_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("JOBQ_NEXT_JOB_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.NextJobDelay = Duration(d)
		}
	}
	if v := os.Getenv("JOBQ_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}
	if v := os.Getenv("JOBQ_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("JOBQ_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("JOBQ_FSYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.FsyncInterval = Duration(d)
		}
	}
	if v := os.Getenv("JOBQ_STAGING_DIR"); v != "" {
		cfg.Staging.Dir = v
	}
	if v := os.Getenv("JOBQ_JANITOR_SCHEDULE"); v != "" {
		cfg.Staging.JanitorSchedule = v
	}
	if v := os.Getenv("JOBQ_STAGING_RETAIN_FOR"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Staging.RetainFor = Duration(d)
		}
	}
	if v := os.Getenv("JOBQ_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.Size = n
		}
	}
	if v := os.Getenv("JOBQ_POOL_ACQUIRE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pool.AcquireTimeout = Duration(d)
		}
	}
	if v := os.Getenv("JOBQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JOBQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
