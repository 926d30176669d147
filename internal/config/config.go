package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Duration is a time.Duration that unmarshals from duration strings in JSON
// and TOML config files.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalJSON accepts a duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalJSON renders the duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	HTTPAddr string `json:"httpAddr" toml:"http_addr"`
	// NextJobDelay delays empty next/fetch responses to damp client polling.
	// Zero disables the delay.
	NextJobDelay    Duration `json:"nextJobDelay" toml:"next_job_delay"`
	ShutdownTimeout Duration `json:"shutdownTimeout" toml:"shutdown_timeout"`
}

// StorageConfig holds queue store settings.
type StorageConfig struct {
	DataDir string `json:"dataDir" toml:"data_dir"`
	// Fsync is one of always|interval|never.
	Fsync         string   `json:"fsync" toml:"fsync"`
	FsyncInterval Duration `json:"fsyncInterval" toml:"fsync_interval"`
}

// StagingConfig holds write-ahead staging settings.
type StagingConfig struct {
	// Dir defaults to {storage.data_dir}/staging when empty.
	Dir             string `json:"dir" toml:"dir"`
	JanitorSchedule string `json:"janitorSchedule" toml:"janitor_schedule"`
	// RetainFor is how long orphaned staged records are kept before the
	// janitor deletes them; zero keeps them forever.
	RetainFor Duration `json:"retainFor" toml:"retain_for"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	Size           int      `json:"size" toml:"size"`
	AcquireTimeout Duration `json:"acquireTimeout" toml:"acquire_timeout"`
}

// Config is the top-level configuration loaded from file/env/flags.
type Config struct {
	Server  ServerConfig  `json:"server" toml:"server"`
	Storage StorageConfig `json:"storage" toml:"storage"`
	Staging StagingConfig `json:"staging" toml:"staging"`
	Pool    PoolConfig    `json:"pool" toml:"pool"`
	Log     logpkg.Config `json:"log" toml:"log"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:        ":8023",
			NextJobDelay:    0,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Storage: StorageConfig{
			Fsync:         "always",
			FsyncInterval: Duration(5 * time.Millisecond),
		},
		Staging: StagingConfig{
			JanitorSchedule: "*/10 * * * *",
			RetainFor:       0,
		},
		Pool: PoolConfig{
			Size:           16,
			AcquireTimeout: Duration(5 * time.Second),
		},
		Log: logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or TOML file (by extension). An empty
// path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case ".json", "":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config extension %q; use .json or .toml", filepath.Ext(path))
	}
	return cfg, nil
}
