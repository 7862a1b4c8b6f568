// Package config loads the server configuration from a YAML file and the
// environment.
package config

import "time"

// Config is the root server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Admin      AdminConfig      `yaml:"admin"`
	Log        LogConfig        `yaml:"log"`
	Claims     ClaimsConfig     `yaml:"claims"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"                env:"DARILA_ADDR"                env-default:":8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"DARILA_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"DARILA_READ_TIMEOUT"        env-default:"30s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"DARILA_WRITE_TIMEOUT"       env-default:"60s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"DARILA_IDLE_TIMEOUT"        env-default:"120s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"DARILA_SHUTDOWN_TIMEOUT"    env-default:"5s"`
	DisableMetrics    bool          `yaml:"disable_metrics"     env:"DARILA_DISABLE_METRICS"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path          string        `yaml:"path"           env:"DARILA_DB"             env-default:"darila.sqlite3"`
	PurgeInterval time.Duration `yaml:"purge_interval" env:"DARILA_PURGE_INTERVAL" env-default:"1h"`
}

// AdminConfig names the account created on first start.
type AdminConfig struct {
	Username string `yaml:"username" env:"DARILA_ADMIN" env-default:"Admin"`
}

// LogConfig holds logging settings. An empty path logs to stdout and
// stderr only.
type LogConfig struct {
	Path string `yaml:"path" env:"DARILA_LOG"`
}

// ClaimsConfig holds the claim policy and the per-user claim rate limit.
type ClaimsConfig struct {
	Policy    string `yaml:"policy"     env:"DARILA_CLAIM_POLICY"     env-default:"direct"`
	PerMinute int    `yaml:"per_minute" env:"DARILA_CLAIMS_PER_MINUTE" env-default:"6"`
	Burst     int    `yaml:"burst"      env:"DARILA_CLAIM_BURST"      env-default:"3"`
}

// ScreenshotConfig bounds uploaded screenshots.
type ScreenshotConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"DARILA_SCREENSHOT_MAX_BYTES" env-default:"10485760"`
}
