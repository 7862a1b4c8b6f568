package config

import (
	"fmt"
	"strings"

	"github.com/erazemk/darila/internal/lifecycle"
)

// Validate checks the loaded values. Load calls it; callers that override
// fields afterwards, such as from flags, must call it again.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0 (got %v)", c.Server.ShutdownTimeout)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.PurgeInterval <= 0 {
		return fmt.Errorf("database.purge_interval must be > 0 (got %v)", c.Database.PurgeInterval)
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		return fmt.Errorf("admin.username must not be empty")
	}
	if err := c.Claims.validate(); err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	if c.Screenshot.MaxBytes <= 0 {
		return fmt.Errorf("screenshot.max_bytes must be > 0 (got %d)", c.Screenshot.MaxBytes)
	}
	return nil
}

func (c *ClaimsConfig) validate() error {
	if _, err := lifecycle.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if c.PerMinute <= 0 {
		return fmt.Errorf("per_minute must be > 0 (got %d)", c.PerMinute)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be > 0 (got %d)", c.Burst)
	}
	return nil
}

// ClaimPolicy returns the validated claim policy.
func (c *Config) ClaimPolicy() lifecycle.Policy {
	p, _ := lifecycle.ParsePolicy(c.Claims.Policy)
	return p
}
