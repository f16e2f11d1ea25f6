package config

import (
	"fmt"
	"time"
)

// BackendConfig represents the configuration of one backend service
type BackendConfig struct {
	Address string
	Timeout time.Duration
}

// HealthConfig represents the health aggregation configuration
type HealthConfig struct {
	ProbeTimeout time.Duration
	Interval     time.Duration
	Quorum       int
}

// SMTPConfig represents the SMTP intake configuration
type SMTPConfig struct {
	Enabled       bool
	ListenAddress string
	RelayAddress  string
	RelayPort     int
	MaxBodySize   int
}

// GetBackend returns the configuration of the named backend
func (c *Config) GetBackend(name string) (BackendConfig, error) {
	prefix := "backends." + name
	timeout, err := c.GetDuration(prefix + ".timeout")
	if err != nil {
		return BackendConfig{}, fmt.Errorf("invalid timeout for backend %s: %w", name, err)
	}
	return BackendConfig{
		Address: c.GetString(prefix + ".address"),
		Timeout: timeout,
	}, nil
}

// GetHealth returns the health aggregation configuration
func (c *Config) GetHealth() (HealthConfig, error) {
	probeTimeout, err := c.GetDuration("health.probe_timeout")
	if err != nil {
		return HealthConfig{}, fmt.Errorf("invalid health probe timeout: %w", err)
	}
	interval, err := c.GetDuration("health.interval")
	if err != nil {
		return HealthConfig{}, fmt.Errorf("invalid health interval: %w", err)
	}
	return HealthConfig{
		ProbeTimeout: probeTimeout,
		Interval:     interval,
		Quorum:       c.GetInt("health.quorum"),
	}, nil
}

// GetSMTP returns the SMTP intake configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:       c.GetBool("smtp.enabled"),
		ListenAddress: c.GetString("smtp.listen_address"),
		RelayAddress:  c.GetString("smtp.relay_address"),
		RelayPort:     c.GetInt("smtp.relay_port"),
		MaxBodySize:   c.GetInt("smtp.max_body_size"),
	}
}
