package config

import (
	"fmt"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
)

// Validate checks every sub-config and returns the first fatal condition
// encountered, per startup-validation rules.
func (c *Config) Validate() error {
	if err := c.Bronze.Validate(); err != nil {
		return err
	}
	if err := c.Silver.Validate(); err != nil {
		return err
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	for _, bc := range []BreakerConfig{c.Drive, c.Store, c.FileOps} {
		if err := bc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects a non-positive port or request timeout.
func (c *HealthServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

// Validate rejects breaker threshold/timing configurations that could
// never transition state or would wedge in a permanently open loop.
func (c BreakerConfig) Validate() error {
	if err := validate.Struct(&c); err != nil {
		return fmt.Errorf("breaker %q: %w", c.Name, err)
	}
	return nil
}

// ToBreakerConfig adapts a stored BreakerConfig into the shape
// internal/breaker.New expects.
func (c BreakerConfig) ToBreakerConfig() breaker.Config {
	return breaker.Config{
		Name:             c.Name,
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutMs:        c.TimeoutMs,
		RecoveryTimeMs:   c.RecoveryTimeMs,
		MaxRetries:       c.MaxRetries,
		RetryDelayMs:     c.RetryDelayMs,
		MaxRetryDelayMs:  c.MaxRetryDelayMs,
	}
}
