package scheduler

import (
	"time"

	"github.com/smallbiznis/utilibill/internal/config"
)

// Config controls the background overdue sweep.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	JobTimeout  time.Duration
	LockKey     string
	LockTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  30 * time.Second,
		LockKey:     "utilibill:scheduler:overdue_sweep",
	}
}

// ProvideConfig reads the sweep settings from the billing policy at startup.
func ProvideConfig(policy *config.BillingPolicyHolder) Config {
	sweep := policy.Get().OverdueSweep
	return Config{
		Enabled:     sweep.Enabled,
		RunInterval: sweep.Interval,
		JobTimeout:  sweep.Timeout,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockKey == "" {
		c.LockKey = defaults.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = c.JobTimeout + 10*time.Second
	}
	return c
}
