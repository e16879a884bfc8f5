package commands

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultDispatchMaxAttempts     = 3
	DefaultDispatchAttemptTimeout  = 10 * time.Second
	DefaultDispatchInitialInterval = 500 * time.Millisecond
	DefaultDispatchMaxInterval     = 5 * time.Second
	DefaultDispatchMultiplier      = 2.0
	DefaultDispatchJitter          = 0.5
)

// DispatchConfig bounds one dispatch: how many create-delivery attempts,
// how long each may take and how long to wait in between.
type DispatchConfig struct {
	MaxAttempts     int
	AttemptTimeout  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Jitter is the backoff randomization factor in [0, 1]. Zero disables
	// it; out-of-range values fall back to DefaultDispatchJitter.
	Jitter float64
	// LockTTL defaults to the worst case of all attempts and waits.
	LockTTL time.Duration
}

func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxAttempts:     DefaultDispatchMaxAttempts,
		AttemptTimeout:  DefaultDispatchAttemptTimeout,
		InitialInterval: DefaultDispatchInitialInterval,
		MaxInterval:     DefaultDispatchMaxInterval,
		Multiplier:      DefaultDispatchMultiplier,
		Jitter:          DefaultDispatchJitter,
	}.withDefaults()
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultDispatchMaxAttempts
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultDispatchAttemptTimeout
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultDispatchInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultDispatchMaxInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = c.InitialInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultDispatchMultiplier
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = DefaultDispatchJitter
	}
	if minTTL := c.worstCase(); c.LockTTL < minTTL {
		c.LockTTL = minTTL
	}
	return c
}

// worstCase is every attempt hitting its timeout plus every wait at the
// jittered maximum, with a second of slack for bookkeeping.
func (c DispatchConfig) worstCase() time.Duration {
	attempts := time.Duration(c.MaxAttempts)
	maxWait := time.Duration(float64(c.MaxInterval) * (1 + c.Jitter))
	return attempts*c.AttemptTimeout + (attempts-1)*maxWait + time.Second
}

func (c DispatchConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.Jitter
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.MaxAttempts-1)), ctx) //nolint:gosec // MaxAttempts >= 1
}
