// Package config loads client resource settings from YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/delay"
)

// Duration is a time.Duration that unmarshals from strings like "1s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Reconnect delay policies accepted in configuration files.
const (
	PolicyExponential        = "exponential"
	PolicyConstant           = "constant"
	PolicyFullJitter         = "full-jitter"
	PolicyEqualJitter        = "equal-jitter"
	PolicyDecorrelatedJitter = "decorrelated-jitter"
)

// ReconnectConfig selects and tunes the reconnect backoff.
type ReconnectConfig struct {
	// Policy is one of the Policy* constants.
	// Default: "exponential"
	Policy string `yaml:"policy" json:"policy"`

	// InitialDelay is the delay before the first retry.
	InitialDelay Duration `yaml:"initial_delay" json:"initial_delay"`

	// MaxDelay caps the delay between retries.
	MaxDelay Duration `yaml:"max_delay" json:"max_delay"`

	// Multiplier is the exponential growth factor.
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Config mirrors the builder options that make sense in a file.
// Zero values mean "use the built-in default".
type Config struct {
	IOThreadPoolSize          int `yaml:"io_thread_pool_size" json:"io_thread_pool_size"`
	ComputationThreadPoolSize int `yaml:"computation_thread_pool_size" json:"computation_thread_pool_size"`

	// MetricsEnabled toggles command latency collection.
	// Absent means enabled.
	MetricsEnabled *bool `yaml:"metrics_enabled" json:"metrics_enabled"`

	Reconnect ReconnectConfig `yaml:"reconnect" json:"reconnect"`
}

// ErrUnknownPolicy rejects an unrecognized reconnect policy name.
var ErrUnknownPolicy = errors.New("config: unknown reconnect policy")

// Validate checks the configuration for values the builder would reject.
func (c Config) Validate() error {
	if c.IOThreadPoolSize < 0 {
		return fmt.Errorf("config: io_thread_pool_size must not be negative, got %d", c.IOThreadPoolSize)
	}
	if c.ComputationThreadPoolSize < 0 {
		return fmt.Errorf("config: computation_thread_pool_size must not be negative, got %d", c.ComputationThreadPoolSize)
	}

	r := c.Reconnect
	switch r.Policy {
	case "", PolicyExponential, PolicyConstant, PolicyFullJitter, PolicyEqualJitter, PolicyDecorrelatedJitter:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, r.Policy)
	}
	if r.InitialDelay < 0 || r.MaxDelay < 0 {
		return errors.New("config: reconnect delays must not be negative")
	}
	if r.MaxDelay > 0 && r.InitialDelay > r.MaxDelay {
		return errors.New("config: reconnect initial_delay exceeds max_delay")
	}
	if r.Multiplier != 0 && r.Multiplier <= 1 {
		return fmt.Errorf("config: reconnect multiplier must be greater than 1, got %v", r.Multiplier)
	}
	return nil
}

// DelayStrategy builds the delay strategy the configuration describes.
func (c Config) DelayStrategy() (delay.Strategy, error) {
	if err := c.Validate(); err != nil {
		return delay.Strategy{}, err
	}

	ec := delay.ExponentialConfig{
		Initial:    c.Reconnect.InitialDelay.Std(),
		Max:        c.Reconnect.MaxDelay.Std(),
		Multiplier: c.Reconnect.Multiplier,
	}

	switch c.Reconnect.Policy {
	case PolicyConstant:
		return delay.Stateless(delay.Constant(ec.Initial)), nil
	case PolicyFullJitter:
		return delay.Stateless(delay.FullJitter(ec)), nil
	case PolicyEqualJitter:
		return delay.Stateless(delay.EqualJitter(ec)), nil
	case PolicyDecorrelatedJitter:
		return delay.StatefulFactory(delay.DecorrelatedJitter(ec)), nil
	default:
		return delay.Stateless(delay.Exponential(ec)), nil
	}
}
