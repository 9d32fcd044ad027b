// Package config reads engine settings from TOML files.
//
// Example:
//
//	conflict_policy = "prefer-project"
//	version_scheme = "semver"
//	classifier_fallback = false
//	concurrency = 8
//	log_level = "debug"
//
//	[[capability_rule]]
//	capability = "org:logging"
//	select = "org:slf"
//	reason = "one logging backend"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/conflict"
)

// Config holds engine settings. Zero values keep the engine defaults.
type Config struct {
	ConflictPolicy string `toml:"conflict_policy" validate:"omitempty,oneof=latest prefer-project"`
	VersionScheme  string `toml:"version_scheme" validate:"omitempty,oneof=default semver"`

	// ClassifierFallback is a pointer so an absent key keeps the default.
	ClassifierFallback *bool `toml:"classifier_fallback"`

	Concurrency int    `toml:"concurrency" validate:"gte=0,lte=256"`
	LogLevel    string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	CapabilityRules []conflict.CapabilityRule `toml:"capability_rule" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the TOML file at path. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", varsel.ErrInvalidOption, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", varsel.ErrInvalidOption, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and capability rules.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}
	errs = append(errs, conflict.UserRules{Rules: c.CapabilityRules}.Validate())
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", varsel.ErrInvalidOption, err)
	}
	return nil
}

// Options returns the engine options for the settings that are set.
func (c *Config) Options() []varsel.Option {
	var opts []varsel.Option
	if c.ConflictPolicy != "" {
		opts = append(opts, varsel.WithConflictPolicy(c.ConflictPolicy))
	}
	if c.VersionScheme != "" {
		opts = append(opts, varsel.WithVersionScheme(c.VersionScheme))
	}
	if c.ClassifierFallback != nil {
		opts = append(opts, varsel.WithClassifierFallback(*c.ClassifierFallback))
	}
	if c.Concurrency > 0 {
		opts = append(opts, varsel.WithConcurrency(c.Concurrency))
	}
	if len(c.CapabilityRules) > 0 {
		opts = append(opts, varsel.WithCapabilityRules(c.CapabilityRules...))
	}
	return opts
}

// Level returns the configured log level, or def when none is set.
func (c *Config) Level(def slog.Level) slog.Level {
	return ParseLevel(c.LogLevel, def)
}

// ParseLevel converts a level name to a slog.Level. Empty or unknown names
// return def.
func ParseLevel(name string, def slog.Level) slog.Level {
	var l slog.Level
	if name == "" || l.UnmarshalText([]byte(name)) != nil {
		return def
	}
	return l
}
