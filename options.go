package varsel

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/conflict"
	"github.com/albertocavalcante/go-varsel/matching"
	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/version"
)

// DefaultConcurrency bounds the number of selections that run at once
// within one round of the walk.
const DefaultConcurrency = 5

// Option configures an Engine.
type Option func(*engineConfig) error

// engineConfig holds all engine configuration.
type engineConfig struct {
	policy         string
	moduleResolver conflict.ModuleResolver
	comparator     version.Comparator

	capabilityRules     []conflict.CapabilityRule
	capabilityResolvers []conflict.CapabilityResolver

	classifierFallback bool
	concurrency        int
	schema             attribute.Schema
	cache              matching.Cache
	deprecations       model.DeprecationSink

	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider

	// logger receives debug records for rounds and conflict decisions.
	// When nil, logging is disabled.
	logger *slog.Logger
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = logger
		return nil
	}
}

// WithConflictPolicy selects a built-in module conflict policy by name:
// "latest" (the default) or "prefer-project".
func WithConflictPolicy(name string) Option {
	return func(c *engineConfig) error {
		c.policy = name
		return nil
	}
}

// WithPreferProject is shorthand for WithConflictPolicy("prefer-project").
func WithPreferProject() Option {
	return WithConflictPolicy(conflict.PolicyPreferProject)
}

// WithModuleResolver installs a custom module conflict resolver. It takes
// precedence over WithConflictPolicy.
func WithModuleResolver(r conflict.ModuleResolver) Option {
	return func(c *engineConfig) error {
		if r == nil {
			return fmt.Errorf("%w: nil module resolver", ErrInvalidOption)
		}
		c.moduleResolver = r
		return nil
	}
}

// WithVersionComparator sets how module versions are ordered when
// resolving conflicts.
func WithVersionComparator(cmp version.Comparator) Option {
	return func(c *engineConfig) error {
		if cmp == nil {
			return fmt.Errorf("%w: nil version comparator", ErrInvalidOption)
		}
		c.comparator = cmp
		return nil
	}
}

// WithVersionScheme selects a version comparator by name ("default" or
// "semver").
func WithVersionScheme(name string) Option {
	return func(c *engineConfig) error {
		cmp, err := version.ByName(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		c.comparator = cmp
		return nil
	}
}

// WithCapabilityRules adds user rules consulted first when capability
// conflicts are resolved.
func WithCapabilityRules(rules ...conflict.CapabilityRule) Option {
	return func(c *engineConfig) error {
		c.capabilityRules = append(c.capabilityRules, rules...)
		return nil
	}
}

// WithCapabilityResolvers replaces the default capability conflict chain.
// User rules from WithCapabilityRules are still consulted first.
func WithCapabilityResolvers(resolvers ...conflict.CapabilityResolver) Option {
	return func(c *engineConfig) error {
		for i, r := range resolvers {
			if r == nil {
				return fmt.Errorf("%w: capability resolver %d is nil", ErrInvalidOption, i)
			}
		}
		c.capabilityResolvers = resolvers
		return nil
	}
}

// WithClassifierFallback enables or disables the artifact classifier
// tie-break between ambiguous variants. It is enabled by default.
func WithClassifierFallback(enabled bool) Option {
	return func(c *engineConfig) error {
		c.classifierFallback = enabled
		return nil
	}
}

// WithConcurrency bounds concurrent selections within a round.
func WithConcurrency(n int) Option {
	return func(c *engineConfig) error {
		c.concurrency = n
		return nil
	}
}

// WithConsumerSchema sets the consumer's attribute schema. Producer schemas
// carried by components are merged in per target.
func WithConsumerSchema(s attribute.Schema) Option {
	return func(c *engineConfig) error {
		if s != nil {
			c.schema = s
		}
		return nil
	}
}

// WithMatchCache shares a match cache across resolutions. By default each
// resolution gets a fresh in-memory cache.
func WithMatchCache(cache matching.Cache) Option {
	return func(c *engineConfig) error {
		c.cache = cache
		return nil
	}
}

// WithDeprecationSink receives deprecation notices instead of the logger.
func WithDeprecationSink(sink model.DeprecationSink) Option {
	return func(c *engineConfig) error {
		c.deprecations = sink
		return nil
	}
}

// WithMetricsRegisterer registers the engine's Prometheus collectors.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *engineConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithTracerProvider sets where resolution spans are reported.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *engineConfig) error {
		c.tracerProvider = tp
		return nil
	}
}

// log returns the configured logger or a discard logger.
func (c *engineConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *engineConfig) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return tp.Tracer("github.com/albertocavalcante/go-varsel")
}

// capabilityChain assembles the capability conflict chain.
func (c *engineConfig) capabilityChain() conflict.CapabilityChain {
	rules := conflict.UserRules{Rules: c.capabilityRules, Comparator: c.comparator}
	if c.capabilityResolvers == nil {
		return conflict.DefaultChain(rules)
	}
	chain := conflict.CapabilityChain{}
	if len(c.capabilityRules) > 0 {
		chain = append(chain, rules)
	}
	return append(chain, c.capabilityResolvers...)
}

// newEngineConfig creates an engine configuration by applying the given
// options and validating the result.
func newEngineConfig(opts ...Option) (*engineConfig, error) {
	c := &engineConfig{
		comparator:         version.Default,
		classifierFallback: true,
		concurrency:        DefaultConcurrency,
		schema:             attribute.Exact,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks that the configuration is usable and resolves the
// module conflict policy.
func (c *engineConfig) validate() error {
	if c.concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidOption, c.concurrency)
	}
	if err := (conflict.UserRules{Rules: c.capabilityRules}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if c.moduleResolver == nil {
		r, err := conflict.ModulePolicy(c.policy, c.comparator)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		c.moduleResolver = r
	}
	return nil
}
