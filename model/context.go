package model

import (
	"log/slog"

	"github.com/google/uuid"
)

// DeprecationSink receives non-fatal deprecation notices. Its result is
// never consulted.
type DeprecationSink interface {
	ConsumptionDeprecated(component ComponentID, candidate Candidate)
}

// DeprecationSinkFunc adapts a function to DeprecationSink.
type DeprecationSinkFunc func(component ComponentID, candidate Candidate)

// ConsumptionDeprecated calls f.
func (f DeprecationSinkFunc) ConsumptionDeprecated(component ComponentID, candidate Candidate) {
	f(component, candidate)
}

// LogDeprecations returns a sink that logs each notice at warn level.
func LogDeprecations(logger *slog.Logger) DeprecationSink {
	return DeprecationSinkFunc(func(component ComponentID, candidate Candidate) {
		logger.Warn("consuming a candidate that is deprecated for consumption",
			"component", component.String(),
			"candidate", candidate.Name(),
			"kind", candidate.Kind().String())
	})
}

// ResolutionContext carries per-resolution settings through every
// selection and conflict resolution call.
type ResolutionContext struct {
	// SessionID identifies one resolution in logs and traces.
	SessionID string

	Logger *slog.Logger

	Deprecations DeprecationSink

	// ClassifierFallback enables the artifact classifier tie-break between
	// otherwise ambiguous variants.
	ClassifierFallback bool
}

// NewResolutionContext returns a context with a fresh session id, the
// classifier fallback enabled, and deprecations logged to logger.
// A nil logger discards output.
func NewResolutionContext(logger *slog.Logger) *ResolutionContext {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	logger = logger.With("session", id)
	return &ResolutionContext{
		SessionID:          id,
		Logger:             logger,
		Deprecations:       LogDeprecations(logger),
		ClassifierFallback: true,
	}
}

// Log returns the context's logger, or a discarding one.
func (rc *ResolutionContext) Log() *slog.Logger {
	if rc == nil || rc.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return rc.Logger
}

// Deprecated forwards a notice to the sink, if any.
func (rc *ResolutionContext) Deprecated(component ComponentID, candidate Candidate) {
	if rc == nil || rc.Deprecations == nil {
		return
	}
	rc.Deprecations.ConsumptionDeprecated(component, candidate)
}

// UseClassifierFallback reports whether the classifier tie-break is on.
func (rc *ResolutionContext) UseClassifierFallback() bool {
	return rc != nil && rc.ClassifierFallback
}
