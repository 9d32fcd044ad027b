package selection

import (
	"errors"

	"github.com/albertocavalcante/go-varsel/assess"
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/matching"
	"github.com/albertocavalcante/go-varsel/model"
)

// Outcome labels the result of one selection for observers.
type Outcome string

// OutcomeSelected is reported for successful selections. Failures report
// their failure.Kind.
const OutcomeSelected Outcome = "selected"

// Selector picks candidates from components. It holds no per-call state and
// is safe for concurrent use.
type Selector struct {
	cache   matching.Cache
	observe func(Outcome)
}

// Option configures a Selector.
type Option func(*Selector)

// WithMatchCache memoizes attribute matching across calls. Use one cache per
// resolution and a consumer schema that does not change during it.
func WithMatchCache(c matching.Cache) Option {
	return func(s *Selector) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithObserver calls fn with the outcome of every selection.
func WithObserver(fn func(Outcome)) Option {
	return func(s *Selector) { s.observe = fn }
}

// New returns a Selector.
func New(opts ...Option) *Selector {
	s := &Selector{cache: matching.NoopCache{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select dispatches to the selection mode a dependency calls for: a named
// configuration, attribute matching over variants, or the default
// configuration of a component without variants.
func (s *Selector) Select(rc *model.ResolutionContext, dep model.Dependency, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	switch {
	case dep.Configuration != "":
		return s.SelectConfigurationByName(rc, dep.Configuration, dep.Request, target, consumer)
	case target.UsesVariants():
		return s.SelectByAttributeMatching(rc, dep.Request, target, consumer)
	default:
		return s.SelectLegacyConfiguration(rc, dep.Request, target, consumer)
	}
}

// SelectByAttributeMatching selects exactly one variant of target for req,
// or returns a failure from the failure package.
func (s *Selector) SelectByAttributeMatching(rc *model.ResolutionContext, req model.Request, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	c, err := s.selectByAttributes(rc, req, target, consumer)
	s.record(err)
	if err != nil {
		return model.Candidate{}, err
	}
	s.selected(rc, target, c)
	return c, nil
}

// SelectByAttributeMatchingLenient is SelectByAttributeMatching, except that
// finding no attribute-compatible variant returns ok == false instead of an
// error. Other failures are still returned. A miss reports no outcome to
// the observer.
func (s *Selector) SelectByAttributeMatchingLenient(rc *model.ResolutionContext, req model.Request, target *model.Component, consumer attribute.Schema) (c model.Candidate, ok bool, err error) {
	c, err = s.selectByAttributes(rc, req, target, consumer)
	if errors.Is(err, failure.ErrNoMatchingVariants) {
		return model.Candidate{}, false, nil
	}
	s.record(err)
	if err != nil {
		return model.Candidate{}, false, err
	}
	s.selected(rc, target, c)
	return c, true, nil
}

func (s *Selector) selectByAttributes(rc *model.ResolutionContext, req model.Request, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	// Step 1: the candidates are the component's variants.
	if !target.UsesVariants() {
		return model.Candidate{}, &failure.ConfigurationNotFoundError{
			Component: target.ID,
			Name:      model.DefaultConfiguration,
			Available: target.ConfigurationNames(),
		}
	}
	candidates := target.VariantCandidates()
	implicit := target.ImplicitCapability()
	schema := attribute.Merge(consumer, target.Schema)
	matcher := matching.New(schema, matching.WithCache(s.cache))
	log := rc.Log()

	// Step 2: lenient capability filter.
	filtered := capability.Filter(req.Capabilities, implicit, candidates, model.Candidate.Capabilities, true)
	if len(filtered) == 0 {
		return model.Candidate{}, noMatchingCapabilities(target, req, candidates)
	}

	// Step 3: attribute matching.
	res := matcher.Matches(target.ID, filtered, req.Attributes)
	switch len(res.Matches) {
	case 0:
		// Step 6: nothing is compatible.
		return model.Candidate{}, &failure.NoMatchingVariantsError{
			Component:  target.ID,
			Request:    req,
			Candidates: assess.AssessAll(assess.New(req.Attributes, schema), filtered),
		}
	case 1:
		// Step 4: a single match.
		return res.Matches[0], nil
	}

	// Step 5a: strict capability filter.
	strict := capability.Filter(req.Capabilities, implicit, res.Matches, model.Candidate.Capabilities, false)
	if len(strict) == 1 {
		log.Debug("variant chosen by exact capabilities",
			"component", target.ID.String(), "variant", strict[0].Name())
		return strict[0], nil
	}

	// Step 5b: match again within the strict subset.
	if len(strict) > 1 {
		again := matcher.Matches(target.ID, strict, req.Attributes)
		if len(again.Matches) == 1 {
			log.Debug("variant chosen by re-matching exact capability candidates",
				"component", target.ID.String(), "variant", again.Matches[0].Name())
			return again.Matches[0], nil
		}
	}

	// Step 5c: classifier tie-break.
	if rc.UseClassifierFallback() {
		if c, ok := byClassifier(req, res.Matches); ok {
			log.Debug("variant chosen by artifact classifier",
				"component", target.ID.String(), "variant", c.Name())
			return c, nil
		}
	}

	// Step 5d: ambiguous.
	return model.Candidate{}, &failure.AmbiguousVariantsError{
		Component: target.ID,
		Request:   req,
		Matches:   assess.AssessAll(assess.New(req.Attributes, schema), res.Matches),
		Discarded: discarded(res.Discarded),
	}
}

// byClassifier returns the single candidate that publishes exactly one
// artifact carrying the one requested classifier.
func byClassifier(req model.Request, matches []model.Candidate) (model.Candidate, bool) {
	classifier, ok := req.Classifier()
	if !ok {
		return model.Candidate{}, false
	}
	var (
		found model.Candidate
		n     int
	)
	for _, c := range matches {
		arts := c.Artifacts()
		if len(arts) == 1 && arts[0].Classifier == classifier {
			found = c
			n++
		}
	}
	return found, n == 1
}

// SelectConfigurationByName validates and returns the named configuration
// of target.
func (s *Selector) SelectConfigurationByName(rc *model.ResolutionContext, name string, req model.Request, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	c, err := s.selectByName(rc, name, req, target, consumer)
	s.record(err)
	if err != nil {
		return model.Candidate{}, err
	}
	rc.Log().Debug("configuration selected by name",
		"component", target.ID.String(), "configuration", name)
	return c, nil
}

// SelectLegacyConfiguration selects the default configuration of target.
func (s *Selector) SelectLegacyConfiguration(rc *model.ResolutionContext, req model.Request, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	return s.SelectConfigurationByName(rc, model.DefaultConfiguration, req, target, consumer)
}

func (s *Selector) selectByName(rc *model.ResolutionContext, name string, req model.Request, target *model.Component, consumer attribute.Schema) (model.Candidate, error) {
	conf, ok := target.Configuration(name)
	if !ok {
		return model.Candidate{}, &failure.ConfigurationNotFoundError{
			Component: target.ID,
			Name:      name,
			Available: target.ConfigurationNames(),
		}
	}

	// Attributes are only checked when both sides declare some.
	if !req.Attributes.IsEmpty() && !conf.Attributes.IsEmpty() {
		schema := attribute.Merge(consumer, target.Schema)
		if !matching.New(schema).IsMatching(req.Attributes, conf.Attributes) {
			return model.Candidate{}, &failure.IncompatibleVariantsError{
				Component:     target.ID,
				Configuration: name,
				Request:       req,
				Candidate:     assess.New(req.Attributes, schema).Assess(conf.Name, conf.Attributes),
			}
		}
	}

	c := model.ConfigurationCandidate(conf)
	if c.DeprecatedForConsumption() {
		rc.Deprecated(target.ID, c)
	}
	if !conf.CanBeConsumed {
		return model.Candidate{}, &failure.ConfigurationNotConsumableError{Component: target.ID, Name: name}
	}
	return c, nil
}

func (s *Selector) selected(rc *model.ResolutionContext, target *model.Component, c model.Candidate) {
	if c.DeprecatedForConsumption() {
		rc.Deprecated(target.ID, c)
	}
}

func (s *Selector) record(err error) {
	if s.observe == nil {
		return
	}
	if err == nil {
		s.observe(OutcomeSelected)
		return
	}
	if k, ok := failure.KindOf(err); ok {
		s.observe(Outcome(k))
	}
}

func noMatchingCapabilities(target *model.Component, req model.Request, candidates []model.Candidate) error {
	out := make([]failure.CapabilityCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = failure.CapabilityCandidate{Name: c.Name(), Capabilities: c.Capabilities().All()}
	}
	return &failure.NoMatchingCapabilitiesError{
		Component:  target.ID,
		Requested:  req.Capabilities,
		Candidates: out,
	}
}

func discarded(ds []matching.Discard) []failure.Discarded {
	out := make([]failure.Discarded, len(ds))
	for i, d := range ds {
		out[i] = failure.Discarded{
			Name:      d.Candidate.Name(),
			Attribute: d.Attribute.Name,
			Reason:    d.Reason.String(),
			By:        d.By,
			Requested: d.Requested,
			Provided:  d.Provided,
		}
	}
	return out
}
