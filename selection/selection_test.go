package selection

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/matching"
	"github.com/albertocavalcante/go-varsel/model"
)

var libID = model.MustComponentID("org:lib:1.0")

type variantSpec struct {
	name      string
	attrs     map[string]string
	caps      []capability.Capability
	artifacts []model.Artifact
	dep       bool
}

func component(specs ...variantSpec) *model.Component {
	c := &model.Component{ID: libID}
	for _, s := range specs {
		c.Variants = append(c.Variants, &model.Variant{
			Name:                     s.name,
			Component:                libID,
			Attributes:               attribute.FromStrings(s.attrs),
			Capabilities:             capability.NewSet(s.caps...),
			Artifacts:                s.artifacts,
			DeprecatedForConsumption: s.dep,
		})
	}
	return c
}

func request(attrs map[string]string, caps ...capability.Capability) model.Request {
	return model.Request{Attributes: attribute.FromStrings(attrs), Capabilities: caps}
}

// deprecations collects notices sent to the sink.
type deprecations struct {
	names []string
}

func (d *deprecations) ConsumptionDeprecated(_ model.ComponentID, c model.Candidate) {
	d.names = append(d.names, c.Name())
}

func newContext() (*model.ResolutionContext, *deprecations) {
	d := &deprecations{}
	rc := model.NewResolutionContext(nil)
	rc.Deprecations = d
	return rc, d
}

func TestSelectByAttributeMatching(t *testing.T) {
	g := "org"
	featureX := capability.New(g, "feature-x")
	implicit := capability.New("org", "lib")

	tests := []struct {
		name     string
		target   *model.Component
		req      model.Request
		want     string
		wantKind failure.Kind
	}{
		{
			name: "selects the compatible variant",
			target: component(
				variantSpec{name: "linux", attrs: map[string]string{"os": "linux"}},
				variantSpec{name: "windows", attrs: map[string]string{"os": "windows"}},
			),
			req:  request(map[string]string{"os": "linux"}),
			want: "linux",
		},
		{
			name: "tie without preference is ambiguous",
			target: component(
				variantSpec{name: "api", attrs: map[string]string{"usage": "api"}},
				variantSpec{name: "runtime", attrs: map[string]string{"usage": "runtime"}},
			),
			req:      request(nil),
			wantKind: failure.AmbiguousVariants,
		},
		{
			name: "requested capability excludes variants without it",
			target: component(
				variantSpec{name: "main"},
				variantSpec{name: "featureX", caps: []capability.Capability{featureX}},
			),
			req:  request(nil, featureX),
			want: "featureX",
		},
		{
			name: "exact capability match short-circuits",
			target: component(
				variantSpec{name: "main", attrs: map[string]string{"usage": "runtime"}, caps: []capability.Capability{implicit}},
				variantSpec{name: "mainPlus", attrs: map[string]string{"usage": "runtime"}, caps: []capability.Capability{implicit, featureX}},
			),
			req:  request(map[string]string{"usage": "runtime"}),
			want: "main",
		},
		{
			name: "no compatible variant",
			target: component(
				variantSpec{name: "windows", attrs: map[string]string{"os": "windows"}},
			),
			req:      request(map[string]string{"os": "linux"}),
			wantKind: failure.NoMatchingVariants,
		},
		{
			name: "no variant provides the capability",
			target: component(
				variantSpec{name: "main"},
			),
			req:      request(nil, featureX),
			wantKind: failure.NoMatchingCapabilities,
		},
		{
			name:     "component without variants",
			target:   &model.Component{ID: libID},
			req:      request(nil),
			wantKind: failure.ConfigurationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, _ := newContext()
			got, err := New().SelectByAttributeMatching(rc, tt.req, tt.target, nil)
			if tt.wantKind != "" {
				if k, ok := failure.KindOf(err); !ok || k != tt.wantKind {
					t.Fatalf("error = %v, want kind %s", err, tt.wantKind)
				}
				if !got.IsZero() {
					t.Errorf("got candidate %s alongside a failure", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectByAttributeMatching() error = %v", err)
			}
			if got.Name() != tt.want {
				t.Errorf("selected %s, want %s", got.Name(), tt.want)
			}
		})
	}
}

func TestAmbiguousFailurePayload(t *testing.T) {
	target := component(
		variantSpec{name: "runtime", attrs: map[string]string{"usage": "runtime", "os": "linux"}},
		variantSpec{name: "api", attrs: map[string]string{"usage": "api", "os": "linux"}},
		variantSpec{name: "windows", attrs: map[string]string{"usage": "api", "os": "windows"}},
	)
	rc, _ := newContext()
	_, err := New().SelectByAttributeMatching(rc, request(map[string]string{"os": "linux"}), target, nil)

	var amb *failure.AmbiguousVariantsError
	if !errors.As(err, &amb) {
		t.Fatalf("error = %v, want AmbiguousVariantsError", err)
	}
	if len(amb.Matches) != 2 || amb.Matches[0].Name != "api" || amb.Matches[1].Name != "runtime" {
		t.Errorf("Matches = %+v, want [api runtime]", amb.Matches)
	}
	if len(amb.Discarded) != 1 || amb.Discarded[0].Name != "windows" || amb.Discarded[0].Attribute != "os" {
		t.Errorf("Discarded = %+v, want windows discarded on os", amb.Discarded)
	}
	if amb.Component != libID {
		t.Errorf("Component = %s", amb.Component)
	}
}

func TestNoMatchingVariantsPayload(t *testing.T) {
	featureX := capability.New("org", "feature-x")
	target := component(
		variantSpec{name: "b", attrs: map[string]string{"os": "windows"}, caps: []capability.Capability{featureX}},
		variantSpec{name: "a", attrs: map[string]string{"os": "mac"}, caps: []capability.Capability{featureX}},
		variantSpec{name: "plain", attrs: map[string]string{"os": "linux"}},
	)
	rc, _ := newContext()
	_, err := New().SelectByAttributeMatching(rc, request(map[string]string{"os": "linux"}, featureX), target, nil)

	var nm *failure.NoMatchingVariantsError
	if !errors.As(err, &nm) {
		t.Fatalf("error = %v, want NoMatchingVariantsError", err)
	}
	// Only capability-eligible candidates are reported, sorted by name.
	if len(nm.Candidates) != 2 || nm.Candidates[0].Name != "a" || nm.Candidates[1].Name != "b" {
		t.Fatalf("Candidates = %+v", nm.Candidates)
	}
	if len(nm.Candidates[0].Incompatible) != 1 || nm.Candidates[0].Incompatible[0].Attribute.Name != "os" {
		t.Errorf("candidate a incompatible = %+v", nm.Candidates[0].Incompatible)
	}
}

func TestNoMatchingCapabilitiesPayload(t *testing.T) {
	other := capability.New("org", "other")
	target := component(
		variantSpec{name: "main"},
		variantSpec{name: "extra", caps: []capability.Capability{other}},
	)
	rc, _ := newContext()
	_, err := New().SelectByAttributeMatching(rc, request(nil, capability.New("org", "missing")), target, nil)

	var nc *failure.NoMatchingCapabilitiesError
	if !errors.As(err, &nc) {
		t.Fatalf("error = %v", err)
	}
	if len(nc.Candidates) != 2 || nc.Candidates[0].Name != "extra" || len(nc.Candidates[0].Capabilities) != 1 {
		t.Errorf("Candidates = %+v", nc.Candidates)
	}
}

func TestAmbiguityAfterStrictFilterListsAllMatches(t *testing.T) {
	implicit := capability.New("org", "lib")
	featureX := capability.New("org", "feature-x")
	schema := attribute.NewSchema(attribute.WithCompatibility("usage", "runtime", "api"))

	// api and runtime survive the strict filter and stay incomparable on os.
	target := component(
		variantSpec{name: "api", attrs: map[string]string{"usage": "api", "os": "linux"}, caps: []capability.Capability{implicit}},
		variantSpec{name: "runtime", attrs: map[string]string{"usage": "runtime"}, caps: []capability.Capability{implicit}},
		variantSpec{name: "runtimeX", attrs: map[string]string{"usage": "runtime"}, caps: []capability.Capability{implicit, featureX}},
	)
	rc, _ := newContext()
	_, err := New().SelectByAttributeMatching(rc, request(map[string]string{"usage": "runtime"}), target, schema)

	var amb *failure.AmbiguousVariantsError
	if !errors.As(err, &amb) {
		t.Fatalf("error = %v, want AmbiguousVariantsError", err)
	}
	var names []string
	for _, m := range amb.Matches {
		names = append(names, m.Name)
	}
	if len(names) != 3 || names[0] != "api" || names[1] != "runtime" || names[2] != "runtimeX" {
		t.Errorf("Matches = %v, want [api runtime runtimeX]", names)
	}
}

func TestClassifierFallback(t *testing.T) {
	target := component(
		variantSpec{name: "linux", artifacts: []model.Artifact{{Name: "lib", Classifier: "linux-x86"}}},
		variantSpec{name: "mac", artifacts: []model.Artifact{{Name: "lib", Classifier: "osx"}}},
	)
	req := model.Request{Artifacts: []model.ArtifactSelector{{Name: "lib", Classifier: "osx"}}}

	rc, _ := newContext()
	got, err := New().SelectByAttributeMatching(rc, req, target, nil)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if got.Name() != "mac" {
		t.Errorf("selected %s, want mac", got.Name())
	}

	rc.ClassifierFallback = false
	if _, err := New().SelectByAttributeMatching(rc, req, target, nil); !errors.Is(err, failure.ErrAmbiguousVariants) {
		t.Errorf("with fallback disabled error = %v, want ambiguous", err)
	}

	// Two artifacts requested: the tie-break does not apply.
	rc.ClassifierFallback = true
	req.Artifacts = append(req.Artifacts, model.ArtifactSelector{Name: "lib", Classifier: "linux-x86"})
	if _, err := New().SelectByAttributeMatching(rc, req, target, nil); !errors.Is(err, failure.ErrAmbiguousVariants) {
		t.Errorf("two classifiers error = %v, want ambiguous", err)
	}
}

func TestSelectionIsDeterministic(t *testing.T) {
	specs := []variantSpec{
		{name: "a", attrs: map[string]string{"usage": "api"}},
		{name: "b", attrs: map[string]string{"usage": "runtime"}},
		{name: "c", attrs: map[string]string{"usage": "docs"}},
		{name: "d", attrs: map[string]string{"usage": "runtime", "os": "windows"}},
	}
	schema := attribute.NewSchema(attribute.WithPreference("usage", "runtime", "api"))
	req := request(map[string]string{"os": "linux"})
	r := rand.New(rand.NewPCG(7, 9))

	var first error
	for i := range 25 {
		shuffled := append([]variantSpec(nil), specs...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		rc, _ := newContext()
		_, err := New().SelectByAttributeMatching(rc, req, component(shuffled...), schema)
		if err == nil {
			t.Fatal("expected an ambiguity between b and c")
		}
		if i == 0 {
			first = err
			continue
		}
		if err.Error() != first.Error() {
			t.Fatalf("run %d: %v, first run: %v", i, err, first)
		}
	}
}

func TestSelectedVariantDeprecation(t *testing.T) {
	target := component(variantSpec{name: "old", dep: true})
	rc, d := newContext()
	if _, err := New().SelectByAttributeMatching(rc, request(nil), target, nil); err != nil {
		t.Fatal(err)
	}
	if len(d.names) != 1 || d.names[0] != "old" {
		t.Errorf("deprecations = %v, want [old]", d.names)
	}
}

func TestLenient(t *testing.T) {
	target := component(variantSpec{name: "windows", attrs: map[string]string{"os": "windows"}})
	rc, _ := newContext()
	var outcomes []Outcome
	s := New(WithObserver(func(o Outcome) { outcomes = append(outcomes, o) }))

	c, ok, err := s.SelectByAttributeMatchingLenient(rc, request(map[string]string{"os": "linux"}), target, nil)
	if err != nil || ok || !c.IsZero() {
		t.Errorf("no match: got %v, %v, %v; want zero, false, nil", c, ok, err)
	}

	c, ok, err = s.SelectByAttributeMatchingLenient(rc, request(map[string]string{"os": "windows"}), target, nil)
	if err != nil || !ok || c.Name() != "windows" {
		t.Errorf("match: got %v, %v, %v", c, ok, err)
	}

	// Capability failures are still reported.
	_, _, err = s.SelectByAttributeMatchingLenient(rc, request(nil, capability.New("x", "y")), target, nil)
	if !errors.Is(err, failure.ErrNoMatchingCapabilities) {
		t.Errorf("capability error = %v", err)
	}

	// The miss is not a failure, so only the other two calls are observed.
	want := []Outcome{OutcomeSelected, Outcome(failure.NoMatchingCapabilities)}
	if !slices.Equal(outcomes, want) {
		t.Errorf("outcomes = %v, want %v", outcomes, want)
	}
}

func legacyComponent() *model.Component {
	return &model.Component{
		ID: libID,
		Configurations: []*model.Configuration{
			{Variant: model.Variant{Name: "default", Component: libID}, CanBeConsumed: true},
			{Variant: model.Variant{Name: "runtime", Component: libID, Attributes: attribute.FromStrings(map[string]string{"usage": "runtime"})}, CanBeConsumed: true},
			{Variant: model.Variant{Name: "internal", Component: libID}, CanBeConsumed: false},
			{Variant: model.Variant{Name: "old", Component: libID, DeprecatedForConsumption: true}, CanBeConsumed: true},
		},
	}
}

func TestSelectConfigurationByName(t *testing.T) {
	tests := []struct {
		name     string
		conf     string
		attrs    map[string]string
		wantKind failure.Kind
		wantDep  bool
	}{
		{name: "found", conf: "runtime", attrs: map[string]string{"usage": "runtime"}},
		{name: "request without attributes skips matching", conf: "runtime"},
		{name: "configuration without attributes skips matching", conf: "default", attrs: map[string]string{"usage": "api"}},
		{name: "incompatible", conf: "runtime", attrs: map[string]string{"usage": "api"}, wantKind: failure.IncompatibleVariants},
		{name: "missing", conf: "compile", wantKind: failure.ConfigurationNotFound},
		{name: "not consumable", conf: "internal", wantKind: failure.ConfigurationNotConsumable},
		{name: "deprecated", conf: "old", wantDep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, d := newContext()
			got, err := New().SelectConfigurationByName(rc, tt.conf, request(tt.attrs), legacyComponent(), nil)
			if tt.wantKind != "" {
				if k, ok := failure.KindOf(err); !ok || k != tt.wantKind {
					t.Fatalf("error = %v, want %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got.Kind() != model.KindConfiguration || got.Name() != tt.conf {
				t.Errorf("got %s, want configuration %s", got, tt.conf)
			}
			if (len(d.names) > 0) != tt.wantDep {
				t.Errorf("deprecations = %v, want notice %v", d.names, tt.wantDep)
			}
		})
	}
}

func TestIncompatibleConfigurationPayload(t *testing.T) {
	rc, _ := newContext()
	_, err := New().SelectConfigurationByName(rc, "runtime", request(map[string]string{"usage": "api"}), legacyComponent(), nil)
	var inc *failure.IncompatibleVariantsError
	if !errors.As(err, &inc) {
		t.Fatalf("error = %v", err)
	}
	if inc.Configuration != "runtime" || len(inc.Candidate.Incompatible) != 1 {
		t.Errorf("payload = %+v", inc)
	}
}

func TestSelectDispatch(t *testing.T) {
	s := New()
	rc, _ := newContext()

	legacy := legacyComponent()
	c, err := s.Select(rc, model.Dependency{Module: libID.ModuleID()}, legacy, nil)
	if err != nil || c.Name() != "default" {
		t.Errorf("legacy default: %v, %v", c, err)
	}

	c, err = s.Select(rc, model.Dependency{Module: libID.ModuleID(), Configuration: "runtime"}, legacy, nil)
	if err != nil || c.Name() != "runtime" {
		t.Errorf("named: %v, %v", c, err)
	}

	variants := component(variantSpec{name: "only"})
	c, err = s.Select(rc, model.Dependency{Module: libID.ModuleID()}, variants, nil)
	if err != nil || c.Kind() != model.KindVariant {
		t.Errorf("variants: %v, %v", c, err)
	}

	empty := &model.Component{ID: libID}
	if _, err := s.Select(rc, model.Dependency{Module: libID.ModuleID()}, empty, nil); !errors.Is(err, failure.ErrConfigurationNotFound) {
		t.Errorf("empty component error = %v", err)
	}
}

func TestObserverAndCache(t *testing.T) {
	var outcomes []Outcome
	cache := matching.NewMemoryCache()
	s := New(WithMatchCache(cache), WithObserver(func(o Outcome) { outcomes = append(outcomes, o) }))
	rc, _ := newContext()

	target := component(
		variantSpec{name: "linux", attrs: map[string]string{"os": "linux"}},
		variantSpec{name: "windows", attrs: map[string]string{"os": "windows"}},
	)
	for range 3 {
		if _, err := s.SelectByAttributeMatching(rc, request(map[string]string{"os": "linux"}), target, nil); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = s.SelectByAttributeMatching(rc, request(map[string]string{"os": "mac"}), target, nil)

	want := []Outcome{OutcomeSelected, OutcomeSelected, OutcomeSelected, Outcome(failure.NoMatchingVariants)}
	if len(outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", outcomes, want)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("outcomes[%d] = %s, want %s", i, outcomes[i], want[i])
		}
	}

	hits, misses := cache.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 2/2", hits, misses)
	}
}
