package matching

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/model"
)

var testComponent = model.MustComponentID("org:lib:1.0")

func variant(name string, attrs map[string]string) model.Candidate {
	return model.VariantCandidate(&model.Variant{
		Name:       name,
		Component:  testComponent,
		Attributes: attribute.FromStrings(attrs),
	})
}

func names(cs []model.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func equalNames(got []model.Candidate, want ...string) bool {
	g := names(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestIsMatching(t *testing.T) {
	m := New(nil)
	requested := attribute.FromStrings(map[string]string{"os": "linux", "usage": "runtime"})

	tests := []struct {
		name      string
		candidate map[string]string
		want      bool
	}{
		{"exact", map[string]string{"os": "linux", "usage": "runtime"}, true},
		{"missing attribute is unconstrained", map[string]string{"os": "linux"}, true},
		{"no attributes", nil, true},
		{"extra attribute ignored", map[string]string{"os": "linux", "docs": "none"}, true},
		{"wrong value", map[string]string{"os": "windows"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsMatching(requested, attribute.FromStrings(tt.candidate)); got != tt.want {
				t.Errorf("IsMatching() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Scenario: request {os: linux}, candidates linux and windows.
func TestMatchesSelectsCompatible(t *testing.T) {
	m := New(nil)
	res := m.Matches(testComponent, []model.Candidate{
		variant("windows", map[string]string{"os": "windows"}),
		variant("linux", map[string]string{"os": "linux"}),
	}, attribute.FromStrings(map[string]string{"os": "linux"}))

	if !equalNames(res.Matches, "linux") {
		t.Fatalf("Matches = %v, want [linux]", names(res.Matches))
	}
	if len(res.Discarded) != 1 {
		t.Fatalf("Discarded = %v, want one entry", res.Discarded)
	}
	d := res.Discarded[0]
	if d.Candidate.Name() != "windows" || d.Reason != Incompatible || d.Attribute.Name != "os" || d.Provided != "windows" || d.Requested != "linux" {
		t.Errorf("Discard = %+v", d)
	}
}

// Scenario: empty request, usage api vs runtime and no preference rule.
func TestMatchesTieWithoutPreference(t *testing.T) {
	m := New(nil)
	res := m.Matches(testComponent, []model.Candidate{
		variant("runtime", map[string]string{"usage": "runtime"}),
		variant("api", map[string]string{"usage": "api"}),
	}, attribute.Set{})

	if !equalNames(res.Matches, "api", "runtime") {
		t.Errorf("Matches = %v, want both sorted", names(res.Matches))
	}
	if len(res.Discarded) != 0 {
		t.Errorf("Discarded = %v, want none", res.Discarded)
	}
}

func TestMatchesPareto(t *testing.T) {
	schema := attribute.NewSchema(
		attribute.WithPreference("usage", "runtime", "api"),
		attribute.WithPreference("packaging", "jar", "classes"),
	)
	m := New(schema)

	// A loses to B on both attributes; C differs on an attribute the schema
	// cannot order, so it stays.
	a := variant("a", map[string]string{"usage": "api", "packaging": "classes"})
	b := variant("b", map[string]string{"usage": "runtime", "packaging": "jar"})
	c := variant("c", map[string]string{"usage": "runtime", "packaging": "tar"})

	res := m.Matches(testComponent, []model.Candidate{a, b, c}, attribute.Set{})
	if !equalNames(res.Matches, "b", "c") {
		t.Fatalf("Matches = %v, want [b c]", names(res.Matches))
	}
	if len(res.Discarded) != 1 {
		t.Fatalf("Discarded = %+v", res.Discarded)
	}
	d := res.Discarded[0]
	if d.Candidate.Name() != "a" || d.Reason != Dominated || d.By != "b" {
		t.Errorf("Discard = %+v, want a dominated by b", d)
	}
}

func TestMatchesPrefersExactValue(t *testing.T) {
	schema := attribute.NewSchema(attribute.WithCompatibility("usage", "runtime", "api"))
	m := New(schema)

	res := m.Matches(testComponent, []model.Candidate{
		variant("api", map[string]string{"usage": "api"}),
		variant("runtime", map[string]string{"usage": "runtime"}),
	}, attribute.FromStrings(map[string]string{"usage": "runtime"}))

	if !equalNames(res.Matches, "runtime") {
		t.Errorf("Matches = %v, want [runtime]", names(res.Matches))
	}
	if len(res.Discarded) != 1 {
		t.Fatalf("Discarded = %+v", res.Discarded)
	}
	d := res.Discarded[0]
	if d.Reason != Dominated || d.By != "runtime" || d.Requested != "runtime" || d.Provided != "api" {
		t.Errorf("Discard = %+v, want api dominated by runtime with requested and provided values", d)
	}
}

func TestMatchesMissingAttributeIsIncomparable(t *testing.T) {
	m := New(attribute.NewSchema(attribute.WithPreference("os", "linux", "windows")))
	res := m.Matches(testComponent, []model.Candidate{
		variant("linux", map[string]string{"os": "linux"}),
		variant("any", nil),
	}, attribute.Set{})

	if !equalNames(res.Matches, "any", "linux") {
		t.Errorf("Matches = %v, want both", names(res.Matches))
	}
}

func TestMatchesDeterministic(t *testing.T) {
	m := New(attribute.NewSchema(attribute.WithPreference("usage", "runtime", "api")))
	base := []model.Candidate{
		variant("api", map[string]string{"usage": "api"}),
		variant("runtime", map[string]string{"usage": "runtime"}),
		variant("docs", map[string]string{"usage": "docs"}),
		variant("win", map[string]string{"usage": "runtime", "os": "windows"}),
	}
	requested := attribute.FromStrings(map[string]string{"os": "linux"})
	want := names(m.Matches(testComponent, base, requested).Matches)

	r := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]model.Candidate(nil), base...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := names(m.Matches(testComponent, shuffled, requested).Matches)
		if len(got) != len(want) {
			t.Fatalf("Matches = %v, want %v", got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("Matches = %v, want %v", got, want)
			}
		}
	}
}

func TestMemoryCache(t *testing.T) {
	var (
		mu      sync.Mutex
		lookups []bool
	)
	cache := NewMemoryCache(WithObserver(func(hit bool) {
		mu.Lock()
		lookups = append(lookups, hit)
		mu.Unlock()
	}))
	m := New(nil, WithCache(cache))

	candidates := []model.Candidate{
		variant("linux", map[string]string{"os": "linux"}),
		variant("windows", map[string]string{"os": "windows"}),
	}
	requested := attribute.FromStrings(map[string]string{"os": "linux"})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := m.Matches(testComponent, candidates, requested)
			if !equalNames(res.Matches, "linux") {
				t.Errorf("Matches = %v", names(res.Matches))
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("cache Len() = %d, want 1", cache.Len())
	}
	hits, misses := cache.Stats()
	if hits+misses != 16 {
		t.Errorf("hits+misses = %d, want 16", hits+misses)
	}
	if len(lookups) != 16 {
		t.Errorf("observer saw %d lookups, want 16", len(lookups))
	}

	// A different subset is a different key.
	m.Matches(testComponent, candidates[:1], requested)
	if cache.Len() != 2 {
		t.Errorf("cache Len() = %d, want 2", cache.Len())
	}

	// Callers may modify what they get back.
	res := m.Matches(testComponent, candidates, requested)
	res.Matches[0] = model.Candidate{}
	again := m.Matches(testComponent, candidates, requested)
	if again.Matches[0].IsZero() {
		t.Error("cached result was modified through a returned slice")
	}
}

func TestMemoryCacheScopedByOwner(t *testing.T) {
	m := New(nil, WithCache(NewMemoryCache()))
	bare := func(name, os string) model.Candidate {
		return model.VariantCandidate(&model.Variant{Name: name, Attributes: attribute.FromStrings(map[string]string{"os": os})})
	}
	requested := attribute.FromStrings(map[string]string{"os": "linux"})

	a := m.Matches(model.MustComponentID("org:a:1.0"), []model.Candidate{bare("x", "linux"), bare("y", "windows")}, requested)
	b := m.Matches(model.MustComponentID("org:b:1.0"), []model.Candidate{bare("y", "linux"), bare("x", "windows")}, requested)

	if !equalNames(a.Matches, "x") {
		t.Errorf("org:a Matches = %v, want [x]", names(a.Matches))
	}
	if !equalNames(b.Matches, "y") {
		t.Errorf("org:b Matches = %v, want [y]", names(b.Matches))
	}
}

func TestNoopCache(t *testing.T) {
	calls := 0
	var c NoopCache
	for range 3 {
		c.GetOrCompute("k", func() Result {
			calls++
			return Result{}
		})
	}
	if calls != 3 {
		t.Errorf("compute called %d times, want 3", calls)
	}
}
