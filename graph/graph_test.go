package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-varsel/model"
)

var (
	rootKey = model.MustComponentID("acme:app")
	aKey    = model.MustComponentID("org:a:1.0")
	bKey    = model.MustComponentID("org:b:1.0")
	cKey    = model.MustComponentID("org:c:2.0")
)

func variant(name string) model.Candidate {
	return model.VariantCandidate(&model.Variant{Name: name})
}

// Helper to create a test graph:
//
//	acme:app
//	├── org:a:1.0
//	│   └── org:c:2.0
//	└── org:b:1.0
//	    └── org:c:2.0 (shared, b asked for 1.5)
func createTestGraph() *Graph {
	b := NewBuilder(rootKey)
	b.RecordRequest(aKey.ModuleID(), "1.0", rootKey)
	b.RecordRequest(bKey.ModuleID(), "1.0", rootKey)
	b.RecordRequest(cKey.ModuleID(), "2.0", aKey)
	b.RecordRequest(cKey.ModuleID(), "1.5", bKey)
	b.RecordDecision(cKey.ModuleID(), StrategyConflict, "latest version among 1.5, 2.0")

	b.AddNode(aKey, variant("runtime"), false)
	b.AddNode(bKey, variant("runtime"), true)
	b.AddNode(cKey, model.ConfigurationCandidate(&model.Configuration{Variant: model.Variant{Name: "default"}}), false)

	b.AddEdge(rootKey, bKey)
	b.AddEdge(rootKey, aKey)
	b.AddEdge(aKey, cKey)
	b.AddEdge(bKey, cKey)
	b.AddEdge(bKey, cKey)
	return b.Build()
}

func TestBuild(t *testing.T) {
	g := createTestGraph()

	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	root := g.Get(rootKey)
	if root == nil || !root.IsRoot {
		t.Fatal("root node missing")
	}
	if len(root.Dependencies) != 2 || root.Dependencies[0] != aKey {
		t.Errorf("root dependencies = %v, want sorted [a b]", root.Dependencies)
	}

	c := g.Get(cKey)
	if len(c.Dependents) != 2 {
		t.Errorf("c should have 2 dependents, got %v", c.Dependents)
	}
	if c.Kind != "configuration" || c.Candidate != "default" {
		t.Errorf("c candidate = %s %s", c.Kind, c.Candidate)
	}
	if c.AskedFor[bKey] != "1.5" || c.AskedFor[aKey] != "2.0" {
		t.Errorf("AskedFor = %v", c.AskedFor)
	}
}

func TestBuildDropsEdgesToUnknownNodes(t *testing.T) {
	b := NewBuilder(rootKey)
	b.AddNode(aKey, variant("runtime"), false)
	b.AddEdge(rootKey, aKey)
	b.AddEdge(aKey, cKey)
	g := b.Build()
	if deps := g.DirectDeps(aKey); len(deps) != 0 {
		t.Errorf("a dependencies = %v, want none", deps)
	}
}

func TestDecision(t *testing.T) {
	g := createTestGraph()

	c := g.Get(cKey).Selection
	if c.Strategy != StrategyConflict {
		t.Errorf("c strategy = %s", c.Strategy)
	}
	if len(c.Candidates) != 2 || c.Candidates[0].Version != "1.5" || c.Candidates[0].Selected {
		t.Fatalf("c candidates = %+v", c.Candidates)
	}
	if !c.Candidates[1].Selected || c.Candidates[0].LostBecause == "" {
		t.Errorf("c candidates = %+v", c.Candidates)
	}

	a := g.Get(aKey).Selection
	if a.Strategy != StrategyRequested || a.Reason != "only version requested" {
		t.Errorf("a selection = %+v", a)
	}
}

func TestQueries(t *testing.T) {
	g := createTestGraph()

	tests := []struct {
		name string
		got  []Key
		want []Key
	}{
		{"direct deps of root", g.DirectDeps(rootKey), []Key{aKey, bKey}},
		{"direct dependents of c", g.DirectDependents(cKey), []Key{aKey, bKey}},
		{"transitive deps of root", g.TransitiveDeps(rootKey), []Key{aKey, bKey, cKey}},
		{"transitive dependents of c", g.TransitiveDependents(cKey), []Key{aKey, bKey, rootKey}},
		{"path root to c", g.Path(rootKey, cKey), []Key{rootKey, aKey, cKey}},
		{"path to self", g.Path(aKey, aKey), []Key{aKey}},
		{"no path", g.Path(cKey, rootKey), nil},
		{"leaves", g.Leaves(), []Key{cKey}},
		{"unknown node", g.DirectDeps(model.MustComponentID("x:y:1")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != len(tt.want) {
				t.Fatalf("got %v, want %v", tt.got, tt.want)
			}
			for i := range tt.want {
				if tt.got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			}
		})
	}
}

func TestAllPaths(t *testing.T) {
	g := createTestGraph()
	paths := g.AllPaths(rootKey, cKey)
	if len(paths) != 2 {
		t.Fatalf("AllPaths() = %v, want 2 paths", paths)
	}
}

func TestGetByModule(t *testing.T) {
	g := createTestGraph()
	if n := g.GetByModule(model.MustModuleID("org:c")); n == nil || n.Key != cKey {
		t.Errorf("GetByModule(org:c) = %v", n)
	}
	if n := g.GetByModule(model.MustModuleID("org:x")); n != nil {
		t.Errorf("GetByModule(org:x) = %v, want nil", n)
	}
}

func TestExplain(t *testing.T) {
	g := createTestGraph()

	exp, err := g.Explain(cKey.ModuleID())
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if exp.Component != cKey || exp.Candidate != "default" {
		t.Errorf("Explain() component = %s %s", exp.Component, exp.Candidate)
	}
	if len(exp.Chains) != 2 {
		t.Fatalf("chains = %v", exp.Chains)
	}
	requested := map[string]bool{}
	for _, ch := range exp.Chains {
		requested[ch.Asked] = true
	}
	if !requested["1.5"] || !requested["2.0"] {
		t.Errorf("requested versions along chains = %v", requested)
	}
	if !strings.Contains(exp.Requests, "(selected)") {
		t.Errorf("summary = %q", exp.Requests)
	}

	if _, err := g.Explain(model.MustModuleID("org:missing")); err == nil {
		t.Error("Explain() of a missing module succeeded")
	}
}

func TestWhyIncluded(t *testing.T) {
	g := createTestGraph()
	chains, err := g.WhyIncluded(aKey.ModuleID())
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 1 || chains[0].String() != "acme:app -> org:a:1.0" {
		t.Errorf("WhyIncluded() = %v", chains)
	}
}

func TestStats(t *testing.T) {
	g := createTestGraph()
	s := g.Stats()
	want := Stats{TotalComponents: 3, DirectDependencies: 2, TransitiveDependencies: 1, MaxDepth: 2, ProjectComponents: 1}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}

func TestCycles(t *testing.T) {
	g := createTestGraph()
	if g.HasCycles() {
		t.Fatalf("unexpected cycles: %v", g.Cycles())
	}

	b := NewBuilder(rootKey)
	b.AddNode(aKey, variant("runtime"), false)
	b.AddNode(bKey, variant("runtime"), false)
	b.AddEdge(rootKey, aKey)
	b.AddEdge(aKey, bKey)
	b.AddEdge(bKey, aKey)
	cyclic := b.Build()

	cycles := cyclic.Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Fatalf("Cycles() = %v", cycles)
	}
	if s := cyclic.Stats(); s.MaxDepth != 2 {
		t.Errorf("MaxDepth on cyclic graph = %d", s.MaxDepth)
	}
	if !strings.Contains(cyclic.ToText(), "(circular)") {
		t.Error("ToText() does not mark the cycle")
	}
}

func TestChain_String(t *testing.T) {
	tests := []struct {
		chain Chain
		want  string
	}{
		{Chain{}, ""},
		{Chain{Path: []Key{rootKey}}, "acme:app"},
		{Chain{Path: []Key{rootKey, aKey}, Asked: "1.0"}, "acme:app -> org:a:1.0 (requested 1.0)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.chain.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToJSON(t *testing.T) {
	g := createTestGraph()
	data, err := g.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var out JSONGraph
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Root != "acme:app" || len(out.Components) != 3 {
		t.Fatalf("ToJSON() = %+v", out)
	}
	if out.Components[0].ID != "org:a:1.0" || out.Components[0].Candidate != "runtime" {
		t.Errorf("first component = %+v", out.Components[0])
	}
	if c := out.Components[2]; c.Selection == nil || c.Selection.Strategy != StrategyConflict {
		t.Errorf("org:c selection = %+v", c.Selection)
	}
}

func TestToDOT(t *testing.T) {
	dot := createTestGraph().ToDOT()
	for _, want := range []string{
		"digraph dependencies {",
		`"acme:app" -> "org:a:1.0";`,
		`"org:b:1.0" -> "org:c:2.0";`,
		"style=bold",
		"style=dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if dot != createTestGraph().ToDOT() {
		t.Error("ToDOT() is not deterministic")
	}
}

func TestToText(t *testing.T) {
	text := createTestGraph().ToText()
	for _, want := range []string{
		"Dependency Graph (root: acme:app)",
		"Total components: 3",
		"├── org:a:1.0 [runtime]",
		"└── org:b:1.0 [runtime] (project)",
		"    └── org:c:2.0 [default]",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("ToText() missing %q:\n%s", want, text)
		}
	}
}

func TestToExplainText(t *testing.T) {
	g := createTestGraph()
	text, err := g.ToExplainText(cKey.ModuleID())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Explanation for: org:c:2.0",
		"Selected candidate: default",
		"Strategy: conflict",
		"✓ 2.0 - requested by: org:a:1.0",
		"Lost because:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("ToExplainText() missing %q:\n%s", want, text)
		}
	}
	if _, err := g.ToExplainText(model.MustModuleID("org:nope")); err == nil {
		t.Error("ToExplainText() of a missing module succeeded")
	}
}
