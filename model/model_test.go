package model

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
)

func TestParseComponentID(t *testing.T) {
	tests := []struct {
		in      string
		want    ComponentID
		wantErr bool
	}{
		{"org.lib:core:1.2", ComponentID{Group: "org.lib", Module: "core", Version: "1.2"}, false},
		{"org.lib:core", ComponentID{Group: "org.lib", Module: "core"}, false},
		{"org.lib:core:1.0-rc+build", ComponentID{Group: "org.lib", Module: "core", Version: "1.0-rc+build"}, false},
		{"core", ComponentID{}, true},
		{"org lib:core:1.0", ComponentID{}, true},
		{"org.lib::1.0", ComponentID{}, true},
		{"org.lib:core:1 0", ComponentID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseComponentID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseComponentID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseComponentID(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestParseModuleID(t *testing.T) {
	m, err := ParseModuleID("org.lib:core")
	if err != nil {
		t.Fatalf("ParseModuleID() error = %v", err)
	}
	if m.At("2.0") != MustComponentID("org.lib:core:2.0") {
		t.Errorf("At() = %v", m.At("2.0"))
	}
	if _, err := ParseModuleID("org.lib:core:2.0"); err == nil {
		t.Error("ParseModuleID accepted a version")
	}
	if !ValidCoordinate("a:b") || ValidCoordinate("a") {
		t.Error("ValidCoordinate wrong")
	}
}

func TestCandidateUnion(t *testing.T) {
	id := MustComponentID("org:lib:1.0")
	v := &Variant{
		Name:       "runtime",
		Component:  id,
		Attributes: attribute.FromStrings(map[string]string{"usage": "runtime"}),
	}
	conf := &Configuration{
		Variant:       Variant{Name: "default", Component: id, DeprecatedForConsumption: true},
		CanBeConsumed: true,
	}

	vc := VariantCandidate(v)
	cc := ConfigurationCandidate(conf)

	if vc.Kind() != KindVariant || cc.Kind() != KindConfiguration {
		t.Fatalf("kinds = %s, %s", vc.Kind(), cc.Kind())
	}
	if got, ok := vc.Variant(); !ok || got != v {
		t.Error("Variant() did not return the wrapped variant")
	}
	if _, ok := vc.Configuration(); ok {
		t.Error("variant candidate reports a configuration")
	}
	if got, ok := cc.Configuration(); !ok || got != conf {
		t.Error("Configuration() did not return the wrapped configuration")
	}
	if cc.AsVariant() != conf.AsVariant() {
		t.Error("AsVariant() mismatch")
	}
	if vc.DeprecatedForConsumption() || !cc.DeprecatedForConsumption() {
		t.Error("DeprecatedForConsumption wrong")
	}
	if vc.Name() != "runtime" || cc.Component() != id {
		t.Error("accessors wrong")
	}

	var zero Candidate
	if !zero.IsZero() || zero.Name() != "" || !zero.Attributes().IsEmpty() {
		t.Error("zero candidate not empty")
	}

	implicit := capability.New("org", "lib")
	if got := vc.ProvidedCapabilities(implicit); !got.Contains(implicit) || got.Len() != 1 {
		t.Errorf("ProvidedCapabilities() = %v, want implicit only", got)
	}
}

func TestComponentCandidatesSorted(t *testing.T) {
	c := &Component{
		ID: MustComponentID("org:lib:1.0"),
		Variants: []*Variant{
			{Name: "runtime"}, {Name: "api"}, {Name: "docs"},
		},
		Configurations: []*Configuration{{Variant: Variant{Name: "default"}}, {Variant: Variant{Name: "compile"}}},
	}
	var names []string
	for _, cand := range c.VariantCandidates() {
		names = append(names, cand.Name())
	}
	if strings.Join(names, ",") != "api,docs,runtime" {
		t.Errorf("VariantCandidates() = %v", names)
	}
	if got := c.ConfigurationNames(); strings.Join(got, ",") != "compile,default" {
		t.Errorf("ConfigurationNames() = %v", got)
	}
	if _, ok := c.Configuration("default"); !ok {
		t.Error("Configuration(default) not found")
	}
	if !c.UsesVariants() {
		t.Error("UsesVariants() = false")
	}
}

func TestRequest(t *testing.T) {
	r := Request{
		Attributes: attribute.FromStrings(map[string]string{"os": "linux"}),
		Artifacts:  []ArtifactSelector{{Name: "lib", Classifier: "natives"}},
	}
	if c, ok := r.Classifier(); !ok || c != "natives" {
		t.Errorf("Classifier() = %q, %v", c, ok)
	}

	r2 := r
	r2.Artifacts = append(r2.Artifacts, ArtifactSelector{Name: "lib", Classifier: "sources"})
	if _, ok := r2.Classifier(); ok {
		t.Error("Classifier() with two artifacts should be false")
	}

	merged := r.WithConsumerAttributes(attribute.FromStrings(map[string]string{"os": "windows", "usage": "api"}))
	if merged.Attributes.Value("os") != "linux" || merged.Attributes.Value("usage") != "api" {
		t.Errorf("WithConsumerAttributes() = %v", merged.Attributes)
	}

	same := Request{
		Attributes: attribute.FromStrings(map[string]string{"os": "linux"}),
		Artifacts:  []ArtifactSelector{{Name: "lib", Classifier: "natives"}},
	}
	if r.Key() != same.Key() {
		t.Error("equal requests have different keys")
	}
	if r.Key() == merged.Key() {
		t.Error("different requests share a key")
	}
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(
		&Component{ID: MustComponentID("org:lib:1.0")},
		&Component{ID: MustComponentID("org:lib:2.0")},
	)

	c, err := p.Component(ctx, MustComponentID("org:lib:2.0"))
	if err != nil || c.ID.Version != "2.0" {
		t.Fatalf("Component() = %v, %v", c, err)
	}
	if _, err := p.Component(ctx, MustComponentID("org:lib:3.0")); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("missing component error = %v, want ErrComponentNotFound", err)
	}

	vs, err := p.Versions(ctx, MustModuleID("org:lib"))
	if err != nil || strings.Join(vs, ",") != "1.0,2.0" {
		t.Errorf("Versions() = %v, %v", vs, err)
	}
	if len(p.Components()) != 2 {
		t.Errorf("Components() len = %d", len(p.Components()))
	}
}

func TestProviderChain(t *testing.T) {
	ctx := context.Background()
	first := NewMemoryProvider(&Component{ID: MustComponentID("org:a:1.0"), DisplayName: "first"})
	second := NewMemoryProvider(
		&Component{ID: MustComponentID("org:a:2.0"), DisplayName: "second"},
		&Component{ID: MustComponentID("org:b:1.0")},
	)

	if _, err := NewProviderChain(); err == nil {
		t.Fatal("NewProviderChain() with no providers should fail")
	}
	chain, err := NewProviderChain(first, second)
	if err != nil {
		t.Fatal(err)
	}

	c, err := chain.Component(ctx, MustComponentID("org:b:1.0"))
	if err != nil || c.ID.Module != "b" {
		t.Fatalf("Component(org:b) = %v, %v", c, err)
	}

	// org:a is pinned to the first provider once found there.
	if _, err := chain.Component(ctx, MustComponentID("org:a:1.0")); err != nil {
		t.Fatal(err)
	}
	if _, err := chain.Component(ctx, MustComponentID("org:a:2.0")); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("org:a:2.0 error = %v, want not found from pinned provider", err)
	}

	if _, err := chain.Component(ctx, MustComponentID("org:z:1.0")); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("missing error = %v", err)
	}
}

func TestResolutionContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rc := NewResolutionContext(logger)

	if rc.SessionID == "" {
		t.Fatal("SessionID empty")
	}
	if !rc.UseClassifierFallback() {
		t.Error("classifier fallback should default to on")
	}

	conf := &Configuration{Variant: Variant{Name: "legacy", DeprecatedForConsumption: true}}
	rc.Deprecated(MustComponentID("org:lib:1.0"), ConfigurationCandidate(conf))
	out := buf.String()
	if !strings.Contains(out, "deprecated for consumption") || !strings.Contains(out, "legacy") || !strings.Contains(out, rc.SessionID) {
		t.Errorf("deprecation log = %q", out)
	}

	var nilRC *ResolutionContext
	nilRC.Deprecated(ComponentID{}, Candidate{})
	nilRC.Log().Info("discarded")
	if nilRC.UseClassifierFallback() {
		t.Error("nil context enables fallback")
	}
}
