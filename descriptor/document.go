package descriptor

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/conflict"
	"github.com/albertocavalcante/go-varsel/model"
)

// Document is the parsed form of a descriptor file.
type Document struct {
	// Path is the file the document was read from, if any.
	Path string `yaml:"-"`

	Root            RootDecl                  `yaml:"root" validate:"required"`
	Attributes      []AttributeDecl           `yaml:"attributes,omitempty" validate:"dive"`
	Components      []ComponentDecl           `yaml:"components,omitempty" validate:"dive"`
	CapabilityRules []conflict.CapabilityRule `yaml:"capability_rules,omitempty" validate:"dive"`
}

// RootDecl declares the consuming project.
type RootDecl struct {
	ID           string            `yaml:"id" validate:"required,coordinate"`
	Attributes   map[string]string `yaml:"attributes,omitempty"`
	Dependencies []DependencyDecl  `yaml:"dependencies,omitempty" validate:"dive"`
}

// DependencyDecl declares one edge.
type DependencyDecl struct {
	Module        string            `yaml:"module" validate:"required,module"`
	Version       string            `yaml:"version,omitempty"`
	Configuration string            `yaml:"configuration,omitempty"`
	Attributes    map[string]string `yaml:"attributes,omitempty"`
	Capabilities  []string          `yaml:"capabilities,omitempty" validate:"dive,capability"`
	Artifacts     []ArtifactDecl    `yaml:"artifacts,omitempty" validate:"dive"`
}

// ArtifactDecl declares a published or requested artifact.
type ArtifactDecl struct {
	Name       string `yaml:"name" validate:"required"`
	Type       string `yaml:"type,omitempty"`
	Extension  string `yaml:"extension,omitempty"`
	Classifier string `yaml:"classifier,omitempty"`
}

// AttributeDecl declares the type and matching rules of an attribute.
type AttributeDecl struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type,omitempty" validate:"omitempty,oneof=string bool int"`

	// Compatible maps a requested value to the provided values it accepts.
	Compatible map[string][]string `yaml:"compatible,omitempty"`

	// Preference lists values from most to least preferred.
	Preference []string `yaml:"preference,omitempty"`
}

// ComponentDecl declares one version of a module.
type ComponentDecl struct {
	ID             string              `yaml:"id" validate:"required,coordinate"`
	Project        bool                `yaml:"project,omitempty"`
	Attributes     []AttributeDecl     `yaml:"attributes,omitempty" validate:"dive"`
	Variants       []VariantDecl       `yaml:"variants,omitempty" validate:"dive"`
	Configurations []ConfigurationDecl `yaml:"configurations,omitempty" validate:"dive"`
}

// VariantDecl declares a variant.
type VariantDecl struct {
	Name         string            `yaml:"name" validate:"required"`
	Attributes   map[string]string `yaml:"attributes,omitempty"`
	Capabilities []string          `yaml:"capabilities,omitempty" validate:"dive,capability"`
	Artifacts    []ArtifactDecl    `yaml:"artifacts,omitempty" validate:"dive"`
	Dependencies []DependencyDecl  `yaml:"dependencies,omitempty" validate:"dive"`
	Deprecated   bool              `yaml:"deprecated,omitempty"`
}

// ConfigurationDecl declares a legacy configuration. Configurations are
// consumable unless Consumable is set to false.
type ConfigurationDecl struct {
	VariantDecl `yaml:",inline"`
	Consumable  *bool `yaml:"consumable,omitempty"`
}

var validate = newValidator()

// customTags are the validation tags descriptors use beyond the built-in ones.
var customTags = map[string]validator.Func{
	"coordinate": func(fl validator.FieldLevel) bool {
		return model.ValidCoordinate(fl.Field().String())
	},
	"module": func(fl validator.FieldLevel) bool {
		_, err := model.ParseModuleID(fl.Field().String())
		return err == nil
	},
	"capability": func(fl validator.FieldLevel) bool {
		_, err := capability.Parse(fl.Field().String())
		return err == nil
	},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("descriptor: register %q validation: %v", tag, err))
		}
	}
	return v
}

// Validate checks field constraints and cross references.
func (d *Document) Validate() error {
	var errs []error
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	seen := make(map[string]bool)
	for _, c := range d.Components {
		if seen[c.ID] {
			errs = append(errs, fmt.Errorf("component %s declared twice", c.ID))
		}
		seen[c.ID] = true
		names := make(map[string]bool)
		for _, v := range c.Variants {
			if names[v.Name] {
				errs = append(errs, fmt.Errorf("component %s: variant %s declared twice", c.ID, v.Name))
			}
			names[v.Name] = true
		}
	}
	for _, r := range d.CapabilityRules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %s: %w", varsel.ErrInvalidDescriptor, d.name(), err)
	}
	return nil
}

func (d *Document) name() string {
	if d.Path == "" {
		return "descriptor"
	}
	return d.Path
}

// Workspace is a document turned into resolution inputs.
type Workspace struct {
	Provider *model.MemoryProvider
	Schema   *attribute.RuleSchema
	Root     varsel.Root
	Rules    []conflict.CapabilityRule
}

// Options returns the engine options the workspace implies.
func (w *Workspace) Options() []varsel.Option {
	opts := []varsel.Option{varsel.WithConsumerSchema(w.Schema)}
	if len(w.Rules) > 0 {
		opts = append(opts, varsel.WithCapabilityRules(w.Rules...))
	}
	return opts
}

// Build validates the document and converts it.
func (d *Document) Build() (*Workspace, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b := &builder{types: make(map[string]attribute.Type)}

	decls := slices.Clone(d.Attributes)
	for _, c := range d.Components {
		decls = append(decls, c.Attributes...)
	}
	for _, a := range decls {
		b.declare(a)
	}

	ws := &Workspace{
		Provider: model.NewMemoryProvider(),
		Schema:   b.schema(d.Attributes),
		Rules:    slices.Clone(d.CapabilityRules),
	}

	ws.Root = varsel.Root{
		ID:           model.MustComponentID(d.Root.ID),
		Attributes:   b.attributes(d.Root.Attributes),
		Dependencies: b.dependencies(d.Root.Dependencies),
	}

	for _, cd := range d.Components {
		ws.Provider.Add(b.component(cd))
	}

	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", varsel.ErrInvalidDescriptor, d.name(), err)
	}
	return ws, nil
}

type builder struct {
	types map[string]attribute.Type
	errs  []error
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

func (b *builder) declare(a AttributeDecl) {
	t, err := attribute.ParseType(a.Type)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	if prev, ok := b.types[a.Name]; ok && prev != t {
		b.fail("attribute %s declared as both %s and %s", a.Name, prev, t)
		return
	}
	b.types[a.Name] = t
}

func (b *builder) value(name, raw string) any {
	e, err := attribute.Parse(name, b.types[name], raw)
	if err != nil {
		b.errs = append(b.errs, err)
		return raw
	}
	return e.Value
}

func (b *builder) attributes(m map[string]string) attribute.Set {
	entries := make([]attribute.Entry, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		e, err := attribute.Parse(name, b.types[name], m[name])
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		entries = append(entries, e)
	}
	return attribute.NewSet(entries...)
}

func (b *builder) schema(decls []AttributeDecl) *attribute.RuleSchema {
	var opts []attribute.SchemaOption
	for _, a := range decls {
		for _, requested := range slices.Sorted(maps.Keys(a.Compatible)) {
			accepted := make([]any, len(a.Compatible[requested]))
			for i, v := range a.Compatible[requested] {
				accepted[i] = b.value(a.Name, v)
			}
			opts = append(opts, attribute.WithCompatibility(a.Name, b.value(a.Name, requested), accepted...))
		}
		if len(a.Preference) > 0 {
			values := make([]any, len(a.Preference))
			for i, v := range a.Preference {
				values[i] = b.value(a.Name, v)
			}
			opts = append(opts, attribute.WithPreference(a.Name, values...))
		}
	}
	return attribute.NewSchema(opts...)
}

func (b *builder) capabilities(raw []string) []capability.Capability {
	out := make([]capability.Capability, 0, len(raw))
	for _, s := range raw {
		c, err := capability.Parse(s)
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func artifacts(decls []ArtifactDecl) []model.Artifact {
	if len(decls) == 0 {
		return nil
	}
	out := make([]model.Artifact, len(decls))
	for i, a := range decls {
		out[i] = model.Artifact{Name: a.Name, Type: a.Type, Extension: a.Extension, Classifier: a.Classifier}
	}
	return out
}

func (b *builder) dependencies(decls []DependencyDecl) []model.Dependency {
	out := make([]model.Dependency, 0, len(decls))
	for _, d := range decls {
		module, err := model.ParseModuleID(d.Module)
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		req := model.Request{
			Attributes:   b.attributes(d.Attributes),
			Capabilities: b.capabilities(d.Capabilities),
		}
		for _, a := range d.Artifacts {
			req.Artifacts = append(req.Artifacts, model.ArtifactSelector{
				Name: a.Name, Type: a.Type, Extension: a.Extension, Classifier: a.Classifier,
			})
		}
		out = append(out, model.Dependency{
			Module:        module,
			Version:       d.Version,
			Request:       req,
			Configuration: d.Configuration,
		})
	}
	return out
}

func (b *builder) variant(id model.ComponentID, v VariantDecl) model.Variant {
	return model.Variant{
		Name:                     v.Name,
		Component:                id,
		Attributes:               b.attributes(v.Attributes),
		Capabilities:             capability.NewSet(b.capabilities(v.Capabilities)...),
		Artifacts:                artifacts(v.Artifacts),
		Dependencies:             b.dependencies(v.Dependencies),
		DeprecatedForConsumption: v.Deprecated,
	}
}

func (b *builder) component(cd ComponentDecl) *model.Component {
	id := model.MustComponentID(cd.ID)
	c := &model.Component{ID: id, Project: cd.Project}
	if len(cd.Attributes) > 0 {
		c.Schema = b.schema(cd.Attributes)
	}
	for _, vd := range cd.Variants {
		v := b.variant(id, vd)
		c.Variants = append(c.Variants, &v)
	}
	for _, conf := range cd.Configurations {
		consumable := conf.Consumable == nil || *conf.Consumable
		c.Configurations = append(c.Configurations, &model.Configuration{
			Variant:       b.variant(id, conf.VariantDecl),
			CanBeConsumed: consumable,
		})
	}
	return c
}
