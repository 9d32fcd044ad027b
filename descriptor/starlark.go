package descriptor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bazelbuild/buildtools/build"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/conflict"
	"github.com/albertocavalcante/go-varsel/internal/buildutil"
)

// Position is a location in a descriptor file.
type Position struct {
	Filename string
	Line     int
}

// ParseError is a problem found at a specific position.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Pos.Filename, e.Pos.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Pos.Filename, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// ParseStarlark parses a Starlark descriptor.
func ParseStarlark(filename string, content []byte) (*Document, error) {
	f, err := build.ParseBzl(filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", varsel.ErrInvalidDescriptor, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		})
	}

	p := &starlarkParser{filename: filename, doc: &Document{Path: filename}}
	for _, stmt := range f.Stmt {
		p.statement(stmt)
	}
	// Dependencies are attached after every variant has been declared, so
	// statements may appear in any order.
	for _, d := range p.pendingDeps {
		p.attach(d)
	}
	if len(p.errs) > 0 {
		return nil, joinParseErrors(p.errs)
	}
	return p.doc, nil
}

type pendingDep struct {
	pos     Position
	owner   string
	variant string
	decl    DependencyDecl
}

type starlarkParser struct {
	filename    string
	doc         *Document
	rootSeen    bool
	pendingDeps []pendingDep
	errs        []*ParseError
}

func (p *starlarkParser) statement(expr build.Expr) {
	if _, ok := expr.(*build.CommentBlock); ok {
		return
	}
	call, ok := expr.(*build.CallExpr)
	if !ok {
		p.addError(p.position(expr), "unsupported statement; only declaration calls are allowed")
		return
	}
	pos := p.position(call)

	switch name := buildutil.FuncName(call); name {
	case "root":
		p.root(call, pos)
	case "dependency":
		p.dependency(call, pos)
	case "component":
		p.component(call, pos)
	case "variant":
		p.variant(call, pos)
	case "configuration":
		p.configuration(call, pos)
	case "attribute":
		p.attribute(call, pos)
	case "capability_rule":
		p.capabilityRule(call)
	default:
		p.addError(pos, "unknown declaration %q", name)
	}
}

func (p *starlarkParser) root(call *build.CallExpr, pos Position) {
	if p.rootSeen {
		p.addError(pos, "root declared twice")
		return
	}
	p.rootSeen = true
	p.doc.Root.ID = firstString(call, "id")
	p.doc.Root.Attributes = buildutil.StringDict(call, "attributes")
}

func (p *starlarkParser) dependency(call *build.CallExpr, pos Position) {
	d := pendingDep{
		pos:     pos,
		owner:   buildutil.String(call, "owner"),
		variant: buildutil.String(call, "variant"),
		decl: DependencyDecl{
			Module:        firstString(call, "module"),
			Version:       buildutil.String(call, "version"),
			Configuration: buildutil.String(call, "configuration"),
			Attributes:    buildutil.StringDict(call, "attributes"),
			Capabilities:  buildutil.StringList(call, "capabilities"),
			Artifacts:     artifactDecls(call),
		},
	}
	if d.owner == "" {
		if d.variant != "" {
			p.addError(pos, "dependency names a variant but no owner")
			return
		}
		p.doc.Root.Dependencies = append(p.doc.Root.Dependencies, d.decl)
		return
	}
	if d.variant == "" {
		p.addError(pos, "dependency of %s must name its variant or configuration", d.owner)
		return
	}
	p.pendingDeps = append(p.pendingDeps, d)
}

func (p *starlarkParser) attach(d pendingDep) {
	c := p.find(d.owner)
	if c == nil {
		p.addError(d.pos, "dependency owner %s is not a declared component", d.owner)
		return
	}
	for i := range c.Variants {
		if c.Variants[i].Name == d.variant {
			c.Variants[i].Dependencies = append(c.Variants[i].Dependencies, d.decl)
			return
		}
	}
	for i := range c.Configurations {
		if c.Configurations[i].Name == d.variant {
			c.Configurations[i].Dependencies = append(c.Configurations[i].Dependencies, d.decl)
			return
		}
	}
	p.addError(d.pos, "component %s has no variant or configuration %q", d.owner, d.variant)
}

func (p *starlarkParser) component(call *build.CallExpr, pos Position) {
	id := firstString(call, "id")
	if id == "" {
		p.addError(pos, "component: missing id")
		return
	}
	if p.find(id) != nil {
		p.addError(pos, "component %s declared twice", id)
		return
	}
	p.doc.Components = append(p.doc.Components, ComponentDecl{
		ID:      id,
		Project: buildutil.Bool(call, "project"),
	})
}

func (p *starlarkParser) owner(call *build.CallExpr, pos Position, kind string) *ComponentDecl {
	id := buildutil.String(call, "component")
	if id == "" {
		p.addError(pos, "%s: missing component", kind)
		return nil
	}
	c := p.find(id)
	if c == nil {
		p.addError(pos, "%s: component %s must be declared first", kind, id)
	}
	return c
}

func (p *starlarkParser) variantDecl(call *build.CallExpr) VariantDecl {
	return VariantDecl{
		Name:         firstString(call, "name"),
		Attributes:   buildutil.StringDict(call, "attributes"),
		Capabilities: buildutil.StringList(call, "capabilities"),
		Artifacts:    artifactDecls(call),
		Deprecated:   buildutil.Bool(call, "deprecated"),
	}
}

func (p *starlarkParser) variant(call *build.CallExpr, pos Position) {
	if c := p.owner(call, pos, "variant"); c != nil {
		c.Variants = append(c.Variants, p.variantDecl(call))
	}
}

func (p *starlarkParser) configuration(call *build.CallExpr, pos Position) {
	c := p.owner(call, pos, "configuration")
	if c == nil {
		return
	}
	conf := ConfigurationDecl{VariantDecl: p.variantDecl(call)}
	if buildutil.Has(call, "consumable") {
		consumable := buildutil.Bool(call, "consumable")
		conf.Consumable = &consumable
	}
	c.Configurations = append(c.Configurations, conf)
}

func (p *starlarkParser) attribute(call *build.CallExpr, pos Position) {
	a := AttributeDecl{
		Name:       firstString(call, "name"),
		Type:       buildutil.String(call, "type"),
		Preference: buildutil.StringList(call, "preference"),
	}
	if rhs, ok := buildutil.Arg(call, "compatible"); ok {
		m, ok := buildutil.ExtractValue(rhs).(map[string]any)
		if !ok {
			p.addError(pos, "attribute %s: compatible must be a dict of lists", a.Name)
			return
		}
		a.Compatible = make(map[string][]string, len(m))
		for requested, v := range m {
			list, _ := v.([]any)
			for _, item := range list {
				if s, ok := item.(string); ok {
					a.Compatible[requested] = append(a.Compatible[requested], s)
				}
			}
		}
	}

	if !buildutil.Has(call, "component") {
		p.doc.Attributes = append(p.doc.Attributes, a)
		return
	}
	if c := p.owner(call, pos, "attribute"); c != nil {
		c.Attributes = append(c.Attributes, a)
	}
}

func (p *starlarkParser) capabilityRule(call *build.CallExpr) {
	p.doc.CapabilityRules = append(p.doc.CapabilityRules, ruleDecl(call))
}

func (p *starlarkParser) find(id string) *ComponentDecl {
	i := slices.IndexFunc(p.doc.Components, func(c ComponentDecl) bool { return c.ID == id })
	if i < 0 {
		return nil
	}
	return &p.doc.Components[i]
}

func (p *starlarkParser) position(expr build.Expr) Position {
	return Position{Filename: p.filename, Line: buildutil.Line(expr)}
}

func (p *starlarkParser) addError(pos Position, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// firstString reads a keyword argument or, failing that, the first
// positional string.
func firstString(call *build.CallExpr, name string) string {
	if s := buildutil.String(call, name); s != "" {
		return s
	}
	return buildutil.String(call, "")
}

func artifactDecls(call *build.CallExpr) []ArtifactDecl {
	var out []ArtifactDecl
	for _, m := range buildutil.DictList(call, "artifacts") {
		str := func(k string) string {
			s, _ := m[k].(string)
			return s
		}
		out = append(out, ArtifactDecl{
			Name:       str("name"),
			Type:       str("type"),
			Extension:  str("extension"),
			Classifier: str("classifier"),
		})
	}
	return out
}

func ruleDecl(call *build.CallExpr) conflict.CapabilityRule {
	return conflict.CapabilityRule{
		Capability:           firstString(call, "capability"),
		Select:               buildutil.String(call, "select"),
		SelectHighestVersion: buildutil.Bool(call, "select_highest_version"),
		Reason:               buildutil.String(call, "reason"),
	}
}

func joinParseErrors(errs []*ParseError) error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return fmt.Errorf("%w: %w", varsel.ErrInvalidDescriptor, errors.Join(out...))
}
