// Package render formats selection failures as multi-line reports.
//
// Rendering is diagnostic only. A Renderer reads the structured fields of
// the failure values and never changes what the engine decided.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/albertocavalcante/go-varsel/assess"
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/failure"
)

// Renderer formats failures. The zero value is not usable; call New.
type Renderer struct {
	describer attribute.Describer
	color     bool

	title   lipgloss.Style
	name    lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	subtle  lipgloss.Style
	section lipgloss.Style
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDescriber sets how attribute values are printed.
func WithDescriber(d attribute.Describer) Option {
	return func(r *Renderer) {
		if d != nil {
			r.describer = d
		}
	}
}

// WithColor enables ANSI styling.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.color = on }
}

// New returns a renderer. Output is plain text unless WithColor(true) is
// given.
func New(opts ...Option) *Renderer {
	r := &Renderer{describer: attribute.DefaultDescriber{}}
	for _, opt := range opts {
		opt(r)
	}
	plain := lipgloss.NewStyle()
	r.title, r.name, r.good, r.bad, r.subtle, r.section = plain, plain, plain, plain, plain, plain
	if r.color {
		r.title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
		r.name = lipgloss.NewStyle().Bold(true)
		r.good = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		r.bad = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		r.subtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		r.section = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	}
	return r
}

// Failures renders every error in err, separated by blank lines. Errors
// joined with errors.Join are rendered one by one.
func Failures(err error) string {
	return New().Failures(err)
}

// Failures renders every error in err, separated by blank lines.
func (r *Renderer) Failures(err error) string {
	if err == nil {
		return ""
	}
	errs := flatten(err)
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = r.Failure(e)
	}
	return strings.Join(parts, "\n\n")
}

func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// Failure renders a single error. Errors that are not selection failures
// are rendered as their message.
func (r *Renderer) Failure(err error) string {
	var b strings.Builder
	b.WriteString(r.title.Render(err.Error()))

	var (
		noMatch      *failure.NoMatchingVariantsError
		ambiguous    *failure.AmbiguousVariantsError
		incompatible *failure.IncompatibleVariantsError
		noCaps       *failure.NoMatchingCapabilitiesError
		notFound     *failure.ConfigurationNotFoundError
		module       *failure.ModuleConflictError
		capConflict  *failure.CapabilityConflictError
	)
	switch {
	case errors.As(err, &noMatch):
		r.requested(&b, noMatch.Request.Attributes)
		r.line(&b, 0, r.section.Render("Candidates:"))
		if len(noMatch.Candidates) == 0 {
			r.line(&b, 1, r.subtle.Render("none"))
		}
		for _, c := range noMatch.Candidates {
			r.candidate(&b, c)
		}
	case errors.As(err, &ambiguous):
		r.requested(&b, ambiguous.Request.Attributes)
		r.line(&b, 0, r.section.Render("Matching variants:"))
		for _, c := range ambiguous.Matches {
			r.candidate(&b, c)
		}
		if len(ambiguous.Discarded) > 0 {
			r.line(&b, 0, r.section.Render("Discarded:"))
			for _, d := range ambiguous.Discarded {
				r.discarded(&b, d)
			}
		}
	case errors.As(err, &incompatible):
		r.requested(&b, incompatible.Request.Attributes)
		r.line(&b, 0, r.section.Render("Configuration:"))
		r.candidate(&b, incompatible.Candidate)
	case errors.As(err, &noCaps):
		r.line(&b, 0, r.section.Render("Candidates:"))
		for _, c := range noCaps.Candidates {
			caps := make([]string, len(c.Capabilities))
			for i, cp := range c.Capabilities {
				caps[i] = cp.String()
			}
			provides := "its implicit capability"
			if len(caps) > 0 {
				provides = strings.Join(caps, ", ")
			}
			r.line(&b, 1, fmt.Sprintf("%s provides %s", r.name.Render(c.Name), provides))
		}
	case errors.As(err, &notFound):
		available := "none"
		if len(notFound.Available) > 0 {
			available = strings.Join(notFound.Available, ", ")
		}
		r.line(&b, 0, fmt.Sprintf("%s %s", r.section.Render("Available configurations:"), available))
	case errors.As(err, &module):
		r.line(&b, 0, r.section.Render("Requested versions:"))
		for _, id := range module.Candidates {
			r.line(&b, 1, r.name.Render(id.String()))
		}
	case errors.As(err, &capConflict):
		r.line(&b, 0, r.section.Render("Providers:"))
		for _, id := range capConflict.Candidates {
			r.line(&b, 1, r.name.Render(id.String()))
		}
	}
	return b.String()
}

func (r *Renderer) line(b *strings.Builder, indent int, s string) {
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("  ", indent+1))
	b.WriteString(s)
}

func (r *Renderer) requested(b *strings.Builder, s attribute.Set) {
	r.line(b, 0, fmt.Sprintf("%s %s", r.section.Render("Requested:"), r.describer.Describe(s)))
}

func (r *Renderer) candidate(b *strings.Builder, c assess.Candidate) {
	verdict := r.good.Render("compatible")
	if !c.IsCompatible() {
		verdict = r.bad.Render("incompatible")
	}
	r.line(b, 1, fmt.Sprintf("%s (%s)", r.name.Render(c.Name), verdict))
	for _, a := range c.Incompatible {
		r.line(b, 2, r.bad.Render(fmt.Sprintf("%s: provides %s, wanted %s", a.Attribute.Name,
			r.describer.DescribeValue(a.Attribute, a.Provided),
			r.describer.DescribeValue(a.Attribute, a.Requested))))
	}
	for _, a := range c.Compatible {
		r.line(b, 2, r.good.Render(fmt.Sprintf("%s: provides %s", a.Attribute.Name,
			r.describer.DescribeValue(a.Attribute, a.Provided))))
	}
	for _, a := range c.ProvidedOnly {
		r.line(b, 2, r.subtle.Render(fmt.Sprintf("%s: provides %s, not requested", a.Attribute.Name,
			r.describer.DescribeValue(a.Attribute, a.Provided))))
	}
	for _, a := range c.RequestedOnly {
		r.line(b, 2, r.subtle.Render(fmt.Sprintf("%s: not provided", a.Attribute.Name)))
	}
}

func (r *Renderer) discarded(b *strings.Builder, d failure.Discarded) {
	msg := fmt.Sprintf("%s: %s on %s", r.name.Render(d.Name), d.Reason, d.Attribute)
	if d.By != "" {
		msg += fmt.Sprintf(" (in favor of %s)", d.By)
	}
	r.line(b, 1, msg)
}
