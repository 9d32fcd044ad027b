package varsel

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-varsel/capability"
	"github.com/albertocavalcante/go-varsel/conflict"
	"github.com/albertocavalcante/go-varsel/graph"
	"github.com/albertocavalcante/go-varsel/internal/metrics"
	"github.com/albertocavalcante/go-varsel/matching"
	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/selection"
)

// maxPasses bounds how often the graph is walked again after a module or
// capability conflict changed the outcome.
const maxPasses = 64

// Engine resolves dependency graphs against a metadata provider.
//
// Resolution proceeds in passes. Each pass walks the graph breadth-first
// from the root: the edges of one round are selected concurrently on a
// bounded worker pool and the dependencies of the selected candidates form
// the next round. After a pass, every module that was requested in more
// than one version goes through the module conflict resolver. If a winner
// differs from what the pass used, the graph is walked again. Once module
// versions are stable, capabilities provided by more than one module go
// through the capability conflict chain, and edges to losing modules are
// rerouted to the winner.
//
// An Engine is safe for concurrent use.
type Engine struct {
	provider model.Provider
	cfg      *engineConfig
	metrics  *metrics.Collectors
}

// New creates an engine that reads metadata from provider.
func New(provider model.Provider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider is nil", ErrInvalidOption)
	}
	cfg, err := newEngineConfig(opts...)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &Engine{provider: provider, cfg: cfg, metrics: m}, nil
}

// Resolve resolves the dependencies of root.
//
// Selection and conflict failures do not abort resolution; they are kept on
// the result and reported by Result.Err. Provider errors other than
// ErrComponentNotFound and context cancellation abort resolution and are
// returned.
func (e *Engine) Resolve(ctx context.Context, root Root) (*Result, error) {
	if root.ID.IsEmpty() {
		return nil, errors.New("root component id is empty")
	}

	rc := model.NewResolutionContext(e.cfg.log())
	rc.ClassifierFallback = e.cfg.classifierFallback
	sink := rc.Deprecations
	if e.cfg.deprecations != nil {
		sink = e.cfg.deprecations
	}
	rc.Deprecations = &onceSink{next: sink}

	ctx, span := e.cfg.tracer().Start(ctx, "varsel.Resolve", trace.WithAttributes(
		otelattr.String("varsel.root", root.ID.String()),
		otelattr.String("varsel.session", rc.SessionID),
	))
	defer span.End()

	w := e.newWalk(rc, root)
	res, err := w.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		otelattr.Int("varsel.rounds", res.Rounds),
		otelattr.Int("varsel.components", len(res.Selections)),
		otelattr.Int("varsel.conflicts", len(res.Conflicts)),
	)
	if err := res.Err(); err != nil {
		span.SetStatus(codes.Error, "resolution has failures")
	}
	e.metrics.ObserveRounds(res.Rounds)
	return res, nil
}

// onceSink forwards each component and candidate pair once per resolution.
// Later passes select the same candidates again.
type onceSink struct {
	next model.DeprecationSink
	seen sync.Map
}

func (s *onceSink) ConsumptionDeprecated(component model.ComponentID, candidate model.Candidate) {
	key := component.String() + "#" + candidate.Name()
	if _, loaded := s.seen.LoadOrStore(key, struct{}{}); loaded || s.next == nil {
		return
	}
	s.next.ConsumptionDeprecated(component, candidate)
}

// walk holds the state of one resolution.
type walk struct {
	e        *Engine
	rc       *model.ResolutionContext
	root     Root
	selector *selection.Selector
	cache    matching.Cache
	chain    conflict.CapabilityChain
	tracer   trace.Tracer

	mu         sync.Mutex
	components map[model.ComponentID]*model.Component
	latest     map[model.ModuleID]string

	// requested accumulates every version requested for a module over all
	// passes.
	requested map[model.ModuleID]map[string]bool

	// winners and reroutes are only written between passes.
	winners  map[model.ModuleID]moduleWinner
	reroutes map[model.ModuleID]reroute

	decidedCapabilities map[string]bool
	capabilityConflicts []ConflictRecord
	failures            []error
	rounds              int
}

type moduleWinner struct {
	id         model.ComponentID
	candidates []model.ComponentID
	decision   conflict.ModuleDecision
	err        error
}

type reroute struct {
	target     model.ComponentID
	capability capability.Capability
	reason     string
}

// edge is a dependency waiting to be selected.
type edge struct {
	from model.ComponentID
	dep  model.Dependency
}

// outcome is the selection made for one edge.
type outcome struct {
	requested string // concrete requested version
	target    model.ComponentID
	candidate model.Candidate
	rerouted  bool
	module    model.ModuleID // after rerouting
	dep       model.Dependency

	// conflictErr is set when the target module has an unresolved
	// conflict.
	conflictErr bool
	err         error
}

// passResult is what one walk over the graph produced.
type passResult struct {
	edges    []edge
	outcomes []outcome

	// selected lists the first selection of every component and candidate
	// pair in discovery order.
	selected []selectedCandidate
}

type selectedCandidate struct {
	target    model.ComponentID
	candidate model.Candidate
	order     int
}

func (e *Engine) newWalk(rc *model.ResolutionContext, root Root) *walk {
	cache := e.cfg.cache
	if cache == nil {
		cache = matching.NewMemoryCache(matching.WithObserver(e.metrics.CacheLookup))
	}
	selector := selection.New(
		selection.WithMatchCache(cache),
		selection.WithObserver(func(o selection.Outcome) { e.metrics.Selection(string(o)) }),
	)
	return &walk{
		e:                   e,
		rc:                  rc,
		root:                root,
		selector:            selector,
		cache:               cache,
		chain:               e.cfg.capabilityChain(),
		tracer:              e.cfg.tracer(),
		components:          make(map[model.ComponentID]*model.Component),
		latest:              make(map[model.ModuleID]string),
		requested:           make(map[model.ModuleID]map[string]bool),
		winners:             make(map[model.ModuleID]moduleWinner),
		reroutes:            make(map[model.ModuleID]reroute),
		decidedCapabilities: make(map[string]bool),
	}
}

func (w *walk) run(ctx context.Context) (*Result, error) {
	log := w.rc.Log()
	for pass := 1; pass <= maxPasses; pass++ {
		p, err := w.pass(ctx, pass)
		if err != nil {
			return nil, err
		}
		if err := w.decideModules(ctx); err != nil {
			return nil, err
		}
		if !w.stable(p) {
			log.Debug("module versions changed, walking again", "pass", pass)
			continue
		}
		if w.decideCapabilities(p) {
			log.Debug("capability conflicts rerouted edges, walking again", "pass", pass)
			continue
		}
		if mc, ok := w.cache.(*matching.MemoryCache); ok {
			hits, misses := mc.Stats()
			log.Debug("match cache", "hits", hits, "misses", misses, "entries", mc.Len())
		}
		return w.result(p), nil
	}
	return nil, fmt.Errorf("resolution of %s did not converge after %d passes", w.root.ID, maxPasses)
}

// pass walks the graph once from the root.
func (w *walk) pass(ctx context.Context, n int) (*passResult, error) {
	ctx, span := w.tracer.Start(ctx, "varsel.pass", trace.WithAttributes(otelattr.Int("varsel.pass", n)))
	defer span.End()

	p := &passResult{}
	frontier := make([]edge, len(w.root.Dependencies))
	for i, d := range w.root.Dependencies {
		frontier[i] = edge{from: w.root.ID, dep: d}
	}

	expanded := make(map[string]bool)
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.rounds++
		outcomes, err := w.round(ctx, frontier)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		w.rc.Log().Debug("round selected", "pass", n, "round", w.rounds, "edges", len(frontier))

		var next []edge
		for i, o := range outcomes {
			p.edges = append(p.edges, frontier[i])
			p.outcomes = append(p.outcomes, o)
			if o.err != nil {
				continue
			}
			key := o.target.String() + "#" + o.candidate.Name()
			if expanded[key] {
				continue
			}
			expanded[key] = true
			p.selected = append(p.selected, selectedCandidate{target: o.target, candidate: o.candidate, order: len(p.edges) - 1})
			for _, d := range o.candidate.Dependencies() {
				next = append(next, edge{from: o.target, dep: d})
			}
		}
		frontier = next
	}
	return p, nil
}

// round selects every edge of one breadth-first level. Results are stored by
// index so the order of completion does not matter.
func (w *walk) round(ctx context.Context, edges []edge) ([]outcome, error) {
	ctx, span := w.tracer.Start(ctx, "varsel.round", trace.WithAttributes(otelattr.Int("varsel.edges", len(edges))))
	defer span.End()

	outcomes := make([]outcome, len(edges))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.e.cfg.concurrency)
	for i, ed := range edges {
		g.Go(func() error {
			o, err := w.selectEdge(ctx, ed)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// selectEdge resolves the target of one edge and selects a candidate from
// it. Only errors that must abort resolution are returned; everything else
// is recorded on the outcome.
func (w *walk) selectEdge(ctx context.Context, ed edge) (outcome, error) {
	dep := ed.dep
	o := outcome{}
	// A winner may itself lose a later capability conflict.
	for range len(w.reroutes) {
		r, ok := w.reroutes[dep.Module]
		if !ok {
			break
		}
		dep.Module = r.target.ModuleID()
		dep.Version = r.target.Version
		dep.Request.Capabilities = []capability.Capability{r.capability}
		o.rerouted = true
	}
	o.module = dep.Module

	requested := dep.Version
	if requested == "" {
		v, err := w.latestVersion(ctx, dep.Module)
		if err != nil {
			if errors.Is(err, model.ErrComponentNotFound) {
				o.dep, o.err = dep, err
				return o, nil
			}
			return o, err
		}
		requested = v
	}
	o.requested = requested
	w.request(dep.Module, requested)

	target := dep.Module.At(requested)
	if win, ok := w.winners[dep.Module]; ok {
		if win.err != nil {
			o.dep, o.conflictErr, o.err = dep, true, win.err
			return o, nil
		}
		target = win.id
	}
	o.target = target

	comp, err := w.component(ctx, target)
	if err != nil {
		if errors.Is(err, model.ErrComponentNotFound) {
			o.dep, o.err = dep, err
			return o, nil
		}
		return o, err
	}

	dep.Request = dep.Request.WithConsumerAttributes(w.root.Attributes)
	o.dep = dep
	o.candidate, o.err = w.selector.Select(w.rc, dep, comp, w.e.cfg.schema)
	return o, nil
}

func (w *walk) request(module model.ModuleID, version string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.requested[module] == nil {
		w.requested[module] = make(map[string]bool)
	}
	w.requested[module][version] = true
}

// component fetches a component once per resolution.
func (w *walk) component(ctx context.Context, id model.ComponentID) (*model.Component, error) {
	w.mu.Lock()
	c, ok := w.components[id]
	w.mu.Unlock()
	if ok {
		return c, nil
	}

	c, err := w.e.provider.Component(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("fetch %s: %w", id, model.ErrComponentNotFound)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.components[id]; ok {
		return existing, nil
	}
	w.components[id] = c
	return c, nil
}

// latestVersion returns the highest known version of module.
func (w *walk) latestVersion(ctx context.Context, module model.ModuleID) (string, error) {
	w.mu.Lock()
	v, ok := w.latest[module]
	w.mu.Unlock()
	if ok {
		return v, nil
	}

	versions, err := w.e.provider.Versions(ctx, module)
	if err != nil {
		return "", fmt.Errorf("list versions of %s: %w", module, err)
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("list versions of %s: %w", module, model.ErrComponentNotFound)
	}

	best := versions[0]
	for _, v := range versions[1:] {
		n, err := w.e.cfg.comparator.Compare(v, best)
		if err != nil {
			return "", fmt.Errorf("compare versions of %s: %w", module, err)
		}
		if n > 0 {
			best = v
		}
	}

	w.mu.Lock()
	w.latest[module] = best
	w.mu.Unlock()
	return best, nil
}

// decideModules recomputes the winner of every requested module.
func (w *walk) decideModules(ctx context.Context) error {
	modules := slices.SortedFunc(maps.Keys(w.requested), compareModules)
	for _, module := range modules {
		if _, gone := w.reroutes[module]; gone {
			continue
		}
		versions := slices.Sorted(maps.Keys(w.requested[module]))

		var comps []*model.Component
		for _, v := range versions {
			c, err := w.component(ctx, module.At(v))
			if errors.Is(err, model.ErrComponentNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			comps = append(comps, c)
		}
		if len(comps) == 0 {
			delete(w.winners, module)
			continue
		}

		win := moduleWinner{candidates: ids(comps)}
		if len(comps) == 1 {
			win.id = comps[0].ID
			win.decision = conflict.ModuleDecision{Winner: comps[0], Resolved: true, Reason: "requested"}
		} else {
			win.decision = w.e.cfg.moduleResolver.Resolve(w.rc, comps)
			if win.decision.Resolved && win.decision.Winner != nil {
				win.id = win.decision.Winner.ID
			} else {
				win.err = win.decision.Failure(module, comps)
			}
		}

		// Keep an unresolved failure value stable across passes.
		if prev, ok := w.winners[module]; ok && prev.err != nil && win.err != nil &&
			slices.Equal(prev.candidates, win.candidates) {
			win.err = prev.err
		}
		w.winners[module] = win
	}
	return nil
}

// stable reports whether every edge of p used the current winner of its
// module.
func (w *walk) stable(p *passResult) bool {
	for _, o := range p.outcomes {
		if o.requested == "" {
			continue
		}
		win, ok := w.winners[o.module]
		if !ok {
			continue
		}
		if win.err != nil {
			if !o.conflictErr || o.err != win.err {
				return false
			}
			continue
		}
		if o.conflictErr || o.target != win.id {
			return false
		}
	}
	return true
}

// decideCapabilities resolves capabilities provided by more than one module
// and reports whether any edge has to be rerouted.
func (w *walk) decideCapabilities(p *passResult) bool {
	type provider struct {
		module    model.ModuleID
		candidate conflict.CapabilityCandidate
	}
	byKey := make(map[string][]provider)
	capOf := make(map[string]capability.Capability)

	for _, s := range p.selected {
		comp := w.components[s.target]
		if comp == nil {
			continue
		}
		for _, c := range s.candidate.ProvidedCapabilities(comp.ImplicitCapability()).All() {
			key := c.Key()
			module := s.target.ModuleID()
			if slices.ContainsFunc(byKey[key], func(p provider) bool { return p.module == module }) {
				continue
			}
			if _, ok := capOf[key]; !ok {
				capOf[key] = capability.New(c.Group, c.Name)
			}
			byKey[key] = append(byKey[key], provider{
				module: module,
				candidate: conflict.CapabilityCandidate{
					Component:  s.target,
					Variant:    s.candidate.Name(),
					Capability: c,
					Order:      s.order,
				},
			})
		}
	}

	rerouted := false
	for _, key := range slices.Sorted(maps.Keys(byKey)) {
		providers := byKey[key]
		if len(providers) < 2 || w.decidedCapabilities[key] {
			continue
		}
		w.decidedCapabilities[key] = true

		c := conflict.CapabilityConflict{Capability: capOf[key]}
		for _, pr := range providers {
			c.Candidates = append(c.Candidates, pr.candidate)
		}
		d := w.chain.Resolve(w.rc, c)
		w.e.metrics.Conflict(string(ConflictCapability), d.Resolved)

		rec := ConflictRecord{
			Kind:       ConflictCapability,
			Subject:    key,
			Candidates: c.IDs(),
			Resolved:   d.Resolved,
			Reason:     d.Reason,
			Resolver:   d.Resolver,
		}
		if !d.Resolved {
			w.failures = append(w.failures, d.Failure(c))
			w.capabilityConflicts = append(w.capabilityConflicts, rec)
			continue
		}
		rec.Winner = d.Winner.Component
		w.capabilityConflicts = append(w.capabilityConflicts, rec)

		for _, pr := range providers {
			if pr.module == d.Winner.Component.ModuleID() {
				continue
			}
			w.reroutes[pr.module] = reroute{target: d.Winner.Component, capability: capOf[key], reason: d.Reason}
			delete(w.winners, pr.module)
			rerouted = true
		}
	}
	return rerouted
}

// result assembles the outcome of the final pass.
func (w *walk) result(p *passResult) *Result {
	res := &Result{
		SessionID: w.rc.SessionID,
		Root:      w.root.ID,
		Failures:  w.failures,
		Rounds:    w.rounds,
	}

	b := graph.NewBuilder(w.root.ID)
	selections := make(map[model.ComponentID]*Selection)
	for _, s := range p.selected {
		sel, ok := selections[s.target]
		if !ok {
			comp := w.components[s.target]
			sel = &Selection{Component: s.target, Kind: s.candidate.Kind(), Project: comp != nil && comp.Project}
			selections[s.target] = sel
			b.AddNode(s.target, s.candidate, sel.Project)
		}
		sel.Candidates = append(sel.Candidates, s.candidate.Name())
	}
	for _, id := range slices.SortedFunc(maps.Keys(selections), compareIDs) {
		res.Selections = append(res.Selections, *selections[id])
	}

	capabilityTargets := make(map[model.ModuleID]string)
	for i, ed := range p.edges {
		o := p.outcomes[i]
		res.Edges = append(res.Edges, EdgeResult{
			From:       ed.from,
			Dependency: ed.dep,
			Target:     o.target,
			Candidate:  o.candidate,
			Rerouted:   o.rerouted,
			Err:        o.err,
		})
		if o.requested != "" {
			b.RecordRequest(o.module, o.requested, ed.from)
		}
		if o.err == nil {
			b.AddEdge(ed.from, o.target)
		}
		if o.rerouted {
			if r, ok := w.reroutes[ed.dep.Module]; ok {
				capabilityTargets[o.module] = r.reason
			}
		}
	}

	for _, module := range slices.SortedFunc(maps.Keys(w.winners), compareModules) {
		win := w.winners[module]
		if len(win.candidates) < 2 {
			continue
		}
		w.e.metrics.Conflict(string(ConflictModule), win.err == nil)
		res.Conflicts = append(res.Conflicts, ConflictRecord{
			Kind:       ConflictModule,
			Subject:    module.String(),
			Candidates: win.candidates,
			Winner:     win.id,
			Resolved:   win.err == nil,
			Reason:     win.decision.Reason,
		})
		if win.err == nil {
			b.RecordDecision(module, graph.StrategyConflict, win.decision.Reason)
		}
	}
	for module, reason := range capabilityTargets {
		b.RecordDecision(module, graph.StrategyCapability, reason)
	}
	res.Conflicts = append(res.Conflicts, w.capabilityConflicts...)
	res.Graph = b.Build()
	return res
}

func ids(cs []*model.Component) []model.ComponentID {
	out := make([]model.ComponentID, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	slices.SortFunc(out, compareIDs)
	return out
}

func compareIDs(a, b model.ComponentID) int {
	return strings.Compare(a.String(), b.String())
}

func compareModules(a, b model.ModuleID) int {
	return strings.Compare(a.String(), b.String())
}
