package graph

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-varsel/model"
)

const separatorWidth = 60

// JSONGraph is the JSON form of a Graph.
type JSONGraph struct {
	Root       string          `json:"root"`
	Components []JSONComponent `json:"components"`
	Cycles     [][]string      `json:"cycles,omitempty"`
}

// JSONComponent is one node of JSONGraph.
type JSONComponent struct {
	ID           string         `json:"id"`
	Candidate    string         `json:"candidate,omitempty"`
	Kind         string         `json:"kind,omitempty"`
	Project      bool           `json:"project,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	RequiredBy   []string       `json:"required_by,omitempty"`
	Selection    *JSONSelection `json:"selection,omitempty"`
}

// JSONSelection is the JSON form of Decision.
type JSONSelection struct {
	Strategy  Strategy `json:"strategy"`
	Reason    string   `json:"reason,omitempty"`
	Requested []string `json:"requested,omitempty"`
}

// ToJSON outputs the graph as indented JSON with components sorted by id.
func (g *Graph) ToJSON() ([]byte, error) {
	out := JSONGraph{Root: g.Root.String(), Components: g.ToComponentList()}
	for _, cycle := range g.Cycles() {
		out.Cycles = append(out.Cycles, strs(cycle))
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToComponentList returns every selected component, excluding the root,
// sorted by id.
func (g *Graph) ToComponentList() []JSONComponent {
	components := make([]JSONComponent, 0, len(g.Nodes))
	for _, key := range g.Keys() {
		node := g.Nodes[key]
		if node.IsRoot {
			continue
		}
		c := JSONComponent{
			ID:           key.String(),
			Candidate:    node.Candidate,
			Kind:         node.Kind,
			Project:      node.Project,
			Dependencies: strs(node.Dependencies),
			RequiredBy:   strs(node.Dependents),
		}
		if s := node.Selection; s != nil {
			js := &JSONSelection{Strategy: s.Strategy, Reason: s.Reason}
			for _, vc := range s.Candidates {
				js.Requested = append(js.Requested, vc.Version)
			}
			c.Selection = js
		}
		components = append(components, c)
	}
	return components
}

func strs(keys []Key) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// ToDOT renders the graph for Graphviz. The root is bold and project
// components are dashed.
func (g *Graph) ToDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph dependencies {\n  rankdir=LR;\n  node [shape=box];\n\n")

	keys := g.Keys()
	for _, key := range keys {
		node := g.Nodes[key]
		lines := []string{key.ModuleID().String(), key.Version}
		if node.Candidate != "" {
			lines = append(lines, "("+node.Candidate+")")
		}
		attrs := []string{`label="` + strings.Join(lines, `\n`) + `"`}
		switch {
		case node.IsRoot:
			attrs = append(attrs, "style=bold")
		case node.Project:
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&sb, "  %q [%s];\n", key.String(), strings.Join(attrs, ", "))
	}
	sb.WriteByte('\n')
	for _, key := range keys {
		for _, dep := range g.Nodes[key].Dependencies {
			fmt.Fprintf(&sb, "  %q -> %q;\n", key.String(), dep.String())
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// ToText renders summary counts followed by the dependency tree.
func (g *Graph) ToText() string {
	var sb strings.Builder
	heading(&sb, "Dependency Graph (root: "+g.Root.String()+")")

	st := g.Stats()
	fmt.Fprintf(&sb, "Total components: %d\nDirect dependencies: %d\nTransitive dependencies: %d\nMax depth: %d\n",
		st.TotalComponents, st.DirectDependencies, st.TransitiveDependencies, st.MaxDepth)
	if st.ProjectComponents > 0 {
		fmt.Fprintf(&sb, "Project components: %d\n", st.ProjectComponents)
	}

	sb.WriteString("\nDependency Tree:\n")
	sb.WriteString(g.Root.String())
	g.writeTree(&sb, g.Root, "", map[Key]bool{})
	return sb.String()
}

func heading(sb *strings.Builder, title string) {
	sb.WriteString(title + "\n" + strings.Repeat("=", separatorWidth) + "\n\n")
}

// writeTree finishes the line of key and writes its children below it.
// indent is the gutter drawn in front of the children.
func (g *Graph) writeTree(sb *strings.Builder, key Key, indent string, open map[Key]bool) {
	node := g.Nodes[key]
	if node != nil && node.Candidate != "" {
		sb.WriteString(" [" + node.Candidate + "]")
	}
	if node != nil && node.Project {
		sb.WriteString(" (project)")
	}
	if open[key] {
		sb.WriteString(" (circular)\n")
		return
	}
	sb.WriteByte('\n')
	if node == nil {
		return
	}

	open[key] = true
	for i, dep := range node.Dependencies {
		branch, gutter := "├── ", "│   "
		if i == len(node.Dependencies)-1 {
			branch, gutter = "└── ", "    "
		}
		sb.WriteString(indent + branch + dep.String())
		g.writeTree(sb, dep, indent+gutter, open)
	}
	delete(open, key)
}

// ToExplainText renders Explain for module as text.
func (g *Graph) ToExplainText(module model.ModuleID) (string, error) {
	exp, err := g.Explain(module)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	heading(&sb, "Explanation for: "+exp.Component.String())
	if exp.Candidate != "" {
		fmt.Fprintf(&sb, "Selected candidate: %s\n\n", exp.Candidate)
	}

	if d := exp.Selection; d != nil {
		fmt.Fprintf(&sb, "Version:\n  Selected: %s\n  Strategy: %s\n  Reason: %s\n", d.Version, d.Strategy, d.Reason)
		if len(d.Candidates) > 0 {
			sb.WriteString("\n  Requests:\n")
		}
		for _, req := range d.Candidates {
			mark := "  "
			if req.Selected {
				mark = "✓ "
			}
			fmt.Fprintf(&sb, "    %s%s - requested by: %s\n",
				mark, cmp.Or(req.Version, "(latest)"), strings.Join(strs(req.RequestedBy), ", "))
			if !req.Selected && req.LostBecause != "" {
				fmt.Fprintf(&sb, "      Lost because: %s\n", req.LostBecause)
			}
		}
	}

	if len(exp.Chains) > 0 {
		sb.WriteString("\nPaths from the root:\n")
		for i, chain := range exp.Chains {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, chain)
		}
	}
	return sb.String(), nil
}
