package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/failure"
	"github.com/albertocavalcante/go-varsel/graph"
)

// resultJSON is the JSON form of a resolution.
type resultJSON struct {
	Session    string                `json:"session"`
	Root       string                `json:"root"`
	Rounds     int                   `json:"rounds"`
	Selections []selectionJSON       `json:"selections"`
	Conflicts  []conflictJSON        `json:"conflicts,omitempty"`
	Failures   []failureJSON         `json:"failures,omitempty"`
	Graph      []graph.JSONComponent `json:"graph"`
}

type selectionJSON struct {
	Component  string   `json:"component"`
	Kind       string   `json:"kind"`
	Candidates []string `json:"candidates"`
	Project    bool     `json:"project,omitempty"`
}

type conflictJSON struct {
	Kind       string   `json:"kind"`
	Subject    string   `json:"subject"`
	Candidates []string `json:"candidates"`
	Winner     string   `json:"winner,omitempty"`
	Resolved   bool     `json:"resolved"`
	Reason     string   `json:"reason,omitempty"`
	Resolver   string   `json:"resolver,omitempty"`
}

type failureJSON struct {
	From    string `json:"from,omitempty"`
	Target  string `json:"target,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func toJSON(res *varsel.Result) resultJSON {
	out := resultJSON{
		Session:    res.SessionID,
		Root:       res.Root.String(),
		Rounds:     res.Rounds,
		Selections: make([]selectionJSON, len(res.Selections)),
		Graph:      res.Graph.ToComponentList(),
	}
	for i, s := range res.Selections {
		out.Selections[i] = selectionJSON{
			Component:  s.Component.String(),
			Kind:       s.Kind.String(),
			Candidates: s.Candidates,
			Project:    s.Project,
		}
	}
	for _, c := range res.Conflicts {
		cj := conflictJSON{
			Kind:       string(c.Kind),
			Subject:    c.Subject,
			Candidates: make([]string, len(c.Candidates)),
			Resolved:   c.Resolved,
			Reason:     c.Reason,
			Resolver:   c.Resolver,
		}
		for i, id := range c.Candidates {
			cj.Candidates[i] = id.String()
		}
		if c.Resolved {
			cj.Winner = c.Winner.String()
		}
		out.Conflicts = append(out.Conflicts, cj)
	}
	for _, e := range res.FailedEdges() {
		fj := failureJSON{From: e.From.String(), Target: e.Dependency.Target().String(), Message: e.Err.Error()}
		if k, ok := failure.KindOf(e.Err); ok {
			fj.Kind = string(k)
		}
		out.Failures = append(out.Failures, fj)
	}
	for _, err := range res.Failures {
		fj := failureJSON{Message: err.Error()}
		if k, ok := failure.KindOf(err); ok {
			fj.Kind = string(k)
		}
		out.Failures = append(out.Failures, fj)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// write prints res in format.
func (a *app) write(format string, res *varsel.Result) error {
	switch format {
	case formatJSON:
		return writeJSON(a.stdout, toJSON(res))
	case formatDOT:
		_, err := fmt.Fprint(a.stdout, res.Graph.ToDOT())
		return err
	default:
		_, err := fmt.Fprintln(a.stdout, a.text(res))
		return err
	}
}

// text renders the selections as a table followed by the conflicts.
func (a *app) text(res *varsel.Result) string {
	color := a.color(a.stdout)
	header := lipgloss.NewStyle()
	if color {
		header = header.Bold(true)
	}

	rows := make([][]string, len(res.Selections))
	for i, s := range res.Selections {
		project := ""
		if s.Project {
			project = "yes"
		}
		rows[i] = []string{s.Component.String(), s.Kind.String(), strings.Join(s.Candidates, ", "), project}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Component", "Kind", "Selected", "Project").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	var b strings.Builder
	fmt.Fprintf(&b, "Root: %s (%d components, %d rounds)\n", res.Root, len(res.Selections), res.Rounds)
	b.WriteString(t.String())
	if len(res.Conflicts) > 0 {
		b.WriteString("\n\nConflicts:")
		for _, c := range res.Conflicts {
			outcome := "unresolved"
			if c.Resolved {
				outcome = "selected " + c.Winner.String()
			}
			fmt.Fprintf(&b, "\n  %s %s: %s", c.Kind, c.Subject, outcome)
			if c.Reason != "" {
				fmt.Fprintf(&b, " (%s)", c.Reason)
			}
		}
	}
	return b.String()
}

func writeDiff(w io.Writer, d *varsel.ResultDiff) {
	if d.IsEmpty() {
		fmt.Fprintln(w, "No changes.")
		return
	}
	for _, c := range d.Added {
		fmt.Fprintf(w, "+ %s:%s %s\n", c.Module, c.Version, strings.Join(c.Candidates, ", "))
	}
	for _, c := range d.Removed {
		fmt.Fprintf(w, "- %s:%s\n", c.Module, c.Version)
	}
	for _, c := range d.Upgraded {
		fmt.Fprintf(w, "↑ %s %s -> %s\n", c.Module, c.OldVersion, c.NewVersion)
	}
	for _, c := range d.Downgraded {
		fmt.Fprintf(w, "↓ %s %s -> %s\n", c.Module, c.OldVersion, c.NewVersion)
	}
	for _, c := range d.Reselected {
		fmt.Fprintf(w, "~ %s:%s [%s] -> [%s]\n", c.Module, c.Version,
			strings.Join(c.OldCandidates, ", "), strings.Join(c.NewCandidates, ", "))
	}
	fmt.Fprintf(w, "%d changes\n", d.TotalChanges())
}
