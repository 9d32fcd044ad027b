// Package buildutil extracts call arguments from buildtools AST nodes.
//
// Descriptor files are Starlark: every declaration is a function call such
// as variant(name = "runtime", attributes = {"usage": "runtime"}). The
// helpers here read keyword and positional arguments from those calls.
package buildutil

import (
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// Arg returns the expression bound to keyword argument name.
func Arg(call *build.CallExpr, name string) (build.Expr, bool) {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if id, ok := assign.LHS.(*build.Ident); ok && id.Name == name {
			return assign.RHS, true
		}
	}
	return nil, false
}

// Has reports whether the call passes keyword argument name.
func Has(call *build.CallExpr, name string) bool {
	_, ok := Arg(call, name)
	return ok
}

// argAs returns keyword argument name when it is an expression of type T.
func argAs[T build.Expr](call *build.CallExpr, name string) (T, bool) {
	var zero T
	rhs, ok := Arg(call, name)
	if !ok {
		return zero, false
	}
	v, ok := rhs.(T)
	return v, ok
}

// String returns the string literal passed as name. An empty name selects
// the first positional argument. Anything that is not a string literal
// reads as "".
func String(call *build.CallExpr, name string) string {
	if name == "" {
		if len(call.List) == 0 {
			return ""
		}
		lit, _ := call.List[0].(*build.StringExpr)
		return literal(lit)
	}
	lit, _ := argAs[*build.StringExpr](call, name)
	return literal(lit)
}

func literal(s *build.StringExpr) string {
	if s == nil {
		return ""
	}
	return s.Value
}

// Bool reports whether name is passed as True.
func Bool(call *build.CallExpr, name string) bool {
	id, ok := argAs[*build.Ident](call, name)
	return ok && id.Name == "True"
}

// StringList returns the string elements of list argument name, skipping
// anything else. It is nil when the argument is absent or not a list.
func StringList(call *build.CallExpr, name string) []string {
	list, ok := argAs[*build.ListExpr](call, name)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list.List))
	for _, e := range list.List {
		if lit, ok := e.(*build.StringExpr); ok {
			out = append(out, lit.Value)
		}
	}
	return out
}

// StringDict extracts a dict attribute whose keys are strings. Values are
// rendered as strings: string literals by value, numbers by token, and
// True/False by name. Other entries are skipped.
func StringDict(call *build.CallExpr, name string) map[string]string {
	dict, ok := argAs[*build.DictExpr](call, name)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(dict.List))
	for _, kv := range dict.List {
		key, ok := kv.Key.(*build.StringExpr)
		if !ok {
			continue
		}
		if v, ok := scalar(kv.Value); ok {
			out[key.Value] = v
		}
	}
	return out
}

func scalar(e build.Expr) (string, bool) {
	switch v := e.(type) {
	case *build.StringExpr:
		return v.Value, true
	case *build.LiteralExpr:
		return v.Token, true
	case *build.Ident:
		return v.Name, v.Name == "True" || v.Name == "False"
	}
	return "", false
}

// DictList extracts a list of dicts, such as artifacts = [{"name": "lib"}].
func DictList(call *build.CallExpr, name string) []map[string]any {
	list, ok := argAs[*build.ListExpr](call, name)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, e := range list.List {
		if m, ok := ExtractValue(e).(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// ExtractValue converts a literal expression to plain Go values: string,
// int, bool, nil for None, []any and map[string]any. Identifiers other than
// the three constants come back as their name; any other expression is
// returned unchanged.
func ExtractValue(expr build.Expr) any {
	switch e := expr.(type) {
	case *build.StringExpr:
		return e.Value
	case *build.LiteralExpr:
		if n, err := strconv.Atoi(e.Token); err == nil {
			return n
		}
		return e.Token
	case *build.Ident:
		if c, ok := constants[e.Name]; ok {
			return c
		}
		return e.Name
	case *build.ListExpr:
		items := make([]any, len(e.List))
		for i, item := range e.List {
			items[i] = ExtractValue(item)
		}
		return items
	case *build.DictExpr:
		m := make(map[string]any, len(e.List))
		for _, kv := range e.List {
			if k, ok := kv.Key.(*build.StringExpr); ok {
				m[k.Value] = ExtractValue(kv.Value)
			}
		}
		return m
	}
	return expr
}

var constants = map[string]any{"True": true, "False": false, "None": nil}

// FuncName returns the name of a plain call such as variant(...). Method
// calls like foo.bar() have no name.
func FuncName(call *build.CallExpr) string {
	if id, ok := call.X.(*build.Ident); ok {
		return id.Name
	}
	return ""
}

// Line returns the line on which expr starts.
func Line(expr build.Expr) int {
	start, _ := expr.Span()
	return start.Line
}
