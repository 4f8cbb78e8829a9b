// Package macro implements ZIL's FORM-based macro expansion: non-hygienic
// argument substitution over expression trees, FORM-template
// construction, cycle-safe recursive expansion and diagnostics.
package macro

import (
	"github.com/zengine-project/zengine/ast"
	"github.com/zengine-project/zengine/diag"
)

// Macro is one registered definition: a name, formal parameter list and
// unexpanded body expression.
type Macro struct {
	Name       string
	Parameters []string
	Body       ast.Expr
	Location   diag.Location
}

// TraceEntry records one successful expansion when tracing is enabled.
type TraceEntry struct {
	MacroName string
	Arguments []ast.Expr
	Location  diag.Location
}

// Processor holds the macro registry, diagnostics and optional
// expansion trace.
type Processor struct {
	macros      map[string]Macro
	diagnostics []diag.Diagnostic
	tracing     bool
	trace       []TraceEntry
	expanding   []string // stack of macro names currently being expanded
}

// New returns an empty Processor with no built-in macros.
func New() *Processor {
	return &Processor{macros: make(map[string]Macro)}
}

// DefineMacro registers name with the given parameters and body. It
// always succeeds; redefining an existing name overwrites it (ZIL has
// no macro-redefinition restriction distinct from plain reassignment).
func (p *Processor) DefineMacro(name string, parameters []string, body ast.Expr, at diag.Location) bool {
	p.macros[name] = Macro{Name: name, Parameters: parameters, Body: body, Location: at}
	return true
}

// GetMacro looks up a macro definition by name.
func (p *Processor) GetMacro(name string) (Macro, bool) {
	m, ok := p.macros[name]
	return m, ok
}

// GetAllMacros returns every registered macro, unordered.
func (p *Processor) GetAllMacros() []Macro {
	out := make([]Macro, 0, len(p.macros))
	for _, m := range p.macros {
		out = append(out, m)
	}
	return out
}

// GetDiagnostics returns every diagnostic emitted so far, in call order.
func (p *Processor) GetDiagnostics() []diag.Diagnostic {
	return p.diagnostics
}

// ClearDiagnostics empties the diagnostic list.
func (p *Processor) ClearDiagnostics() {
	p.diagnostics = nil
}

// SetDebugTracing enables or disables expansion tracing. Disabling
// clears any trace accumulated so far.
func (p *Processor) SetDebugTracing(on bool) {
	p.tracing = on
	if !on {
		p.trace = nil
	}
}

// GetExpansionTrace returns the trace accumulated while tracing was on.
func (p *Processor) GetExpansionTrace() []TraceEntry {
	return p.trace
}

func (p *Processor) addDiagnostic(d diag.Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)
}

// isExpanding reports whether name is currently on the expansion stack.
func (p *Processor) isExpanding(name string) bool {
	for _, n := range p.expanding {
		if n == name {
			return true
		}
	}
	return false
}

// ExpandMacro expands a call to the macro name with the given argument
// expressions. Returns the expanded expression, or ok=false with a
// diagnostic already recorded (undefinedMacro / argumentCountMismatch).
func (p *Processor) ExpandMacro(name string, arguments []ast.Expr, at diag.Location) (ast.Expr, bool) {
	m, found := p.macros[name]
	if !found {
		p.addDiagnostic(diag.New("undefinedMacro", at, "undefined macro %q", name))
		return ast.Expr{}, false
	}
	if len(arguments) != len(m.Parameters) {
		p.addDiagnostic(diag.New("argumentCountMismatch", at, "macro %q expected %d argument(s), got %d", name, len(m.Parameters), len(arguments)))
		return ast.Expr{}, false
	}

	if p.isExpanding(name) {
		// Cycle: return the unexpanded call form so downstream phases can
		// still observe it, with no diagnostic.
		call := append([]ast.Expr{ast.Atom(name, at)}, arguments...)
		return ast.List(call, ast.BracketAngle, at), true
	}

	bindings := make(map[string]ast.Expr, len(m.Parameters))
	for i, param := range m.Parameters {
		bindings[param] = arguments[i]
	}

	p.expanding = append(p.expanding, name)
	substituted := substitute(m.Body, bindings)
	result := applyFormIfTemplate(substituted)
	p.expanding = p.expanding[:len(p.expanding)-1]

	if p.tracing {
		p.trace = append(p.trace, TraceEntry{MacroName: name, Arguments: arguments, Location: at})
	}

	return result, true
}

// substitute walks expr, replacing any atom or local-variable reference
// whose name matches a bound parameter with the bound argument
// expression verbatim (no hygiene, no renaming).
func substitute(expr ast.Expr, bindings map[string]ast.Expr) ast.Expr {
	switch expr.Kind {
	case ast.ExprAtom, ast.ExprLocalVariable:
		if bound, ok := bindings[expr.Name]; ok {
			return bound
		}
		return expr
	case ast.ExprList:
		elems := make([]ast.Expr, len(expr.Elements))
		for i, e := range expr.Elements {
			elems[i] = substitute(e, bindings)
		}
		out := expr
		out.Elements = elems
		return out
	default:
		return expr
	}
}

// applyFormIfTemplate recognizes a substituted body of the shape
// list([atom("FORM"), head, arg1, ...]) and strips the FORM marker,
// producing a plain application list([head, arg1, ...]). Anything else
// (including a malformed FORM list with fewer than 2 elements) passes
// through unchanged.
func applyFormIfTemplate(expr ast.Expr) ast.Expr {
	if expr.Kind != ast.ExprList || len(expr.Elements) == 0 {
		return expr
	}
	head := expr.Elements[0]
	if head.Kind != ast.ExprAtom || head.Name != "FORM" {
		return expr
	}
	if len(expr.Elements) < 2 {
		// Malformed template: fewer than [FORM, head]; fall back to
		// returning the substituted list as-is.
		return expr
	}
	rest := expr.Elements[1:]
	out := expr
	out.Elements = rest
	return out
}

// ExpandExpression walks expr, expanding any list whose head names a
// registered macro, and recurses into the result (and into unexpanded
// list elements) so nested macro calls are also expanded.
func (p *Processor) ExpandExpression(expr ast.Expr) ast.Expr {
	if expr.Kind != ast.ExprList {
		return expr
	}

	if head, ok := expr.HeadAtom(); ok {
		if _, isMacro := p.macros[head]; isMacro {
			expanded, ok := p.ExpandMacro(head, expr.Elements[1:], expr.Location)
			if ok {
				if p.isExpanding(head) {
					// Cycle: ExpandMacro handed back the call unchanged.
					return expanded
				}
				p.expanding = append(p.expanding, head)
				defer func() { p.expanding = p.expanding[:len(p.expanding)-1] }()
				return p.ExpandExpression(expanded)
			}
			// Expansion failed (diagnostic already recorded); fall through
			// and expand children of the original call instead.
		}
	}

	elems := make([]ast.Expr, len(expr.Elements))
	for i, e := range expr.Elements {
		elems[i] = p.ExpandExpression(e)
	}
	out := expr
	out.Elements = elems
	return out
}
