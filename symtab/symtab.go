// Package symtab implements the assembler's scoped symbol table: a
// stack of per-scope maps supporting forward-reference resolution,
// shadowing lookup, and post-hoc validation over both currently active
// scopes and popped-scope history.
package symtab

import "github.com/zengine-project/zengine/diag"

// SymbolKind classifies what a symbol names.
type SymbolKind int

const (
	KindRoutine SymbolKind = iota
	KindGlobal
	KindLocal
	KindObject
	KindConstant
	KindProperty
	KindLabel
)

// Symbol is one entry in the table: its name, kind, definition site, and
// every location that has referenced it.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	DefinedAt  diag.Location
	References []diag.Location
}

type scope struct {
	symbols map[string]*Symbol
}

func newScope() *scope {
	return &scope{symbols: make(map[string]*Symbol)}
}

// SymbolTable is a stack of scopes, scope 0 being the permanent global
// scope that can never be popped.
type SymbolTable struct {
	scopes              []*scope
	history             []*scope // popped scopes, preserved for validate()
	undefinedReferences map[string][]diag.Location
	diagnostics         []diag.Diagnostic
}

// New returns a SymbolTable with a single global scope (scope 0).
func New() *SymbolTable {
	return &SymbolTable{
		scopes:              []*scope{newScope()},
		undefinedReferences: make(map[string][]diag.Location),
	}
}

func (t *SymbolTable) addDiagnostic(d diag.Diagnostic) {
	t.diagnostics = append(t.diagnostics, d)
}

// DefineSymbol defines name in the current (innermost) scope. It fails
// iff a symbol of that name already exists in the current scope, in
// which case a symbolRedefinition diagnostic is recorded. On success,
// any pending undefined references to name are moved into the new
// symbol's reference list (forward-reference resolution).
func (t *SymbolTable) DefineSymbol(name string, kind SymbolKind, at diag.Location) bool {
	current := t.scopes[len(t.scopes)-1]
	if existing, ok := current.symbols[name]; ok {
		d := diag.New("symbolRedefinition", at, "redefinition of %q, originally defined at %s", name, existing.DefinedAt)
		d.SymbolName = name
		d.Related = &existing.DefinedAt
		t.addDiagnostic(d)
		return false
	}

	sym := &Symbol{Name: name, Kind: kind, DefinedAt: at}
	if pending, ok := t.undefinedReferences[name]; ok {
		sym.References = append(sym.References, pending...)
		delete(t.undefinedReferences, name)
	}
	current.symbols[name] = sym
	return true
}

// LookupSymbol searches scopes from innermost to outermost (scope 0)
// and returns the first (shadowing) match.
func (t *SymbolTable) LookupSymbol(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ReferenceSymbol behaves like LookupSymbol but also records at as a
// reference site: on the symbol if found, or in the undefined-references
// map (keyed by name) if not.
func (t *SymbolTable) ReferenceSymbol(name string, at diag.Location) (*Symbol, bool) {
	if sym, ok := t.LookupSymbol(name); ok {
		sym.References = append(sym.References, at)
		return sym, true
	}
	t.undefinedReferences[name] = append(t.undefinedReferences[name], at)
	return nil, false
}

// PushScope opens a new innermost scope.
func (t *SymbolTable) PushScope() {
	t.scopes = append(t.scopes, newScope())
}

// PopScope closes the innermost scope, moving it into history so
// validate() can still inspect it. Popping scope 0 is forbidden, emits
// cannotPopGlobalScope, and leaves the current scope at 0.
func (t *SymbolTable) PopScope(at diag.Location) {
	if len(t.scopes) <= 1 {
		t.addDiagnostic(diag.New("cannotPopGlobalScope", at, "cannot pop the global scope"))
		return
	}
	popped := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	t.history = append(t.history, popped)
}

// GetCurrentScope returns the index of the innermost active scope.
func (t *SymbolTable) GetCurrentScope() int {
	return len(t.scopes) - 1
}

// GetSymbolsInScope returns every symbol defined directly in the active
// scope at level (0 = global), unordered. Returns nil if level is out
// of range.
func (t *SymbolTable) GetSymbolsInScope(level int) []*Symbol {
	if level < 0 || level >= len(t.scopes) {
		return nil
	}
	out := make([]*Symbol, 0, len(t.scopes[level].symbols))
	for _, sym := range t.scopes[level].symbols {
		out = append(out, sym)
	}
	return out
}

// GetAllSymbols returns every symbol across currently active scopes
// only (popped-scope history is excluded).
func (t *SymbolTable) GetAllSymbols() []*Symbol {
	var out []*Symbol
	for _, s := range t.scopes {
		for _, sym := range s.symbols {
			out = append(out, sym)
		}
	}
	return out
}

// GetUndefinedReferences returns the current name -> reference-locations
// map of names that have been referenced but never defined.
func (t *SymbolTable) GetUndefinedReferences() map[string][]diag.Location {
	return t.undefinedReferences
}

// Validate emits unusedSymbol for any symbol (active or in history)
// with zero references, and undefinedSymbol for every remaining
// undefined reference. Returns the diagnostics produced by this call
// (also appended to the table's cumulative diagnostic list).
func (t *SymbolTable) Validate() []diag.Diagnostic {
	var produced []diag.Diagnostic

	checkScope := func(s *scope) {
		for _, sym := range s.symbols {
			if len(sym.References) == 0 {
				d := diag.NewWarning("unusedSymbol", sym.DefinedAt, "unused symbol %q", sym.Name)
				d.SymbolName = sym.Name
				produced = append(produced, d)
			}
		}
	}
	for _, s := range t.scopes {
		checkScope(s)
	}
	for _, s := range t.history {
		checkScope(s)
	}

	for name, locs := range t.undefinedReferences {
		for _, loc := range locs {
			d := diag.New("undefinedSymbol", loc, "undefined symbol %q", name)
			d.SymbolName = name
			produced = append(produced, d)
		}
	}

	t.diagnostics = append(t.diagnostics, produced...)
	return produced
}

// GetDiagnostics returns every diagnostic recorded so far (redefinitions,
// cannotPopGlobalScope, and anything from the most recent Validate call).
func (t *SymbolTable) GetDiagnostics() []diag.Diagnostic {
	return t.diagnostics
}
