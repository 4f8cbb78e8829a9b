package symtab

import (
	"testing"

	"github.com/zengine-project/zengine/diag"
)

func loc(line int) diag.Location {
	return diag.Location{File: "test.zil", Line: line, Column: 1}
}

func TestDefineAndLookup(t *testing.T) {
	tab := New()
	if !tab.DefineSymbol("SCORE", KindGlobal, loc(1)) {
		t.Fatalf("expected first definition to succeed")
	}
	sym, ok := tab.LookupSymbol("SCORE")
	if !ok || sym.Name != "SCORE" {
		t.Fatalf("expected to find SCORE, got %+v, %v", sym, ok)
	}
}

func TestRedefinitionFails(t *testing.T) {
	tab := New()
	tab.DefineSymbol("SCORE", KindGlobal, loc(1))
	if tab.DefineSymbol("SCORE", KindGlobal, loc(2)) {
		t.Fatalf("expected redefinition to fail")
	}
	diags := tab.GetDiagnostics()
	if len(diags) != 1 || diags[0].Code != "symbolRedefinition" {
		t.Fatalf("expected symbolRedefinition diagnostic, got %+v", diags)
	}
}

func TestShadowingInInnerScope(t *testing.T) {
	tab := New()
	tab.DefineSymbol("X", KindGlobal, loc(1))
	tab.PushScope()
	tab.DefineSymbol("X", KindLocal, loc(2))

	sym, ok := tab.LookupSymbol("X")
	if !ok || sym.Kind != KindLocal {
		t.Fatalf("expected innermost (local) X to shadow global, got %+v", sym)
	}

	tab.PopScope(loc(3))
	sym, ok = tab.LookupSymbol("X")
	if !ok || sym.Kind != KindGlobal {
		t.Fatalf("expected global X visible after popping scope, got %+v", sym)
	}
}

func TestCannotPopGlobalScope(t *testing.T) {
	tab := New()
	tab.PopScope(loc(1))
	if tab.GetCurrentScope() != 0 {
		t.Fatalf("expected current scope to remain 0, got %d", tab.GetCurrentScope())
	}
	diags := tab.GetDiagnostics()
	if len(diags) != 1 || diags[0].Code != "cannotPopGlobalScope" {
		t.Fatalf("expected cannotPopGlobalScope diagnostic, got %+v", diags)
	}
}

func TestForwardReferenceResolution(t *testing.T) {
	tab := New()
	tab.ReferenceSymbol("LATER", loc(1))
	if _, ok := tab.GetUndefinedReferences()["LATER"]; !ok {
		t.Fatalf("expected LATER to be pending as undefined")
	}

	tab.DefineSymbol("LATER", KindRoutine, loc(5))
	if _, ok := tab.GetUndefinedReferences()["LATER"]; ok {
		t.Fatalf("expected LATER to be resolved out of undefined references")
	}
	sym, _ := tab.LookupSymbol("LATER")
	if len(sym.References) != 1 || sym.References[0].Line != 1 {
		t.Fatalf("expected forward reference moved onto symbol, got %+v", sym.References)
	}
}

func TestPoppedScopeHistoryIsInvisibleButValidated(t *testing.T) {
	tab := New()
	tab.PushScope()
	tab.DefineSymbol("TEMP", KindLocal, loc(1))
	tab.PopScope(loc(2))

	if _, ok := tab.LookupSymbol("TEMP"); ok {
		t.Fatalf("expected popped-scope symbol invisible to lookup")
	}
	for _, sym := range tab.GetAllSymbols() {
		if sym.Name == "TEMP" {
			t.Fatalf("expected popped-scope symbol excluded from GetAllSymbols")
		}
	}

	diags := tab.Validate()
	found := false
	for _, d := range diags {
		if d.Code == "unusedSymbol" && d.SymbolName == "TEMP" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unusedSymbol for popped-scope TEMP, got %+v", diags)
	}
}

func TestValidateReportsUndefinedSymbol(t *testing.T) {
	tab := New()
	tab.ReferenceSymbol("GHOST", loc(9))
	diags := tab.Validate()
	found := false
	for _, d := range diags {
		if d.Code == "undefinedSymbol" && d.SymbolName == "GHOST" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected undefinedSymbol for GHOST, got %+v", diags)
	}
}

func TestValidateSkipsReferencedSymbols(t *testing.T) {
	tab := New()
	tab.DefineSymbol("USED", KindGlobal, loc(1))
	tab.ReferenceSymbol("USED", loc(2))
	diags := tab.Validate()
	for _, d := range diags {
		if d.SymbolName == "USED" {
			t.Fatalf("did not expect a diagnostic for referenced symbol USED, got %+v", d)
		}
	}
}
