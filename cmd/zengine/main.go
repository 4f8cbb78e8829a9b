// Command zengine compiles ZIL source files into a story file: parse,
// expand FORM macros, walk the symbol table for diagnostics, render ZAP
// assembly text, then assemble it - the same phase split a ZIL source
// tree goes through on its way to a runnable game.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zengine-project/zengine/assembler"
	"github.com/zengine-project/zengine/ast"
	"github.com/zengine-project/zengine/codegen"
	"github.com/zengine-project/zengine/diag"
	"github.com/zengine-project/zengine/macro"
	"github.com/zengine-project/zengine/symtab"
)

func main() {
	outputPath := flag.String("o", "", "output story file path (default: first input with a .z# suffix)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: zengine [-o output] input.zil [more.zil ...]")
		os.Exit(2)
	}

	var decls []ast.Declaration
	for _, path := range flag.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zengine: %v\n", err)
			os.Exit(1)
		}
		parsed, err := ast.NewParser(string(src), path).ParseProgram()
		if err != nil {
			fmt.Fprintf(os.Stderr, "zengine: %v\n", err)
			os.Exit(1)
		}
		decls = append(decls, parsed...)
	}

	macroProc := macro.New()
	registerMacros(macroProc, decls)
	decls = expandMacros(macroProc, decls)
	reportDiagnostics("zengine", macroProc.GetDiagnostics())

	table := symtab.New()
	registerSymbols(table, decls)
	reportDiagnostics("zengine", table.GetDiagnostics())
	reportDiagnostics("zengine", table.Validate())

	result := codegen.Compile(decls)
	reportDiagnostics("zengine", result.Diagnostics)

	asm, err := assembler.AssembleZAP(result.ZAP, "generated.zap")
	if err != nil {
		fmt.Fprintf(os.Stderr, "zengine: %v\n", err)
		os.Exit(1)
	}
	for _, w := range asm.Warnings {
		fmt.Fprintf(os.Stderr, "zengine: warning: %s\n", w)
	}

	dest := *outputPath
	if dest == "" {
		base := strings.TrimSuffix(filepath.Base(flag.Arg(0)), filepath.Ext(flag.Arg(0)))
		version := uint8(3)
		if len(asm.StoryData) > 0 {
			version = asm.StoryData[0]
		}
		dest = fmt.Sprintf("%s.z%d", base, version)
	}
	if err := os.WriteFile(dest, asm.StoryData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "zengine: writing %s: %v\n", dest, err)
		os.Exit(1)
	}
	fmt.Printf("zengine: wrote %s (%d bytes, v%d)\n", dest, len(asm.StoryData), asm.StoryData[0])
}

func reportDiagnostics(prog string, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", prog, d.Description())
	}
}

// registerMacros defines every DEFMAC form found among decls before any
// expansion runs, so macros can be called before their own definition
// appears in the source (as ZIL's single-pass FORM expansion permits).
func registerMacros(p *macro.Processor, decls []ast.Declaration) {
	for _, d := range decls {
		if d.Kind != ast.DeclRaw {
			continue
		}
		name, params, body, ok := parseDefmac(d.Raw)
		if !ok {
			continue
		}
		p.DefineMacro(name, params, body, d.Location)
	}
}

// parseDefmac recognizes <DEFMAC name (param...) body...>, using only
// the first body form (DEFMAC's usual single FORM-template body); extra
// body forms are dropped silently, mirroring how ExpandMacro only ever
// substitutes into one Body expression.
func parseDefmac(raw ast.Expr) (name string, params []string, body ast.Expr, ok bool) {
	head, isList := raw.HeadAtom()
	if !isList || head != "DEFMAC" || len(raw.Elements) < 4 {
		return "", nil, ast.Expr{}, false
	}
	nameExpr := raw.Elements[1]
	if nameExpr.Kind != ast.ExprAtom {
		return "", nil, ast.Expr{}, false
	}
	paramList := raw.Elements[2]
	if paramList.Kind != ast.ExprList {
		return "", nil, ast.Expr{}, false
	}
	for _, p := range paramList.Elements {
		if p.Kind == ast.ExprAtom {
			params = append(params, p.Name)
		}
	}
	return nameExpr.Name, params, raw.Elements[3], true
}

// expandMacros runs ExpandExpression over every place a FORM call can
// legally appear: routine bodies, object property values, and global and
// constant initializers.
func expandMacros(p *macro.Processor, decls []ast.Declaration) []ast.Declaration {
	out := make([]ast.Declaration, len(decls))
	for i, d := range decls {
		switch d.Kind {
		case ast.DeclRoutine:
			r := d.Routine
			body := make([]ast.Expr, len(r.Body))
			for j, e := range r.Body {
				body[j] = p.ExpandExpression(e)
			}
			r.Body = body
			d.Routine = r
		case ast.DeclObject:
			o := d.Object
			props := make([]ast.ObjectProperty, len(o.Properties))
			for j, pr := range o.Properties {
				vals := make([]ast.Expr, len(pr.Values))
				for k, v := range pr.Values {
					vals[k] = p.ExpandExpression(v)
				}
				pr.Values = vals
				props[j] = pr
			}
			o.Properties = props
			d.Object = o
		case ast.DeclGlobal:
			g := d.Global
			g.Value = p.ExpandExpression(g.Value)
			d.Global = g
		case ast.DeclConstant:
			cst := d.Constant
			cst.Value = p.ExpandExpression(cst.Value)
			d.Constant = cst
		}
		out[i] = d
	}
	return out
}

// registerSymbols walks decls defining every top-level name in the
// global scope, then pushes a per-routine scope for its locals and
// records a best-effort reference for every atom/variable a routine body
// mentions, so symtab.Validate can report genuinely unused or undefined
// names.
func registerSymbols(table *symtab.SymbolTable, decls []ast.Declaration) {
	for _, d := range decls {
		switch d.Kind {
		case ast.DeclGlobal:
			table.DefineSymbol(d.Global.Name, symtab.KindGlobal, d.Location)
		case ast.DeclObject:
			table.DefineSymbol(d.Object.Name, symtab.KindObject, d.Location)
		case ast.DeclConstant:
			table.DefineSymbol(d.Constant.Name, symtab.KindConstant, d.Location)
		case ast.DeclRoutine:
			table.DefineSymbol(d.Routine.Name, symtab.KindRoutine, d.Location)
		}
	}

	for _, d := range decls {
		if d.Kind != ast.DeclRoutine {
			continue
		}
		table.PushScope()
		locals := append(append([]string{}, d.Routine.Parameters...), d.Routine.Optionals...)
		locals = append(locals, d.Routine.Auxiliaries...)
		for _, l := range locals {
			table.DefineSymbol(l, symtab.KindLocal, d.Location)
		}
		for _, stmt := range d.Routine.Body {
			referenceNames(table, stmt)
		}
		table.PopScope(d.Location)
	}
}

// primitiveForms names ZIL forms codegen translates directly; their head
// atom is a keyword, not a symbol reference, so referenceNames must not
// treat it as one.
var primitiveForms = map[string]bool{
	"RTRUE": true, "RFALSE": true, "RETURN": true,
	"SETG": true, "SET": true, "INC": true, "DEC": true,
}

// referenceNames walks expr recording a reference for every name-bearing
// node it finds, so a routine calling another routine or touching a
// global/local shows up as a use when Validate runs. A list's head atom
// is only treated as a reference (a routine-call target) when it isn't
// one of the primitive form keywords codegen handles directly.
func referenceNames(table *symtab.SymbolTable, expr ast.Expr) {
	switch expr.Kind {
	case ast.ExprAtom, ast.ExprGlobalVariable, ast.ExprLocalVariable, ast.ExprPropertyReference, ast.ExprFlagReference:
		table.ReferenceSymbol(expr.Name, expr.Location)
	case ast.ExprList:
		for i, e := range expr.Elements {
			if i == 0 {
				if head, ok := expr.HeadAtom(); ok && primitiveForms[head] {
					continue
				}
			}
			referenceNames(table, e)
		}
	}
}
