// Command zdiag runs the same parse/macro-expand/symtab/codegen/assemble
// pipeline as zengine, then opens a terminal browser over the
// diagnostics and symbols it produced instead of writing a story file -
// useful for working through a source tree's undefined/unused-symbol
// warnings without re-running the compiler after every fix.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zengine-project/zengine/assembler"
	"github.com/zengine-project/zengine/ast"
	"github.com/zengine-project/zengine/codegen"
	"github.com/zengine-project/zengine/diag"
	"github.com/zengine-project/zengine/macro"
	"github.com/zengine-project/zengine/symtab"
)

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	detailStyle  = lipgloss.NewStyle().Margin(0, 2).Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: zdiag input.zil [more.zil ...]")
		os.Exit(2)
	}

	diags, symbols, err := compile(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "zdiag: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(diags, symbols), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "zdiag: %v\n", err)
		os.Exit(1)
	}
}

// compile runs every front-end phase over paths and returns everything
// each phase recorded, continuing past a failed assembly so partial
// diagnostics are still browsable.
func compile(paths []string) ([]diag.Diagnostic, []*symtab.Symbol, error) {
	var decls []ast.Declaration
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		parsed, err := ast.NewParser(string(src), path).ParseProgram()
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, parsed...)
	}

	var diags []diag.Diagnostic

	macroProc := macro.New()
	registerMacros(macroProc, decls)
	decls = expandMacros(macroProc, decls)
	diags = append(diags, macroProc.GetDiagnostics()...)

	table := symtab.New()
	registerSymbols(table, decls)
	diags = append(diags, table.GetDiagnostics()...)
	diags = append(diags, table.Validate()...)

	result := codegen.Compile(decls)
	diags = append(diags, result.Diagnostics...)

	if asm, err := assembler.AssembleZAP(result.ZAP, "generated.zap"); err != nil {
		diags = append(diags, diag.New("assembleFailed", diag.Unknown, "%v", err))
	} else {
		for _, w := range asm.Warnings {
			diags = append(diags, diag.NewWarning("assembleWarning", diag.Unknown, "%s", w))
		}
	}

	return diags, table.GetAllSymbols(), nil
}

// --- the following three helpers mirror zengine's own macro/symtab
// wiring exactly, since zdiag needs the same declarations walked the
// same way to produce comparable diagnostics. ---

func registerMacros(p *macro.Processor, decls []ast.Declaration) {
	for _, d := range decls {
		if d.Kind != ast.DeclRaw {
			continue
		}
		head, isList := d.Raw.HeadAtom()
		if !isList || head != "DEFMAC" || len(d.Raw.Elements) < 4 {
			continue
		}
		nameExpr := d.Raw.Elements[1]
		if nameExpr.Kind != ast.ExprAtom {
			continue
		}
		paramList := d.Raw.Elements[2]
		if paramList.Kind != ast.ExprList {
			continue
		}
		var params []string
		for _, pe := range paramList.Elements {
			if pe.Kind == ast.ExprAtom {
				params = append(params, pe.Name)
			}
		}
		p.DefineMacro(nameExpr.Name, params, d.Raw.Elements[3], d.Location)
	}
}

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

var primitiveForms = map[string]bool{
	"RTRUE": true, "RFALSE": true, "RETURN": true,
	"SETG": true, "SET": true, "INC": true, "DEC": true,
}

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

// diagItem and symbolItem adapt the two record types to bubbles/list's
// Item interface (Title/Description/FilterValue), the same shape
// package selectstoryui used for its story entries.

type diagItem struct{ d diag.Diagnostic }

func (i diagItem) Title() string {
	switch i.d.Severity {
	case diag.Fatal, diag.Error:
		return errorStyle.Render(fmt.Sprintf("%s: %s", i.d.Severity, i.d.Code))
	default:
		return warningStyle.Render(fmt.Sprintf("%s: %s", i.d.Severity, i.d.Code))
	}
}
func (i diagItem) Description() string { return i.d.Message }
func (i diagItem) FilterValue() string { return i.d.Code + " " + i.d.Message }

type symbolItem struct{ s *symtab.Symbol }

func (i symbolItem) Title() string { return i.s.Name }
func (i symbolItem) Description() string {
	return fmt.Sprintf("%s, defined at %s, %d reference(s)", kindName(i.s.Kind), i.s.DefinedAt, len(i.s.References))
}
func (i symbolItem) FilterValue() string { return i.s.Name }

func kindName(k symtab.SymbolKind) string {
	switch k {
	case symtab.KindRoutine:
		return "routine"
	case symtab.KindGlobal:
		return "global"
	case symtab.KindLocal:
		return "local"
	case symtab.KindObject:
		return "object"
	case symtab.KindConstant:
		return "constant"
	case symtab.KindProperty:
		return "property"
	case symtab.KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// pane selects which list is on screen; tab cycles between them.
type pane int

const (
	diagnosticsPane pane = iota
	symbolsPane
)

type model struct {
	diagnostics list.Model
	symbols     list.Model
	active      pane
	width       int
}

var keyTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list"))

func newModel(diags []diag.Diagnostic, symbols []*symtab.Symbol) model {
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Severity > diags[j].Severity })
	diagItems := make([]list.Item, len(diags))
	for i, d := range diags {
		diagItems[i] = diagItem{d}
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })
	symItems := make([]list.Item, len(symbols))
	for i, s := range symbols {
		symItems[i] = symbolItem{s}
	}

	dl := list.New(diagItems, list.NewDefaultDelegate(), 0, 0)
	dl.Title = fmt.Sprintf("Diagnostics (%d)", len(diagItems))

	sl := list.New(symItems, list.NewDefaultDelegate(), 0, 0)
	sl.Title = fmt.Sprintf("Symbols (%d)", len(symItems))

	return model{diagnostics: dl, symbols: sl, active: diagnosticsPane}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.width = msg.Width - h
		m.diagnostics.SetSize(m.width, msg.Height-v-4)
		m.symbols.SetSize(m.width, msg.Height-v-4)
		return m, nil
	case tea.KeyMsg:
		switch {
		case msg.String() == "q" || msg.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(msg, keyTab):
			if m.active == diagnosticsPane {
				m.active = symbolsPane
			} else {
				m.active = diagnosticsPane
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.active == diagnosticsPane {
		m.diagnostics, cmd = m.diagnostics.Update(msg)
	} else {
		m.symbols, cmd = m.symbols.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var body string
	if m.active == diagnosticsPane {
		body = m.diagnostics.View()
	} else {
		body = m.symbols.View()
	}
	help := detailStyle.Render(wordwrap.String("tab: switch between diagnostics and symbols - q: quit", max(m.width, 20)))
	return docStyle.Render(body) + "\n" + help
}
