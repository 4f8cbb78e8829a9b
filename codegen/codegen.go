// Package codegen renders a parsed, macro-expanded ZIL declaration list
// to ZAP assembly text, so it can be handed to package assembler exactly
// the way a hand-written .zap file would be. It only translates the
// small, unambiguous subset of ZIL forms listed below; anything else
// becomes a skipped statement plus a diagnostic, never a guess at wrong
// bytes.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zengine-project/zengine/ast"
	"github.com/zengine-project/zengine/diag"
)

// Result is the output of compiling a declaration list to ZAP text.
type Result struct {
	ZAP         string
	Diagnostics []diag.Diagnostic
}

// Compiler accumulates cross-declaration state (declared names, constant
// values) while rendering ZAP text one declaration at a time. Declarations
// must have already been through a macro.Processor's ExpandExpression
// pass; Compile does not expand macros itself.
type Compiler struct {
	routineNames map[string]bool
	globalNames  map[string]bool
	constants    map[string]int16
	diagnostics  []diag.Diagnostic
}

// New returns a Compiler whose routine, global and constant name
// tables are empty. Those names, needed to distinguish a routine call
// from an undefined symbol, are collected by a first pass over decls
// (Compile does this itself via Compile's two-pass walk, so callers
// normally just call Compile directly).
func New() *Compiler {
	return &Compiler{
		routineNames: map[string]bool{},
		globalNames:  map[string]bool{},
		constants:    map[string]int16{},
	}
}

func (c *Compiler) addDiagnostic(d diag.Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

// Compile renders decls to ZAP assembly text.
func Compile(decls []ast.Declaration) Result {
	c := New()

	// First pass: collect every name a later pass might need to refer to
	// before it has been declared textually (ZIL places no ordering
	// requirement on forward references between routines/objects).
	for _, d := range decls {
		switch d.Kind {
		case ast.DeclRoutine:
			c.routineNames[d.Routine.Name] = true
		case ast.DeclGlobal:
			c.globalNames[d.Global.Name] = true
		case ast.DeclConstant:
			if d.Constant.Value.Kind == ast.ExprNumber {
				c.constants[d.Constant.Name] = d.Constant.Value.Number
			} else {
				c.addDiagnostic(diag.NewWarning("unsupportedConstant", d.Location,
					"constant %q has a non-literal value; only literal numbers are supported here", d.Constant.Name))
			}
		}
	}

	var out strings.Builder
	startRoutine := ""
	for _, d := range decls {
		switch d.Kind {
		case ast.DeclVersion:
			out.WriteString(fmt.Sprintf(".ZVERSION %d\n", c.versionNumber(d.Version)))
		case ast.DeclGlobal:
			out.WriteString(fmt.Sprintf(".GLOBAL %s\n", d.Global.Name))
			if d.Global.Value.Kind == ast.ExprNumber && d.Global.Value.Number != 0 {
				c.addDiagnostic(diag.NewWarning("globalInitializerDropped", d.Location,
					"global %q has a non-zero initial value %d; globals always start at zero here", d.Global.Name, d.Global.Value.Number))
			}
		case ast.DeclObject:
			c.compileObject(&out, d.Object)
		case ast.DeclRoutine:
			c.compileRoutine(&out, d.Routine, d.Location)
			// GO is ZIL's conventional entry routine; fall back to the first
			// routine seen so something always runs even when a program
			// doesn't use that name.
			if startRoutine == "" || strings.EqualFold(d.Routine.Name, "GO") {
				startRoutine = d.Routine.Name
			}
		case ast.DeclConstant, ast.DeclProperty, ast.DeclInclude, ast.DeclInsertFile:
			// Constants are folded in at point of use; property-decoding
			// patterns and file inclusion have no ZAP-level representation.
		case ast.DeclRaw:
			c.compileRaw(d)
		}
	}
	if startRoutine != "" {
		out.WriteString(fmt.Sprintf(".START %s\n", startRoutine))
	}

	return Result{ZAP: out.String(), Diagnostics: c.diagnostics}
}

// versionNumber maps a VERSION declaration's keyword to a Z-Machine
// version number, following the ZILCH convention of naming versions
// after their memory model (ZIP = v3, EZIP = v4, XZIP = v5, YZIP = v6,
// TZIP = v7). A bare numeral is taken at face value.
func (c *Compiler) versionNumber(v ast.VersionDecl) int {
	switch strings.ToUpper(v.VersionType) {
	case "ZIP":
		return 3
	case "EZIP":
		return 4
	case "XZIP":
		return 5
	case "YZIP":
		return 6
	case "TZIP":
		return 7
	}
	if n, err := strconv.Atoi(v.VersionType); err == nil {
		return n
	}
	return 3
}

func (c *Compiler) compileObject(out *strings.Builder, obj ast.Object) {
	fmt.Fprintf(out, ".OBJECT %s\n", obj.Name)
	for _, prop := range obj.Properties {
		toks := make([]string, 0, len(prop.Values))
		for _, v := range prop.Values {
			tok, ok := c.renderPropertyValue(v)
			if !ok {
				continue
			}
			toks = append(toks, tok)
		}
		fmt.Fprintf(out, "\t%s %s\n", prop.Name, strings.Join(toks, ","))
	}
	out.WriteString(".ENDOBJECT\n")
}

// renderPropertyValue renders one PROPERTY clause value: a string is
// ZSCII-encoded by the assembler from its quoted form, everything else
// goes through the same operand rendering a routine body uses.
func (c *Compiler) renderPropertyValue(e ast.Expr) (string, bool) {
	if e.Kind == ast.ExprString {
		return strconv.Quote(e.Str), true
	}
	return c.renderOperand(e, nil)
}

// renderOperand renders one value-position expression to a ZAP operand
// token: a number, a folded constant, a global (",NAME"), a local (bare
// name, matched against the enclosing routine's locals by the
// assembler), or an object/routine/label name passed through verbatim.
// locals is nil outside a routine body (e.g. an object property value),
// where a bare atom can only mean a global, object or label. Nested
// forms and strings are not valid in a plain operand position and return
// ok=false.
func (c *Compiler) renderOperand(e ast.Expr, locals map[string]bool) (string, bool) {
	switch e.Kind {
	case ast.ExprNumber:
		return strconv.Itoa(int(e.Number)), true
	case ast.ExprAtom:
		if n, ok := c.constants[e.Name]; ok {
			return strconv.Itoa(int(n)), true
		}
		if !locals[e.Name] && c.globalNames[e.Name] {
			return "," + e.Name, true
		}
		return e.Name, true
	case ast.ExprGlobalVariable:
		return "," + e.Name, true
	case ast.ExprLocalVariable:
		return e.Name, true
	default:
		return "", false
	}
}

func (c *Compiler) compileRoutine(out *strings.Builder, r ast.Routine, loc diag.Location) {
	locals := append(append([]string{}, r.Parameters...), r.Optionals...)
	locals = append(locals, r.Auxiliaries...)
	if len(locals) == 0 {
		fmt.Fprintf(out, ".FUNCT %s\n", r.Name)
	} else {
		fmt.Fprintf(out, ".FUNCT %s,%s\n", r.Name, strings.Join(locals, ","))
	}

	localSet := make(map[string]bool, len(locals))
	for _, l := range locals {
		localSet[l] = true
	}

	for _, stmt := range r.Body {
		c.compileStatement(out, stmt, localSet)
	}
	out.WriteString(".END\n")
}

func (c *Compiler) compileStatement(out *strings.Builder, e ast.Expr, locals map[string]bool) {
	head, ok := e.HeadAtom()
	if !ok {
		c.addDiagnostic(diag.NewWarning("unsupportedStatement", e.Location, "expected a <FORM ...> statement, skipped"))
		fmt.Fprintf(out, "\t; unsupported statement\n")
		return
	}
	args := e.Elements[1:]

	switch head {
	case "RTRUE":
		out.WriteString("\tRTRUE\n")
	case "RFALSE":
		out.WriteString("\tRFALSE\n")
	case "RETURN":
		if len(args) == 0 {
			out.WriteString("\tRTRUE\n")
			return
		}
		tok, ok := c.renderOperand(args[0], locals)
		if !ok {
			c.unsupported(out, e, "RETURN with a non-value argument")
			return
		}
		fmt.Fprintf(out, "\tRET %s\n", tok)
	case "SETG":
		c.compileAssignment(out, e, args, true, locals)
	case "SET":
		c.compileAssignment(out, e, args, false, locals)
	case "INC", "DEC":
		if len(args) != 1 {
			c.unsupported(out, e, head+" needs exactly one argument")
			return
		}
		tok, ok := c.renderVariableName(args[0], locals)
		if !ok {
			c.unsupported(out, e, head+"'s argument must name a variable")
			return
		}
		fmt.Fprintf(out, "\t%s %s\n", head, tok)
	default:
		if c.routineNames[head] {
			c.compileCall(out, head, args, e, locals)
			return
		}
		c.unsupported(out, e, fmt.Sprintf("unsupported form <%s ...>", head))
	}
}

// renderVariableName renders an expression that must name a variable
// directly (SETG/SET's target, INC/DEC's argument): an explicit
// .local/,global reference resolves unambiguously, but a bare atom's
// spelling depends on whether it shadows a routine local or names a
// declared global, since the assembler distinguishes the two token
// forms (bare name vs ",name") rather than inferring it from context.
func (c *Compiler) renderVariableName(e ast.Expr, locals map[string]bool) (string, bool) {
	switch e.Kind {
	case ast.ExprAtom:
		if locals[e.Name] {
			return e.Name, true
		}
		if c.globalNames[e.Name] {
			return "," + e.Name, true
		}
		return e.Name, true
	case ast.ExprLocalVariable:
		return e.Name, true
	case ast.ExprGlobalVariable:
		return "," + e.Name, true
	default:
		return "", false
	}
}

func (c *Compiler) compileAssignment(out *strings.Builder, e ast.Expr, args []ast.Expr, global bool, locals map[string]bool) {
	if len(args) != 2 {
		c.unsupported(out, e, "SET/SETG needs exactly two arguments")
		return
	}
	name, ok := c.renderVariableName(args[0], locals)
	if !ok {
		c.unsupported(out, e, "SET/SETG's first argument must name a variable")
		return
	}
	if global && !strings.HasPrefix(name, ",") {
		name = "," + name
	}
	value, ok := c.renderOperand(args[1], locals)
	if !ok {
		c.unsupported(out, e, "SET/SETG's value must be a plain operand")
		return
	}
	fmt.Fprintf(out, "\tSTORE %s,%s\n", name, value)
}

func (c *Compiler) compileCall(out *strings.Builder, name string, args []ast.Expr, e ast.Expr, locals map[string]bool) {
	toks := make([]string, 0, len(args))
	for _, a := range args {
		tok, ok := c.renderOperand(a, locals)
		if !ok {
			c.unsupported(out, e, fmt.Sprintf("call to %q has an unsupported argument", name))
			return
		}
		toks = append(toks, tok)
	}
	if len(toks) == 0 {
		fmt.Fprintf(out, "\tCALL %s >STACK\n", name)
		return
	}
	fmt.Fprintf(out, "\tCALL %s,%s >STACK\n", name, strings.Join(toks, ","))
}

func (c *Compiler) unsupported(out *strings.Builder, e ast.Expr, reason string) {
	c.addDiagnostic(diag.NewWarning("unsupportedStatement", e.Location, reason))
	fmt.Fprintf(out, "\t; unsupported: %s\n", reason)
}

// compileRaw handles a top-level list whose head isn't a declaration
// keyword. DEFMAC is consumed by the caller's macro-registration pass
// before Compile ever sees it; anything else reaching here is an
// unrecognized top-level form.
func (c *Compiler) compileRaw(d ast.Declaration) {
	head, ok := d.Raw.HeadAtom()
	if ok && head == "DEFMAC" {
		return
	}
	c.addDiagnostic(diag.NewWarning("unsupportedDeclaration", d.Location,
		"top-level form %q is not a recognized declaration and was ignored", firstOr(head, "?")))
}

func firstOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
