package ast

import "github.com/zengine-project/zengine/diag"

// DeclKind tags the variant of a top-level Declaration.
type DeclKind int

const (
	DeclRoutine DeclKind = iota
	DeclObject
	DeclGlobal
	DeclConstant
	DeclProperty
	DeclVersion
	DeclInclude
	DeclInsertFile
	DeclRaw // any <HEAD ...> list whose head is not a known declaration keyword
)

// Routine is the body of a ROUTINE declaration: required parameters,
// "OPT" optional parameters, "AUX" locals with no caller-supplied
// value, and the statement list.
type Routine struct {
	Name        string
	Parameters  []string
	Optionals   []string
	Auxiliaries []string
	Body        []Expr
}

// ObjectProperty is one PROPERTY clause inside an OBJECT/ROOM declaration.
type ObjectProperty struct {
	Name   string
	Values []Expr
}

// Object is the body of an OBJECT declaration.
type Object struct {
	Name       string
	Properties []ObjectProperty
	Flags      []string
}

// Global is a GLOBAL declaration: a name and its initial value expression.
type Global struct {
	Name  string
	Value Expr
}

// Constant is a CONSTANT declaration: a name and its (compile-time) value.
type Constant struct {
	Name  string
	Value Expr
}

// PropertyDef is a PROPDEF declaration, defining the decoding pattern
// for a custom object property.
type PropertyDef struct {
	Name    string
	Pattern []Expr
}

// VersionDecl is a VERSION declaration selecting the target Z-Machine
// version keyword (e.g. "ZIP", "EZIP", "XZIP", or a raw number).
type VersionDecl struct {
	VersionType string
}

// Declaration is one top-level unit produced by the parser.
type Declaration struct {
	Kind     DeclKind
	Location diag.Location

	Routine     Routine
	Object      Object
	Global      Global
	Constant    Constant
	Property    PropertyDef
	Version     VersionDecl
	IncludePath string
	Raw         Expr
}
