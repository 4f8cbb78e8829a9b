// Package ast defines the tagged ZIL expression tree and the top-level
// declarations the parser produces from a token stream.
package ast

import "github.com/zengine-project/zengine/diag"

// ExprKind tags the variant of a ZILExpression.
type ExprKind int

const (
	ExprAtom ExprKind = iota
	ExprNumber
	ExprString
	ExprLocalVariable
	ExprGlobalVariable
	ExprPropertyReference
	ExprFlagReference
	ExprList
)

// BracketKind records which paired delimiter produced a ExprList, so
// the parser can enforce matching closers.
type BracketKind int

const (
	BracketAngle BracketKind = iota
	BracketParen
	BracketSquare
)

// Expr is a single node of the ZIL expression tree. Every node carries
// its own SourceLocation and a Kind discriminator; only the fields
// relevant to that Kind are populated.
type Expr struct {
	Kind     ExprKind
	Location diag.Location

	// ExprAtom, ExprLocalVariable, ExprGlobalVariable,
	// ExprPropertyReference, ExprFlagReference
	Name string

	// ExprNumber
	Number int16

	// ExprString
	Str string

	// ExprList
	Elements []Expr
	Bracket  BracketKind
}

// Atom constructs an atom(name) node.
func Atom(name string, loc diag.Location) Expr {
	return Expr{Kind: ExprAtom, Name: name, Location: loc}
}

// Number constructs a number(i16) node.
func Number(n int16, loc diag.Location) Expr {
	return Expr{Kind: ExprNumber, Number: n, Location: loc}
}

// String constructs a string(s) node.
func String(s string, loc diag.Location) Expr {
	return Expr{Kind: ExprString, Str: s, Location: loc}
}

// LocalVariable constructs a localVariable(name) node.
func LocalVariable(name string, loc diag.Location) Expr {
	return Expr{Kind: ExprLocalVariable, Name: name, Location: loc}
}

// GlobalVariable constructs a globalVariable(name) node.
func GlobalVariable(name string, loc diag.Location) Expr {
	return Expr{Kind: ExprGlobalVariable, Name: name, Location: loc}
}

// PropertyReference constructs a propertyReference(name) node.
func PropertyReference(name string, loc diag.Location) Expr {
	return Expr{Kind: ExprPropertyReference, Name: name, Location: loc}
}

// FlagReference constructs a flagReference(name) node.
func FlagReference(name string, loc diag.Location) Expr {
	return Expr{Kind: ExprFlagReference, Name: name, Location: loc}
}

// List constructs a list(elements) node.
func List(elements []Expr, bracket BracketKind, loc diag.Location) Expr {
	return Expr{Kind: ExprList, Elements: elements, Bracket: bracket, Location: loc}
}

// IsTruthy applies the ZIL truth rule to an expression evaluated as a
// condition at compile time: only a literal number(0) is false here;
// every other expression is true.
func (e Expr) IsTruthy() bool {
	if e.Kind == ExprNumber {
		return e.Number != 0
	}
	return true
}

// HeadAtom returns the name of the expression's head atom and true if e
// is a non-empty list whose first element is an atom.
func (e Expr) HeadAtom() (string, bool) {
	if e.Kind != ExprList || len(e.Elements) == 0 {
		return "", false
	}
	if e.Elements[0].Kind != ExprAtom {
		return "", false
	}
	return e.Elements[0].Name, true
}
