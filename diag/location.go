// Package diag holds the source-location and diagnostic types shared by
// every phase of the toolchain: lexer, parser, macro processor, symbol
// table, and assembler.
package diag

import "fmt"

// Location is a (file, line, column) triple attached to every token,
// expression, declaration, symbol, and diagnostic produced by the
// front end. Line and column are 1-based.
type Location struct {
	File   string
	Line   int
	Column int
}

// Unknown is the sentinel location for synthesized nodes that have no
// corresponding source text (e.g. macro-expanded FORM output).
var Unknown = Location{File: "<unknown>", Line: 0, Column: 0}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsUnknown reports whether l is the Unknown sentinel.
func (l Location) IsUnknown() bool {
	return l == Unknown
}
