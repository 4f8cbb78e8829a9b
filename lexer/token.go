// Package lexer tokenizes ZIL source text into the token stream the
// parser consumes.
package lexer

import "github.com/zengine-project/zengine/diag"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	LeftParen Kind = iota
	RightParen
	LeftBracket
	RightBracket
	LeftAngle
	RightAngle
	Atom
	Number
	String
	LocalVarRef
	GlobalVarRef
	PropertyRef
	FlagRef
	Quote
	SemicolonComment
	EOF
)

func (k Kind) String() string {
	switch k {
	case LeftParen:
		return "leftParen"
	case RightParen:
		return "rightParen"
	case LeftBracket:
		return "leftBracket"
	case RightBracket:
		return "rightBracket"
	case LeftAngle:
		return "leftAngle"
	case RightAngle:
		return "rightAngle"
	case Atom:
		return "atom"
	case Number:
		return "number"
	case String:
		return "string"
	case LocalVarRef:
		return "localVarRef"
	case GlobalVarRef:
		return "globalVarRef"
	case PropertyRef:
		return "propertyRef"
	case FlagRef:
		return "flagRef"
	case Quote:
		return "quote"
	case SemicolonComment:
		return "semicolonComment"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Token is one lexical unit: its kind, literal text, and source location.
type Token struct {
	Kind     Kind
	Lexeme   string
	Location diag.Location
}
