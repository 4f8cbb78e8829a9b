package ast

import (
	"github.com/zengine-project/zengine/diag"
	"github.com/zengine-project/zengine/lexer"
)

// declarationKeywords maps a top-level list's head atom to the
// dedicated sub-parser that handles it. Anything else becomes a raw
// expression declaration.
var declarationKeywords = map[string]bool{
	"ROUTINE":     true,
	"OBJECT":      true,
	"ROOM":        true,
	"GLOBAL":      true,
	"CONSTANT":    true,
	"VERSION":     true,
	"INSERT-FILE": true,
	"INCLUDE":     true,
	"PROPDEF":     true,
}

// Parser is a recursive-descent parser over a ZIL token stream.
type Parser struct {
	lex     *lexer.Lexer
	current lexer.Token
}

// NewParser creates a Parser reading from src, attributing locations to file.
func NewParser(src, file string) *Parser {
	p := &Parser{lex: lexer.New(src, file)}
	p.advance()
	return p
}

func (p *Parser) advance() lexer.Token {
	tok := p.current
	p.current = p.lex.Next()
	return tok
}

func (p *Parser) at(kind lexer.Kind) bool {
	return p.current.Kind == kind
}

func (p *Parser) loc() diag.Location {
	return p.current.Location
}

func closerFor(opener lexer.Kind) lexer.Kind {
	switch opener {
	case lexer.LeftAngle:
		return lexer.RightAngle
	case lexer.LeftParen:
		return lexer.RightParen
	case lexer.LeftBracket:
		return lexer.RightBracket
	}
	return lexer.EOF
}

func bracketKindFor(opener lexer.Kind) BracketKind {
	switch opener {
	case lexer.LeftParen:
		return BracketParen
	case lexer.LeftBracket:
		return BracketSquare
	default:
		return BracketAngle
	}
}

func isOpener(kind lexer.Kind) bool {
	return kind == lexer.LeftAngle || kind == lexer.LeftParen || kind == lexer.LeftBracket
}

// ParseProgram consumes the entire token stream and returns every
// top-level Declaration, stopping at the first unrecoverable syntax
// error.
func (p *Parser) ParseProgram() ([]Declaration, error) {
	var decls []Declaration
	for !p.at(lexer.EOF) {
		decl, err := p.parseTopLevel()
		if err != nil {
			return decls, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (p *Parser) parseTopLevel() (Declaration, error) {
	if !isOpener(p.current.Kind) {
		return Declaration{}, newError(ErrUnexpectedToken, p.loc(), "expected '<', '(' or '[' at top level, found %q", p.current.Lexeme)
	}

	list, err := p.parseExpression()
	if err != nil {
		return Declaration{}, err
	}

	head, ok := list.HeadAtom()
	if !ok || !declarationKeywords[head] {
		return Declaration{Kind: DeclRaw, Location: list.Location, Raw: list}, nil
	}

	return declarationFromList(head, list)
}

// parseExpression consumes a single token or a single bracketed
// expression, as spec.md 4.3 requires.
func (p *Parser) parseExpression() (Expr, error) {
	tok := p.current

	switch tok.Kind {
	case lexer.Atom:
		p.advance()
		return Atom(tok.Lexeme, tok.Location), nil
	case lexer.Number:
		p.advance()
		n, err := lexer.ParseNumberLiteral(tok.Lexeme)
		if err != nil {
			return Expr{}, newError(ErrInvalidSyntax, tok.Location, "%s", err)
		}
		return Number(n, tok.Location), nil
	case lexer.String:
		p.advance()
		return String(tok.Lexeme, tok.Location), nil
	case lexer.LocalVarRef:
		p.advance()
		return LocalVariable(tok.Lexeme, tok.Location), nil
	case lexer.GlobalVarRef:
		p.advance()
		return GlobalVariable(tok.Lexeme, tok.Location), nil
	case lexer.PropertyRef:
		p.advance()
		return PropertyReference(tok.Lexeme, tok.Location), nil
	case lexer.FlagRef:
		p.advance()
		return FlagReference(tok.Lexeme, tok.Location), nil
	case lexer.Quote:
		p.advance()
		return p.parseExpression()
	case lexer.LeftAngle, lexer.LeftParen, lexer.LeftBracket:
		return p.parseList(tok.Kind)
	case lexer.EOF:
		return Expr{}, newError(ErrUnexpectedEndOfFile, tok.Location, "unexpected end of file")
	default:
		return Expr{}, newError(ErrUnexpectedToken, tok.Location, "unexpected token %q", tok.Lexeme)
	}
}

func (p *Parser) parseList(opener lexer.Kind) (Expr, error) {
	startLoc := p.loc()
	p.advance() // consume opener
	closer := closerFor(opener)

	var elements []Expr
	for {
		if p.at(lexer.EOF) {
			return Expr{}, newError(ErrUnexpectedEndOfFile, p.loc(), "unexpected end of file inside list")
		}
		if p.current.Kind == closer {
			p.advance()
			break
		}
		if isOpener(p.current.Kind) || !isCloserKind(p.current.Kind) {
			elem, err := p.parseExpression()
			if err != nil {
				return Expr{}, err
			}
			elements = append(elements, elem)
			continue
		}
		return Expr{}, newError(ErrUnexpectedToken, p.loc(), "mismatched closing bracket %q", p.current.Lexeme)
	}

	return List(elements, bracketKindFor(opener), startLoc), nil
}

func isCloserKind(k lexer.Kind) bool {
	return k == lexer.RightAngle || k == lexer.RightParen || k == lexer.RightBracket
}

// expectAtomName requires elements[ix] of a list body to be an atom and
// returns its name; it reads the element without advancing any cursor.
func expectAtomName(elements []Expr, ix int, loc diag.Location, code ErrorCode, what string) (string, error) {
	if ix >= len(elements) {
		return "", newError(code, loc, "expected %s", what)
	}
	e := elements[ix]
	if e.Kind != ExprAtom {
		return "", newError(code, e.Location, "expected %s, found %s", what, kindName(e.Kind))
	}
	return e.Name, nil
}

func kindName(k ExprKind) string {
	switch k {
	case ExprAtom:
		return "atom"
	case ExprNumber:
		return "number"
	case ExprString:
		return "string"
	case ExprLocalVariable:
		return "local variable"
	case ExprGlobalVariable:
		return "global variable"
	case ExprPropertyReference:
		return "property reference"
	case ExprFlagReference:
		return "flag reference"
	case ExprList:
		return "list"
	default:
		return "expression"
	}
}
