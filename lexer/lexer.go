package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zengine-project/zengine/diag"
)

// identChar reports whether r is legal inside a ZIL identifier: any
// alphanumeric, or one of - ? ! *.
func identChar(r byte) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	switch r {
	case '-', '?', '!', '*':
		return true
	}
	return false
}

// Lexer turns ZIL source text into a stream of Tokens.
type Lexer struct {
	src    string
	file   string
	pos    int
	line   int
	column int
}

// New creates a Lexer over src, attributing all locations to file.
func New(src, file string) *Lexer {
	return &Lexer{src: src, file: file, line: 1, column: 1}
}

func (l *Lexer) loc() diag.Location {
	return diag.Location{File: l.file, Line: l.line, Column: l.column}
}

func (l *Lexer) peekChar() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) peekCharAt(offset int) (byte, bool) {
	if l.pos+offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos+offset], true
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		c, ok := l.peekChar()
		if !ok {
			return
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.advance()
			continue
		}
		if c == ';' {
			// ;-to-end-of-line comment; a bare ";" that isn't followed by
			// content is still consumed to end of line.
			for {
				c, ok := l.peekChar()
				if !ok || c == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		return
	}
}

// Next returns the next Token in the stream, ending with a permanent
// run of EOF tokens once the source is exhausted.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	start := l.loc()
	c, ok := l.peekChar()
	if !ok {
		return Token{Kind: EOF, Location: start}
	}

	switch c {
	case '<':
		l.advance()
		return Token{Kind: LeftAngle, Lexeme: "<", Location: start}
	case '>':
		l.advance()
		return Token{Kind: RightAngle, Lexeme: ">", Location: start}
	case '(':
		l.advance()
		return Token{Kind: LeftParen, Lexeme: "(", Location: start}
	case ')':
		l.advance()
		return Token{Kind: RightParen, Lexeme: ")", Location: start}
	case '[':
		l.advance()
		return Token{Kind: LeftBracket, Lexeme: "[", Location: start}
	case ']':
		l.advance()
		return Token{Kind: RightBracket, Lexeme: "]", Location: start}
	case '\'':
		l.advance()
		return Token{Kind: Quote, Lexeme: "'", Location: start}
	case '"':
		return l.lexString(start)
	case ',':
		l.advance()
		name := l.lexIdentRun()
		return Token{Kind: GlobalVarRef, Lexeme: name, Location: start}
	case '.':
		l.advance()
		name := l.lexIdentRun()
		return Token{Kind: LocalVarRef, Lexeme: name, Location: start}
	}

	if c == '-' {
		if next, ok := l.peekCharAt(1); ok && next >= '0' && next <= '9' {
			return l.lexNumber(start)
		}
	}
	if c >= '0' && c <= '9' {
		return l.lexNumber(start)
	}

	return l.lexIdentOrRef(start)
}

func (l *Lexer) lexIdentRun() string {
	start := l.pos
	for {
		c, ok := l.peekChar()
		if !ok || !identChar(c) {
			break
		}
		l.advance()
	}
	return l.src[start:l.pos]
}

// lexIdentOrRef scans a bare identifier and recognizes the "P?NAME" and
// "F?NAME" property/flag reference spellings within it.
func (l *Lexer) lexIdentOrRef(start diag.Location) Token {
	ident := l.lexIdentRun()
	if ident == "" {
		// Unknown punctuation; consume one rune to avoid an infinite loop.
		l.advance()
		return Token{Kind: Atom, Lexeme: ident, Location: start}
	}

	if len(ident) > 2 && ident[1] == '?' {
		switch ident[0] {
		case 'P':
			return Token{Kind: PropertyRef, Lexeme: ident[2:], Location: start}
		case 'F':
			return Token{Kind: FlagRef, Lexeme: ident[2:], Location: start}
		}
	}

	return Token{Kind: Atom, Lexeme: ident, Location: start}
}

func (l *Lexer) lexNumber(start diag.Location) Token {
	begin := l.pos
	if c, ok := l.peekChar(); ok && c == '-' {
		l.advance()
	}
	for {
		c, ok := l.peekChar()
		if !ok || c < '0' || c > '9' {
			break
		}
		l.advance()
	}
	lexeme := l.src[begin:l.pos]
	return Token{Kind: Number, Lexeme: lexeme, Location: start}
}

func (l *Lexer) lexString(start diag.Location) Token {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		c, ok := l.peekChar()
		if !ok {
			break
		}
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			esc, ok := l.peekChar()
			if !ok {
				break
			}
			l.advance()
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(c)
		l.advance()
	}
	return Token{Kind: String, Lexeme: sb.String(), Location: start}
}

// ParseNumberLiteral converts a decimal lexeme into a signed 16-bit
// value, as the parser requires when turning a Number token into a
// number expression.
func ParseNumberLiteral(lexeme string) (int16, error) {
	v, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number literal %q: %w", lexeme, err)
	}
	if v < -32768 || v > 65535 {
		return 0, fmt.Errorf("number literal %q out of 16-bit range", lexeme)
	}
	return int16(v), nil
}
