package lexer

import "testing"

var singleTokenTests = []struct {
	name   string
	src    string
	kind   Kind
	lexeme string
}{
	{"global", ",SCORE", GlobalVarRef, "SCORE"},
	{"local", ".OBJ", LocalVarRef, "OBJ"},
	{"property", "P?SIZE", PropertyRef, "SIZE"},
	{"flag", "F?OPENBIT", FlagRef, "OPENBIT"},
	{"atom", "FOO-BAR?", Atom, "FOO-BAR?"},
	{"atom-with-question-not-prefix", "A?B", Atom, "A?B"},
	{"number", "42", Number, "42"},
	{"negative-number", "-7", Number, "-7"},
}

func TestSingleTokens(t *testing.T) {
	for _, tt := range singleTokenTests {
		t.Run(tt.name, func(t *testing.T) {
			lex := New(tt.src, "test.zil")
			tok := lex.Next()
			if tok.Kind != tt.kind {
				t.Fatalf("expected kind %v, got %v", tt.kind, tok.Kind)
			}
			if tok.Lexeme != tt.lexeme {
				t.Fatalf("expected lexeme %q, got %q", tt.lexeme, tok.Lexeme)
			}
		})
	}
}

func TestBracketsAndQuote(t *testing.T) {
	lex := New(`<(['"x"])>`, "test.zil")
	wantKinds := []Kind{LeftAngle, LeftParen, LeftBracket, Quote, String, RightBracket, RightParen, RightAngle, EOF}
	for i, want := range wantKinds {
		tok := lex.Next()
		if tok.Kind != want {
			t.Fatalf("token %d: expected kind %v, got %v", i, want, tok.Kind)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	lex := New(`"a\"b\\c\nd"`, "test.zil")
	tok := lex.Next()
	if tok.Kind != String {
		t.Fatalf("expected string token, got %v", tok.Kind)
	}
	want := "a\"b\\c\nd"
	if tok.Lexeme != want {
		t.Fatalf("expected %q, got %q", want, tok.Lexeme)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	lex := New("; a comment\nFOO ; trailing\nBAR", "test.zil")
	tok := lex.Next()
	if tok.Kind != Atom || tok.Lexeme != "FOO" {
		t.Fatalf("expected atom FOO, got %v %q", tok.Kind, tok.Lexeme)
	}
	tok = lex.Next()
	if tok.Kind != Atom || tok.Lexeme != "BAR" {
		t.Fatalf("expected atom BAR, got %v %q", tok.Kind, tok.Lexeme)
	}
}

func TestEOFIsSticky(t *testing.T) {
	lex := New("", "test.zil")
	for i := 0; i < 3; i++ {
		tok := lex.Next()
		if tok.Kind != EOF {
			t.Fatalf("expected EOF, got %v", tok.Kind)
		}
	}
}

func TestParseNumberLiteralRange(t *testing.T) {
	if _, err := ParseNumberLiteral("65535"); err != nil {
		t.Fatalf("expected 65535 to be valid: %v", err)
	}
	if _, err := ParseNumberLiteral("-32768"); err != nil {
		t.Fatalf("expected -32768 to be valid: %v", err)
	}
	if _, err := ParseNumberLiteral("70000"); err == nil {
		t.Fatalf("expected out-of-range literal to fail")
	}
}
