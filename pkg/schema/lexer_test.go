package schema

import "testing"

func TestLexerPunctuation(t *testing.T) {
	l := NewLexer("t", "{}[]():,-")
	want := []TokenType{
		TokenLBrace, TokenRBrace, TokenLBracket, TokenRBracket,
		TokenLParen, TokenRParen, TokenColon, TokenComma, TokenMinus, TokenEOF,
	}
	for i, w := range want {
		if tok := l.Next(); tok.Type != w {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, w)
		}
	}
}

func TestLexerIdentAllowsHyphenAndUnderscore(t *testing.T) {
	l := NewLexer("t", "size-eos repeat_count")
	tok := l.Next()
	if tok.Type != TokenIdent || tok.Value != "size-eos" {
		t.Errorf("got %v, want Ident(\"size-eos\")", tok)
	}
	tok2 := l.Next()
	if tok2.Type != TokenIdent || tok2.Value != "repeat_count" {
		t.Errorf("got %v, want Ident(\"repeat_count\")", tok2)
	}
}

func TestLexerDecimalAndHexInt(t *testing.T) {
	l := NewLexer("t", "42 0xFF")
	tok := l.Next()
	if tok.Type != TokenInt || tok.IntValue != 42 {
		t.Errorf("got %v, want Int(42)", tok)
	}
	tok2 := l.Next()
	if tok2.Type != TokenInt || tok2.IntValue != 255 {
		t.Errorf("got %v, want Int(255)", tok2)
	}
}

func TestLexerStringWithEscapes(t *testing.T) {
	l := NewLexer("t", `"line1\nline2"`)
	tok := l.Next()
	if tok.Type != TokenString || tok.Value != "line1\nline2" {
		t.Errorf("got %v, want String(\"line1\\nline2\")", tok)
	}
}

func TestLexerSkipsLineComments(t *testing.T) {
	l := NewLexer("t", "# a comment\nfoo // another\nbar")
	tok := l.Next()
	if tok.Type != TokenIdent || tok.Value != "foo" {
		t.Errorf("got %v, want Ident(\"foo\")", tok)
	}
	tok2 := l.Next()
	if tok2.Type != TokenIdent || tok2.Value != "bar" {
		t.Errorf("got %v, want Ident(\"bar\")", tok2)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer("t", `"oops`)
	tok := l.Next()
	if tok.Type != TokenError {
		t.Errorf("got %v, want an Error token", tok)
	}
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	l := NewLexer("t", "foo\nbar")
	first := l.Next()
	if first.Position.Line != 1 {
		t.Errorf("got line %d, want 1", first.Position.Line)
	}
	second := l.Next()
	if second.Position.Line != 2 {
		t.Errorf("got line %d, want 2", second.Position.Line)
	}
	if second.Position.Column != 1 {
		t.Errorf("got column %d, want 1", second.Position.Column)
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l := NewLexer("t", "@")
	tok := l.Next()
	if tok.Type != TokenError {
		t.Errorf("got %v, want an Error token", tok)
	}
}
