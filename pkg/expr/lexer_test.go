package expr

import "testing"

func TestLexerOperators(t *testing.T) {
	cases := []struct {
		src  string
		want []TokenType
	}{
		{"<< >> <= >= == != ::", []TokenType{TokShl, TokShr, TokLe, TokGe, TokEq, TokNe, TokColonColon, TokEOF}},
		{"< > = !", []TokenType{TokLt, TokGt, TokError, TokError, TokEOF}},
		{"+ - * / %", []TokenType{TokPlus, TokMinus, TokStar, TokSlash, TokPercent, TokEOF}},
		{"( ) [ ] . ,", []TokenType{TokLParen, TokRParen, TokLBracket, TokRBracket, TokDot, TokComma, TokEOF}},
	}
	for _, c := range cases {
		l := NewLexer(c.src)
		for i, want := range c.want {
			tok := l.Next()
			if tok.Type != want {
				t.Errorf("%q token %d: got %s, want %s", c.src, i, tok.Type, want)
			}
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	l := NewLexer("and or not true false")
	want := []TokenType{TokAnd, TokOr, TokNot, TokBool, TokBool, TokEOF}
	for i, w := range want {
		if tok := l.Next(); tok.Type != w {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, w)
		}
	}
}

func TestLexerIdentifierVsKeyword(t *testing.T) {
	l := NewLexer("android")
	tok := l.Next()
	if tok.Type != TokIdent || tok.Value != "android" {
		t.Errorf("got %v, want Ident(\"android\")", tok)
	}
}

func TestLexerIntegerLiterals(t *testing.T) {
	cases := []struct {
		src     string
		intText string
	}{
		{"123", "123"},
		{"0xff", "0xff"},
		{"0", "0"},
	}
	for _, c := range cases {
		l := NewLexer(c.src)
		tok := l.Next()
		if tok.Type != TokInt || tok.IntText != c.intText {
			t.Errorf("%q: got %v, want Int(%q)", c.src, tok, c.intText)
		}
	}
}

func TestLexerFloatLiterals(t *testing.T) {
	cases := []string{"1.5", "0.25", "1.5e10", "1.5e-3", "2.0E+2"}
	for _, src := range cases {
		l := NewLexer(src)
		tok := l.Next()
		if tok.Type != TokFloat {
			t.Errorf("%q: got %v, want a Float token", src, tok)
		}
	}
}

func TestLexerIntegerNotFollowedByDotIsNotAFloat(t *testing.T) {
	l := NewLexer("5.length")
	tok := l.Next()
	if tok.Type != TokInt || tok.IntText != "5" {
		t.Errorf("got %v, want Int(\"5\")", tok)
	}
	dot := l.Next()
	if dot.Type != TokDot {
		t.Errorf("got %v, want a Dot token", dot)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := NewLexer(`"a\nb\tc\\d\"e"`)
	tok := l.Next()
	if tok.Type != TokString {
		t.Fatalf("got %v, want a String token", tok)
	}
	want := "a\nb\tc\\d\"e"
	if tok.Value != want {
		t.Errorf("got %q, want %q", tok.Value, want)
	}
}

func TestLexerSingleQuotedString(t *testing.T) {
	l := NewLexer(`'hello'`)
	tok := l.Next()
	if tok.Type != TokString || tok.Value != "hello" {
		t.Errorf("got %v, want String(\"hello\")", tok)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer(`"unterminated`)
	tok := l.Next()
	if tok.Type != TokError {
		t.Errorf("got %v, want an Error token", tok)
	}
}

func TestLexerSkipsWhitespace(t *testing.T) {
	l := NewLexer("  1   +\t2\n")
	want := []TokenType{TokInt, TokPlus, TokInt, TokEOF}
	for i, w := range want {
		if tok := l.Next(); tok.Type != w {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, w)
		}
	}
}
