package expr

import "testing"

func TestParseSimpleExpressions(t *testing.T) {
	cases := []string{
		"1 + 2",
		"a.b.c",
		"a[0]",
		"a.b(1, 2)",
		"Enum::member",
		"(1 + 2) * 3",
		"a ? b : c",
		"not a and b or c",
	}
	for _, src := range cases {
		if _, err := Parse(src); err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", src, err)
		}
	}
}

func TestParseMethodCallWithNoArgs(t *testing.T) {
	n, err := Parse("a.length()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mc, ok := n.(*MethodCall)
	if !ok {
		t.Fatalf("got %T, want *MethodCall", n)
	}
	if mc.Name != "length" || len(mc.Args) != 0 {
		t.Errorf("got %+v", mc)
	}
}

func TestParseNestedIndexAndMember(t *testing.T) {
	n, err := Parse("a.b[0].c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := n.(*Member)
	if !ok || outer.Name != "c" {
		t.Fatalf("got %+v, want outer Member(c)", n)
	}
	idx, ok := outer.Target.(*Index)
	if !ok {
		t.Fatalf("got %T, want *Index", outer.Target)
	}
	inner, ok := idx.Target.(*Member)
	if !ok || inner.Name != "b" {
		t.Fatalf("got %+v, want Member(b)", idx.Target)
	}
}

func TestParseTrailingTokenIsAnError(t *testing.T) {
	if _, err := Parse("1 + 2 3"); err == nil {
		t.Error("expected an error for a trailing token after the expression")
	}
}

func TestParseUnmatchedParenIsAnError(t *testing.T) {
	if _, err := Parse("(1 + 2"); err == nil {
		t.Error("expected an error for an unmatched parenthesis")
	}
}

func TestParseEmptyInputIsAnError(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected an error parsing an empty expression")
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	n, err := Parse("1 - 2 - 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := n.(*BinOp)
	if !ok || outer.Op != TokMinus {
		t.Fatalf("got %+v", n)
	}
	// left-associative: (1 - 2) - 3, so the outer node's Left is itself a BinOp
	if _, ok := outer.Left.(*BinOp); !ok {
		t.Errorf("got %T for left operand, want *BinOp (left-associative grouping)", outer.Left)
	}
	if lit, ok := outer.Right.(*IntLit); !ok || lit.Text != "3" {
		t.Errorf("got %+v for right operand, want IntLit(3)", outer.Right)
	}
}

func TestParseTernaryRightAssociativity(t *testing.T) {
	n, err := Parse("a ? b : c ? d : e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := n.(*Ternary)
	if !ok {
		t.Fatalf("got %T, want *Ternary", n)
	}
	// right-associative: a ? b : (c ? d : e)
	if _, ok := outer.Else.(*Ternary); !ok {
		t.Errorf("got %T for else branch, want *Ternary (right-associative grouping)", outer.Else)
	}
}
