package expr

import "fmt"

// ParseError is a syntax failure from Parse, carrying the offending
// source position per the evaluator's failure-mode contract.
type ParseError struct {
	Position Position
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

type Parser struct {
	lexer   *Lexer
	current Token
	err     *ParseError
}

// Parse compiles a single expression from source text. A trailing token
// after the top-level expression is a parse error.
func Parse(source string) (Node, error) {
	p := &Parser{lexer: NewLexer(source)}
	p.advance()
	n := p.parseTernary()
	if p.err != nil {
		return nil, p.err
	}
	if p.current.Type != TokEOF {
		return nil, &ParseError{Position: p.current.Position, Message: fmt.Sprintf("unexpected trailing token %s", p.current)}
	}
	return n, nil
}

func (p *Parser) advance() {
	tok := p.lexer.Next()
	if tok.Type == TokError && p.err == nil {
		p.err = &ParseError{Position: tok.Position, Message: tok.Value}
	}
	p.current = tok
}

func (p *Parser) failf(format string, args ...any) {
	if p.err == nil {
		p.err = &ParseError{Position: p.current.Position, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) expect(t TokenType, what string) Token {
	if p.current.Type != t {
		p.failf("expected %s, found %s", what, p.current)
		return p.current
	}
	tok := p.current
	p.advance()
	return tok
}

// 1. ternary (right-associative)
func (p *Parser) parseTernary() Node {
	cond := p.parseOr()
	if p.err != nil {
		return cond
	}
	if p.current.Type == TokQuestion {
		pos := p.current.Position
		p.advance()
		then := p.parseTernary()
		p.expect(TokColon, ":")
		els := p.parseTernary()
		return &Ternary{base: base{pos}, Cond: cond, Then: then, Else: els}
	}
	return cond
}

// 2. logical or
func (p *Parser) parseOr() Node {
	left := p.parseAnd()
	for p.err == nil && p.current.Type == TokOr {
		pos := p.current.Position
		p.advance()
		right := p.parseAnd()
		left = &BinOp{base: base{pos}, Op: TokOr, Left: left, Right: right}
	}
	return left
}

// 3. logical and
func (p *Parser) parseAnd() Node {
	left := p.parseBitOr()
	for p.err == nil && p.current.Type == TokAnd {
		pos := p.current.Position
		p.advance()
		right := p.parseBitOr()
		left = &BinOp{base: base{pos}, Op: TokAnd, Left: left, Right: right}
	}
	return left
}

// 4. bitwise |
func (p *Parser) parseBitOr() Node {
	left := p.parseBitXor()
	for p.err == nil && p.current.Type == TokPipe {
		pos := p.current.Position
		p.advance()
		right := p.parseBitXor()
		left = &BinOp{base: base{pos}, Op: TokPipe, Left: left, Right: right}
	}
	return left
}

// 5. bitwise ^
func (p *Parser) parseBitXor() Node {
	left := p.parseBitAnd()
	for p.err == nil && p.current.Type == TokCaret {
		pos := p.current.Position
		p.advance()
		right := p.parseBitAnd()
		left = &BinOp{base: base{pos}, Op: TokCaret, Left: left, Right: right}
	}
	return left
}

// 6. bitwise &
func (p *Parser) parseBitAnd() Node {
	left := p.parseEquality()
	for p.err == nil && p.current.Type == TokAmp {
		pos := p.current.Position
		p.advance()
		right := p.parseEquality()
		left = &BinOp{base: base{pos}, Op: TokAmp, Left: left, Right: right}
	}
	return left
}

// 7. equality
func (p *Parser) parseEquality() Node {
	left := p.parseRelational()
	for p.err == nil && (p.current.Type == TokEq || p.current.Type == TokNe) {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		right := p.parseRelational()
		left = &BinOp{base: base{pos}, Op: op, Left: left, Right: right}
	}
	return left
}

// 8. relational
func (p *Parser) parseRelational() Node {
	left := p.parseShift()
	for p.err == nil && (p.current.Type == TokLt || p.current.Type == TokLe || p.current.Type == TokGt || p.current.Type == TokGe) {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		right := p.parseShift()
		left = &BinOp{base: base{pos}, Op: op, Left: left, Right: right}
	}
	return left
}

// 9. shift
func (p *Parser) parseShift() Node {
	left := p.parseAdditive()
	for p.err == nil && (p.current.Type == TokShl || p.current.Type == TokShr) {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		right := p.parseAdditive()
		left = &BinOp{base: base{pos}, Op: op, Left: left, Right: right}
	}
	return left
}

// 10. additive
func (p *Parser) parseAdditive() Node {
	left := p.parseMultiplicative()
	for p.err == nil && (p.current.Type == TokPlus || p.current.Type == TokMinus) {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		right := p.parseMultiplicative()
		left = &BinOp{base: base{pos}, Op: op, Left: left, Right: right}
	}
	return left
}

// 11. multiplicative
func (p *Parser) parseMultiplicative() Node {
	left := p.parseUnary()
	for p.err == nil && (p.current.Type == TokStar || p.current.Type == TokSlash || p.current.Type == TokPercent) {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		right := p.parseUnary()
		left = &BinOp{base: base{pos}, Op: op, Left: left, Right: right}
	}
	return left
}

// 12. unary
func (p *Parser) parseUnary() Node {
	if p.current.Type == TokMinus || p.current.Type == TokNot {
		op := p.current.Type
		pos := p.current.Position
		p.advance()
		operand := p.parseUnary()
		return &UnaryOp{base: base{pos}, Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

// 13. postfix: .name, [expr], .name(args...)
func (p *Parser) parsePostfix() Node {
	n := p.parsePrimary()
	for p.err == nil {
		switch p.current.Type {
		case TokDot:
			pos := p.current.Position
			p.advance()
			name := p.expect(TokIdent, "member name").Value
			if p.current.Type == TokLParen {
				p.advance()
				var args []Node
				for p.current.Type != TokRParen && p.err == nil {
					args = append(args, p.parseTernary())
					if p.current.Type == TokComma {
						p.advance()
					} else {
						break
					}
				}
				p.expect(TokRParen, ")")
				n = &MethodCall{base: base{pos}, Target: n, Name: name, Args: args}
				continue
			}
			n = &Member{base: base{pos}, Target: n, Name: name}
		case TokLBracket:
			pos := p.current.Position
			p.advance()
			idx := p.parseTernary()
			p.expect(TokRBracket, "]")
			n = &Index{base: base{pos}, Target: n, Index: idx}
		default:
			return n
		}
	}
	return n
}

// 14. primary: literal, identifier, Name::member, parenthesized expression
func (p *Parser) parsePrimary() Node {
	tok := p.current
	switch tok.Type {
	case TokInt:
		p.advance()
		return &IntLit{base: base{tok.Position}, Text: tok.IntText}
	case TokFloat:
		p.advance()
		return &FloatLit{base: base{tok.Position}, Text: tok.Value}
	case TokString:
		p.advance()
		return &StringLit{base: base{tok.Position}, Value: tok.Value}
	case TokBool:
		p.advance()
		return &BoolLit{base: base{tok.Position}, Value: tok.Value == "true"}
	case TokIdent:
		p.advance()
		if p.current.Type == TokColonColon {
			p.advance()
			member := p.expect(TokIdent, "enum member name").Value
			return &EnumRef{base: base{tok.Position}, Enum: tok.Value, Member: member}
		}
		return &Ident{base: base{tok.Position}, Name: tok.Value}
	case TokLParen:
		p.advance()
		n := p.parseTernary()
		p.expect(TokRParen, ")")
		return n
	default:
		p.failf("unexpected token %s", tok)
		return &Ident{base: base{tok.Position}, Name: ""}
	}
}
