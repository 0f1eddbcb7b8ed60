package schema

import "fmt"

// ParseError is a syntax-level failure from Parse. It is distinct from the
// interpreter's error taxonomy: the textual loader is ambient plumbing
// outside the interpretation engine, so its errors don't need to carry
// an interp.Kind.
type ParseError struct {
	Position Position
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
}

// Parser is a recursive-descent parser for the schema DSL.
type Parser struct {
	lexer    *Lexer
	current  Token
	previous Token
	errors   []ParseError
}

// NewParser creates a Parser over the given named source text.
func NewParser(filename, input string) *Parser {
	p := &Parser{lexer: NewLexer(filename, input)}
	p.advance()
	return p
}

// Parse parses a complete schema document and returns the root TypeDef.
// A non-empty error slice means the returned tree may be partial; callers
// should not pass it to Validate or the interpreter in that case.
func Parse(filename, input string) (*TypeDef, []ParseError) {
	p := NewParser(filename, input)
	root := NewTypeDef("", nil)
	root.Pos = p.current.Position
	p.parseTypeBody(root)
	if !p.check(TokenEOF) {
		p.errorf("unexpected trailing content after schema body")
	}
	return root, p.errors
}

func (p *Parser) advance() {
	p.previous = p.current
	for {
		tok := p.lexer.Next()
		if tok.Type == TokenError {
			p.errorAt(tok.Position, tok.Value)
			if tok.Value == "unterminated string literal" {
				p.current = Token{Type: TokenEOF, Position: tok.Position}
				return
			}
			continue
		}
		p.current = tok
		return
	}
}

func (p *Parser) check(t TokenType) bool { return p.current.Type == t }

func (p *Parser) checkKeyword(word string) bool {
	return p.current.Type == TokenIdent && p.current.Value == word
}

func (p *Parser) errorf(format string, args ...any) {
	p.errorAt(p.current.Position, fmt.Sprintf(format, args...))
}

func (p *Parser) errorAt(pos Position, msg string) {
	p.errors = append(p.errors, ParseError{Position: pos, Message: msg})
}

func (p *Parser) expect(t TokenType, what string) Token {
	if !p.check(t) {
		p.errorf("expected %s, found %s", what, p.current)
		return p.current
	}
	tok := p.current
	p.advance()
	return tok
}

func (p *Parser) expectKeyword(word string) {
	if !p.checkKeyword(word) {
		p.errorf("expected %q, found %s", word, p.current)
		return
	}
	p.advance()
}

// synchronize skips tokens until a likely block boundary, so one malformed
// block doesn't cascade into spurious errors for the rest of the file.
func (p *Parser) synchronize() {
	depth := 0
	for !p.check(TokenEOF) {
		switch p.current.Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// parseTypeBody parses the (meta|seq|instances|types|enums|params) blocks
// that make up one type definition, in any order, until it sees a closing
// brace (nested type) or EOF (root schema).
func (p *Parser) parseTypeBody(t *TypeDef) {
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		switch {
		case p.checkKeyword("meta"):
			p.parseMeta(t)
		case p.checkKeyword("seq"):
			p.parseSeq(t)
		case p.checkKeyword("instances"):
			p.parseInstances(t)
		case p.checkKeyword("types"):
			p.parseTypes(t)
		case p.checkKeyword("enums"):
			p.parseEnums(t)
		case p.checkKeyword("params"):
			p.parseParams(t)
		default:
			p.errorf("expected one of meta, seq, instances, types, enums, params; found %s", p.current)
			p.synchronize()
		}
	}
}

func (p *Parser) parseMeta(t *TypeDef) {
	p.advance() // "meta"
	p.expect(TokenLBrace, "{")
	t.HasMeta = true
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		key := p.expect(TokenIdent, "meta key").Value
		p.expect(TokenColon, ":")
		switch key {
		case "id":
			t.Meta.ID = p.expect(TokenString, "string").Value
		case "encoding":
			t.Meta.Encoding = p.expect(TokenString, "string").Value
		case "endian":
			p.parseEndianValue(t)
		default:
			p.errorf("unknown meta key %q", key)
			p.skipValue()
		}
		if p.check(TokenComma) {
			p.advance()
		}
	}
	p.expect(TokenRBrace, "}")
}

func (p *Parser) parseEndianValue(t *TypeDef) {
	if p.checkKeyword("le") {
		t.Meta.Endian = LittleEndian
		p.advance()
		return
	}
	if p.checkKeyword("be") {
		t.Meta.Endian = BigEndian
		p.advance()
		return
	}
	if p.checkKeyword("switch") {
		t.Meta.EndianSwitch = p.parseEndianSwitch()
		return
	}
	p.errorf("expected le, be, or switch(...), found %s", p.current)
	p.skipValue()
}

func (p *Parser) parseEndianSwitch() *SwitchEndian {
	p.advance() // "switch"
	p.expect(TokenLParen, "(")
	disc := p.expect(TokenString, "discriminant expression string").Value
	p.expect(TokenRParen, ")")
	p.expect(TokenLBrace, "{")
	sw := &SwitchEndian{DiscriminantExpr: disc, Cases: map[string]Endian{}}
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		key := p.parseCaseKey()
		p.expect(TokenColon, ":")
		var e Endian
		if p.checkKeyword("le") {
			e = LittleEndian
		} else if p.checkKeyword("be") {
			e = BigEndian
		} else {
			p.errorf("expected le or be, found %s", p.current)
		}
		p.advance()
		sw.Cases[key] = e
	}
	p.expect(TokenRBrace, "}")
	return sw
}

func (p *Parser) parseCaseKey() string {
	switch p.current.Type {
	case TokenString:
		v := p.current.Value
		p.advance()
		return v
	case TokenInt:
		v := fmt.Sprintf("%d", p.current.IntValue)
		p.advance()
		return v
	case TokenIdent:
		if p.current.Value == "default" {
			p.advance()
			return "default"
		}
		v := p.current.Value
		p.advance()
		return v
	default:
		p.errorf("expected a case key, found %s", p.current)
		p.advance()
		return ""
	}
}

func (p *Parser) parseSeq(t *TypeDef) {
	p.advance() // "seq"
	p.expect(TokenLBrace, "{")
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if !p.checkKeyword("field") {
			p.errorf("expected \"field\", found %s", p.current)
			p.synchronize()
			continue
		}
		p.advance()
		name := p.expect(TokenIdent, "field name").Value
		pos := p.previous.Position
		f := &FieldSpec{ID: name, Pos: pos}
		p.expect(TokenLBrace, "{")
		inst := &InstanceSpec{FieldSpec: *f}
		p.parseAttrs(inst, false)
		p.expect(TokenRBrace, "}")
		nf := inst.FieldSpec
		t.Seq = append(t.Seq, &nf)
	}
	p.expect(TokenRBrace, "}")
}

func (p *Parser) parseInstances(t *TypeDef) {
	p.advance() // "instances"
	p.expect(TokenLBrace, "{")
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if !p.checkKeyword("instance") {
			p.errorf("expected \"instance\", found %s", p.current)
			p.synchronize()
			continue
		}
		p.advance()
		name := p.expect(TokenIdent, "instance name").Value
		pos := p.previous.Position
		inst := &InstanceSpec{FieldSpec: FieldSpec{ID: name, Pos: pos}}
		p.expect(TokenLBrace, "{")
		p.parseAttrs(inst, true)
		p.expect(TokenRBrace, "}")
		t.Instances[name] = inst
		t.InstanceOrder = append(t.InstanceOrder, name)
	}
	p.expect(TokenRBrace, "}")
}

// parseAttrs parses field attributes shared by seq fields and instances.
// allowValue permits the instance-only "value" expression attribute.
func (p *Parser) parseAttrs(inst *InstanceSpec, allowValue bool) {
	f := &inst.FieldSpec
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		key := p.expect(TokenIdent, "attribute key").Value
		p.expect(TokenColon, ":")
		switch key {
		case "type":
			f.Type = p.parseTypeRef()
		case "size":
			f.HasSize = true
			f.SizeExpr = p.expect(TokenString, "size expression string").Value
		case "size-eos":
			f.SizeEOS = p.parseBool()
		case "repeat":
			p.parseRepeatKind(f)
		case "repeat-expr":
			expr := p.expect(TokenString, "expression string").Value
			if f.Repeat.Kind == RepeatCount {
				f.Repeat.CountExpr = expr
			} else {
				f.Repeat.UntilExpr = expr
			}
		case "if":
			f.HasIf = true
			f.IfExpr = p.expect(TokenString, "expression string").Value
		case "contents":
			f.Contents = p.parseContents()
		case "encoding":
			f.Encoding = p.expect(TokenString, "string").Value
		case "enum":
			f.Enum = p.expect(TokenIdent, "enum name").Value
		case "pos":
			f.HasPos = true
			f.PosExpr = p.expect(TokenString, "expression string").Value
		case "io":
			f.HasIO = true
			f.IOExpr = p.expect(TokenString, "expression string").Value
		case "process":
			f.HasProcess = true
			f.Process = p.expect(TokenString, "string").Value
		case "terminator":
			f.Terminator.Set = true
			f.Terminator.Term = byte(p.expect(TokenInt, "integer").IntValue)
		case "include":
			f.Terminator.Include = p.parseBool()
		case "consume":
			f.Terminator.Consume = p.parseBool()
		case "eos-error":
			f.Terminator.EOSError = p.parseBool()
		case "value":
			if !allowValue {
				p.errorf("\"value\" is only valid on instances")
				p.skipValue()
				continue
			}
			inst.HasValue = true
			inst.ValueExpr = p.expect(TokenString, "expression string").Value
		default:
			p.errorf("unknown attribute %q", key)
			p.skipValue()
		}
		if p.check(TokenComma) {
			p.advance()
		}
	}
}

func (p *Parser) parseBool() bool {
	if p.checkKeyword("true") {
		p.advance()
		return true
	}
	if p.checkKeyword("false") {
		p.advance()
		return false
	}
	p.errorf("expected true or false, found %s", p.current)
	p.advance()
	return false
}

func (p *Parser) parseRepeatKind(f *FieldSpec) {
	switch {
	case p.checkKeyword("count"):
		f.Repeat.Kind = RepeatCount
	case p.checkKeyword("until"):
		f.Repeat.Kind = RepeatUntil
	case p.checkKeyword("eos"):
		f.Repeat.Kind = RepeatEOS
	default:
		p.errorf("expected count, until, or eos, found %s", p.current)
	}
	p.advance()
}

func (p *Parser) parseContents() []byte {
	if p.check(TokenString) {
		v := p.current.Value
		p.advance()
		return []byte(v)
	}
	p.expect(TokenLBracket, "[")
	var b []byte
	for !p.check(TokenRBracket) && !p.check(TokenEOF) {
		tok := p.expect(TokenInt, "byte value")
		b = append(b, byte(tok.IntValue))
		if p.check(TokenComma) {
			p.advance()
		}
	}
	p.expect(TokenRBracket, "]")
	return b
}

func (p *Parser) parseTypeRef() TypeRef {
	if p.checkKeyword("switch") {
		return TypeRef{Switch: p.parseSwitchType()}
	}
	name := p.expect(TokenIdent, "type name").Value
	return TypeRef{Name: name}
}

func (p *Parser) parseSwitchType() *SwitchType {
	pos := p.current.Position
	p.advance() // "switch"
	p.expect(TokenLParen, "(")
	disc := p.expect(TokenString, "discriminant expression string").Value
	p.expect(TokenRParen, ")")
	p.expect(TokenLBrace, "{")
	sw := &SwitchType{DiscriminantExpr: disc, Cases: map[string]TypeRef{}, Pos: pos}
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		key := p.parseCaseKey()
		p.expect(TokenColon, ":")
		ref := p.parseTypeRef()
		if key == "default" {
			d := ref
			sw.Default = &d
			continue
		}
		sw.Cases[key] = ref
		sw.CaseOrder = append(sw.CaseOrder, key)
	}
	p.expect(TokenRBrace, "}")
	return sw
}

func (p *Parser) parseTypes(t *TypeDef) {
	p.advance() // "types"
	p.expect(TokenLBrace, "{")
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if !p.checkKeyword("type") {
			p.errorf("expected \"type\", found %s", p.current)
			p.synchronize()
			continue
		}
		p.advance()
		name := p.expect(TokenIdent, "type name").Value
		pos := p.previous.Position
		nested := NewTypeDef(name, t)
		nested.Pos = pos
		p.expect(TokenLBrace, "{")
		p.parseTypeBody(nested)
		p.expect(TokenRBrace, "}")
		t.Types[name] = nested
	}
	p.expect(TokenRBrace, "}")
}

func (p *Parser) parseEnums(t *TypeDef) {
	p.advance() // "enums"
	p.expect(TokenLBrace, "{")
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if !p.checkKeyword("enum") {
			p.errorf("expected \"enum\", found %s", p.current)
			p.synchronize()
			continue
		}
		p.advance()
		name := p.expect(TokenIdent, "enum name").Value
		pos := p.previous.Position
		def := &EnumDef{Values: map[int64]string{}, Pos: pos}
		p.expect(TokenLBrace, "{")
		for !p.check(TokenRBrace) && !p.check(TokenEOF) {
			num := p.expect(TokenInt, "enum value").IntValue
			p.expect(TokenColon, ":")
			sym := p.expect(TokenIdent, "enum symbol").Value
			def.Values[num] = sym
		}
		p.expect(TokenRBrace, "}")
		t.Enums[name] = def
	}
	p.expect(TokenRBrace, "}")
}

func (p *Parser) parseParams(t *TypeDef) {
	p.advance() // "params"
	p.expect(TokenLBrace, "{")
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if !p.checkKeyword("param") {
			p.errorf("expected \"param\", found %s", p.current)
			p.synchronize()
			continue
		}
		p.advance()
		name := p.expect(TokenIdent, "param name").Value
		pos := p.previous.Position
		p.expect(TokenColon, ":")
		typeName := p.expect(TokenIdent, "param type").Value
		t.Params = append(t.Params, Param{Name: name, TypeName: typeName, Pos: pos})
	}
	p.expect(TokenRBrace, "}")
}

// skipValue consumes one value after a malformed attribute key, so a
// single unknown key doesn't desynchronize the rest of the block.
func (p *Parser) skipValue() {
	switch p.current.Type {
	case TokenLBracket:
		depth := 0
		for {
			if p.check(TokenLBracket) {
				depth++
			} else if p.check(TokenRBracket) {
				depth--
				p.advance()
				if depth == 0 {
					return
				}
				continue
			} else if p.check(TokenEOF) {
				return
			}
			p.advance()
		}
	default:
		if !p.check(TokenRBrace) && !p.check(TokenEOF) {
			p.advance()
		}
	}
}
