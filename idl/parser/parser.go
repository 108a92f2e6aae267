// Package parser consumes the Barrister IDL token stream produced by
// idl/lexer and builds the ordered contract described in the IDL
// specification: structs, enums, interfaces, standalone comments, and the
// (optional) namespace directive. It is a thin driver over the lexer's
// token stream -- the grammar is encoded in the sequence of expected
// token kinds at each call site, not in a separate formal grammar.
package parser

import (
	"fmt"

	"github.com/coopernurse/barrister/idl"
	"github.com/coopernurse/barrister/idl/lexer"
)

type pendingComment struct {
	text  string
	has   bool
	blank bool
}

// Parser builds a Contract from a token stream, collecting ParseErrors
// along the way instead of aborting on the first one.
type Parser struct {
	tokens []lexer.Token
	pos    int

	contract idl.Contract
	errors   ErrorList

	namespace         string
	namespaceDeclared bool
	sawDefinition     bool

	pending pendingComment
}

// New creates a Parser over an already-scanned token stream.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the parser to completion and returns the entities it built
// plus any errors encountered. Parsing never stops at the first error.
func (p *Parser) Parse() (idl.Contract, ErrorList) {
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TOKEN_EOF:
			p.flushStandalone()
			return p.contract, p.errors
		case lexer.TOKEN_COMMENT:
			p.setPending(tok)
			p.advance()
		case lexer.TOKEN_NAMESPACE:
			p.flushStandalone()
			p.parseNamespace()
		case lexer.TOKEN_STRUCT:
			p.sawDefinition = true
			comment := p.attach()
			p.advance()
			p.parseStruct(comment)
		case lexer.TOKEN_ENUM:
			p.sawDefinition = true
			comment := p.attach()
			p.advance()
			p.parseEnum(comment)
		case lexer.TOKEN_INTERFACE:
			p.sawDefinition = true
			if p.namespace != "" {
				p.errorAt(tok.Line, "namespace is not supported in files that define interfaces")
			}
			comment := p.attach()
			p.advance()
			p.parseInterface(comment)
		default:
			p.errorAt(tok.Line, fmt.Sprintf("unexpected token: %s", tok.Type))
			p.advance()
		}
	}
}

// --- token stream helpers -------------------------------------------------

func (p *Parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.TOKEN_EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) errorAt(line int, msg string) {
	p.errors = append(p.errors, ParseError{Line: line, Message: msg})
}

func (p *Parser) atEOF() bool { return p.peek().Type == lexer.TOKEN_EOF }

// --- comment attachment ---------------------------------------------------

func (p *Parser) setPending(tok lexer.Token) {
	if p.pending.has {
		p.flushStandalone()
	}
	p.pending = pendingComment{text: tok.Lexeme, has: true, blank: tok.BlankLineAfter}
}

func (p *Parser) flushStandalone() {
	if p.pending.has {
		p.contract = append(p.contract, &idl.Comment{Value: p.pending.text})
		p.pending = pendingComment{}
	}
}

// attach returns the comment text to attach to the definition/field/
// function/value about to be parsed. If a blank line separated the
// comment from here, it has already been flushed as standalone instead.
func (p *Parser) attach() string {
	if !p.pending.has {
		return ""
	}
	if p.pending.blank {
		p.flushStandalone()
		return ""
	}
	text := p.pending.text
	p.pending = pendingComment{}
	return text
}

// discardPending drops any unattached comment without promoting it to a
// standalone entity -- used when a struct/enum/interface body closes with
// a dangling, unattached comment.
func (p *Parser) discardPending() {
	p.pending = pendingComment{}
}

// --- namespace -------------------------------------------------------------

func (p *Parser) parseNamespace() {
	tok := p.advance() // 'namespace'
	if p.namespaceDeclared {
		p.errorAt(tok.Line, "namespace already declared")
	}
	if p.sawDefinition {
		p.errorAt(tok.Line, "namespace must precede all type definitions")
	}
	name := p.peek()
	if name.Type != lexer.TOKEN_IDENT {
		p.errorAt(name.Line, "expected identifier after namespace")
		return
	}
	p.advance()
	p.namespace = name.Lexeme
	p.namespaceDeclared = true
}

func (p *Parser) qualify(name string) string {
	if p.namespace == "" {
		return name
	}
	return p.namespace + "." + name
}

func (p *Parser) qualifyType(name string) string {
	if p.namespace == "" || idl.NativeTypes[name] {
		return name
	}
	return p.namespace + "." + name
}

// --- type references ---------------------------------------------------

func (p *Parser) parseTypeRef() (typ string, isArray bool, ok bool) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TOKEN_IDENT:
		p.advance()
		return p.qualifyType(tok.Lexeme), false, true
	case lexer.TOKEN_ARRAY_IDENT:
		p.advance()
		return p.qualifyType(tok.Lexeme), true, true
	case lexer.TOKEN_EOF:
		p.errorAt(tok.Line, "Unexpected end of file")
		return "", false, false
	default:
		p.errorAt(tok.Line, "expected a type")
		return "", false, false
	}
}

func (p *Parser) parseTypeOpts() bool {
	if p.peek().Type != lexer.TOKEN_TYPE_OPTS {
		return false
	}
	tok := p.advance()
	if tok.Lexeme == "optional" {
		return true
	}
	if tok.Lexeme != "" {
		p.errorAt(tok.Line, fmt.Sprintf("invalid type option: %s", tok.Lexeme))
	}
	return false
}

// --- struct ----------------------------------------------------------------

func (p *Parser) parseStruct(comment string) {
	nameTok := p.peek()
	if nameTok.Type != lexer.TOKEN_IDENT {
		p.errorAt(nameTok.Line, "expected struct name")
		return
	}
	p.advance()
	s := &idl.Struct{Name: p.qualify(nameTok.Lexeme), Comment: comment}

	if p.peek().Type == lexer.TOKEN_EXTENDS {
		p.advance()
		parentTok := p.peek()
		if parentTok.Type != lexer.TOKEN_IDENT {
			p.errorAt(parentTok.Line, "expected identifier after extends")
		} else {
			p.advance()
			s.Extends = p.qualifyType(parentTok.Lexeme)
		}
	}

	if !p.expect(lexer.TOKEN_LBRACE, "expected '{'") {
		return
	}

	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TOKEN_RBRACE:
			p.advance()
			p.discardPending()
			if len(s.Fields) == 0 {
				p.errorAt(0, fmt.Sprintf("%s must have at least one field", s.Name))
				return
			}
			p.contract = append(p.contract, s)
			return
		case lexer.TOKEN_COMMENT:
			p.setPending(tok)
			p.advance()
		case lexer.TOKEN_IDENT:
			p.parseField(s)
		case lexer.TOKEN_EOF:
			p.errorAt(tok.Line, "Unexpected end of file")
			return
		default:
			p.errorAt(tok.Line, fmt.Sprintf("unexpected token in struct body: %s", tok.Type))
			p.advance()
		}
	}
}

func (p *Parser) parseField(s *idl.Struct) {
	nameTok := p.advance()
	comment := p.attach()
	typ, isArray, ok := p.parseTypeRef()
	if !ok {
		return
	}
	optional := p.parseTypeOpts()
	s.Fields = append(s.Fields, idl.Field{
		Name:     nameTok.Lexeme,
		Type:     typ,
		IsArray:  isArray,
		Optional: optional,
		Comment:  comment,
	})
}

// --- enum --------------------------------------------------------------

func (p *Parser) parseEnum(comment string) {
	nameTok := p.peek()
	if nameTok.Type != lexer.TOKEN_IDENT {
		p.errorAt(nameTok.Line, "expected enum name")
		return
	}
	p.advance()
	e := &idl.Enum{Name: p.qualify(nameTok.Lexeme), Comment: comment}

	if !p.expect(lexer.TOKEN_LBRACE, "expected '{'") {
		return
	}

	seen := map[string]bool{}
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TOKEN_RBRACE:
			p.advance()
			p.discardPending()
			if len(e.Values) == 0 {
				p.errorAt(0, fmt.Sprintf("%s must have at least one value", e.Name))
				return
			}
			p.contract = append(p.contract, e)
			return
		case lexer.TOKEN_COMMENT:
			p.setPending(tok)
			p.advance()
		case lexer.TOKEN_IDENT:
			p.advance()
			vcomment := p.attach()
			if !seen[tok.Lexeme] {
				seen[tok.Lexeme] = true
				e.Values = append(e.Values, idl.EnumValue{Value: tok.Lexeme, Comment: vcomment})
			}
		case lexer.TOKEN_EOF:
			p.errorAt(tok.Line, "Unexpected end of file")
			return
		default:
			p.errorAt(tok.Line, fmt.Sprintf("unexpected token in enum body: %s", tok.Type))
			p.advance()
		}
	}
}

// --- interface ---------------------------------------------------------

func (p *Parser) parseInterface(comment string) {
	nameTok := p.peek()
	if nameTok.Type != lexer.TOKEN_IDENT {
		p.errorAt(nameTok.Line, "expected interface name")
		return
	}
	p.advance()
	i := &idl.Interface{Name: p.qualify(nameTok.Lexeme), Comment: comment}

	if !p.expect(lexer.TOKEN_LBRACE, "expected '{'") {
		return
	}

	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TOKEN_RBRACE:
			p.advance()
			p.discardPending()
			if len(i.Functions) == 0 {
				p.errorAt(0, fmt.Sprintf("%s must have at least one function", i.Name))
				return
			}
			p.contract = append(p.contract, i)
			return
		case lexer.TOKEN_COMMENT:
			p.setPending(tok)
			p.advance()
		case lexer.TOKEN_IDENT:
			p.parseFunction(i)
		case lexer.TOKEN_EOF:
			p.errorAt(tok.Line, "Unexpected end of file")
			return
		default:
			p.errorAt(tok.Line, fmt.Sprintf("unexpected token in interface body: %s", tok.Type))
			p.advance()
		}
	}
}

func (p *Parser) parseFunction(i *idl.Interface) {
	nameTok := p.advance()
	fn := idl.Function{Name: nameTok.Lexeme}

	if !p.expect(lexer.TOKEN_LPAREN, "expected '(' after function name") {
		return
	}

	for {
		tok := p.peek()
		if tok.Type == lexer.TOKEN_RPAREN {
			p.advance()
			break
		}
		if tok.Type == lexer.TOKEN_EOF {
			p.errorAt(tok.Line, "Unexpected end of file")
			return
		}
		if len(fn.Params) > 0 {
			if tok.Type != lexer.TOKEN_COMMA {
				p.errorAt(tok.Line, "expected ',' or ')' in parameter list")
				return
			}
			p.advance()
			tok = p.peek()
		}
		if tok.Type != lexer.TOKEN_IDENT {
			p.errorAt(tok.Line, "expected parameter name")
			return
		}
		pname := p.advance()
		ptyp, pIsArray, ok := p.parseTypeRef()
		if !ok {
			return
		}
		fn.Params = append(fn.Params, idl.Param{Name: pname.Lexeme, Type: ptyp, IsArray: pIsArray})
	}

	if p.peek().Type == lexer.TOKEN_IDENT || p.peek().Type == lexer.TOKEN_ARRAY_IDENT {
		rtyp, rIsArray, ok := p.parseTypeRef()
		if ok {
			optional := p.parseTypeOpts()
			fn.Returns = &idl.Return{Type: rtyp, IsArray: rIsArray, Optional: optional}
		}
	}

	fn.Comment = p.attach()
	i.Functions = append(i.Functions, fn)
}

// --- misc --------------------------------------------------------------

func (p *Parser) expect(t lexer.TokenType, msg string) bool {
	tok := p.peek()
	if tok.Type == lexer.TOKEN_EOF {
		p.errorAt(tok.Line, "Unexpected end of file")
		return false
	}
	if tok.Type != t {
		p.errorAt(tok.Line, msg)
		return false
	}
	p.advance()
	return true
}
