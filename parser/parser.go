/*
Package parser implements a recursive-descent parser for the donitsi language.

The parser works on a token sequence produced by package lexer and returns the
sequence of top-level AST nodes of a program. It never backtracks: grammar
decisions are made by peeking at tokens ahead of the cursor.

Binary operators recurse into the same precedence level for their right
operand. As a consequence, chains of operators of equal precedence group to
the right: `1 - 2 - 3` is parsed as `1 - (2 - 3)`.

Any unexpected token aborts parsing with a ParseError, which carries a window of
source text around the offending token. There is no error recovery.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package parser

import (
	"fmt"

	"github.com/npillmayer/donitsi"
	"github.com/npillmayer/donitsi/ast"
	"github.com/npillmayer/donitsi/lexer"
	"github.com/npillmayer/donitsi/scanner"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.parser'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.parser")
}

// windowSize is the number of tokens shown before and after a syntax error.
const windowSize = 3

// ParseError is a fatal syntax error.
type ParseError struct {
	Msg    string       // what went wrong
	Span   donitsi.Span // position of the offending token
	Window string       // source text surrounding the offending token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %v: %s, near `%s`", e.Span, e.Msg, e.Window)
}

// Parser is a recursive-descent parser. Create one with NewParser.
type Parser struct {
	source string
	toks   []donitsi.Token
	pos    int
}

// NewParser creates a parser for a token sequence. source is the text the
// tokens have been read from; it is used for error messages.
func NewParser(source string, toks []donitsi.Token) *Parser {
	return &Parser{source: source, toks: toks}
}

// Parse parses a token sequence into a program.
func Parse(source string, toks []donitsi.Token) ([]ast.Node, error) {
	return NewParser(source, toks).Parse()
}

// ParseSource tokenizes and parses source text.
func ParseSource(source string) ([]ast.Node, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(source, toks)
}

// Parse consumes the complete token sequence. It either returns an AST covering
// every token or fails with a *ParseError.
func (p *Parser) Parse() (nodes []ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			tracer().Errorf(perr.Error())
			nodes, err = nil, perr
		}
	}()
	p.pos = 0
	for i, tok := range p.toks {
		if tok.TokType() == lexer.Error {
			p.pos = i
			p.fail("unrecognized input %q", tok.Lexeme())
		}
	}
	for !p.atEnd() {
		item := p.parseItem()
		tracer().Debugf("item: %v", item)
		nodes = append(nodes, item)
	}
	return nodes, nil
}

// --- Grammar ---------------------------------------------------------------

// item is a top-level statement. Identifiers are disambiguated by looking at
// the token following them.
func (p *Parser) parseItem() ast.Node {
	tok := p.peek(0)
	switch tok.TokType() {
	case lexer.Ident:
		switch p.peek(1).TokType() {
		case lexer.Assign:
			p.skip(2)
			return ast.Assign{Left: ast.Ident{Name: tok.Lexeme()}, Right: p.parseItem()}
		case lexer.Ident:
			name := p.peek(1).Lexeme()
			p.skip(2)
			return ast.Var{Name: name, TypeName: tok.Lexeme()}
		case lexer.LBrace:
			return p.parseStructInstance()
		case lexer.Arrow:
			return p.parseFun()
		}
	case lexer.LBracket:
		return p.parseArray()
	case lexer.LParen:
		closing := p.matching()
		if p.peek(closing+1).TokType() == lexer.Arrow {
			return p.parseFun()
		}
	case lexer.Return:
		p.skip(1)
		if p.atItemEnd() {
			return ast.Return{}
		}
		return ast.Return{Value: p.parseItem()}
	case lexer.Type, lexer.Struct:
		return p.parseStructDef()
	case lexer.EOF:
		p.fail("unexpected end of input")
	}
	return p.parseExpr()
}

// function = ( ident | '(' ident* ')' ) '=>' ( '{' item* '}' | item )
func (p *Parser) parseFun() ast.Node {
	var params []ast.Ident
	if p.peek(0).TokType() == lexer.Ident {
		params = append(params, ast.Ident{Name: p.next().Lexeme()})
	} else {
		p.expect(lexer.LParen)
		for p.skipCommas() != lexer.RParen {
			params = append(params, ast.Ident{Name: p.expect(lexer.Ident).Lexeme()})
		}
		p.skip(1)
	}
	p.expect(lexer.Arrow)
	var body []ast.Node
	if p.peek(0).TokType() == lexer.LBrace {
		p.skip(1)
		for p.peek(0).TokType() != lexer.RBrace {
			body = append(body, p.parseItem())
		}
		p.skip(1)
	} else {
		body = append(body, p.parseItem())
	}
	return ast.Fun{Params: params, Body: body}
}

// struct-instance = ident '{' ( ident ':' item )* '}'
func (p *Parser) parseStructInstance() ast.Node {
	name := p.expect(lexer.Ident).Lexeme()
	p.expect(lexer.LBrace)
	inst := ast.StructInstance{Name: name}
	for p.skipCommas() != lexer.RBrace {
		field := p.expect(lexer.Ident).Lexeme()
		p.expect(lexer.Colon)
		inst.Fields = append(inst.Fields, ast.Field{Name: field, Value: p.parseItem()})
	}
	p.skip(1)
	return inst
}

// struct-def = ( 'type' | 'struct' ) ident '{' ( ident ':' ident )* '}'
func (p *Parser) parseStructDef() ast.Node {
	p.skip(1)
	def := ast.StructDef{Name: p.expect(lexer.Ident).Lexeme()}
	p.expect(lexer.LBrace)
	for p.skipCommas() != lexer.RBrace {
		field := p.expect(lexer.Ident).Lexeme()
		p.expect(lexer.Colon)
		typ := p.expect(lexer.Ident).Lexeme()
		def.Fields = append(def.Fields, ast.FieldDecl{Name: field, Type: typ})
	}
	p.skip(1)
	return def
}

// array = '[' item* ']'
func (p *Parser) parseArray() ast.Node {
	p.expect(lexer.LBracket)
	arr := ast.Array{Items: []ast.Node{}}
	for p.skipCommas() != lexer.RBracket {
		arr.Items = append(arr.Items, p.parseItem())
	}
	p.skip(1)
	return arr
}

// expr = term [ ('+' | '-') expr ]
func (p *Parser) parseExpr() ast.Node {
	left := p.parseTerm()
	switch p.peek(0).TokType() {
	case lexer.Plus:
		p.skip(1)
		return ast.BinOp{Left: left, Op: ast.Add, Right: p.parseExpr()}
	case lexer.Minus:
		p.skip(1)
		return ast.BinOp{Left: left, Op: ast.Sub, Right: p.parseExpr()}
	}
	return left
}

// term = factor [ ('*' | '/') term ]
func (p *Parser) parseTerm() ast.Node {
	left := p.parseFactor()
	switch p.peek(0).TokType() {
	case lexer.Star:
		p.skip(1)
		return ast.BinOp{Left: left, Op: ast.Mul, Right: p.parseTerm()}
	case lexer.Slash:
		p.skip(1)
		return ast.BinOp{Left: left, Op: ast.Div, Right: p.parseTerm()}
	}
	return left
}

// factor = primary ( '(' item* ')' | '.' ident )*
func (p *Parser) parseFactor() ast.Node {
	n := p.parsePrimary()
	for {
		switch p.peek(0).TokType() {
		case lexer.LParen:
			p.skip(1)
			call := ast.Call{Callee: n, Args: []ast.Node{}}
			for p.skipCommas() != lexer.RParen {
				call.Args = append(call.Args, p.parseItem())
			}
			p.skip(1)
			n = call
		case lexer.Dot:
			p.skip(1)
			n = ast.PropertyAccess{Object: n, Property: p.expect(lexer.Ident).Lexeme()}
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.peek(0)
	switch tok.TokType() {
	case lexer.Ident:
		p.skip(1)
		return ast.Ident{Name: tok.Lexeme()}
	case lexer.String:
		p.skip(1)
		return ast.StrLit{Value: tok.Value().(string)}
	case lexer.Int:
		p.skip(1)
		return ast.IntLit{Value: tok.Value().(int64)}
	case lexer.Decimal:
		p.skip(1)
		return ast.FloatLit{Value: tok.Value().(float64)}
	case lexer.LParen:
		p.skip(1)
		e := p.parseExpr()
		p.expect(lexer.RParen)
		return e
	case lexer.EOF:
		p.fail("unexpected end of input")
	}
	p.fail("unexpected %s", describe(tok))
	return nil
}

// --- Token handling --------------------------------------------------------

// peek looks ahead of the cursor by offset tokens without consuming them.
// Beyond the end of input it returns an EOF token.
func (p *Parser) peek(offset int) donitsi.Token {
	if i := p.pos + offset; i >= 0 && i < len(p.toks) {
		return p.toks[i]
	}
	end := uint64(len(p.source))
	return scanner.MakeDefaultToken(lexer.EOF, "", donitsi.Span{end, end})
}

func (p *Parser) next() donitsi.Token {
	tok := p.peek(0)
	p.skip(1)
	return tok
}

func (p *Parser) skip(n int) {
	p.pos += n
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

// expect consumes a token of category typ or fails.
func (p *Parser) expect(typ donitsi.TokType) donitsi.Token {
	tok := p.peek(0)
	if tok.TokType() != typ {
		if tok.TokType() == lexer.EOF {
			p.fail("unexpected end of input, expected %s", lexer.TokenName(typ))
		}
		p.fail("expected %s, found %s", lexer.TokenName(typ), describe(tok))
	}
	p.skip(1)
	return tok
}

// skipCommas skips optional separators and returns the category of the
// token following them. Running into the end of input is an error, as
// skipCommas is only called inside of delimited lists.
func (p *Parser) skipCommas() donitsi.TokType {
	for p.peek(0).TokType() == lexer.Comma {
		p.skip(1)
	}
	if p.atEnd() {
		p.fail("unexpected end of input in delimited list")
	}
	return p.peek(0).TokType()
}

// atItemEnd is true if no item may start at the cursor.
func (p *Parser) atItemEnd() bool {
	switch p.peek(0).TokType() {
	case lexer.EOF, lexer.RBrace, lexer.RParen, lexer.RBracket, lexer.Comma:
		return true
	}
	return false
}

// matching returns the offset of the ')' matching the '(' at the cursor.
func (p *Parser) matching() int {
	depth := 0
	for offset := 0; p.pos+offset < len(p.toks); offset++ {
		switch p.peek(offset).TokType() {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
			if depth == 0 {
				return offset
			}
		}
	}
	p.fail("unbalanced parenthesis")
	return 0
}

// fail aborts parsing. The panic is recovered in Parse.
func (p *Parser) fail(format string, args ...interface{}) {
	tok := p.peek(0)
	panic(&ParseError{
		Msg:    fmt.Sprintf(format, args...),
		Span:   tok.Span(),
		Window: p.window(),
	})
}

// window returns the source text from windowSize tokens before the cursor to
// windowSize tokens after it.
func (p *Parser) window() string {
	if len(p.toks) == 0 {
		return ""
	}
	from, to := p.pos-windowSize, p.pos+windowSize
	if from < 0 {
		from = 0
	}
	if from >= len(p.toks) {
		from = len(p.toks) - 1
	}
	if to >= len(p.toks) {
		to = len(p.toks) - 1
	}
	return p.toks[from].Span().Extend(p.toks[to].Span()).Of(p.source)
}

func describe(tok donitsi.Token) string {
	if tok.Lexeme() != "" {
		return fmt.Sprintf("%s %q", lexer.TokenName(tok.TokType()), tok.Lexeme())
	}
	return lexer.TokenName(tok.TokType())
}
