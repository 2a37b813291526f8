// Copyright © 2018 The ELPS authors

package rdparser

import (
	"io"
	"strconv"
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/token"
)

type reader struct {
}

// NewReader returns a lisp.Reader to use in a lisp.Runtime.
func NewReader() lisp.Reader {
	return &reader{}
}

// Read implements lisp.Reader.
func (*reader) Read(in lisp.Interner, name string, r io.Reader) ([]lisp.Value, error) {
	s := token.NewScanner(name, r)
	p := New(in, s)
	return p.ParseProgram()
}

// Parser is a lisp parser.
type Parser struct {
	in      lisp.Interner
	parsing bool
	src     *TokenSource
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
// Symbols are interned with in.
func NewFromSource(in lisp.Interner, src *TokenSource) *Parser {
	return &Parser{
		in:  in,
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(in lisp.Interner, scanner *token.Scanner) *Parser {
	return NewFromSource(in, NewTokenSource(scanner))
}

// Parse is a generic entry point that is similar to ParseExpression but is
// capable of handling EOF before reading an expression.
func (p *Parser) Parse() (lisp.Value, error) {
	p.ignoreComments()
	if p.src.IsEOF() {
		return nil, io.EOF
	}
	return p.ParseExpression()
}

// ParseProgram parses a series of expressions potentially preceded by a
// hash-bang, `#!`.
func (p *Parser) ParseProgram() ([]lisp.Value, error) {
	var exprs []lisp.Value

	p.ignoreHashBang()

	for {
		expr, err := p.Parse()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	return exprs, nil
}

// ParseExpression parses a single expression.  Unlike Parse, ParseExpression
// requires an expression to be present in the input stream and will report
// unexpected EOF tokens encountered.
func (p *Parser) ParseExpression() (lisp.Value, error) {
	fn := p.parseExpression()

	// Flag that an expression is in progress so an Interactive parser can
	// choose a continuation prompt.
	if !p.parsing {
		p.parsing = true
		defer func() { p.parsing = false }()
	}

	return fn(p)
}

func (p *Parser) ignoreHashBang() {
	if p.PeekType() != token.HASH_BANG {
		return
	}
	p.src.Scan()
	p.src.AcceptType(token.COMMENT)
}

type parseFn func(p *Parser) (lisp.Value, error)

func (p *Parser) parseExpression() parseFn {
	p.ignoreComments()
	switch p.PeekType() {
	case token.INT:
		return (*Parser).ParseLiteralInt
	case token.INT_OCTAL_MACRO:
		return (*Parser).ParseLiteralIntOctal
	case token.INT_HEX_MACRO:
		return (*Parser).ParseLiteralIntHex
	case token.FLOAT:
		return (*Parser).ParseLiteralFloat
	case token.STRING:
		return (*Parser).ParseLiteralString
	case token.STRING_RAW:
		return (*Parser).ParseLiteralStringRaw
	case token.NEGATIVE:
		return (*Parser).ParseNegative
	case token.QUOTE:
		return quoteParser(token.QUOTE, lisp.QuoteSymbol)
	case token.BACKQUOTE:
		return quoteParser(token.BACKQUOTE, lisp.QuasiquoteSymbol)
	case token.COMMA:
		return quoteParser(token.COMMA, lisp.UnquoteSymbol)
	case token.COMMA_AT:
		return quoteParser(token.COMMA_AT, lisp.UnquoteSplicingSymbol)
	case token.SYMBOL:
		return (*Parser).ParseSymbol
	case token.PAREN_L:
		return (*Parser).ParseConsExpression
	case token.BRACKET_L:
		return (*Parser).ParseVector
	case token.BRACE_L:
		return (*Parser).ParseMap
	case token.ERROR, token.INVALID:
		return func(p *Parser) (lisp.Value, error) {
			p.ReadToken()
			return nil, p.errorf("scan error: %s", p.TokenText())
		}
	case token.EOF:
		return func(p *Parser) (lisp.Value, error) {
			return nil, token.Errorf(p.PeekLocation(), "unexpected EOF")
		}
	default:
		return func(p *Parser) (lisp.Value, error) {
			p.ReadToken()
			return nil, p.errorf("unexpected token: %v", p.TokenType())
		}
	}
}

func (p *Parser) ParseLiteralInt() (lisp.Value, error) {
	if !p.Accept(token.INT) {
		return nil, p.errorf("invalid integer literal: %v", p.PeekType())
	}
	text := p.TokenText()
	x, err := strconv.Atoi(text)
	if err != nil {
		return nil, p.errorf("integer literal overflows int: %v", text)
	}
	return x, nil
}

func (p *Parser) ParseLiteralIntOctal() (lisp.Value, error) {
	return p.parseRadix(token.INT_OCTAL_MACRO, token.INT_OCTAL, 8)
}

func (p *Parser) ParseLiteralIntHex() (lisp.Value, error) {
	return p.parseRadix(token.INT_HEX_MACRO, token.INT_HEX, 16)
}

func (p *Parser) parseRadix(macro, digits token.Type, base int) (lisp.Value, error) {
	if !p.Accept(macro) {
		return nil, p.errorf("unexpected token: %v", p.PeekType())
	}
	if !p.Accept(digits) {
		if p.Accept(token.ERROR, token.INVALID) {
			return nil, p.errorf("%s", p.TokenText())
		}
		return nil, p.errorf("unexpected token: %v", p.PeekType())
	}
	text := p.TokenText()
	x, err := strconv.ParseInt(text, base, 0)
	if err != nil {
		return nil, p.errorf("%v literal overflows int: %v", digits, text)
	}
	return int(x), nil
}

func (p *Parser) ParseLiteralFloat() (lisp.Value, error) {
	if !p.Accept(token.FLOAT) {
		return nil, p.errorf("invalid float literal: %v", p.PeekType())
	}
	x, err := strconv.ParseFloat(p.TokenText(), 64)
	if err != nil {
		return nil, p.errorf("invalid floating point literal: %v", p.TokenText())
	}
	return x, nil
}

func (p *Parser) ParseLiteralString() (lisp.Value, error) {
	if !p.Accept(token.STRING) {
		return nil, p.errorf("invalid string literal: %v", p.PeekType())
	}
	s, err := strconv.Unquote(p.TokenText())
	if err != nil {
		return nil, p.errorf("invalid string literal: %v", p.TokenText())
	}
	return s, nil
}

func (p *Parser) ParseLiteralStringRaw() (lisp.Value, error) {
	if !p.Accept(token.STRING_RAW) {
		return nil, p.errorf("invalid raw string literal: %v", p.PeekType())
	}
	text := p.TokenText()
	return text[3 : len(text)-3], nil
}

// quoteParser returns a parseFn for a reader shorthand that wraps the next
// expression, e.g. 'x reads as (quote x).
func quoteParser(typ token.Type, name string) parseFn {
	return func(p *Parser) (lisp.Value, error) {
		if !p.Accept(typ) {
			return nil, p.errorf("invalid %v: %v", typ, p.PeekType())
		}
		loc := p.Location()
		expr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		form := lisp.List(p.in.Intern(name), expr)
		form.Source = loc
		return form, nil
	}
}

func (p *Parser) ParseNegative() (lisp.Value, error) {
	if !p.Accept(token.NEGATIVE) {
		return nil, p.errorf("invalid negative: %v", p.PeekType())
	}
	x, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case int:
		return -x, nil
	case float64:
		return -x, nil
	}
	return nil, p.errorf("invalid negative literal")
}

func (p *Parser) ParseSymbol() (lisp.Value, error) {
	if !p.Accept(token.SYMBOL) {
		return nil, p.errorf("invalid symbol: %v", p.PeekType())
	}
	text := p.TokenText()
	switch text {
	case lisp.TrueSymbol:
		return true, nil
	case lisp.FalseSymbol:
		return false, nil
	case lisp.NullSymbol:
		return nil, nil
	}
	pieces := strings.Split(text, ":")
	switch {
	case len(pieces) > 2:
		return nil, p.errorf("invalid symbol %q", text)
	case len(pieces) == 2 && pieces[1] == "":
		return nil, p.errorf("invalid symbol %q", text)
	}
	return p.in.Intern(text), nil
}

// parseSeq parses expressions until the closing delimiter of the current
// token.
func (p *Parser) parseSeq() ([]lisp.Value, error) {
	open := p.src.Token
	closing, _ := open.Type.Closing()
	var items []lisp.Value
	for {
		p.ignoreComments()
		if p.src.IsEOF() {
			return nil, token.Errorf(open.Source, "unmatched %s", open.Text)
		}
		if p.Accept(closing) {
			return items, nil
		}
		x, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, x)
	}
}

func (p *Parser) ParseConsExpression() (lisp.Value, error) {
	if !p.Accept(token.PAREN_L) {
		return nil, p.errorf("invalid list: %v", p.PeekType())
	}
	loc := p.Location()
	items, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	list := lisp.List(items...)
	list.Source = loc
	return list, nil
}

func (p *Parser) ParseVector() (lisp.Value, error) {
	if !p.Accept(token.BRACKET_L) {
		return nil, p.errorf("invalid vector: %v", p.PeekType())
	}
	items, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	return lisp.NewVector(items...), nil
}

func (p *Parser) ParseMap() (lisp.Value, error) {
	if !p.Accept(token.BRACE_L) {
		return nil, p.errorf("invalid map: %v", p.PeekType())
	}
	loc := p.Location()
	items, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, token.Errorf(loc, "map literal has an odd number of elements")
	}
	m := lisp.NewMap()
	for i := 0; i < len(items); i += 2 {
		if err := m.Set(items[i], items[i+1]); err != nil {
			return nil, token.Errorf(loc, "%v", err)
		}
	}
	return m, nil
}

func (p *Parser) ignoreComments() {
	for p.Accept(token.COMMENT) {
	}
}

func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) errorf(format string, v ...interface{}) error {
	loc := p.PeekLocation()
	if p.src.Token != nil {
		loc = p.Location()
	}
	return token.Errorf(loc, format, v...)
}
