// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/kiln/parser/lexer"
	"github.com/luthersystems/kiln/parser/token"
)

// TokenStream produces the tokens read by a TokenSource.  A *lexer.Lexer is
// the usual stream; the REPL supplies tokens one line at a time.
type TokenStream interface {
	// ReadToken returns at least one token.  At the end of input it returns
	// a token.EOF token, and after an input error a token.ERROR token, on
	// every call.
	ReadToken() []*token.Token
}

// TokenGenerator is a function that implements TokenStream.
type TokenGenerator func() []*token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() []*token.Token {
	return fn()
}

// TokenSource gives a parser one token of lookahead over a TokenStream.
// Token is the token most recently scanned.
type TokenSource struct {
	stream  TokenStream
	Token   *token.Token
	pending []*token.Token
}

// NewTokenStreamSource returns a TokenSource reading from stream.
func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{stream: stream}
}

// NewTokenSource returns a TokenSource that lexes the text of scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return NewTokenStreamSource(lexer.New(scanner))
}

// Peek returns the next token without scanning it.
func (s *TokenSource) Peek() *token.Token {
	for len(s.pending) == 0 {
		s.pending = s.stream.ReadToken()
	}
	return s.pending[0]
}

// AcceptType scans the next token if it has one of the given types.
func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	next := s.Peek().Type
	for _, t := range typ {
		if next == t {
			s.scan()
			return true
		}
	}
	return false
}

// Scan scans the next token.  At the end of input Token is set to the EOF
// token and Scan returns false.
func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

// IsEOF returns true if the next token ends the input.
func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.pending = s.pending[1:]
}
