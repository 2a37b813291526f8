// Copyright © 2018 The ELPS authors

package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/luthersystems/kiln/parser/token"
)

// LexFn is a lexer state.  It returns the next tokens in the stream.
type LexFn func(*Lexer) []*token.Token

const (
	miscWordRunes   = "0123456789" + miscWordSymbols
	miscWordSymbols = "._+-*/=<>!&~%?$^|"
)

// Lexer produces tokens from a scanner.
type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
}

// New returns a Lexer reading from s.
func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
	return lex
}

// ReadToken returns the next tokens in the stream.  At the end of the stream
// ReadToken returns a token with type token.EOF.
func (lex *Lexer) ReadToken() []*token.Token {
	return lex.lex(lex)
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		if err := lex.scanner.Err(); err != nil {
			return lex.emitError(err, false)
		}
	}
	switch lex.scanner.Rune() {
	case '(':
		return lex.charToken(token.PAREN_L)
	case ')':
		return lex.charToken(token.PAREN_R)
	case '[':
		return lex.charToken(token.BRACKET_L)
	case ']':
		return lex.charToken(token.BRACKET_R)
	case '{':
		return lex.charToken(token.BRACE_L)
	case '}':
		return lex.charToken(token.BRACE_R)
	case '\'':
		return lex.charToken(token.QUOTE)
	case '`':
		return lex.charToken(token.BACKQUOTE)
	case ',':
		if lex.scanner.AcceptRune('@') {
			return lex.charToken(token.COMMA_AT)
		}
		return lex.charToken(token.COMMA)
	case ':':
		return lex.readSymbol()
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case '#':
		_ = lex.scanner.ScanRune()
		if err := lex.scanner.Err(); err != nil {
			return lex.emitError(err, false)
		}
		switch lex.scanner.Rune() {
		case '!':
			tok := lex.emitText(token.HASH_BANG)
			lex.lex = (*Lexer).readHashBang
			return tok
		case 'o', 'O':
			tok := lex.emitText(token.INT_OCTAL_MACRO)
			lex.lex = (*Lexer).readOctalLiteral
			return lex.emitMacroChar(tok)
		case 'x', 'X':
			tok := lex.emitText(token.INT_HEX_MACRO)
			lex.lex = (*Lexer).readHexLiteral
			return lex.emitMacroChar(tok)
		default:
			lex.scanner.Ignore()
			return lex.errorf("invalid dispatch macro character %q", lex.scanner.Rune())
		}
	case '-':
		if isDigit(lex.peekRune()) {
			return lex.emitText(token.NEGATIVE)
		}
		return lex.readSymbol()
	case '"':
		return lex.readString()
	default:
		if isDigit(lex.scanner.Rune()) {
			return lex.readNumber()
		}
		if isWordStart(lex.scanner.Rune()) {
			return lex.readSymbol()
		}
		err := fmt.Errorf("unexpected text starting with %q", lex.scanner.Rune())
		return lex.emit(token.INVALID, err.Error())
	}
}

func (lex *Lexer) readString() []*token.Token {
	if lex.scanner.AcceptRune('"') {
		if !lex.scanner.AcceptRune('"') {
			return lex.emitText(token.STRING)
		}
		return lex.readRawString()
	}
	for {
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			if err := lex.scanner.Err(); err != nil {
				return lex.errorf("scan failure: %v", err)
			}
			return lex.errorf("unterminated string literal")
		}
		switch lex.scanner.Rune() {
		case '"':
			return lex.emitText(token.STRING)
		case '\n':
			return lex.errorf("unterminated string literal")
		case '\\':
			// The escape is checked by the parser.
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.errorf("unterminated string literal")
			}
		}
	}
}

func (lex *Lexer) readRawString() []*token.Token {
	for {
		if _, ok := lex.scanner.AcceptString(`"""`); ok {
			return lex.emitText(token.STRING_RAW)
		}
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			return lex.errorf("unterminated raw-string literal")
		}
	}
}

func (lex *Lexer) resetState() {
	lex.lex = (*Lexer).readToken
}

func (lex *Lexer) emitMacroChar(tok []*token.Token) []*token.Token {
	if unicode.IsSpace(lex.peekRune()) {
		lex.resetState()
		return lex.errorf("whitespace following %s", tok[0].Text)
	}
	return tok
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) emitError(err error, expectEOF bool) []*token.Token {
	if err == io.EOF {
		if expectEOF {
			return lex.emit(token.EOF, "")
		}
		return lex.emit(token.ERROR, "unexpected EOF")
	}
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emitError(fmt.Errorf(format, v...), false)
}

func (lex *Lexer) charToken(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) readHashBang() []*token.Token {
	lex.resetState()
	lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
	return lex.emitText(token.COMMENT)
}

func (lex *Lexer) readSymbol() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	if lex.scanner.AcceptRune(':') {
		// Qualified names like string:upper.  Malformed names are reported
		// by the parser.
		return lex.readSymbol()
	}
	return lex.emitText(token.SYMBOL)
}

func (lex *Lexer) readOctalLiteral() []*token.Token {
	lex.resetState()
	n := lex.scanner.AcceptSeq(func(c rune) bool {
		return '0' <= c && c <= '7'
	})
	if n == 0 || isWord(lex.peekRune()) {
		return lex.errorf("invalid octal literal character: %q", lex.peekRune())
	}
	return lex.emitText(token.INT_OCTAL)
}

func (lex *Lexer) readHexLiteral() []*token.Token {
	lex.resetState()
	n := lex.scanner.AcceptSeq(isHexDigit)
	if n == 0 || isWord(lex.peekRune()) {
		return lex.errorf("invalid hexadecimal literal character: %q", lex.peekRune())
	}
	return lex.emitText(token.INT_HEX)
}

func (lex *Lexer) readNumber() []*token.Token {
	lex.scanner.AcceptSeqDigit() // the first digit already scanned
	switch {
	case lex.scanner.AcceptRune('.'):
		return lex.readFloatFraction()
	case lex.scanner.AcceptAny("eE"):
		return lex.readFloatExponent()
	default:
		// The text may overflow int.  The parser reports that.
		return lex.emitText(token.INT)
	}
}

func (lex *Lexer) readFloatFraction() []*token.Token {
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	if lex.scanner.AcceptAny("eE") {
		return lex.readFloatExponent()
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) readFloatExponent() []*token.Token {
	lex.scanner.AcceptAny("+-")
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		lex.scanner.Ignore()
	}
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(miscWordSymbols, c)
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(miscWordRunes, c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
