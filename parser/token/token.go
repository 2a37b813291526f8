// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Token is a lexeme of kiln source text.
type Token struct {
	Type   Type
	Text   string
	Source *Location
}

// Type classifies a Token.
type Type uint

// Type constants used for the kiln lexer/parser.  These constants aren't
// necessary to use the package.
const (
	INVALID Type = iota
	ERROR
	EOF

	HASH_BANG

	// Atomic expressions & literals
	SYMBOL
	INT
	INT_OCTAL_MACRO
	INT_OCTAL
	INT_HEX_MACRO
	INT_HEX
	FLOAT
	STRING
	STRING_RAW

	COMMENT

	// Operators
	NEGATIVE // arithmetic negation is parsed specially
	QUOTE
	BACKQUOTE
	COMMA
	COMMA_AT

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	BRACE_L
	BRACE_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:         "invalid",
		ERROR:           "error",
		EOF:             "EOF",
		HASH_BANG:       "#!",
		SYMBOL:          "symbol",
		INT:             "int",
		INT_OCTAL_MACRO: "#o",
		INT_OCTAL:       "octal",
		INT_HEX_MACRO:   "#x",
		INT_HEX:         "hex",
		FLOAT:           "float",
		STRING:          "string",
		STRING_RAW:      "raw-string",
		COMMENT:         ";",
		NEGATIVE:        "-",
		QUOTE:           "'",
		BACKQUOTE:       "`",
		COMMA:           ",",
		COMMA_AT:        ",@",
		PAREN_L:         "(",
		PAREN_R:         ")",
		BRACKET_L:       "[",
		BRACKET_R:       "]",
		BRACE_L:         "{",
		BRACE_R:         "}",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Closing returns the delimiter that closes an opening delimiter.
func (typ Type) Closing() (Type, bool) {
	switch typ {
	case PAREN_L:
		return PAREN_R, true
	case BRACKET_L:
		return BRACKET_R, true
	case BRACE_L:
		return BRACE_R, true
	}
	return INVALID, false
}

// Location is a position in source text.  Line and Col are zero when not
// tracked, and Pos is negative when the position is unknown.
type Location struct {
	File string // a name representing the source stream
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// LocationError is an error in source text.
type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}

// Errorf returns a LocationError at loc.
func Errorf(loc *Location, format string, v ...interface{}) *LocationError {
	return &LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: loc,
	}
}
