// Copyright © 2018 The ELPS authors

package lisp

// Version is the kiln language version reported by tools.
const Version = "0.4.0"

// TrueSymbol and FalseSymbol are read as the boolean values true and false.
// Anything other than null and false is considered true by forms expecting a
// boolean.
const (
	TrueSymbol  = "true"
	FalseSymbol = "false"
	NullSymbol  = "null"
)

// MetaArgPrefix is the prefix of lambda list keywords.  A symbol beginning
// with MetaArgPrefix in a formal argument list must be one of the modifiers
// below.
const MetaArgPrefix = "&"

// Lambda list modifiers.  At most one of the rest style modifiers (&rest,
// &body, &params, &vector) may appear and it must declare the final
// parameter.
const (
	OptArgSymbol    = "&optional"
	KeyArgSymbol    = "&key"
	VarArgSymbol    = "&rest"
	BodyArgSymbol   = "&body"
	ParamsArgSymbol = "&params"
	VectorArgSymbol = "&vector"
)

// DynamicSigil prefixes the names of special (dynamically scoped)
// variables.
const DynamicSigil = "$"

// KeywordPrefix prefixes self evaluating keyword symbols.
const KeywordPrefix = ":"

// PlaceholderSymbol is the implicit argument name used by threading macros.
// It can never be declared as a variable.
const PlaceholderSymbol = "~"

// ErrorSymbol names the variable the REPL binds to the last uncaught error.
const ErrorSymbol = "$error"

// Names of the quoting forms produced by the reader.
const (
	QuoteSymbol           = "quote"
	QuasiquoteSymbol      = "quasiquote"
	UnquoteSymbol         = "unquote"
	UnquoteSplicingSymbol = "unquote-splicing"
)
