// Copyright © 2018 The ELPS authors

package parser

import (
	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/rdparser"
	"github.com/luthersystems/kiln/parser/regexparser"
)

// Option configures the reader returned by NewReader.
type Option func(*config)

type config struct {
	combinator bool
}

// WithCombinatorReader selects the parser-combinator reader in place of the
// default recursive descent reader.
func WithCombinatorReader() Option {
	return func(c *config) {
		c.combinator = true
	}
}

// NewReader returns a new lisp.Reader
func NewReader(opts ...Option) lisp.Reader {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.combinator {
		return regexparser.NewReader()
	}
	return rdparser.NewReader()
}
