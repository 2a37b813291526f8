// Copyright © 2018 The ELPS authors

/*
Package regexparser provides a lisp reader built from parser combinators.

	expr     := <list> | <vector> | <map> | <quoted> | <term>
	list     := '(' <expr>* ')'
	vector   := '[' <expr>* ']'
	map      := '{' <expr>* '}'
	quoted   := ( '\'' | '`' | ',@' | ',' ) <expr>
	term     := <rawstring> | <string> | <hex> | <octal> | <number> | <symbol>
	number   := /-?[0-9]+/ <fraction>? <exponent>?
	fraction := '.' /[0-9]+/
	exponent := e /[+-]?[0-9]+/

The reader is slower than rdparser and reports less precise errors.
*/
package regexparser

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/token"
	parsec "github.com/prataprc/goparsec"
)

// NewReader returns a lisp.Reader.
func NewReader() lisp.Reader {
	return &parsecReader{}
}

type parsecReader struct{}

func (p *parsecReader) Read(in lisp.Interner, name string, r io.Reader) ([]lisp.Value, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(in, name, b)
}

// term wraps a parsed value so that the empty list is distinguishable from a
// failed match.
type term struct {
	v lisp.Value
}

type builder struct {
	in    lisp.Interner
	file  string
	lines []int // byte offsets of line starts
}

func newBuilder(in lisp.Interner, file string, text []byte) *builder {
	b := &builder{
		in:    in,
		file:  file,
		lines: []int{0},
	}
	for i, c := range text {
		if c == '\n' {
			b.lines = append(b.lines, i+1)
		}
	}
	return b
}

// location converts a byte offset to a source location.
func (b *builder) location(pos int) *token.Location {
	line := sort.SearchInts(b.lines, pos+1) - 1
	return &token.Location{
		File: b.file,
		Pos:  pos,
		Line: line + 1,
		Col:  pos - b.lines[line] + 1,
	}
}

// Parse parses values from text.  Symbols are interned with in.
func Parse(in lisp.Interner, name string, text []byte) ([]lisp.Value, error) {
	b := newBuilder(in, name, text)
	var vals []lisp.Value
	s := parsec.NewScanner(text)
	expr := b.parser()
	root, s := expr(s)
	for root != nil {
		nodes, err := flatten(root)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			vals = append(vals, n.v)
		}
		root, s = expr(s)
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		pos := s.GetCursor()
		rest, _ := s.Match(`[^\n]{1,16}`)
		if len(rest) > 15 {
			rest = append(rest[:15:15], []byte("...")...)
		}
		return nil, token.Errorf(b.location(pos), "unable to parse source text starting: %s", rest)
	}
	return vals, nil
}

func (b *builder) parser() parsec.Parser {
	openP := parsec.Atom("(", "OPENP")
	closeP := parsec.Atom(")", "CLOSEP")
	openB := parsec.Atom("[", "OPENB")
	closeB := parsec.Atom("]", "CLOSEB")
	openC := parsec.Atom("{", "OPENC")
	closeC := parsec.Atom("}", "CLOSEC")
	quote := parsec.Atom("'", "QUOTE")
	backquote := parsec.Atom("`", "BACKQUOTE")
	commaAt := parsec.Atom(",@", "COMMA_AT")
	comma := parsec.Atom(",", "COMMA")
	rawstring := parsec.Token(`"""(?:[^"]|"[^"]|""[^"])*"""`, "RAWSTRING")
	comment := parsec.Token(`;[^\n]*`, "COMMENT")
	hex := parsec.Token(`#[xX][0-9a-fA-F]+`, "HEX")
	octal := parsec.Token(`#[oO][0-7]+`, "OCTAL")
	decimal := parsec.Token(`-?[0-9]+([.][0-9]+)?([eE][+-]?[0-9]+)?`, "DECIMAL")
	symbol := parsec.Token(`(?:\pL|[._+\-*/=<>!&~%?$^|:])(?:\pL|[0-9]|[._+\-*/=<>!&~%?$^|:])*`, "SYMBOL")

	term := parsec.OrdChoice(b.termNode,
		rawstring,
		parsec.String(),
		hex,
		octal,
		decimal,
		symbol, // symbol comes last because it swallows anything
	)
	var expr parsec.Parser // forward declaration allows for recursive parsing
	exprList := parsec.Kleene(nil, &expr)
	list := parsec.And(b.seqNode(listKind), openP, exprList, closeP)
	vector := parsec.And(b.seqNode(vectorKind), openB, exprList, closeB)
	hashMap := parsec.And(b.seqNode(mapKind), openC, exprList, closeC)
	quoted := parsec.And(b.quoteNode, parsec.OrdChoice(nil, quote, backquote, commaAt, comma), &expr)
	expr = parsec.OrdChoice(nil,
		comment,
		term,
		list,
		vector,
		hashMap,
		quoted,
	)
	return expr
}

func (b *builder) termNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	switch t := nodes[0].(type) {
	case string:
		return &term{unquoteString(t)}
	case *parsec.Terminal:
		v, err := b.terminal(t)
		if err != nil {
			return err
		}
		return &term{v}
	}
	return fmt.Errorf("unexpected node: %T", nodes[0])
}

func (b *builder) terminal(t *parsec.Terminal) (lisp.Value, error) {
	switch t.Name {
	case "RAWSTRING":
		return t.Value[3 : len(t.Value)-3], nil
	case "HEX", "OCTAL":
		base := 16
		if t.Name == "OCTAL" {
			base = 8
		}
		x, err := strconv.ParseInt(t.Value[2:], base, 0)
		if err != nil {
			return nil, token.Errorf(b.location(t.Position), "bad number: %s", t.Value)
		}
		return int(x), nil
	case "DECIMAL":
		if strings.ContainsAny(t.Value, ".eE") {
			f, err := strconv.ParseFloat(t.Value, 64)
			if err != nil {
				return nil, token.Errorf(b.location(t.Position), "bad number: %s", t.Value)
			}
			return f, nil
		}
		x, err := strconv.Atoi(t.Value)
		if err != nil {
			return nil, token.Errorf(b.location(t.Position), "bad number: %s", t.Value)
		}
		return x, nil
	case "SYMBOL":
		switch t.Value {
		case lisp.TrueSymbol:
			return true, nil
		case lisp.FalseSymbol:
			return false, nil
		case lisp.NullSymbol:
			return nil, nil
		}
		pieces := strings.Split(t.Value, ":")
		if len(pieces) > 2 || (len(pieces) == 2 && pieces[1] == "") {
			return nil, token.Errorf(b.location(t.Position), "invalid symbol %q", t.Value)
		}
		return b.in.Intern(t.Value), nil
	}
	return nil, token.Errorf(b.location(t.Position), "unexpected terminal: %s", t.Name)
}

type seqKind uint

const (
	listKind seqKind = iota
	vectorKind
	mapKind
)

func (b *builder) seqNode(kind seqKind) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		open := nodes[0].(*parsec.Terminal)
		loc := b.location(open.Position)
		items, err := flatten(nodes[1 : len(nodes)-1])
		if err != nil {
			return err
		}
		vals := make([]lisp.Value, len(items))
		for i := range items {
			vals[i] = items[i].v
		}
		switch kind {
		case vectorKind:
			return &term{lisp.NewVector(vals...)}
		case mapKind:
			if len(vals)%2 != 0 {
				return token.Errorf(loc, "map literal has an odd number of elements")
			}
			m := lisp.NewMap()
			for i := 0; i < len(vals); i += 2 {
				if err := m.Set(vals[i], vals[i+1]); err != nil {
					return token.Errorf(loc, "%v", err)
				}
			}
			return &term{m}
		}
		if len(vals) == 0 {
			return &term{nil}
		}
		list := lisp.List(vals...)
		list.Source = loc
		return &term{list}
	}
}

func (b *builder) quoteNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	var mark *parsec.Terminal
	for _, n := range terminals(nodes[0]) {
		mark = n
	}
	items, err := flatten(nodes[1:])
	if err != nil {
		return err
	}
	if mark == nil || len(items) != 1 {
		return fmt.Errorf("malformed quoted expression")
	}
	name := map[string]string{
		"QUOTE":     lisp.QuoteSymbol,
		"BACKQUOTE": lisp.QuasiquoteSymbol,
		"COMMA_AT":  lisp.UnquoteSplicingSymbol,
		"COMMA":     lisp.UnquoteSymbol,
	}[mark.Name]
	form := lisp.List(b.in.Intern(name), items[0].v)
	form.Source = b.location(mark.Position)
	return &term{form}
}

// terminals returns the terminal nodes in n.
func terminals(n parsec.ParsecNode) []*parsec.Terminal {
	switch n := n.(type) {
	case *parsec.Terminal:
		return []*parsec.Terminal{n}
	case []parsec.ParsecNode:
		var ts []*parsec.Terminal
		for _, c := range n {
			ts = append(ts, terminals(c)...)
		}
		return ts
	}
	return nil
}

// flatten collects the values in a node tree, dropping comments and
// delimiters.  The first error node encountered is returned.
func flatten(n parsec.ParsecNode) ([]*term, error) {
	switch n := n.(type) {
	case *term:
		return []*term{n}, nil
	case error:
		return nil, n
	case []parsec.ParsecNode:
		var items []*term
		for _, c := range n {
			cs, err := flatten(c)
			if err != nil {
				return nil, err
			}
			items = append(items, cs...)
		}
		return items, nil
	}
	return nil, nil
}

// The goparsec.String() parser unescapes the source text but the resulting
// node is wrapped in double quotes.
func unquoteString(s string) string {
	return s[1 : len(s)-1]
}
