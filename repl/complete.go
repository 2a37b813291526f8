// Copyright © 2018 The ELPS authors

package repl

import (
	"strings"

	"github.com/luthersystems/kiln/lisp"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the
// defined symbols of a registry.
type symbolCompleter struct {
	reg *lisp.Registry
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '[' || ch == '\'' || ch == '\n' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}
	var result [][]rune
	for _, name := range c.collectSymbols(prefix) {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

// collectSymbols returns the sorted names of defined symbols and special
// forms that begin with prefix.
func (c *symbolCompleter) collectSymbols(prefix string) []string {
	var result []string
	for _, sym := range c.reg.Symbols() {
		if !strings.HasPrefix(sym.Name, prefix) {
			continue
		}
		if sym.IsDefined() || sym.SpecialForm != nil {
			result = append(result, sym.Name)
		}
	}
	return result
}
