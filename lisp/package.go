// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Interner maps names to unique symbols.  Readers intern every symbol they
// produce.
type Interner interface {
	Intern(name string) *Symbol
}

// Registry is a symbol table.  Independent runtimes own independent
// registries.  The table itself is safe for concurrent use but the value
// cells of the symbols it contains are not.
type Registry struct {
	mut     sync.RWMutex
	symbols map[string]*Symbol
	gensym  uint64
}

var _ Interner = (*Registry)(nil)

// NewRegistry initializes and returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		symbols: make(map[string]*Symbol),
	}
}

// Intern returns the unique symbol with the given name, creating it if
// necessary.
func (r *Registry) Intern(name string) *Symbol {
	r.mut.RLock()
	sym, ok := r.symbols[name]
	r.mut.RUnlock()
	if ok {
		return sym
	}
	r.mut.Lock()
	defer r.mut.Unlock()
	sym, ok = r.symbols[name]
	if ok {
		return sym
	}
	sym = newSymbol(name)
	r.symbols[name] = sym
	return sym
}

// Lookup returns the symbol with the given name if it has been interned.
func (r *Registry) Lookup(name string) (*Symbol, bool) {
	r.mut.RLock()
	defer r.mut.RUnlock()
	sym, ok := r.symbols[name]
	return sym, ok
}

// Symbols returns all interned symbols sorted by name.
func (r *Registry) Symbols() []*Symbol {
	r.mut.RLock()
	defer r.mut.RUnlock()
	syms := make([]*Symbol, 0, len(r.symbols))
	for _, name := range sortedKeys(r.symbols) {
		syms = append(syms, r.symbols[name])
	}
	return syms
}

// Gensym returns a new uninterned symbol whose name begins with prefix.
func (r *Registry) Gensym(prefix string) *Symbol {
	n := atomic.AddUint64(&r.gensym, 1)
	return newSymbol(fmt.Sprintf("%s%d", prefix, n))
}
