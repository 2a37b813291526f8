// Copyright © 2018 The ELPS authors

package lisp

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/glycerine/blake2b"
	"github.com/luthersystems/kiln/parser/token"
)

// MultiMethod is a generic function.  Calls select the most specific method
// whose specializers accept the arguments.
type MultiMethod struct {
	Name      string
	Signature *Signature
	Doc       string

	mut     sync.RWMutex
	methods []*Lambda
}

// NewMultiMethod returns a generic function with no methods.
func NewMultiMethod(name string, sig *Signature, doc string) *MultiMethod {
	return &MultiMethod{Name: name, Signature: sig, Doc: doc}
}

func (g *MultiMethod) String() string {
	return "#<multimethod " + g.Name + " " + g.Signature.String() + ">"
}

// Methods returns the methods of g.
func (g *MultiMethod) Methods() []*Lambda {
	g.mut.RLock()
	defer g.mut.RUnlock()
	return append([]*Lambda(nil), g.methods...)
}

// AddMethod adds m to g, replacing any method with identical specializers.
// The method must agree with the generic function on the number of
// required parameters and the rest modifier.
func (g *MultiMethod) AddMethod(m *Lambda) error {
	if err := g.checkCongruent(m.Signature); err != nil {
		return err
	}
	key := m.specializerKey()
	m.dispatchKey = hashKey(key)
	g.mut.Lock()
	defer g.mut.Unlock()
	for i, other := range g.methods {
		if other.specializerKey() == key {
			g.methods[i] = m
			return nil
		}
	}
	g.methods = append(g.methods, m)
	return nil
}

func (g *MultiMethod) checkCongruent(sig *Signature) error {
	gsig := g.Signature
	if len(sig.Required) != len(gsig.Required) {
		return fmt.Errorf("method of %s has %d required parameters (expected %d)", g.Name, len(sig.Required), len(gsig.Required))
	}
	if sig.Modifier != gsig.Modifier {
		return fmt.Errorf("method of %s has lambda list modifier %q (expected %q)", g.Name, sig.Modifier, gsig.Modifier)
	}
	return nil
}

func (m *Lambda) specializerKey() string {
	parts := make([]string, len(m.Signature.Required))
	for i := range parts {
		var s *Specializer
		if i < len(m.Specializers) {
			s = m.Specializers[i]
		}
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// hashKey returns a stable 64-bit BLAKE2b hash of key.  It orders
// candidates that are otherwise equally specific.
func hashKey(key string) uint64 {
	h, err := blake2b.New(&blake2b.Config{Size: 8})
	if err != nil {
		panic(err)
	}
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// compareRanks orders two rank vectors lexicographically, breaking ties by
// key.
func compareRanks(a []int, akey uint64, b []int, bkey uint64) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case akey < bkey:
		return -1
	case akey > bkey:
		return 1
	}
	return 0
}

// Select returns the method of g that applies to args.
func (g *MultiMethod) Select(rt *Runtime, args []Value) (*Lambda, error) {
	nreq := len(g.Signature.Required)
	if len(args) < nreq {
		return nil, g.dispatchError(rt, args, "too few arguments")
	}
	var best *Lambda
	var bestRank []int
	g.mut.RLock()
	defer g.mut.RUnlock()
	for _, m := range g.methods {
		rank := make([]int, nreq)
		applicable := true
		for i := 0; i < nreq && applicable; i++ {
			var s *Specializer
			if i < len(m.Specializers) {
				s = m.Specializers[i]
			}
			rank[i], applicable = s.rank(rt, args[i])
		}
		if !applicable {
			continue
		}
		if best == nil || compareRanks(rank, m.dispatchKey, bestRank, best.dispatchKey) < 0 {
			best, bestRank = m, rank
		}
	}
	if best == nil {
		return nil, g.dispatchError(rt, args, "")
	}
	return best, nil
}

func (g *MultiMethod) dispatchError(rt *Runtime, args []Value, reason string) *DispatchError {
	return &DispatchError{
		Name:     g.Name,
		ArgTypes: argTypes(rt, args),
		Reason:   reason,
	}
}

func argTypes(rt *Runtime, args []Value) []string {
	types := make([]string, len(args))
	for i, v := range args {
		types[i] = rt.TypeOf(v).Name
	}
	return types
}

func (t *Thread) callMultiMethod(g *MultiMethod, args []Value, src *token.Location) (Value, error) {
	m, err := g.Select(t.Runtime, args)
	if err != nil {
		return nil, t.raise(err, src)
	}
	return t.callLambda(m, args, src)
}

// mergeKeys replaces the keyword parameters of a method signature with those
// of its generic function.  Defaults given by the method are kept.
func mergeKeys(method, generic *Signature) *Signature {
	if len(generic.Key) == 0 {
		return method
	}
	own := make(map[*Symbol]*Param, len(method.Key))
	for _, p := range method.Key {
		own[p.Symbol] = p
	}
	merged := *method
	merged.Key = make([]*Param, len(generic.Key))
	for i, p := range generic.Key {
		if mp, ok := own[p.Symbol]; ok && mp.Default != nil {
			merged.Key[i] = mp
		} else {
			merged.Key[i] = p
		}
	}
	return &merged
}
