// Copyright © 2018 The ELPS authors

package lisp

// StorageClass is where a resolved variable lives at runtime.
type StorageClass int

// Possible StorageClass values.
const (
	// NativeStorage variables are slots in the locals of the current
	// activation.  They cannot be referenced by closures.
	NativeStorage StorageClass = iota
	// FramedStorage variables are slots in a heap allocated Frame.
	FramedStorage
	// DynamicStorage variables are special variables looked up in the
	// thread's binding chain before the global cell.
	DynamicStorage
	// GlobalStorage variables are symbol value cells.
	GlobalStorage
)

func (c StorageClass) String() string {
	switch c {
	case NativeStorage:
		return "native"
	case FramedStorage:
		return "framed"
	case DynamicStorage:
		return "dynamic"
	case GlobalStorage:
		return "global"
	}
	return "unknown"
}

// VarFlags modify a declared variable.
type VarFlags int

// Possible VarFlags.
const (
	VarReadonly VarFlags = 1 << iota
)

// LocalVariable is a lexical variable declared in a block scope.
type LocalVariable struct {
	Symbol   *Symbol
	Readonly bool
	// Index is a slot in the activation locals for native variables and an
	// index into the scope's Frame for framed variables.
	Index int
	Scope *AnalysisScope
}

// Resolution is the storage location a symbol reference resolves to.
type Resolution struct {
	Class  StorageClass
	Var    *LocalVariable
	Depth  int // framed scopes between the reference and the declaration
	Symbol *Symbol
}

// unitInfo counts the native slots of one compiled activation (a lambda
// body or a top-level form).
type unitInfo struct {
	nlocals int
}

func (u *unitInfo) alloc() int {
	u.nlocals++
	return u.nlocals - 1
}

// AnalysisScope is the compile-time lexical environment.  Scopes are
// created fresh for every compilation attempt so that discarding an
// optimistic attempt leaves no trace.
type AnalysisScope struct {
	Parent *AnalysisScope
	Names  []*Symbol

	IsLambda       bool
	IsBlockScope   bool
	IsTagBodyScope bool
	IsFileScope    bool
	// Framed scopes store their variables in a Frame pushed on entry.
	Framed bool

	Tags        map[Value]*tagLabel
	ReturnLabel *returnLabel

	UsesDynamicVariables bool
	UsesFramedVariables  bool
	UsesReturn           bool

	// Captured holds variables of this scope referenced across a lambda
	// boundary.  A non-empty set after an optimistic attempt forces a
	// framed recompile.
	Captured map[*Symbol]bool

	vars       []*LocalVariable
	needsFrame bool
	unit       *unitInfo
}

func newRootScope(file bool) *AnalysisScope {
	return &AnalysisScope{
		IsFileScope: file,
		unit:        &unitInfo{},
	}
}

func (s *AnalysisScope) currentUnit() *unitInfo {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.unit != nil {
			return sc.unit
		}
	}
	return nil
}

// BlockScope returns the innermost block scope enclosing s, stopping at a
// lambda boundary.
func (s *AnalysisScope) BlockScope() *AnalysisScope {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.IsBlockScope {
			return sc
		}
		if sc.IsLambda {
			return nil
		}
	}
	return nil
}

func (s *AnalysisScope) lookup(sym *Symbol) *LocalVariable {
	for i := len(s.vars) - 1; i >= 0; i-- {
		if s.vars[i].Symbol == sym {
			return s.vars[i]
		}
	}
	return nil
}

// Declare introduces sym in block scope s.
func (s *AnalysisScope) Declare(sym *Symbol, flags VarFlags) (*LocalVariable, error) {
	if !s.IsBlockScope {
		return nil, compileErrorf(sym, "declaration outside of a block scope")
	}
	if sym.Name == PlaceholderSymbol {
		return nil, compileErrorf(sym, "cannot declare the placeholder variable")
	}
	if sym.IsKeyword() || sym.IsDynamic() {
		return nil, compileErrorf(sym, "not a lexical variable name")
	}
	if s.lookup(sym) != nil {
		return nil, compileErrorf(sym, "duplicate declaration of %s", sym.Name)
	}
	v := &LocalVariable{
		Symbol:   sym,
		Readonly: flags&VarReadonly != 0,
		Scope:    s,
	}
	if s.Framed {
		v.Index = len(s.vars)
	} else {
		v.Index = s.currentUnit().alloc()
	}
	s.vars = append(s.vars, v)
	s.Names = append(s.Names, sym)
	return v, nil
}

// IsShadowed returns true if a lexical declaration of sym is visible from s.
// Unlike Resolve it records no captures.
func (s *AnalysisScope) IsShadowed(sym *Symbol) bool {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.lookup(sym) != nil {
			return true
		}
	}
	return false
}

// Resolve finds the storage for a reference to sym from s.
func (s *AnalysisScope) Resolve(sym *Symbol) Resolution {
	depth := 0
	var crossed []*AnalysisScope
	for sc := s; sc != nil; sc = sc.Parent {
		if v := sc.lookup(sym); v != nil {
			if len(crossed) > 0 {
				if sc.Captured == nil {
					sc.Captured = make(map[*Symbol]bool)
				}
				sc.Captured[sym] = true
			}
			if sc.Framed {
				for _, lam := range crossed {
					lam.UsesFramedVariables = true
				}
				return Resolution{Class: FramedStorage, Var: v, Depth: depth, Symbol: sym}
			}
			return Resolution{Class: NativeStorage, Var: v, Symbol: sym}
		}
		if sc.Framed {
			depth++
		}
		if sc.IsLambda {
			crossed = append(crossed, sc)
		}
	}
	if sym.IsDynamic() {
		s.markDynamic()
		return Resolution{Class: DynamicStorage, Symbol: sym}
	}
	return Resolution{Class: GlobalStorage, Symbol: sym}
}

func (s *AnalysisScope) markDynamic() {
	if b := s.BlockScope(); b != nil {
		b.UsesDynamicVariables = true
	}
}

// FindTag returns the goto target named label.  The search stops at the
// nearest lambda boundary.
func (s *AnalysisScope) FindTag(label Value) *tagLabel {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.IsTagBodyScope {
			if tag, ok := sc.Tags[label]; ok {
				return tag
			}
		}
		if sc.IsLambda {
			return nil
		}
	}
	return nil
}

// FindLambda returns the nearest enclosing lambda scope, or nil.
func (s *AnalysisScope) FindLambda() *AnalysisScope {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.IsLambda {
			return sc
		}
	}
	return nil
}

// FileScope returns the root scope if it belongs to a file being loaded.
func (s *AnalysisScope) FileScope() *AnalysisScope {
	sc := s
	for sc.Parent != nil {
		sc = sc.Parent
	}
	if sc.IsFileScope {
		return sc
	}
	return nil
}

// requireFrames forces every enclosing scope to use framed storage and
// every enclosing lambda to keep its defining frame chain, so that the
// complete lexical environment is reachable from the current frame.
func (s *AnalysisScope) requireFrames() {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.IsBlockScope {
			sc.needsFrame = true
		}
		if sc.IsLambda {
			sc.UsesFramedVariables = true
		}
	}
}

// mustRecompile returns true if an optimistic attempt discovered that the
// scope needs framed storage.
func (s *AnalysisScope) mustRecompile() bool {
	return !s.Framed && (len(s.Captured) > 0 || s.needsFrame)
}

func (s *AnalysisScope) capturedNames() []string {
	var names []string
	for _, v := range s.vars {
		if s.Captured[v.Symbol] {
			names = append(names, v.Symbol.Name)
		}
	}
	return names
}
