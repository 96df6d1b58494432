package parser

// ScopeKind distinguishes the binding behavior of each lexical scope.
// Blocks and for-loops can see the locals of their enclosing scope;
// method, class and module bodies start fresh.
type ScopeKind int

const (
	ScopeTop ScopeKind = iota
	ScopeClass
	ScopeMethod
	ScopeBlock
	ScopeFor
)

type scope struct {
	kind   ScopeKind
	locals map[string]bool
}

type scopeStack struct {
	scopes []*scope
}

func newScopeStack() *scopeStack {
	s := &scopeStack{}
	s.push(ScopeTop)
	return s
}

func (s *scopeStack) push(kind ScopeKind) {
	s.scopes = append(s.scopes, &scope{kind: kind, locals: map[string]bool{}})
}

func (s *scopeStack) pop() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// declareLocal records a new local in the innermost scope that can hold
// one. A for-loop does not introduce bindings of its own: its variables
// belong to the surrounding scope.
func (s *scopeStack) declareLocal(name string) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].kind == ScopeFor {
			continue
		}
		s.scopes[i].locals[name] = true
		return
	}
}

// isLocal reports whether name is bound as a local variable at this point.
// The walk outward passes through block and for scopes but stops at the
// first method, class or top-level scope, which is opaque.
func (s *scopeStack) isLocal(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sc.locals[name] {
			return true
		}
		switch sc.kind {
		case ScopeMethod, ScopeClass, ScopeTop:
			return false
		}
	}
	return false
}

// inMethod reports whether the innermost opaque scope is a method body.
// Used to reject class definitions and to validate control flow keywords.
func (s *scopeStack) inMethod() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		switch s.scopes[i].kind {
		case ScopeMethod:
			return true
		case ScopeClass, ScopeTop:
			return false
		}
	}
	return false
}

// inClassBody reports whether the parse position is directly inside a
// class or module body. `return` is a syntax error there, but not inside
// a block, where it becomes a runtime concern.
func (s *scopeStack) inClassBody() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		switch s.scopes[i].kind {
		case ScopeClass:
			return true
		case ScopeMethod, ScopeTop, ScopeBlock:
			return false
		}
	}
	return false
}
