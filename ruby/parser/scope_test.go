package parser

import "testing"

func TestScopeStackVisibility(t *testing.T) {
	s := newScopeStack()
	s.declareLocal("top")

	s.push(ScopeBlock)
	if !s.isLocal("top") {
		t.Errorf("block should see enclosing locals")
	}
	s.declareLocal("inner")
	s.pop()
	if s.isLocal("inner") {
		t.Errorf("block locals must not leak out")
	}

	s.push(ScopeMethod)
	if s.isLocal("top") {
		t.Errorf("method must not see enclosing locals")
	}
	s.declareLocal("arg")
	if !s.isLocal("arg") {
		t.Errorf("method should see its own locals")
	}
	s.pop()

	s.push(ScopeClass)
	if s.isLocal("top") {
		t.Errorf("class body must not see enclosing locals")
	}
	s.pop()
}

func TestScopeStackForLoop(t *testing.T) {
	s := newScopeStack()
	s.push(ScopeFor)
	s.declareLocal("i")
	s.pop()
	// for-loop variables land in the enclosing scope
	if !s.isLocal("i") {
		t.Errorf("for variable should survive the loop")
	}
}

func TestScopeStackNestedBlocks(t *testing.T) {
	s := newScopeStack()
	s.push(ScopeMethod)
	s.declareLocal("m")
	s.push(ScopeBlock)
	s.push(ScopeBlock)
	if !s.isLocal("m") {
		t.Errorf("nested blocks should see through to the method")
	}
	s.pop()
	s.pop()
	s.pop()
}

func TestScopeStackInMethod(t *testing.T) {
	s := newScopeStack()
	if s.inMethod() {
		t.Errorf("top level is not a method")
	}
	s.push(ScopeMethod)
	s.push(ScopeBlock)
	if !s.inMethod() {
		t.Errorf("a block inside a method is still in the method")
	}
	s.pop()
	s.pop()
	s.push(ScopeClass)
	if s.inMethod() {
		t.Errorf("a class body is not in a method")
	}
}
