package parser

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ParseProgram([]byte(src), WithFile("test.rb"))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func parseBroken(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ParseProgram([]byte(src), WithFile("test.rb"))
	if err == nil {
		t.Fatalf("parse %q: expected diagnostics", src)
	}
	return prog
}

func findNode(node *Node, kind NodeKind) *Node {
	if node == nil {
		return nil
	}
	if node.Kind == kind {
		return node
	}
	for _, child := range node.Children {
		if found := findNode(child, kind); found != nil {
			return found
		}
	}
	return nil
}

func collectNodes(node *Node, kind NodeKind) []*Node {
	var out []*Node
	node.Walk(func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

func hasError(node *Node) bool {
	return findNode(node, NodeError) != nil
}

func TestParsePrimaries(t *testing.T) {
	tests := []struct {
		input string
		kind  NodeKind
	}{
		{"42", NodeIntLiteral},
		{"3.14", NodeFloatLiteral},
		{"'hi'", NodeStringLiteral},
		{`"hi"`, NodeStringLiteral},
		{`"a#{b}c"`, NodeDString},
		{":sym", NodeSymbolLiteral},
		{"/re/", NodeRegexpLiteral},
		{"%w[a b]", NodeWordArray},
		{"%i[a b]", NodeSymbolArray},
		{"nil", NodeNilLiteral},
		{"true", NodeTrueLiteral},
		{"false", NodeFalseLiteral},
		{"self", NodeSelf},
		{"@x", NodeInstanceVariable},
		{"@@x", NodeClassVariable},
		{"$x", NodeGlobalVariable},
		{"Foo", NodeConstant},
		{"Foo::Bar", NodeConstPath},
		{"[1, 2]", NodeArrayLiteral},
		{"{a: 1}", NodeHashLiteral},
		{"1..10", NodeRange},
		{"1...10", NodeRange},
		{"x + y", NodeBinaryOp},
		{"!x", NodeUnaryOp},
		{"-x", NodeUnaryOp},
		{"a ? b : c", NodeTernary},
		{"a ? b:c", NodeTernary},
		{"x = 5", NodeAssign},
		{"x += 5", NodeOpAssign},
		{"x ||= 5", NodeOpAssign},
		{"defined?(x)", NodeDefined},
		{"-> { 1 }", NodeLambda},
		{"->(x) { x }", NodeLambda},
		{"super", NodeSuper},
		{"a&.b", NodeSafeCall},
		{"a[0]", NodeIndex},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := parse(t, tt.input)
			if len(prog.Root.Children) != 1 {
				t.Fatalf("got %d statements", len(prog.Root.Children))
			}
			if got := prog.Root.Children[0].Kind; got != tt.kind {
				t.Errorf("got %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestVariableResolution(t *testing.T) {
	// before assignment an identifier is a call, after it a variable
	prog := parse(t, "x = 1\nx")
	second := prog.Root.Children[1]
	if second.Kind != NodeLocalVariable {
		t.Errorf("after assignment: got %v, want LocalVariable", second.Kind)
	}

	prog = parse(t, "foo")
	if prog.Root.Children[0].Kind != NodeCall {
		t.Errorf("bare identifier: got %v, want Call", prog.Root.Children[0].Kind)
	}

	// resolution is per occurrence, left to right
	prog = parse(t, "x\nx = 1\nx")
	if prog.Root.Children[0].Kind != NodeCall {
		t.Errorf("before assignment: got %v, want Call", prog.Root.Children[0].Kind)
	}
	if prog.Root.Children[2].Kind != NodeLocalVariable {
		t.Errorf("after assignment: got %v, want LocalVariable", prog.Root.Children[2].Kind)
	}
}

func TestScopeBoundaries(t *testing.T) {
	// method bodies do not see outer locals
	prog := parse(t, "x = 1\ndef m\n  x\nend")
	def := findNode(prog.Root, NodeDef)
	body := def.FindChild(NodeStatements)
	if body.Children[0].Kind != NodeCall {
		t.Errorf("in method: got %v, want Call", body.Children[0].Kind)
	}

	// blocks do see outer locals
	prog = parse(t, "x = 1\nfoo { x }")
	block := findNode(prog.Root, NodeBlock)
	inner := block.FindChild(NodeStatements).Children[0]
	if inner.Kind != NodeLocalVariable {
		t.Errorf("in block: got %v, want LocalVariable", inner.Kind)
	}

	// locals declared in a method do not leak out
	prog = parse(t, "def m\n  y = 1\nend\ny")
	last := prog.Root.Children[1]
	if last.Kind != NodeCall {
		t.Errorf("after method: got %v, want Call", last.Kind)
	}

	// block parameters are local to the block
	prog = parse(t, "foo { |v| v }\nv")
	last = prog.Root.Children[1]
	if last.Kind != NodeCall {
		t.Errorf("after block: got %v, want Call", last.Kind)
	}
}

func TestCommandCallArguments(t *testing.T) {
	// foo -1 passes an argument
	prog := parse(t, "foo -1")
	call := prog.Root.Children[0]
	if call.Kind != NodeCall {
		t.Fatalf("got %v, want Call", call.Kind)
	}
	args := call.FindChild(NodeArguments)
	if args == nil || len(args.Children) != 1 {
		t.Fatalf("expected one argument, got %v", call)
	}
	if args.Children[0].Kind != NodeUnaryOp {
		t.Errorf("argument: got %v, want UnaryOp", args.Children[0].Kind)
	}

	// foo - 1 subtracts
	prog = parse(t, "foo - 1")
	if prog.Root.Children[0].Kind != NodeBinaryOp {
		t.Errorf("got %v, want BinaryOp", prog.Root.Children[0].Kind)
	}

	// foo-1 also subtracts
	prog = parse(t, "foo-1")
	if prog.Root.Children[0].Kind != NodeBinaryOp {
		t.Errorf("got %v, want BinaryOp", prog.Root.Children[0].Kind)
	}

	// multiple command arguments
	prog = parse(t, "foo 1, :two, 'three'")
	args = prog.Root.Children[0].FindChild(NodeArguments)
	if len(args.Children) != 3 {
		t.Errorf("got %d arguments, want 3", len(args.Children))
	}

	// keyword arguments without parens
	prog = parse(t, "foo a: 1, b: 2")
	args = prog.Root.Children[0].FindChild(NodeArguments)
	if len(args.Children) != 2 || args.Children[0].Kind != NodePair {
		t.Errorf("keyword args: got %v", args)
	}
}

func TestBlockBinding(t *testing.T) {
	// a brace block binds to the innermost call
	prog := parse(t, "foo bar { |x| x }")
	outer := prog.Root.Children[0]
	if outer.Token.Literal != "foo" {
		t.Fatalf("outer call: got %q", outer.Token.Literal)
	}
	if outer.FindChild(NodeBlock) != nil {
		t.Errorf("brace block must not bind to foo")
	}
	inner := outer.FindChild(NodeArguments).Children[0]
	if inner.Token.Literal != "bar" || inner.FindChild(NodeBlock) == nil {
		t.Errorf("brace block should bind to bar: %v", inner)
	}

	// a do-end block binds to the outermost command call
	prog = parse(t, "foo bar do |x| x end")
	outer = prog.Root.Children[0]
	if outer.Token.Literal != "foo" {
		t.Fatalf("outer call: got %q", outer.Token.Literal)
	}
	if outer.FindChild(NodeBlock) == nil {
		t.Errorf("do block should bind to foo")
	}
	inner = outer.FindChild(NodeArguments).Children[0]
	if inner.FindChild(NodeBlock) != nil {
		t.Errorf("do block must not bind to bar")
	}
}

func TestBlockParams(t *testing.T) {
	prog := parse(t, "foo { |a, b| a + b }")
	params := findNode(prog.Root, NodeBlockParams)
	if params == nil || len(params.Children) != 2 {
		t.Fatalf("got %v", params)
	}
	prog = parse(t, "foo { || 1 }")
	if findNode(prog.Root, NodeBlockParams) == nil {
		t.Errorf("empty pipes should yield an empty param list")
	}
}

func TestMethodDefinition(t *testing.T) {
	prog := parse(t, "def m(a, b=1, *c, d:, e: 2, **f, &g)\nend")
	def := prog.Root.Children[0]
	if def.Kind != NodeDef || def.Token.Literal != "m" {
		t.Fatalf("got %v", def)
	}
	params := def.FindChild(NodeParams)
	wantKinds := []NodeKind{
		NodeRequiredParam, NodeOptionalParam, NodeRestParam,
		NodeKeywordParam, NodeKeywordParam, NodeKeywordRestParam, NodeBlockParam,
	}
	if len(params.Children) != len(wantKinds) {
		t.Fatalf("got %d params, want %d", len(params.Children), len(wantKinds))
	}
	for i, k := range wantKinds {
		if params.Children[i].Kind != k {
			t.Errorf("param %d: got %v, want %v", i, params.Children[i].Kind, k)
		}
	}
	// d: has no default, e: does
	if len(params.Children[3].Children) != 0 {
		t.Errorf("d: should have no default")
	}
	if len(params.Children[4].Children) != 1 {
		t.Errorf("e: should have a default")
	}
}

func TestMethodNames(t *testing.T) {
	for _, tt := range []struct {
		input string
		name  string
	}{
		{"def name=(v)\nend", "name="},
		{"def empty?\nend", "empty?"},
		{"def save!\nend", "save!"},
		{"def <=>(other)\nend", "<=>"},
		{"def [](i)\nend", "[]"},
		{"def +(other)\nend", "+"},
	} {
		t.Run(tt.input, func(t *testing.T) {
			prog := parse(t, tt.input)
			def := prog.Root.Children[0]
			if def.Token.Literal != tt.name {
				t.Errorf("got %q, want %q", def.Token.Literal, tt.name)
			}
		})
	}
}

func TestSingletonMethod(t *testing.T) {
	prog := parse(t, "def self.build\nend")
	def := prog.Root.Children[0]
	if def.Children[0].Kind != NodeSelf {
		t.Errorf("receiver: got %v, want Self", def.Children[0].Kind)
	}
	if def.Token.Literal != "build" {
		t.Errorf("name: got %q", def.Token.Literal)
	}
}

func TestEndlessMethod(t *testing.T) {
	prog := parse(t, "def double(x) = x * 2")
	def := prog.Root.Children[0]
	if def.Kind != NodeDef {
		t.Fatalf("got %v", def.Kind)
	}
	if findNode(def, NodeBinaryOp) == nil {
		t.Errorf("missing body expression")
	}
}

func TestDuplicateParam(t *testing.T) {
	prog := parseBroken(t, "def m(a, a)\nend")
	if !strings.Contains(prog.Diagnostics[0].Message, "duplicate") {
		t.Errorf("got %v", prog.Diagnostics[0])
	}
}

func TestReservedWordParam(t *testing.T) {
	prog := parseBroken(t, "def m(end)\nend")
	if prog.Diagnostics[0].Kind != ErrReservedWordMisuse {
		t.Errorf("got %v, want ReservedWordMisuse", prog.Diagnostics[0].Kind)
	}
}

func TestClassAndModule(t *testing.T) {
	prog := parse(t, "class Foo < Bar\n  def m\n  end\nend")
	cls := prog.Root.Children[0]
	if cls.Kind != NodeClass {
		t.Fatalf("got %v", cls.Kind)
	}
	if cls.Children[0].Kind != NodeConstant || cls.Children[0].Token.Literal != "Foo" {
		t.Errorf("name: got %v", cls.Children[0])
	}
	if cls.Children[1].Kind != NodeConstant || cls.Children[1].Token.Literal != "Bar" {
		t.Errorf("superclass: got %v", cls.Children[1])
	}

	prog = parse(t, "module A::B\nend")
	mod := prog.Root.Children[0]
	if mod.Kind != NodeModule || mod.Children[0].Kind != NodeConstPath {
		t.Errorf("got %v", mod)
	}

	prog = parse(t, "class << self\nend")
	if prog.Root.Children[0].Kind != NodeSingletonClass {
		t.Errorf("got %v", prog.Root.Children[0].Kind)
	}
}

func TestClassInMethodBody(t *testing.T) {
	prog := parseBroken(t, "def m\n  class Foo\n  end\nend")
	if !strings.Contains(prog.Diagnostics[0].Message, "class definition in method body") {
		t.Errorf("got %v", prog.Diagnostics[0])
	}
}

func TestControlFlowValidation(t *testing.T) {
	// break at the top level is invalid
	prog := parseBroken(t, "break")
	if prog.Diagnostics[0].Kind != ErrInvalidControlFlow {
		t.Errorf("got %v, want InvalidControlFlow", prog.Diagnostics[0].Kind)
	}

	// break directly inside a method is invalid
	prog = parseBroken(t, "def m\n  next\nend")
	if prog.Diagnostics[0].Kind != ErrInvalidControlFlow {
		t.Errorf("got %v, want InvalidControlFlow", prog.Diagnostics[0].Kind)
	}

	// break inside a loop and inside a block is fine
	parse(t, "while true\n  break\nend")
	parse(t, "items.each { |i| next if i.nil? }")
	parse(t, "def m\n  loop { break }\nend")

	// return is invalid in a class body, fine in methods and at top level
	prog = parseBroken(t, "class Foo\n  return\nend")
	if prog.Diagnostics[0].Kind != ErrInvalidControlFlow {
		t.Errorf("got %v, want InvalidControlFlow", prog.Diagnostics[0].Kind)
	}
	parse(t, "def m\n  return 1\nend")
	parse(t, "return")
}

func TestYieldAtTopLevel(t *testing.T) {
	prog := parse(t, "yield 1")
	if !prog.YieldAtTopLevel {
		t.Errorf("flag not set")
	}
	prog = parse(t, "def m\n  yield\nend")
	if prog.YieldAtTopLevel {
		t.Errorf("flag set for yield inside a method")
	}
}

func TestConditionals(t *testing.T) {
	prog := parse(t, "if a\n  1\nelsif b\n  2\nelse\n  3\nend")
	ifNode := prog.Root.Children[0]
	if ifNode.Kind != NodeIf {
		t.Fatalf("got %v", ifNode.Kind)
	}
	elsif := ifNode.FindChild(NodeIf)
	if elsif == nil {
		t.Fatalf("missing elsif")
	}
	if elsif.FindChild(NodeElse) == nil {
		t.Errorf("missing else on the elsif")
	}

	prog = parse(t, "unless done\n  work\nend")
	if prog.Root.Children[0].Kind != NodeUnless {
		t.Errorf("got %v", prog.Root.Children[0].Kind)
	}

	// modifier forms
	prog = parse(t, "do_it if ready")
	if prog.Root.Children[0].Kind != NodeIf {
		t.Errorf("modifier if: got %v", prog.Root.Children[0].Kind)
	}
	prog = parse(t, "retry_it rescue fallback")
	if prog.Root.Children[0].Kind != NodeBegin {
		t.Errorf("modifier rescue: got %v", prog.Root.Children[0].Kind)
	}

	// a colon glued to the then-branch still separates the ternary,
	// while a spaced symbol argument stays a symbol
	prog = parse(t, "a = true\ny = a ? a:a")
	assign := prog.Root.Children[1]
	if assign.Kind != NodeAssign || assign.Children[1].Kind != NodeTernary {
		t.Errorf("packed ternary: got %v", assign.Children[1].Kind)
	}
	prog = parse(t, "foo :sym")
	call := prog.Root.Children[0]
	if call.Kind != NodeCall || call.Find(NodeSymbolLiteral) == nil {
		t.Errorf("symbol argument: got %s", call)
	}
}

func TestLoops(t *testing.T) {
	prog := parse(t, "while x < 10 do\n  x += 1\nend")
	if prog.Root.Children[0].Kind != NodeWhile {
		t.Errorf("got %v", prog.Root.Children[0].Kind)
	}

	prog = parse(t, "until done\n  step\nend")
	if prog.Root.Children[0].Kind != NodeUntil {
		t.Errorf("got %v", prog.Root.Children[0].Kind)
	}

	// for-loop variables live in the enclosing scope
	prog = parse(t, "for i in 1..10\nend\ni")
	last := prog.Root.Children[1]
	if last.Kind != NodeLocalVariable {
		t.Errorf("after for: got %v, want LocalVariable", last.Kind)
	}
}

func TestCaseWhen(t *testing.T) {
	prog := parse(t, "case x\nwhen 1 then :one\nwhen 2, 3\n  :more\nelse\n  :other\nend")
	c := prog.Root.Children[0]
	if c.Kind != NodeCase {
		t.Fatalf("got %v", c.Kind)
	}
	whens := collectNodes(c, NodeWhen)
	if len(whens) != 2 {
		t.Fatalf("got %d when clauses", len(whens))
	}
	if c.FindChild(NodeElse) == nil {
		t.Errorf("missing else")
	}
}

func TestBeginRescueEnsure(t *testing.T) {
	prog := parse(t, "begin\n  risky\nrescue IOError, ArgumentError => e\n  handle e\nelse\n  fine\nensure\n  cleanup\nend")
	b := prog.Root.Children[0]
	if b.Kind != NodeBegin {
		t.Fatalf("got %v", b.Kind)
	}
	rescue := b.FindChild(NodeRescue)
	if rescue == nil {
		t.Fatalf("missing rescue")
	}
	if rescue.Children[0].Kind != NodeConstant || rescue.Children[1].Kind != NodeConstant {
		t.Errorf("exception classes: %v", rescue.Children)
	}
	if rescue.Children[2].Kind != NodeLocalVariable {
		t.Errorf("rescue variable: got %v", rescue.Children[2].Kind)
	}
	// e is bound inside the clause
	handle := findNode(rescue, NodeCall)
	arg := handle.FindChild(NodeArguments).Children[0]
	if arg.Kind != NodeLocalVariable {
		t.Errorf("rescue variable use: got %v", arg.Kind)
	}
	if b.FindChild(NodeElse) == nil || b.FindChild(NodeEnsure) == nil {
		t.Errorf("missing else or ensure")
	}
}

func TestMultipleAssignment(t *testing.T) {
	prog := parse(t, "a, b = 1, 2")
	m := prog.Root.Children[0]
	if m.Kind != NodeMultipleAssign {
		t.Fatalf("got %v", m.Kind)
	}
	targets := m.FindChild(NodeTargetList)
	if len(targets.Children) != 2 {
		t.Fatalf("got %d targets", len(targets.Children))
	}

	// targets are declared before the right side is parsed
	prog = parse(t, "a, b = b, a")
	m = prog.Root.Children[0]
	rhs := m.FindChild(NodeArrayLiteral)
	for _, v := range rhs.Children {
		if v.Kind != NodeLocalVariable {
			t.Errorf("rhs: got %v, want LocalVariable", v.Kind)
		}
	}

	// splat target
	prog = parse(t, "first, *rest = items")
	m = prog.Root.Children[0]
	if findNode(m.FindChild(NodeTargetList), NodeSplat) == nil {
		t.Errorf("missing splat target")
	}

	// single splat is enough
	prog = parse(t, "*all = items")
	if prog.Root.Children[0].Kind != NodeMultipleAssign {
		t.Errorf("got %v", prog.Root.Children[0].Kind)
	}
}

func TestAssignmentTargets(t *testing.T) {
	parse(t, "obj.attr = 1")
	parse(t, "arr[0] = 1")
	parse(t, "CONST = 1")
	parse(t, "@x = 1")

	prog := parseBroken(t, "1 = 2")
	if prog.Diagnostics[0].Kind != ErrInvalidAssignmentTarget {
		t.Errorf("got %v, want InvalidAssignmentTarget", prog.Diagnostics[0].Kind)
	}
}

func TestStringInterpolation(t *testing.T) {
	prog := parse(t, `x = 1
"value: #{x + 1}"`)
	ds := prog.Root.Children[1]
	if ds.Kind != NodeDString {
		t.Fatalf("got %v", ds.Kind)
	}
	interp := ds.FindChild(NodeStringInterp)
	if interp == nil {
		t.Fatalf("missing interpolation")
	}
	if findNode(interp, NodeBinaryOp) == nil {
		t.Errorf("interpolation should contain the expression")
	}
	// locals remain visible inside the interpolation
	if findNode(interp, NodeLocalVariable) == nil {
		t.Errorf("x should resolve as a local inside #{}")
	}
}

func TestHeredoc(t *testing.T) {
	prog := parse(t, "text = <<~TEXT\n  hello\n  world\nTEXT\ntext")
	ds := findNode(prog.Root, NodeDString)
	if ds == nil {
		t.Fatalf("missing heredoc node")
	}
	content := findNode(ds, NodeStringLiteral)
	if content == nil {
		t.Fatalf("missing content")
	}
	if got := content.Token.Value.(string); got != "hello\nworld\n" {
		t.Errorf("indent stripping: got %q", got)
	}
	// the node keeps the opener token for tree dumps
	if ds.Token == nil || ds.Token.Literal != "<<~TEXT" {
		t.Errorf("opener token: got %v", ds.Token)
	}
	// parsing continues after the body
	last := prog.Root.Children[1]
	if last.Kind != NodeLocalVariable {
		t.Errorf("after heredoc: got %v", last.Kind)
	}
}

func TestHeredocWithInterpolation(t *testing.T) {
	prog := parse(t, "name = \"x\"\ns = <<~GREETING\n  hi #{name}!\nGREETING")
	ds := findNode(prog.Root, NodeDString)
	if findNode(ds, NodeStringInterp) == nil {
		t.Errorf("missing interpolation in heredoc")
	}
}

func TestHeredocRestOfLine(t *testing.T) {
	// the opener line continues after the heredoc tag
	prog := parse(t, "s = <<~A + \"tail\"\n  body\nA")
	bin := findNode(prog.Root, NodeBinaryOp)
	if bin == nil {
		t.Fatalf("expected concatenation on the opening line")
	}
	if bin.Children[0].Kind != NodeDString {
		t.Errorf("left operand: got %v", bin.Children[0].Kind)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3: the product nests under the sum
	prog := parse(t, "1 + 2 * 3")
	top := prog.Root.Children[0]
	if top.Token.Literal != "+" {
		t.Fatalf("top: got %q", top.Token.Literal)
	}
	if top.Children[1].Token.Literal != "*" {
		t.Errorf("rhs: got %q", top.Children[1].Token.Literal)
	}

	// -2**2 negates the power
	prog = parse(t, "-2**2")
	top = prog.Root.Children[0]
	if top.Kind != NodeUnaryOp {
		t.Fatalf("got %v, want UnaryOp", top.Kind)
	}
	if top.Children[0].Token.Literal != "**" {
		t.Errorf("operand: got %v", top.Children[0])
	}

	// ** is right associative
	prog = parse(t, "2**3**2")
	top = prog.Root.Children[0]
	if top.Children[1].Token.Literal != "**" {
		t.Errorf("rhs: got %v", top.Children[1])
	}

	// and/or bind looser than assignment
	prog = parse(t, "x = 1 and y = 2")
	top = prog.Root.Children[0]
	if top.Kind != NodeBinaryOp || top.Token.Literal != "and" {
		t.Fatalf("got %v", top)
	}
	if top.Children[0].Kind != NodeAssign || top.Children[1].Kind != NodeAssign {
		t.Errorf("operands: %v", top.Children)
	}

	// assignment is right associative
	prog = parse(t, "a = b = 1")
	top = prog.Root.Children[0]
	if top.Kind != NodeAssign || top.Children[1].Kind != NodeAssign {
		t.Errorf("got %v", top)
	}
}

func TestMethodChains(t *testing.T) {
	prog := parse(t, "a.b.c")
	top := prog.Root.Children[0]
	if top.Kind != NodeCall || top.Token.Literal != "c" {
		t.Fatalf("got %v", top)
	}
	if top.Children[0].Token.Literal != "b" {
		t.Errorf("receiver: got %v", top.Children[0])
	}

	// chains may continue on the next line
	prog = parse(t, "items\n  .map { |x| x }\n  .first")
	top = prog.Root.Children[0]
	if top.Kind != NodeCall || top.Token.Literal != "first" {
		t.Errorf("got %v", top)
	}
}

func TestUnterminatedString(t *testing.T) {
	prog := parseBroken(t, `"abc`)
	if len(prog.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(prog.Diagnostics), prog.Diagnostics)
	}
	d := prog.Diagnostics[0]
	if d.Kind != ErrUnterminatedLiteral {
		t.Errorf("got %v, want UnterminatedLiteral", d.Kind)
	}
	if d.Span.Start.Line != 1 || d.Span.Start.Column != 1 {
		t.Errorf("should point at the opening quote, got %v", d.Span.Start)
	}
}

func TestNestingTooDeep(t *testing.T) {
	src := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)
	prog, err := ParseProgram([]byte(src))
	if err == nil {
		t.Fatalf("expected diagnostics")
	}
	found := false
	for _, d := range prog.Diagnostics {
		if d.Kind == ErrNestingTooDeep {
			found = true
		}
	}
	if !found {
		t.Errorf("missing NestingTooDeep: %v", prog.Diagnostics)
	}

	// a custom limit kicks in earlier
	_, err = ParseProgram([]byte("((((1))))"), WithMaxDepth(4))
	if err == nil {
		t.Errorf("expected NestingTooDeep with a limit of 4")
	}
	if _, err := ParseProgram([]byte("((((1))))")); err != nil {
		t.Errorf("default limit should accept shallow nesting: %v", err)
	}
}

func TestRecoveryCollectsMultipleDiagnostics(t *testing.T) {
	prog, err := ParseProgram([]byte("x = 1\n1 = 2\n)\ny = 2"))
	if err == nil {
		t.Fatalf("expected diagnostics")
	}
	if len(prog.Diagnostics) < 2 {
		t.Errorf("got %d diagnostics, want at least 2: %v", len(prog.Diagnostics), prog.Diagnostics)
	}
	// the good statements still parse
	if len(collectNodes(prog.Root, NodeAssign)) < 2 {
		t.Errorf("recovery lost the valid statements")
	}
}

func TestUnmatchedDelimiter(t *testing.T) {
	prog := parseBroken(t, "foo(1, 2")
	found := false
	for _, d := range prog.Diagnostics {
		if d.Kind == ErrUnmatchedDelimiter {
			found = true
		}
	}
	if !found {
		t.Errorf("got %v", prog.Diagnostics)
	}
}

func TestSpanContainment(t *testing.T) {
	prog := parse(t, "def m(a)\n  if a\n    a.b(1, 'x')\n  end\nend\nfoo <<~T + bar\n  body\nT")
	var check func(n *Node)
	check = func(n *Node) {
		for _, c := range n.Children {
			if c.Span.Start.Offset < n.Span.Start.Offset || c.Span.End.Offset > n.Span.End.Offset {
				t.Errorf("child %v [%d,%d) escapes parent %v [%d,%d)",
					c.Kind, c.Span.Start.Offset, c.Span.End.Offset,
					n.Kind, n.Span.Start.Offset, n.Span.End.Offset)
			}
			check(c)
		}
	}
	check(prog.Root)
}

func TestSpanMerge(t *testing.T) {
	a := Span{Start: Position{Offset: 4, Line: 1, Column: 5}, End: Position{Offset: 9, Line: 1, Column: 10}}
	b := Span{Start: Position{Offset: 12, Line: 2, Column: 1}, End: Position{Offset: 20, Line: 2, Column: 9}}
	merged := a.Merge(b)
	if merged.Start != a.Start || merged.End != b.End {
		t.Errorf("got [%s, %s]", merged.Start, merged.End)
	}
	if b.Merge(a) != merged {
		t.Errorf("merge depends on argument order")
	}
}

func TestDeterminism(t *testing.T) {
	src := "class A\n  def m(x)\n    x.each { |i| p i }\n  end\nend"
	a, _ := ParseProgram([]byte(src))
	b, _ := ParseProgram([]byte(src))
	ja, err := a.Root.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	jb, _ := b.Root.MarshalJSON()
	if string(ja) != string(jb) {
		t.Errorf("two parses of identical input differ")
	}
}

func TestParseExpressionEntry(t *testing.T) {
	node, err := ParseExpression([]byte("1 + 2"))
	if err != nil {
		t.Fatal(err)
	}
	if node.Kind != NodeBinaryOp {
		t.Errorf("got %v", node.Kind)
	}
	if _, err := ParseExpression([]byte("1 + 2 junk")); err == nil {
		t.Errorf("trailing input should be an error")
	}
}

func TestSeededLocals(t *testing.T) {
	prog, err := ParseProgram([]byte("binding_var"), WithLocals("binding_var"))
	if err != nil {
		t.Fatal(err)
	}
	if prog.Root.Children[0].Kind != NodeLocalVariable {
		t.Errorf("got %v, want LocalVariable", prog.Root.Children[0].Kind)
	}
}

func TestProgramMetadata(t *testing.T) {
	prog, _ := ParseProgram([]byte("1"), WithFile("lib/a.rb"), WithContext("main"))
	if prog.Path != "lib/a.rb" || prog.Context != "main" {
		t.Errorf("got %q %q", prog.Path, prog.Context)
	}
	if prog.Root.Span.Start.File != "lib/a.rb" {
		t.Errorf("positions should carry the file name")
	}
}
