package parser

import "fmt"

// NodeKind identifies the grammatical production a Node represents.
type NodeKind int

const (
	NodeProgram NodeKind = iota
	NodeStatements
	NodeError

	// literals
	NodeIntLiteral
	NodeFloatLiteral
	NodeStringLiteral
	NodeDString
	NodeStringInterp
	NodeSymbolLiteral
	NodeRegexpLiteral
	NodeWordArray
	NodeSymbolArray
	NodeNilLiteral
	NodeTrueLiteral
	NodeFalseLiteral
	NodeSelf
	NodeArrayLiteral
	NodeHashLiteral
	NodePair
	NodeRange

	// variables and constants
	NodeLocalVariable
	NodeInstanceVariable
	NodeClassVariable
	NodeGlobalVariable
	NodeConstant
	NodeConstPath

	// calls
	NodeCall
	NodeSafeCall
	NodeIndex
	NodeArguments
	NodeSplat
	NodeDoubleSplat
	NodeBlockPass
	NodeBlock
	NodeBlockParams
	NodeLambda
	NodeSuper
	NodeYield
	NodeDefined

	// operators
	NodeUnaryOp
	NodeBinaryOp
	NodeTernary
	NodeAssign
	NodeOpAssign
	NodeMultipleAssign
	NodeTargetList

	// control flow
	NodeIf
	NodeUnless
	NodeWhile
	NodeUntil
	NodeFor
	NodeCase
	NodeWhen
	NodeElse
	NodeBegin
	NodeRescue
	NodeEnsure
	NodeReturn
	NodeBreak
	NodeNext
	NodeRedo
	NodeRetry

	// definitions
	NodeDef
	NodeParams
	NodeRequiredParam
	NodeOptionalParam
	NodeRestParam
	NodeKeywordParam
	NodeKeywordRestParam
	NodeBlockParam
	NodeClass
	NodeSingletonClass
	NodeModule
	NodeAlias
	NodeUndef
)

var nodeKindNames = map[NodeKind]string{
	NodeProgram:          "Program",
	NodeStatements:       "Statements",
	NodeError:            "Error",
	NodeIntLiteral:       "IntLiteral",
	NodeFloatLiteral:     "FloatLiteral",
	NodeStringLiteral:    "StringLiteral",
	NodeDString:          "DString",
	NodeStringInterp:     "StringInterp",
	NodeSymbolLiteral:    "SymbolLiteral",
	NodeRegexpLiteral:    "RegexpLiteral",
	NodeWordArray:        "WordArray",
	NodeSymbolArray:      "SymbolArray",
	NodeNilLiteral:       "NilLiteral",
	NodeTrueLiteral:      "TrueLiteral",
	NodeFalseLiteral:     "FalseLiteral",
	NodeSelf:             "Self",
	NodeArrayLiteral:     "ArrayLiteral",
	NodeHashLiteral:      "HashLiteral",
	NodePair:             "Pair",
	NodeRange:            "Range",
	NodeLocalVariable:    "LocalVariable",
	NodeInstanceVariable: "InstanceVariable",
	NodeClassVariable:    "ClassVariable",
	NodeGlobalVariable:   "GlobalVariable",
	NodeConstant:         "Constant",
	NodeConstPath:        "ConstPath",
	NodeCall:             "Call",
	NodeSafeCall:         "SafeCall",
	NodeIndex:            "Index",
	NodeArguments:        "Arguments",
	NodeSplat:            "Splat",
	NodeDoubleSplat:      "DoubleSplat",
	NodeBlockPass:        "BlockPass",
	NodeBlock:            "Block",
	NodeBlockParams:      "BlockParams",
	NodeLambda:           "Lambda",
	NodeSuper:            "Super",
	NodeYield:            "Yield",
	NodeDefined:          "Defined",
	NodeUnaryOp:          "UnaryOp",
	NodeBinaryOp:         "BinaryOp",
	NodeTernary:          "Ternary",
	NodeAssign:           "Assign",
	NodeOpAssign:         "OpAssign",
	NodeMultipleAssign:   "MultipleAssign",
	NodeTargetList:       "TargetList",
	NodeIf:               "If",
	NodeUnless:           "Unless",
	NodeWhile:            "While",
	NodeUntil:            "Until",
	NodeFor:              "For",
	NodeCase:             "Case",
	NodeWhen:             "When",
	NodeElse:             "Else",
	NodeBegin:            "Begin",
	NodeRescue:           "Rescue",
	NodeEnsure:           "Ensure",
	NodeReturn:           "Return",
	NodeBreak:            "Break",
	NodeNext:             "Next",
	NodeRedo:             "Redo",
	NodeRetry:            "Retry",
	NodeDef:              "Def",
	NodeParams:           "Params",
	NodeRequiredParam:    "RequiredParam",
	NodeOptionalParam:    "OptionalParam",
	NodeRestParam:        "RestParam",
	NodeKeywordParam:     "KeywordParam",
	NodeKeywordRestParam: "KeywordRestParam",
	NodeBlockParam:       "BlockParam",
	NodeClass:            "Class",
	NodeSingletonClass:   "SingletonClass",
	NodeModule:           "Module",
	NodeAlias:            "Alias",
	NodeUndef:            "Undef",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is a homogeneous syntax tree node. Leaves carry their Token; inner
// nodes carry an ordered child list. Conventions worth knowing:
//
//   - Call: Token is the method name. An explicit receiver, when present,
//     is the first child; an Arguments child holds the arguments and a
//     Block child holds an attached block. Absent parts are absent.
//   - BinaryOp, UnaryOp, OpAssign: Token is the operator.
//   - If/Unless: children are condition, then-Statements, and optionally
//     an If node (for elsif) or Else node.
//   - Def: an optional receiver first, then Params and the body
//     Statements. Token is the method name.
//
// A node's span always contains the spans of all its children.
type Node struct {
	Kind     NodeKind
	Span     Span
	Children []*Node
	Token    *Token
	Err      *ParseError
}

func (n *Node) String() string {
	if n.Token != nil {
		return fmt.Sprintf("%s(%s)", n.Kind, n.Token.Literal)
	}
	return n.Kind.String()
}

func (n *Node) appendChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// FindChild returns the first direct child of the given kind.
func (n *Node) FindChild(kind NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Find returns the first node of the given kind in a preorder walk,
// including n itself.
func (n *Node) Find(kind NodeKind) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found == nil && node.Kind == kind {
			found = node
		}
		return found == nil
	})
	return found
}

// Walk visits n and its descendants in preorder. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Name returns the identifier a leaf-ish node names, or "".
func (n *Node) Name() string {
	if n.Token == nil {
		return ""
	}
	if s, ok := n.Token.Value.(string); ok && s != "" {
		return s
	}
	return n.Token.Literal
}
