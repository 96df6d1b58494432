package parser

// parseExpr parses an expression at assignment level. Assignment is right
// associative, so `a = b = c` nests to the right.
func (p *Parser) parseExpr() *Node {
	start := p.startPos()
	if !p.enter(p.peek().Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	lhs := p.parseTernary()

	switch {
	case p.at(TokenAssign):
		op := p.next()
		target := p.toAssignTarget(lhs)
		p.skipNewlines()
		rhs := p.parseAssignRhs()
		n := &Node{Kind: NodeAssign, Token: &op}
		n.appendChild(target)
		n.appendChild(rhs)
		return p.finishNode(n, start)

	case p.atOpAssign():
		op := p.next()
		target := p.toAssignTarget(lhs)
		p.skipNewlines()
		rhs := p.parseExpr()
		n := &Node{Kind: NodeOpAssign, Token: &op}
		n.appendChild(target)
		n.appendChild(rhs)
		return p.finishNode(n, start)
	}
	return lhs
}

func (p *Parser) atOpAssign() bool {
	_, ok := p.peek().Kind.OpAssignBase()
	return ok
}

// parseArg parses an argument expression. Assignments are legal here:
// `foo a = 1` passes the assignment's value.
func (p *Parser) parseArg() *Node {
	return p.parseExpr()
}

// parseAssignRhs parses the right-hand side of a single assignment, which
// may be a comma list building an implicit array.
func (p *Parser) parseAssignRhs() *Node {
	if p.at(TokenStar) {
		return p.parseMrhs()
	}
	start := p.startPos()
	first := p.parseExpr()
	if !p.at(TokenComma) {
		return first
	}
	arr := &Node{Kind: NodeArrayLiteral}
	arr.appendChild(first)
	for p.accept(TokenComma) {
		p.skipNewlines()
		arr.appendChild(p.parseSplatArg())
	}
	return p.finishNode(arr, start)
}

// toAssignTarget validates the left side of an assignment, converting a
// bare method-call identifier into a local variable and declaring it. The
// declaration happens before the right-hand side is parsed.
func (p *Parser) toAssignTarget(lhs *Node) *Node {
	switch lhs.Kind {
	case NodeLocalVariable:
		p.scopes.declareLocal(lhs.Name())
		return lhs
	case NodeInstanceVariable, NodeClassVariable, NodeGlobalVariable,
		NodeConstant, NodeConstPath, NodeIndex:
		return lhs
	case NodeCall:
		if lhs.Token != nil && lhs.Token.Kind == TokenIdent &&
			len(lhs.Children) == 0 {
			v := &Node{Kind: NodeLocalVariable, Span: lhs.Span, Token: lhs.Token}
			p.scopes.declareLocal(v.Name())
			return v
		}
		// attribute assignment: recv.name = value
		if len(lhs.Children) == 1 && lhs.FindChild(NodeArguments) == nil && lhs.FindChild(NodeBlock) == nil {
			return lhs
		}
	}
	return p.errorNode(ErrInvalidAssignmentTarget, lhs.Span, "cannot assign to %s", lhs.Kind)
}

// precedence cascade, loosest first

func (p *Parser) parseTernary() *Node {
	start := p.startPos()
	cond := p.parseRange()
	if !p.at(TokenQuestion) {
		return cond
	}
	p.next()
	p.skipNewlines()
	then := p.parseTernary()
	p.skipNewlines()
	p.expect(TokenColon)
	p.skipNewlines()
	els := p.parseTernary()
	n := &Node{Kind: NodeTernary}
	n.appendChild(cond)
	n.appendChild(then)
	n.appendChild(els)
	return p.finishNode(n, start)
}

func (p *Parser) parseRange() *Node {
	start := p.startPos()
	left := p.parseOrOr()
	if !p.at(TokenDot2) && !p.at(TokenDot3) {
		return left
	}
	op := p.next()
	n := &Node{Kind: NodeRange, Token: &op}
	n.appendChild(left)
	if p.canStartRangeEnd() {
		p.skipNewlines()
		n.appendChild(p.parseOrOr())
	}
	return p.finishNode(n, start)
}

// canStartRangeEnd distinguishes `1..5` from the endless `1..`.
func (p *Parser) canStartRangeEnd() bool {
	switch p.peek().Kind {
	case TokenNewline, TokenSemicolon, TokenEOF, TokenRParen, TokenRBracket,
		TokenRBrace, TokenComma, TokenThen, TokenDo, TokenEnd:
		return false
	}
	return true
}

func (p *Parser) parseOrOr() *Node {
	return p.parseBinaryLoop(p.parseAndAnd, TokenOr)
}

func (p *Parser) parseAndAnd() *Node {
	return p.parseBinaryLoop(p.parseEquality, TokenAnd)
}

func (p *Parser) parseEquality() *Node {
	return p.parseBinaryLoop(p.parseComparison,
		TokenCmp, TokenEQ, TokenTEQ, TokenNE, TokenMatch, TokenNMatch)
}

func (p *Parser) parseComparison() *Node {
	return p.parseBinaryLoop(p.parseBitOr, TokenGT, TokenGE, TokenLT, TokenLE)
}

func (p *Parser) parseBitOr() *Node {
	return p.parseBinaryLoop(p.parseBitAnd, TokenPipe, TokenCaret)
}

func (p *Parser) parseBitAnd() *Node {
	return p.parseBinaryLoop(p.parseShift, TokenAmp)
}

func (p *Parser) parseShift() *Node {
	return p.parseBinaryLoop(p.parseAdditive, TokenShl, TokenShr)
}

func (p *Parser) parseAdditive() *Node {
	return p.parseBinaryLoop(p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) parseMultiplicative() *Node {
	return p.parseBinaryLoop(p.parseUnaryMinus, TokenStar, TokenSlash, TokenPercent)
}

func (p *Parser) parseBinaryLoop(operand func() *Node, ops ...TokenKind) *Node {
	start := p.startPos()
	left := operand()
	for tokenKindIn(p.peek().Kind, ops) {
		op := p.next()
		p.skipNewlines()
		right := operand()
		n := &Node{Kind: NodeBinaryOp, Token: &op}
		n.appendChild(left)
		n.appendChild(right)
		left = p.finishNode(n, start)
	}
	return left
}

// parseUnaryMinus binds looser than ** so that -2**2 negates the power.
func (p *Parser) parseUnaryMinus() *Node {
	if p.at(TokenMinus) {
		start := p.startPos()
		op := p.next()
		operand := p.parseUnaryMinus()
		n := &Node{Kind: NodeUnaryOp, Token: &op}
		n.appendChild(operand)
		return p.finishNode(n, start)
	}
	return p.parsePower()
}

func (p *Parser) parsePower() *Node {
	start := p.startPos()
	base := p.parseUnary()
	if !p.at(TokenDStar) {
		return base
	}
	op := p.next()
	p.skipNewlines()
	rhs := p.parseUnaryMinus() // right associative
	n := &Node{Kind: NodeBinaryOp, Token: &op}
	n.appendChild(base)
	n.appendChild(rhs)
	return p.finishNode(n, start)
}

func (p *Parser) parseUnary() *Node {
	switch p.peek().Kind {
	case TokenBang, TokenTilde, TokenPlus:
		start := p.startPos()
		op := p.next()
		operand := p.parseUnary()
		n := &Node{Kind: NodeUnaryOp, Token: &op}
		n.appendChild(operand)
		return p.finishNode(n, start)
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by method chains, element access
// and an attached block. A brace block binds here, to the innermost call;
// a do-end block binds only when we are not inside command arguments, so
// it reaches the outermost command call instead.
func (p *Parser) parsePostfix() *Node {
	start := p.startPos()
	n := p.parsePrimary()

	for {
		switch {
		case p.at(TokenDot) || p.at(TokenSafeNav) ||
			((p.peekNoTerm().Kind == TokenDot || p.peekNoTerm().Kind == TokenSafeNav) && p.at(TokenNewline)):
			p.skipNewlines()
			op := p.next()
			n = p.parseCallAfterDot(n, op, start)

		case p.at(TokenColonColon):
			p.next()
			if p.at(TokenConst) && !(p.peekN(1).Kind == TokenLParen && !p.peekN(1).SpaceBefore) {
				name := p.next()
				path := &Node{Kind: NodeConstPath, Token: &name}
				path.appendChild(n)
				n = p.finishNode(path, start)
			} else {
				op := p.prev
				n = p.parseCallAfterDot(n, op, start)
			}

		case p.at(TokenLBracket) && !p.peek().SpaceBefore:
			open := p.next()
			idx := &Node{Kind: NodeIndex}
			idx.appendChild(n)
			p.skipNewlines()
			if !p.at(TokenRBracket) {
				for {
					idx.appendChild(p.parseCallArg())
					if !p.accept(TokenComma) {
						break
					}
					p.skipNewlines()
				}
			}
			p.skipNewlines()
			p.expectClosing(TokenRBracket, open.Span)
			n = p.finishNode(idx, start)

		case p.at(TokenLBrace) && p.isCallLike(n):
			n.appendChild(p.parseBraceBlock())
			n = p.finishNode(n, start)

		case p.at(TokenDo) && p.isCallLike(n) && !p.suppressDoBlock && p.inCmdArg() == 0:
			n.appendChild(p.parseDoBlock())
			n = p.finishNode(n, start)

		default:
			return n
		}
	}
}

func (p *Parser) isCallLike(n *Node) bool {
	switch n.Kind {
	case NodeCall, NodeSafeCall, NodeSuper, NodeIndex:
		return n.FindChild(NodeBlock) == nil
	}
	return false
}

// parseCallAfterDot parses the method call following `.`, `&.` or `::`.
func (p *Parser) parseCallAfterDot(recv *Node, op Token, start Position) *Node {
	name, ok := p.methodNameToken()
	if !ok {
		tok := p.peek()
		return p.errorNode(ErrUnexpectedToken, tok.Span, "expected method name, found %s", tok.Kind)
	}
	kind := NodeCall
	if op.Kind == TokenSafeNav {
		kind = NodeSafeCall
	}
	call := &Node{Kind: kind, Token: &name}
	call.appendChild(recv)

	if p.at(TokenLParen) && !p.peek().SpaceBefore {
		open := p.next()
		call.appendChild(p.parseParenArgs(open))
	} else if p.canStartCommandArg() {
		call.appendChild(p.parseCommandArgs())
	}
	return p.finishNode(call, start)
}

// methodNameToken consumes a token usable as a method name after a dot or
// def: identifiers, constants, keywords (`a.class` is legal) and operator
// names.
func (p *Parser) methodNameToken() (Token, bool) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIdent, TokenConst:
		return p.next(), true
	case TokenLBracket:
		// []= and [] as names: def [](i)
		if p.peekN(1).Kind == TokenRBracket {
			open := p.next()
			p.next()
			name := open
			name.Literal = "[]"
			if p.at(TokenAssign) && !p.peek().SpaceBefore {
				p.next()
				name.Literal = "[]="
			}
			name.Span.End = p.prev.Span.End
			return name, true
		}
	case TokenPlus, TokenMinus, TokenStar, TokenDStar, TokenSlash, TokenPercent,
		TokenShl, TokenShr, TokenAmp, TokenPipe, TokenCaret, TokenTilde, TokenBang,
		TokenLT, TokenLE, TokenGT, TokenGE, TokenCmp, TokenEQ, TokenTEQ, TokenMatch:
		return p.next(), true
	}
	if tok.Kind.IsKeyword() {
		return p.next(), true
	}
	return Token{}, false
}

// primaries

func (p *Parser) parsePrimary() *Node {
	tok := p.peek()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	switch tok.Kind {
	case TokenIntLiteral:
		return p.leafNode(NodeIntLiteral, p.next())
	case TokenFloatLiteral:
		return p.leafNode(NodeFloatLiteral, p.next())
	case TokenStringLiteral:
		return p.leafNode(NodeStringLiteral, p.next())
	case TokenSymbol:
		return p.leafNode(NodeSymbolLiteral, p.next())
	case TokenWords:
		return p.leafNode(NodeWordArray, p.next())
	case TokenSymbolWords:
		return p.leafNode(NodeSymbolArray, p.next())
	case TokenNil:
		return p.leafNode(NodeNilLiteral, p.next())
	case TokenTrue:
		return p.leafNode(NodeTrueLiteral, p.next())
	case TokenFalse:
		return p.leafNode(NodeFalseLiteral, p.next())
	case TokenSelf:
		return p.leafNode(NodeSelf, p.next())
	case TokenIVar:
		return p.leafNode(NodeInstanceVariable, p.next())
	case TokenCVar:
		return p.leafNode(NodeClassVariable, p.next())
	case TokenGVar:
		return p.leafNode(NodeGlobalVariable, p.next())
	case TokenRetry:
		return p.leafNode(NodeRetry, p.next())

	case TokenStringBegin:
		return p.parseDString(NodeDString, TokenStringEnd)
	case TokenRegexpBegin:
		return p.parseDString(NodeRegexpLiteral, TokenRegexpEnd)
	case TokenHeredocBegin:
		return p.parseHeredoc()

	case TokenIdent:
		return p.parseIdentifier()
	case TokenConst:
		return p.parseConstant()

	case TokenLParen:
		return p.parseParenExpr()
	case TokenLBracket:
		return p.parseArrayLiteral()
	case TokenLBrace:
		return p.parseHashLiteral()
	case TokenArrow:
		return p.parseLambda()

	case TokenColonColon:
		start := p.startPos()
		p.next()
		if !p.at(TokenConst) {
			t := p.peek()
			return p.errorNode(ErrUnexpectedToken, t.Span, "expected constant after ::, found %s", t.Kind)
		}
		name := p.next()
		path := &Node{Kind: NodeConstPath, Token: &name}
		return p.finishNode(path, start)

	case TokenDot2, TokenDot3:
		// beginless range
		start := p.startPos()
		op := p.next()
		n := &Node{Kind: NodeRange, Token: &op}
		n.appendChild(p.parseOrOr())
		return p.finishNode(n, start)

	case TokenIf:
		return p.parseIf()
	case TokenUnless:
		return p.parseUnless()
	case TokenWhile:
		return p.parseWhile()
	case TokenUntil:
		return p.parseUntil()
	case TokenFor:
		return p.parseFor()
	case TokenCase:
		return p.parseCase()
	case TokenBegin:
		return p.parseBeginRescue()
	case TokenDef:
		return p.parseDef()
	case TokenClass:
		return p.parseClass()
	case TokenModule:
		return p.parseModule()

	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		return p.parseBreakNext(NodeBreak)
	case TokenNext:
		return p.parseBreakNext(NodeNext)
	case TokenRedo:
		return p.parseRedo()
	case TokenYield:
		return p.parseYield()
	case TokenDefined:
		return p.parseDefined()
	case TokenSuper:
		return p.parseSuper()

	case TokenError:
		p.next()
		if perr, ok := tok.Value.(*ParseError); ok {
			return errorNodeNoReport(perr)
		}
		return &Node{Kind: NodeError, Span: tok.Span}

	case TokenEOF:
		return p.errorNode(ErrUnexpectedEOF, tok.Span, "unexpected end of file")
	}

	return p.errorNode(ErrUnexpectedToken, tok.Span, "unexpected %s", tok.Kind)
}

// parseIdentifier resolves a lowercase identifier at its point of use: a
// declared local becomes a variable reference, anything else a method
// call, possibly with command arguments.
func (p *Parser) parseIdentifier() *Node {
	start := p.startPos()
	name := p.next()

	hasParen := p.at(TokenLParen) && !p.peek().SpaceBefore
	if p.scopes.isLocal(name.Literal) && !hasParen {
		return p.leafNode(NodeLocalVariable, name)
	}

	call := &Node{Kind: NodeCall, Token: &name}
	if hasParen {
		open := p.next()
		call.appendChild(p.parseParenArgs(open))
	} else if p.canStartCommandArg() {
		call.appendChild(p.parseCommandArgs())
	}
	return p.finishNode(call, start)
}

func (p *Parser) parseConstant() *Node {
	start := p.startPos()
	name := p.next()
	if p.at(TokenLParen) && !p.peek().SpaceBefore {
		call := &Node{Kind: NodeCall, Token: &name}
		open := p.next()
		call.appendChild(p.parseParenArgs(open))
		return p.finishNode(call, start)
	}
	return p.leafNode(NodeConstant, name)
}

func (p *Parser) parseSuper() *Node {
	start := p.startPos()
	tok := p.next()
	n := &Node{Kind: NodeSuper, Token: &tok}
	if p.at(TokenLParen) && !p.peek().SpaceBefore {
		open := p.next()
		n.appendChild(p.parseParenArgs(open))
	} else if p.canStartCommandArg() {
		n.appendChild(p.parseCommandArgs())
	}
	return p.finishNode(n, start)
}

func (p *Parser) parseDefined() *Node {
	start := p.startPos()
	tok := p.next()
	n := &Node{Kind: NodeDefined, Token: &tok}
	if p.at(TokenLParen) && !p.peek().SpaceBefore {
		open := p.next()
		p.skipNewlines()
		n.appendChild(p.parseExprStmt())
		p.skipNewlines()
		p.expectClosing(TokenRParen, open.Span)
	} else {
		n.appendChild(p.parseUnary())
	}
	return p.finishNode(n, start)
}

// grouping and literals

func (p *Parser) parseParenExpr() *Node {
	start := p.startPos()
	open := p.next()
	p.skipTerms()
	if p.at(TokenRParen) {
		p.next()
		return p.finishNode(&Node{Kind: NodeStatements}, start)
	}
	body := p.parseBody(TokenRParen)
	p.expectClosing(TokenRParen, open.Span)
	if len(body.Children) == 1 {
		inner := body.Children[0]
		return inner
	}
	return p.finishNode(body, start)
}

func (p *Parser) parseArrayLiteral() *Node {
	start := p.startPos()
	open := p.next()
	n := &Node{Kind: NodeArrayLiteral}
	p.skipNewlines()
	for !p.at(TokenRBracket) && !p.at(TokenEOF) {
		n.appendChild(p.parseCallArg())
		if !p.accept(TokenComma) {
			break
		}
		p.skipNewlines()
	}
	p.skipNewlines()
	p.expectClosing(TokenRBracket, open.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseHashLiteral() *Node {
	start := p.startPos()
	open := p.next()
	n := &Node{Kind: NodeHashLiteral}
	p.skipNewlines()
	for !p.at(TokenRBrace) && !p.at(TokenEOF) {
		n.appendChild(p.parseHashPair())
		if !p.accept(TokenComma) {
			break
		}
		p.skipNewlines()
	}
	p.skipNewlines()
	p.expectClosing(TokenRBrace, open.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseHashPair() *Node {
	start := p.startPos()

	if p.at(TokenDStar) {
		tok := p.next()
		n := &Node{Kind: NodeDoubleSplat, Token: &tok}
		n.appendChild(p.parseArg())
		return p.finishNode(n, start)
	}

	pair := &Node{Kind: NodePair}
	if p.at(TokenLabel) {
		key := p.next()
		pair.appendChild(p.leafNode(NodeSymbolLiteral, key))
		p.skipNewlines()
		pair.appendChild(p.parseArg())
		return p.finishNode(pair, start)
	}

	pair.appendChild(p.parseArg())
	p.expect(TokenHashRocket)
	p.skipNewlines()
	pair.appendChild(p.parseArg())
	return p.finishNode(pair, start)
}

func (p *Parser) parseLambda() *Node {
	start := p.startPos()
	arrow := p.next()

	p.scopes.push(ScopeBlock)
	p.pushLoop(loopBlock)
	defer func() {
		p.popLoop()
		p.scopes.pop()
	}()

	n := &Node{Kind: NodeLambda, Token: &arrow}
	if p.at(TokenLParen) {
		open := p.next()
		params := p.parseParamList(TokenRParen)
		p.expectClosing(TokenRParen, open.Span)
		n.appendChild(params)
	} else if p.at(TokenIdent) {
		params := p.parseParamList(TokenLBrace, TokenDo)
		n.appendChild(params)
	}

	if p.at(TokenLBrace) {
		open := p.next()
		body := p.parseBody(TokenRBrace)
		p.expectClosing(TokenRBrace, open.Span)
		n.appendChild(body)
	} else if p.at(TokenDo) {
		open := p.next()
		body := p.parseBody(TokenEnd)
		p.expectEnd(open.Span)
		n.appendChild(body)
	} else {
		t := p.peek()
		n.appendChild(p.errorNode(ErrUnexpectedToken, t.Span, "expected lambda body, found %s", t.Kind))
	}
	return p.finishNode(n, start)
}

// argument lists

// canStartCommandArg reports whether the next token begins an argument of
// a parenless call. The whitespace rule decides the ambiguous operators:
// `foo -1` passes an argument, `foo - 1` subtracts.
func (p *Parser) canStartCommandArg() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenIdent, TokenConst, TokenIVar, TokenCVar, TokenGVar,
		TokenIntLiteral, TokenFloatLiteral, TokenStringLiteral, TokenStringBegin,
		TokenRegexpBegin, TokenHeredocBegin, TokenSymbol, TokenWords, TokenSymbolWords,
		TokenNil, TokenTrue, TokenFalse, TokenSelf, TokenSuper, TokenLabel,
		TokenArrow, TokenBang, TokenTilde, TokenDefined, TokenLBracket,
		TokenDef:
		return tok.SpaceBefore
	case TokenLParen:
		return tok.SpaceBefore
	case TokenMinus, TokenPlus, TokenStar, TokenDStar, TokenAmp:
		return tok.SpaceBefore && !p.peekN(1).SpaceBefore && p.argCanFollowPrefix()
	case TokenColonColon:
		return tok.SpaceBefore
	}
	return false
}

// argCanFollowPrefix guards against `foo -= 1` style sequences being read
// as command arguments.
func (p *Parser) argCanFollowPrefix() bool {
	switch p.peekN(1).Kind {
	case TokenAssign, TokenEOF, TokenNewline, TokenSemicolon:
		return false
	}
	return true
}

// canStartArg is the jump-statement variant: `return 1`, `break :done`.
func (p *Parser) canStartArg() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenIf, TokenUnless, TokenWhile, TokenUntil, TokenRescue,
		TokenNewline, TokenSemicolon, TokenEOF, TokenEnd,
		TokenRParen, TokenRBracket, TokenRBrace, TokenThen, TokenDo, TokenComma:
		return false
	case TokenMinus, TokenPlus, TokenStar:
		return !p.peekN(1).SpaceBefore
	}
	return true
}

func (p *Parser) inCmdArg() int {
	return p.cmdArgDepth
}

func (p *Parser) parseCommandArgs() *Node {
	start := p.startPos()
	p.cmdArgDepth++
	p.lex.SetCommandArg(true)
	defer func() {
		p.cmdArgDepth--
		if p.cmdArgDepth == 0 {
			p.lex.SetCommandArg(false)
		}
	}()

	args := &Node{Kind: NodeArguments}
	for {
		args.appendChild(p.parseCallArg())
		if !p.accept(TokenComma) {
			break
		}
		p.skipNewlines()
	}
	return p.finishNode(args, start)
}

func (p *Parser) parseParenArgs(open Token) *Node {
	start := open.Span.Start
	args := &Node{Kind: NodeArguments}
	p.skipNewlines()
	for !p.at(TokenRParen) && !p.at(TokenEOF) {
		args.appendChild(p.parseCallArg())
		if !p.accept(TokenComma) {
			break
		}
		p.skipNewlines()
	}
	p.skipNewlines()
	p.expectClosing(TokenRParen, open.Span)
	return p.finishNode(args, start)
}

// parseCallArg parses one argument: a splat, a block pass, a keyword pair
// or a plain expression.
func (p *Parser) parseCallArg() *Node {
	start := p.startPos()
	switch p.peek().Kind {
	case TokenStar:
		tok := p.next()
		n := &Node{Kind: NodeSplat, Token: &tok}
		n.appendChild(p.parseArg())
		return p.finishNode(n, start)
	case TokenDStar:
		tok := p.next()
		n := &Node{Kind: NodeDoubleSplat, Token: &tok}
		n.appendChild(p.parseArg())
		return p.finishNode(n, start)
	case TokenAmp:
		tok := p.next()
		n := &Node{Kind: NodeBlockPass, Token: &tok}
		n.appendChild(p.parseArg())
		return p.finishNode(n, start)
	case TokenLabel:
		key := p.next()
		pair := &Node{Kind: NodePair}
		pair.appendChild(p.leafNode(NodeSymbolLiteral, key))
		p.skipNewlines()
		pair.appendChild(p.parseArg())
		return p.finishNode(pair, start)
	}
	expr := p.parseArg()
	if p.at(TokenHashRocket) {
		p.next()
		p.skipNewlines()
		pair := &Node{Kind: NodePair}
		pair.appendChild(expr)
		pair.appendChild(p.parseArg())
		return p.finishNode(pair, start)
	}
	return expr
}

// blocks

func (p *Parser) parseBraceBlock() *Node {
	start := p.startPos()
	open := p.next()

	p.scopes.push(ScopeBlock)
	p.pushLoop(loopBlock)
	defer func() {
		p.popLoop()
		p.scopes.pop()
	}()

	n := &Node{Kind: NodeBlock, Token: &open}
	p.parseBlockParamsInto(n)
	n.appendChild(p.parseBody(TokenRBrace))
	p.expectClosing(TokenRBrace, open.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseDoBlock() *Node {
	start := p.startPos()
	open := p.next()

	p.scopes.push(ScopeBlock)
	p.pushLoop(loopBlock)
	defer func() {
		p.popLoop()
		p.scopes.pop()
	}()

	n := &Node{Kind: NodeBlock, Token: &open}
	p.skipTerms()
	p.parseBlockParamsInto(n)
	n.appendChild(p.parseBody(TokenEnd))
	p.expectEnd(open.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseBlockParamsInto(n *Node) {
	p.skipNewlines()
	if p.at(TokenOr) {
		// || lexes as one token: an empty parameter list
		tok := p.next()
		params := &Node{Kind: NodeBlockParams, Span: tok.Span}
		n.appendChild(params)
		return
	}
	if !p.at(TokenPipe) {
		return
	}
	start := p.startPos()
	p.next()
	params := p.parseParamList(TokenPipe)
	params.Kind = NodeBlockParams
	p.expect(TokenPipe)
	n.appendChild(p.finishNode(params, start))
}

// strings

// parseDString assembles a segmented literal: content runs and
// interpolations up to the closing token. A double-quoted string with a
// single static run collapses to a plain string literal.
func (p *Parser) parseDString(kind NodeKind, endKind TokenKind) *Node {
	start := p.startPos()
	p.next() // begin token
	n := &Node{Kind: kind}
	p.parseStringSegments(n, endKind)
	node := p.finishNode(n, start)
	if kind == NodeDString && len(node.Children) <= 1 {
		if len(node.Children) == 0 {
			return &Node{Kind: NodeStringLiteral, Span: node.Span}
		}
		if c := node.Children[0]; c.Kind == NodeStringLiteral {
			return &Node{Kind: NodeStringLiteral, Span: node.Span, Token: c.Token}
		}
	}
	return node
}

func (p *Parser) parseStringSegments(n *Node, endKind TokenKind) {
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenStringContent:
			n.appendChild(p.leafNode(NodeStringLiteral, p.next()))
		case TokenInterpBegin:
			open := p.next()
			interp := &Node{Kind: NodeStringInterp}
			interp.appendChild(p.parseBody(TokenInterpEnd))
			if !p.accept(TokenInterpEnd) {
				p.report(newParseError(ErrUnmatchedDelimiter, open.Span, "unterminated interpolation"))
			}
			n.appendChild(p.finishNode(interp, open.Span.Start))
		case TokenError:
			p.next() // diagnostic already recorded
		case TokenEOF:
			return
		default:
			if tok.Kind == endKind {
				end := p.next()
				if n.Token == nil {
					n.Token = &end // regexp flags live here
				}
				return
			}
			// stray token inside a literal; skip it to make progress
			p.next()
		}
	}
}

// parseHeredoc re-enters the lexer at the heredoc body. Tokens already
// buffered belong to the rest of the opening line and are put back once
// the body is consumed.
func (p *Parser) parseHeredoc() *Node {
	start := p.startPos()
	tok := p.next()
	info, ok := tok.Value.(*HeredocInfo)
	if !ok {
		return p.errorNode(ErrUnexpectedToken, tok.Span, "malformed heredoc")
	}

	stash := p.buf
	p.buf = nil
	p.lex.EnterHeredoc(info)

	n := &Node{Kind: NodeDString, Token: &tok}
	p.parseStringSegments(n, TokenStringEnd)
	// tokens from the rest of the opening line come before anything
	// lexed after the body
	p.buf = append(stash, p.buf...)

	return p.finishNode(n, start)
}
