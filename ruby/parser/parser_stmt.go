package parser

// parseStatement parses one statement: an expression possibly wrapped by
// modifier keywords (`stmt if cond`, `stmt rescue fallback`, ...).
// Modifiers chain left to right, so `a if b if c` guards (a if b) with c.
func (p *Parser) parseStatement() *Node {
	start := p.startPos()

	switch p.peek().Kind {
	case TokenAlias:
		return p.parseAlias()
	case TokenUndef:
		return p.parseUndef()
	}

	expr := p.parseExprStmt()

	for {
		switch p.peek().Kind {
		case TokenIf:
			p.next()
			cond := p.parseExprStmt()
			n := &Node{Kind: NodeIf}
			n.appendChild(cond)
			n.appendChild(p.wrapStatements(expr))
			expr = p.finishNode(n, start)
		case TokenUnless:
			p.next()
			cond := p.parseExprStmt()
			n := &Node{Kind: NodeUnless}
			n.appendChild(cond)
			n.appendChild(p.wrapStatements(expr))
			expr = p.finishNode(n, start)
		case TokenWhile:
			p.next()
			cond := p.parseExprStmt()
			n := &Node{Kind: NodeWhile}
			n.appendChild(cond)
			n.appendChild(p.wrapStatements(expr))
			expr = p.finishNode(n, start)
		case TokenUntil:
			p.next()
			cond := p.parseExprStmt()
			n := &Node{Kind: NodeUntil}
			n.appendChild(cond)
			n.appendChild(p.wrapStatements(expr))
			expr = p.finishNode(n, start)
		case TokenRescue:
			p.next()
			fallback := p.parseExprStmt()
			rescue := &Node{Kind: NodeRescue, Span: fallback.Span}
			rescue.appendChild(p.wrapStatements(fallback))
			n := &Node{Kind: NodeBegin}
			n.appendChild(p.wrapStatements(expr))
			n.appendChild(rescue)
			expr = p.finishNode(n, start)
		default:
			return expr
		}
	}
}

func (p *Parser) wrapStatements(stmt *Node) *Node {
	return &Node{Kind: NodeStatements, Span: stmt.Span, Children: []*Node{stmt}}
}

// parseExprStmt parses an expression at statement level: multiple
// assignment, then the low-binding keyword operators `and`, `or`, `not`.
func (p *Parser) parseExprStmt() *Node {
	if p.atMlhsCandidate() {
		if n, ok := p.tryParseMultipleAssign(); ok {
			return n
		}
	}
	return p.parseKeywordLogic()
}

func (p *Parser) parseKeywordLogic() *Node {
	start := p.startPos()
	left := p.parseKeywordNot()
	for p.at(TokenAndKw) || p.at(TokenOrKw) {
		op := p.next()
		p.skipNewlines()
		right := p.parseKeywordNot()
		n := &Node{Kind: NodeBinaryOp, Token: &op}
		n.appendChild(left)
		n.appendChild(right)
		left = p.finishNode(n, start)
	}
	return left
}

func (p *Parser) parseKeywordNot() *Node {
	if p.at(TokenNotKw) {
		start := p.startPos()
		op := p.next()
		operand := p.parseKeywordNot()
		n := &Node{Kind: NodeUnaryOp, Token: &op}
		n.appendChild(operand)
		return p.finishNode(n, start)
	}
	return p.parseExpr()
}

// multiple assignment

func (p *Parser) atMlhsCandidate() bool {
	switch p.peek().Kind {
	case TokenStar:
		return true
	case TokenIdent, TokenConst, TokenIVar, TokenCVar, TokenGVar, TokenLParen, TokenSelf:
		// a comma or `=` must follow the first target for this to be a
		// multiple assignment; the trial parse settles it
		return true
	}
	return false
}

// tryParseMultipleAssign attempts `a, b = ...` with a trial parse of the
// target list. On failure the parser state is rolled back and the caller
// parses a plain expression instead.
func (p *Parser) tryParseMultipleAssign() (*Node, bool) {
	m := p.save()
	start := p.startPos()

	targets, ok := p.parseMlhsTargets()
	if !ok || !p.at(TokenAssign) {
		p.restore(m)
		return nil, false
	}
	p.next() // =

	// targets bind before the right-hand side is parsed, so the values
	// may mention the variables being assigned
	for _, t := range targets.Children {
		p.declareTarget(t)
	}

	p.skipNewlines()
	value := p.parseMrhs()

	n := &Node{Kind: NodeMultipleAssign}
	n.appendChild(targets)
	n.appendChild(value)
	return p.finishNode(n, start), true
}

// parseMlhsTargets parses a comma-separated assignment target list. It
// succeeds only for genuine multi-target shapes: at least one comma or a
// splat target.
func (p *Parser) parseMlhsTargets() (*Node, bool) {
	start := p.startPos()
	list := &Node{Kind: NodeTargetList}
	sawComma := false
	sawSplat := false
	for {
		item, ok := p.parseMlhsItem()
		if !ok {
			return nil, false
		}
		if item.Kind == NodeSplat {
			sawSplat = true
		}
		list.appendChild(item)
		if !p.accept(TokenComma) {
			break
		}
		sawComma = true
		if p.at(TokenAssign) {
			break // trailing comma: `a, = pair`
		}
	}
	if !sawComma && !sawSplat {
		return nil, false
	}
	return p.finishNode(list, start), true
}

func (p *Parser) parseMlhsItem() (*Node, bool) {
	start := p.startPos()

	if p.at(TokenStar) {
		tok := p.next()
		n := &Node{Kind: NodeSplat, Token: &tok}
		switch p.peek().Kind {
		case TokenComma, TokenAssign:
			return p.finishNode(n, start), true
		}
		inner, ok := p.parseMlhsItem()
		if !ok {
			return nil, false
		}
		n.appendChild(inner)
		return p.finishNode(n, start), true
	}

	if p.accept(TokenLParen) {
		inner := &Node{Kind: NodeTargetList}
		for {
			item, ok := p.parseMlhsItem()
			if !ok {
				return nil, false
			}
			inner.appendChild(item)
			if !p.accept(TokenComma) {
				break
			}
		}
		if !p.accept(TokenRParen) {
			return nil, false
		}
		return p.finishNode(inner, start), true
	}

	var base *Node
	switch p.peek().Kind {
	case TokenIdent:
		tok := p.next()
		base = p.leafNode(NodeLocalVariable, tok)
	case TokenConst:
		tok := p.next()
		base = p.leafNode(NodeConstant, tok)
	case TokenIVar:
		tok := p.next()
		base = p.leafNode(NodeInstanceVariable, tok)
	case TokenCVar:
		tok := p.next()
		base = p.leafNode(NodeClassVariable, tok)
	case TokenGVar:
		tok := p.next()
		base = p.leafNode(NodeGlobalVariable, tok)
	case TokenSelf:
		tok := p.next()
		base = p.leafNode(NodeSelf, tok)
	default:
		return nil, false
	}

	// attribute and element targets: a.b, a::B, a[i]
	for {
		switch p.peek().Kind {
		case TokenDot:
			p.next()
			name, ok := p.methodNameToken()
			if !ok {
				return nil, false
			}
			call := &Node{Kind: NodeCall, Token: &name}
			call.appendChild(base)
			base = p.finishNode(call, start)
		case TokenColonColon:
			p.next()
			if p.at(TokenConst) {
				name := p.next()
				path := &Node{Kind: NodeConstPath, Token: &name}
				path.appendChild(base)
				base = p.finishNode(path, start)
			} else {
				name, ok := p.methodNameToken()
				if !ok {
					return nil, false
				}
				call := &Node{Kind: NodeCall, Token: &name}
				call.appendChild(base)
				base = p.finishNode(call, start)
			}
		case TokenLBracket:
			if p.peek().SpaceBefore {
				return p.mlhsBaseDone(base)
			}
			p.next()
			idx := &Node{Kind: NodeIndex}
			idx.appendChild(base)
			p.skipNewlines()
			if !p.at(TokenRBracket) {
				for {
					idx.appendChild(p.parseArg())
					if !p.accept(TokenComma) {
						break
					}
					p.skipNewlines()
				}
			}
			p.skipNewlines()
			if !p.accept(TokenRBracket) {
				return nil, false
			}
			base = p.finishNode(idx, start)
		default:
			return p.mlhsBaseDone(base)
		}
	}
}

func (p *Parser) mlhsBaseDone(base *Node) (*Node, bool) {
	if base.Kind == NodeSelf {
		return nil, false
	}
	return base, true
}

// parseMrhs parses the right-hand side of an assignment: one expression,
// or a comma-separated list that implicitly builds an array.
func (p *Parser) parseMrhs() *Node {
	start := p.startPos()
	first := p.parseSplatArg()
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

func (p *Parser) parseSplatArg() *Node {
	if p.at(TokenStar) {
		start := p.startPos()
		tok := p.next()
		n := &Node{Kind: NodeSplat, Token: &tok}
		n.appendChild(p.parseArg())
		return p.finishNode(n, start)
	}
	return p.parseArg()
}

// declareTarget binds every plain identifier inside an assignment target.
func (p *Parser) declareTarget(t *Node) {
	switch t.Kind {
	case NodeLocalVariable:
		p.scopes.declareLocal(t.Name())
	case NodeSplat, NodeTargetList:
		for _, c := range t.Children {
			p.declareTarget(c)
		}
	}
}

// control flow constructs; these are expressions and are reached from the
// primary parser

func (p *Parser) parseIf() *Node {
	start := p.startPos()
	ifTok := p.next()
	if !p.enter(ifTok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	cond := p.parseExprStmt()
	p.parseThen()
	then := p.parseBody(TokenElsif, TokenElse, TokenEnd)

	n := &Node{Kind: NodeIf}
	n.appendChild(cond)
	n.appendChild(then)
	p.appendElseChain(n)
	p.expectEnd(ifTok.Span)
	return p.finishNode(n, start)
}

// appendElseChain attaches the elsif/else tail shared by if and case.
func (p *Parser) appendElseChain(n *Node) {
	if p.at(TokenElsif) {
		start := p.startPos()
		p.next()
		cond := p.parseExprStmt()
		p.parseThen()
		then := p.parseBody(TokenElsif, TokenElse, TokenEnd)
		elsif := &Node{Kind: NodeIf}
		elsif.appendChild(cond)
		elsif.appendChild(then)
		p.appendElseChain(elsif)
		n.appendChild(p.finishNode(elsif, start))
		return
	}
	if p.at(TokenElse) {
		start := p.startPos()
		p.next()
		body := p.parseBody(TokenEnd)
		els := &Node{Kind: NodeElse, Children: []*Node{body}}
		n.appendChild(p.finishNode(els, start))
	}
}

func (p *Parser) parseUnless() *Node {
	start := p.startPos()
	tok := p.next()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	cond := p.parseExprStmt()
	p.parseThen()
	then := p.parseBody(TokenElse, TokenElsif, TokenEnd)

	n := &Node{Kind: NodeUnless}
	n.appendChild(cond)
	n.appendChild(then)
	if p.at(TokenElsif) {
		t := p.peek()
		n.appendChild(p.errorNode(ErrUnexpectedToken, t.Span, "elsif is not allowed after unless"))
		p.recoverToTerm()
	}
	if p.accept(TokenElse) {
		elsStart := p.prev.Span.Start
		body := p.parseBody(TokenEnd)
		els := &Node{Kind: NodeElse, Children: []*Node{body}}
		n.appendChild(p.finishNode(els, elsStart))
	}
	p.expectEnd(tok.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseWhile() *Node {
	return p.parseLoopConstruct(NodeWhile)
}

func (p *Parser) parseUntil() *Node {
	return p.parseLoopConstruct(NodeUntil)
}

func (p *Parser) parseLoopConstruct(kind NodeKind) *Node {
	start := p.startPos()
	tok := p.next()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	// a trailing `do` closes the condition, so do-end blocks cannot
	// attach inside it
	p.suppressDoBlock = true
	cond := p.parseExprStmt()
	p.suppressDoBlock = false
	p.parseDo()

	p.pushLoop(loopWhile)
	body := p.parseBody(TokenEnd)
	p.popLoop()
	p.expectEnd(tok.Span)

	n := &Node{Kind: kind}
	n.appendChild(cond)
	n.appendChild(body)
	return p.finishNode(n, start)
}

func (p *Parser) parseFor() *Node {
	start := p.startPos()
	tok := p.next()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	p.scopes.push(ScopeFor)
	defer p.scopes.pop()

	vars := &Node{Kind: NodeTargetList}
	varsStart := p.startPos()
	for {
		if item, ok := p.parseMlhsItem(); ok {
			p.declareTarget(item)
			vars.appendChild(item)
		} else {
			t := p.peek()
			vars.appendChild(p.errorNode(ErrUnexpectedToken, t.Span, "expected loop variable, found %s", t.Kind))
			break
		}
		if !p.accept(TokenComma) {
			break
		}
	}
	p.finishNode(vars, varsStart)

	p.expect(TokenIn)
	p.suppressDoBlock = true
	iter := p.parseExprStmt()
	p.suppressDoBlock = false
	p.parseDo()

	p.pushLoop(loopFor)
	body := p.parseBody(TokenEnd)
	p.popLoop()
	p.expectEnd(tok.Span)

	n := &Node{Kind: NodeFor}
	n.appendChild(vars)
	n.appendChild(iter)
	n.appendChild(body)
	return p.finishNode(n, start)
}

func (p *Parser) parseCase() *Node {
	start := p.startPos()
	tok := p.next()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	n := &Node{Kind: NodeCase}
	if !p.atTerm() && !p.at(TokenWhen) {
		n.appendChild(p.parseExprStmt())
	}
	p.skipTerms()

	for p.at(TokenWhen) {
		whenStart := p.startPos()
		p.next()
		when := &Node{Kind: NodeWhen}
		for {
			when.appendChild(p.parseSplatArg())
			if !p.accept(TokenComma) {
				break
			}
			p.skipNewlines()
		}
		p.parseThen()
		when.appendChild(p.parseBody(TokenWhen, TokenElse, TokenEnd))
		n.appendChild(p.finishNode(when, whenStart))
	}
	if len(n.Children) == 0 || n.FindChild(NodeWhen) == nil {
		p.report(newParseError(ErrUnexpectedToken, tok.Span, "case without when clause"))
	}
	if p.accept(TokenElse) {
		elsStart := p.prev.Span.Start
		body := p.parseBody(TokenEnd)
		els := &Node{Kind: NodeElse, Children: []*Node{body}}
		n.appendChild(p.finishNode(els, elsStart))
	}
	p.expectEnd(tok.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseBeginRescue() *Node {
	start := p.startPos()
	tok := p.next()
	if !p.enter(tok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	n := &Node{Kind: NodeBegin}
	n.appendChild(p.parseBody(TokenRescue, TokenElse, TokenEnsure, TokenEnd))
	p.parseRescueChain(n)
	p.expectEnd(tok.Span)
	return p.finishNode(n, start)
}

// parseRescueChain parses rescue clauses, an optional else, and an
// optional ensure. Shared between begin blocks and method bodies.
func (p *Parser) parseRescueChain(n *Node) {
	sawRescue := false
	for p.at(TokenRescue) {
		sawRescue = true
		rescueStart := p.startPos()
		p.next()
		rescue := &Node{Kind: NodeRescue}
		if !p.atTerm() && !p.at(TokenHashRocket) && !p.at(TokenThen) {
			for {
				rescue.appendChild(p.parseArg())
				if !p.accept(TokenComma) {
					break
				}
				p.skipNewlines()
			}
		}
		if p.accept(TokenHashRocket) {
			if p.at(TokenIdent) {
				name := p.next()
				p.scopes.declareLocal(name.Literal)
				rescue.appendChild(p.leafNode(NodeLocalVariable, name))
			} else if p.at(TokenIVar) {
				rescue.appendChild(p.leafNode(NodeInstanceVariable, p.next()))
			} else if p.at(TokenGVar) {
				rescue.appendChild(p.leafNode(NodeGlobalVariable, p.next()))
			} else {
				t := p.peek()
				rescue.appendChild(p.errorNode(ErrUnexpectedToken, t.Span, "expected rescue variable, found %s", t.Kind))
			}
		}
		p.parseThen()
		rescue.appendChild(p.parseBody(TokenRescue, TokenElse, TokenEnsure, TokenEnd))
		n.appendChild(p.finishNode(rescue, rescueStart))
	}
	if p.at(TokenElse) && sawRescue {
		elsStart := p.startPos()
		p.next()
		body := p.parseBody(TokenEnsure, TokenEnd)
		els := &Node{Kind: NodeElse, Children: []*Node{body}}
		n.appendChild(p.finishNode(els, elsStart))
	}
	if p.at(TokenEnsure) {
		ensStart := p.startPos()
		p.next()
		body := p.parseBody(TokenEnd)
		ens := &Node{Kind: NodeEnsure, Children: []*Node{body}}
		n.appendChild(p.finishNode(ens, ensStart))
	}
}

// parseThen consumes the optional separator between a condition and its
// body: a terminator, a `then` keyword, or both.
func (p *Parser) parseThen() {
	if p.accept(TokenThen) {
		return
	}
	if p.atTerm() {
		p.skipTerms()
		p.accept(TokenThen)
	}
}

// parseDo consumes the optional separator between a loop condition and
// its body: a terminator, a `do` keyword, or both.
func (p *Parser) parseDo() {
	if p.accept(TokenDo) {
		return
	}
	if p.atTerm() {
		p.skipTerms()
		p.accept(TokenDo)
	}
}

// jumps

func (p *Parser) parseReturn() *Node {
	start := p.startPos()
	tok := p.next()
	if p.scopes.inClassBody() {
		p.report(newParseError(ErrInvalidControlFlow, tok.Span, "return in class or module body"))
	}
	n := &Node{Kind: NodeReturn, Token: &tok}
	if p.canStartArg() {
		n.appendChild(p.parseMrhs())
	}
	return p.finishNode(n, start)
}

func (p *Parser) parseBreakNext(kind NodeKind) *Node {
	start := p.startPos()
	tok := p.next()
	n := &Node{Kind: kind, Token: &tok}
	if !p.inLoopOrBlock() {
		p.report(newParseError(ErrInvalidControlFlow, tok.Span, "%s outside of a loop or block", tok.Literal))
	}
	if p.canStartArg() {
		n.appendChild(p.parseMrhs())
	}
	return p.finishNode(n, start)
}

func (p *Parser) parseRedo() *Node {
	tok := p.next()
	if !p.inLoopOrBlock() {
		p.report(newParseError(ErrInvalidControlFlow, tok.Span, "redo outside of a loop or block"))
	}
	return p.leafNode(NodeRedo, tok)
}

func (p *Parser) parseYield() *Node {
	start := p.startPos()
	tok := p.next()
	if !p.scopes.inMethod() {
		p.yieldAtTop = true
	}
	n := &Node{Kind: NodeYield, Token: &tok}
	if p.at(TokenLParen) && !p.peek().SpaceBefore {
		open := p.next()
		n.appendChild(p.parseParenArgs(open))
	} else if p.canStartArg() {
		argsStart := p.startPos()
		args := &Node{Kind: NodeArguments}
		for {
			args.appendChild(p.parseSplatArg())
			if !p.accept(TokenComma) {
				break
			}
			p.skipNewlines()
		}
		n.appendChild(p.finishNode(args, argsStart))
	}
	return p.finishNode(n, start)
}

func (p *Parser) parseAlias() *Node {
	start := p.startPos()
	p.next()
	n := &Node{Kind: NodeAlias}
	n.appendChild(p.parseAliasName())
	n.appendChild(p.parseAliasName())
	return p.finishNode(n, start)
}

func (p *Parser) parseAliasName() *Node {
	switch p.peek().Kind {
	case TokenSymbol:
		return p.leafNode(NodeSymbolLiteral, p.next())
	case TokenGVar:
		return p.leafNode(NodeGlobalVariable, p.next())
	case TokenColon:
		// `alias :new :old` after a symbol lexes the second `:` bare
		p.next()
		if name, ok := p.methodNameToken(); ok {
			return p.leafNode(NodeSymbolLiteral, name)
		}
	}
	if name, ok := p.methodNameToken(); ok {
		return p.leafNode(NodeSymbolLiteral, name)
	}
	tok := p.peek()
	return p.errorNode(ErrUnexpectedToken, tok.Span, "expected method name, found %s", tok.Kind)
}

func (p *Parser) parseUndef() *Node {
	start := p.startPos()
	p.next()
	n := &Node{Kind: NodeUndef}
	for {
		n.appendChild(p.parseAliasName())
		if !p.accept(TokenComma) {
			break
		}
	}
	return p.finishNode(n, start)
}
