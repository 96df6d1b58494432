package parser

// parseDef parses a method definition: plain, singleton (`def obj.name`),
// operator and setter names, parenthesized or bare parameter lists, and
// the endless form `def name = expr`.
func (p *Parser) parseDef() *Node {
	start := p.startPos()
	defTok := p.next()
	if !p.enter(defTok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	n := &Node{Kind: NodeDef}

	// singleton receiver
	switch p.peek().Kind {
	case TokenSelf:
		if p.peekN(1).Kind == TokenDot {
			n.appendChild(p.leafNode(NodeSelf, p.next()))
			p.next()
		}
	case TokenIdent:
		if p.peekN(1).Kind == TokenDot {
			n.appendChild(p.leafNode(NodeLocalVariable, p.next()))
			p.next()
		}
	case TokenConst:
		if p.peekN(1).Kind == TokenDot {
			n.appendChild(p.leafNode(NodeConstant, p.next()))
			p.next()
		}
	}

	name, ok := p.methodNameToken()
	if !ok {
		tok := p.peek()
		nameErr := p.errorNode(ErrUnexpectedToken, tok.Span, "expected method name, found %s", tok.Kind)
		p.recoverToTerm()
		n.appendChild(nameErr)
		return p.finishNode(n, start)
	}
	// setter: `def name=(value)`; the `=` is attached to the name
	if (name.Kind == TokenIdent || name.Kind == TokenConst) &&
		p.at(TokenAssign) && !p.peek().SpaceBefore {
		eq := p.next()
		name.Literal += "="
		name.Span.End = eq.Span.End
	}
	n.Token = &name

	p.scopes.push(ScopeMethod)
	p.pushLoop(loopTop)
	defer func() {
		p.popLoop()
		p.scopes.pop()
	}()

	if p.at(TokenLParen) {
		open := p.next()
		params := p.parseParamList(TokenRParen)
		p.expectClosing(TokenRParen, open.Span)
		n.appendChild(params)
	} else if !p.atTerm() && !p.at(TokenAssign) {
		n.appendChild(p.parseParamList(TokenNewline, TokenSemicolon, TokenAssign))
	} else {
		n.appendChild(&Node{Kind: NodeParams, Span: Span{Start: p.prev.Span.End, End: p.prev.Span.End}})
	}

	// endless method
	if p.at(TokenAssign) {
		p.next()
		p.skipNewlines()
		body := p.parseExprStmt()
		n.appendChild(p.wrapStatements(body))
		return p.finishNode(n, start)
	}

	p.skipTerms()
	body := p.parseBody(TokenRescue, TokenElse, TokenEnsure, TokenEnd)
	if p.at(TokenRescue) || p.at(TokenEnsure) {
		wrapper := &Node{Kind: NodeBegin, Span: body.Span}
		wrapper.appendChild(body)
		p.parseRescueChain(wrapper)
		p.finishNode(wrapper, body.Span.Start)
		n.appendChild(wrapper)
	} else {
		n.appendChild(body)
	}
	p.expectEnd(defTok.Span)
	return p.finishNode(n, start)
}

// parameter list stages, in the only order Ruby accepts
const (
	paramRequired = iota
	paramOptional
	paramRest
	paramPost
	paramKeyword
	paramKWRest
	paramBlock
)

// parseParamList parses a method, block or lambda parameter list up to
// one of the stop tokens. Parameters are declared in the current scope as
// they are parsed, duplicates and out-of-order kinds are diagnosed.
func (p *Parser) parseParamList(stops ...TokenKind) *Node {
	start := p.startPos()
	params := &Node{Kind: NodeParams}
	seen := map[string]bool{}
	stage := paramRequired

	declare := func(tok Token) {
		name := tok.Literal
		if name == "" {
			return
		}
		if seen[name] {
			p.report(newParseError(ErrUnexpectedToken, tok.Span, "duplicate parameter name %s", name))
		}
		seen[name] = true
		p.scopes.declareLocal(name)
	}
	badOrder := func(span Span, what string) {
		p.report(newParseError(ErrUnexpectedToken, span, "%s parameter cannot appear here", what))
	}

	for {
		if tokenKindIn(p.peek().Kind, stops) || p.at(TokenEOF) {
			break
		}
		itemStart := p.startPos()
		switch tok := p.peek(); tok.Kind {
		case TokenStar:
			op := p.next()
			if stage >= paramRest {
				badOrder(op.Span, "rest")
			}
			stage = paramRest
			item := &Node{Kind: NodeRestParam, Token: &op}
			if p.at(TokenIdent) {
				nameTok := p.next()
				declare(nameTok)
				item.Token = &nameTok
			}
			params.appendChild(p.finishNode(item, itemStart))

		case TokenDStar:
			op := p.next()
			if stage >= paramKWRest {
				badOrder(op.Span, "keyword rest")
			}
			stage = paramKWRest
			item := &Node{Kind: NodeKeywordRestParam, Token: &op}
			if p.at(TokenIdent) {
				nameTok := p.next()
				declare(nameTok)
				item.Token = &nameTok
			}
			params.appendChild(p.finishNode(item, itemStart))

		case TokenAmp:
			op := p.next()
			item := &Node{Kind: NodeBlockParam, Token: &op}
			if p.at(TokenIdent) {
				nameTok := p.next()
				declare(nameTok)
				item.Token = &nameTok
			} else {
				p.report(newParseError(ErrUnexpectedToken, op.Span, "block parameter needs a name"))
			}
			stage = paramBlock
			params.appendChild(p.finishNode(item, itemStart))

		case TokenLabel:
			nameTok := p.next()
			if stage > paramKeyword {
				badOrder(nameTok.Span, "keyword")
			} else {
				stage = paramKeyword
			}
			declare(Token{Kind: TokenIdent, Span: nameTok.Span, Literal: nameTok.Value.(string)})
			item := &Node{Kind: NodeKeywordParam, Token: &nameTok}
			if !p.at(TokenComma) && !tokenKindIn(p.peek().Kind, stops) && !p.at(TokenEOF) {
				item.appendChild(p.parseArg())
			}
			params.appendChild(p.finishNode(item, itemStart))

		case TokenIdent:
			nameTok := p.next()
			if p.accept(TokenAssign) {
				if stage > paramOptional {
					badOrder(nameTok.Span, "optional")
				} else {
					stage = paramOptional
				}
				declare(nameTok)
				item := &Node{Kind: NodeOptionalParam, Token: &nameTok}
				item.appendChild(p.parseArg())
				params.appendChild(p.finishNode(item, itemStart))
			} else {
				kind := NodeRequiredParam
				if stage >= paramKeyword {
					badOrder(nameTok.Span, "required")
				} else if stage >= paramRest {
					stage = paramPost
				}
				declare(nameTok)
				params.appendChild(p.finishNode(&Node{Kind: kind, Token: &nameTok}, itemStart))
			}

		default:
			if tok.Kind.IsKeyword() {
				p.next()
				params.appendChild(p.errorNode(ErrReservedWordMisuse, tok.Span, "reserved word %s cannot be a parameter name", tok.Literal))
			} else {
				p.next()
				params.appendChild(p.errorNode(ErrUnexpectedToken, tok.Span, "expected parameter, found %s", tok.Kind))
			}
		}

		if !p.accept(TokenComma) {
			break
		}
		p.skipNewlines()
	}
	return p.finishNode(params, start)
}

// parseClass parses `class Name < Super ... end` and the singleton form
// `class << obj ... end`. A class definition inside a method body is a
// syntax error but is still parsed for the tree.
func (p *Parser) parseClass() *Node {
	start := p.startPos()
	classTok := p.next()
	if !p.enter(classTok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	if p.at(TokenShl) {
		p.next()
		n := &Node{Kind: NodeSingletonClass}
		n.appendChild(p.parseExprStmt())
		p.skipTerms()
		p.scopes.push(ScopeClass)
		p.pushLoop(loopTop)
		n.appendChild(p.parseBody(TokenEnd))
		p.popLoop()
		p.scopes.pop()
		p.expectEnd(classTok.Span)
		return p.finishNode(n, start)
	}

	if p.scopes.inMethod() {
		p.report(newParseError(ErrInvalidControlFlow, classTok.Span, "class definition in method body"))
	}

	n := &Node{Kind: NodeClass}
	n.appendChild(p.parseConstRef())
	if p.accept(TokenLT) {
		n.appendChild(p.parseExprStmt())
	}
	p.skipTerms()

	p.scopes.push(ScopeClass)
	p.pushLoop(loopTop)
	n.appendChild(p.parseBody(TokenEnd))
	p.popLoop()
	p.scopes.pop()
	p.expectEnd(classTok.Span)
	return p.finishNode(n, start)
}

func (p *Parser) parseModule() *Node {
	start := p.startPos()
	modTok := p.next()
	if !p.enter(modTok.Span) {
		p.drainToEOF()
		return errorNodeNoReport(p.diags[len(p.diags)-1])
	}
	defer p.leave()

	if p.scopes.inMethod() {
		p.report(newParseError(ErrInvalidControlFlow, modTok.Span, "module definition in method body"))
	}

	n := &Node{Kind: NodeModule}
	n.appendChild(p.parseConstRef())
	p.skipTerms()

	p.scopes.push(ScopeClass)
	p.pushLoop(loopTop)
	n.appendChild(p.parseBody(TokenEnd))
	p.popLoop()
	p.scopes.pop()
	p.expectEnd(modTok.Span)
	return p.finishNode(n, start)
}

// parseConstRef parses the constant path naming a class or module:
// `Name`, `A::B::C`, `::Top`.
func (p *Parser) parseConstRef() *Node {
	start := p.startPos()

	var base *Node
	if p.accept(TokenColonColon) {
		if !p.at(TokenConst) {
			tok := p.peek()
			return p.errorNode(ErrUnexpectedToken, tok.Span, "expected constant, found %s", tok.Kind)
		}
		name := p.next()
		base = p.finishNode(&Node{Kind: NodeConstPath, Token: &name}, start)
	} else if p.at(TokenConst) {
		base = p.leafNode(NodeConstant, p.next())
	} else {
		tok := p.peek()
		return p.errorNode(ErrUnexpectedToken, tok.Span, "expected constant, found %s", tok.Kind)
	}

	for p.at(TokenColonColon) && p.peekN(1).Kind == TokenConst {
		p.next()
		name := p.next()
		path := &Node{Kind: NodeConstPath, Token: &name}
		path.appendChild(base)
		base = p.finishNode(path, start)
	}
	return base
}
