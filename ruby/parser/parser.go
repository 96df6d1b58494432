package parser

// DefaultMaxDepth bounds expression nesting. Parsing reports a diagnostic
// instead of exhausting the goroutine stack when a source file nests
// deeper than this.
const DefaultMaxDepth = 100

// Program is the result of parsing one source file. Diagnostics holds
// every problem found; a non-empty list means the tree contains Error
// nodes where statements could not be parsed.
type Program struct {
	Root            *Node
	Path            string
	Context         string
	Diagnostics     []*ParseError
	YieldAtTopLevel bool
}

// Option configures a parse.
type Option func(*Parser)

// WithFile sets the path recorded in every position.
func WithFile(path string) Option {
	return func(p *Parser) { p.file = path }
}

// WithContext names the evaluation context (for example "main" or the
// string passed to an eval-like caller). Purely informational.
func WithContext(name string) Option {
	return func(p *Parser) { p.context = name }
}

// WithMaxDepth overrides the nesting limit.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithLocals seeds the top-level scope with pre-existing local variables,
// the way an eval site sees the bindings of its caller.
func WithLocals(names ...string) Option {
	return func(p *Parser) {
		for _, name := range names {
			p.scopes.declareLocal(name)
		}
	}
}

type loopKind int

const (
	loopTop loopKind = iota
	loopWhile
	loopFor
	loopBlock
)

// Parser is a recursive-descent Ruby parser. It pulls tokens on demand so
// the lexer can stay context sensitive, and keeps a small lookahead buffer.
type Parser struct {
	lex      *Lexer
	file     string
	context  string
	maxDepth int

	buf  []Token
	prev Token

	scopes      *scopeStack
	loops       []loopKind
	diags       []*ParseError
	depth       int
	tooDeep     bool
	cmdArgDepth int

	yieldAtTop      bool
	suppressDoBlock bool
}

func newParser(source []byte, opts ...Option) *Parser {
	p := &Parser{
		maxDepth: DefaultMaxDepth,
		scopes:   newScopeStack(),
		loops:    []loopKind{loopTop},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lex = NewLexer(source, p.file)
	return p
}

// ParseProgram parses source into a Program. The tree is always returned;
// when diagnostics were collected the first one is also returned as the
// error so callers can treat the parse as failed.
func ParseProgram(source []byte, opts ...Option) (*Program, error) {
	p := newParser(source, opts...)
	root := p.parseProgram()
	prog := &Program{
		Root:            root,
		Path:            p.file,
		Context:         p.context,
		Diagnostics:     p.diags,
		YieldAtTopLevel: p.yieldAtTop,
	}
	if len(p.diags) > 0 {
		return prog, p.diags[0]
	}
	return prog, nil
}

// ParseExpression parses a single expression, requiring that nothing but
// terminators follow it.
func ParseExpression(source []byte, opts ...Option) (*Node, error) {
	p := newParser(source, opts...)
	p.skipTerms()
	expr := p.parseStatement()
	p.skipTerms()
	if p.peek().Kind != TokenEOF {
		tok := p.peek()
		p.report(newParseError(ErrUnexpectedToken, tok.Span, "unexpected %s after expression", tok.Kind))
	}
	if len(p.diags) > 0 {
		return expr, p.diags[0]
	}
	return expr, nil
}

// token plumbing

// fetch pulls one more token into the buffer, recording lexer diagnostics
// as they stream past and dropping comments.
func (p *Parser) fetch() {
	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenComment {
			continue
		}
		if tok.Kind == TokenError {
			if perr, ok := tok.Value.(*ParseError); ok {
				p.report(perr)
			}
		}
		p.buf = append(p.buf, tok)
		return
	}
}

func (p *Parser) peek() Token {
	if len(p.buf) == 0 {
		p.fetch()
	}
	return p.buf[0]
}

func (p *Parser) peekN(n int) Token {
	for len(p.buf) <= n {
		p.fetch()
	}
	return p.buf[n]
}

// peekNoTerm looks past newline tokens, without consuming them.
func (p *Parser) peekNoTerm() Token {
	i := 0
	for {
		tok := p.peekN(i)
		if tok.Kind != TokenNewline {
			return tok
		}
		i++
	}
}

func (p *Parser) next() Token {
	tok := p.peek()
	p.buf = p.buf[1:]
	if tok.Kind != TokenEOF {
		p.prev = tok
	}
	return tok
}

func (p *Parser) at(kind TokenKind) bool {
	return p.peek().Kind == kind
}

// accept consumes the next token when it has the given kind.
func (p *Parser) accept(kind TokenKind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

// acceptNoTerm consumes line terminators followed by the given kind, when
// present. Used where a construct may continue on the next line.
func (p *Parser) acceptNoTerm(kind TokenKind) bool {
	if p.peekNoTerm().Kind != kind {
		return false
	}
	for p.at(TokenNewline) {
		p.next()
	}
	p.next()
	return true
}

// expect consumes a token of the given kind or records a diagnostic.
func (p *Parser) expect(kind TokenKind) (Token, bool) {
	if p.at(kind) {
		return p.next(), true
	}
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.report(newParseError(ErrUnexpectedEOF, tok.Span, "expected %s, found end of file", kind))
	} else {
		p.report(newParseError(ErrUnexpectedToken, tok.Span, "expected %s, found %s", kind, tok.Kind))
	}
	return tok, false
}

func (p *Parser) atTerm() bool {
	return p.peek().IsTerm()
}

func (p *Parser) skipTerms() {
	for p.at(TokenNewline) || p.at(TokenSemicolon) {
		p.next()
	}
}

func (p *Parser) skipNewlines() {
	for p.at(TokenNewline) {
		p.next()
	}
}

func (p *Parser) report(err *ParseError) {
	// once the nesting limit has been hit, the unwind produces cascading
	// close-delimiter complaints that tell the user nothing new
	if p.tooDeep && err.Kind != ErrNestingTooDeep {
		return
	}
	p.diags = append(p.diags, err)
}

// save and restore support short trial parses, for example deciding
// whether `a, b` begins a multiple assignment. Diagnostics reported during
// the trial are rolled back with it.
type parseMark struct {
	lex   LexState
	buf   []Token
	prev  Token
	diags int
}

func (p *Parser) save() parseMark {
	return parseMark{
		lex:   p.lex.Save(),
		buf:   append([]Token(nil), p.buf...),
		prev:  p.prev,
		diags: len(p.diags),
	}
}

func (p *Parser) restore(m parseMark) {
	p.lex.Restore(m.lex)
	p.buf = m.buf
	p.prev = m.prev
	p.diags = p.diags[:m.diags]
}

// spans

func (p *Parser) startPos() Position {
	return p.peek().Span.Start
}

func (p *Parser) finishNode(n *Node, start Position) *Node {
	end := p.prev.Span.End
	if end.Offset < start.Offset {
		end = start
	}
	span := Span{Start: start, End: end}
	// a heredoc body lies beyond the rest of its opening line, so a
	// child may end after the last consumed token
	for _, c := range n.Children {
		span = span.Merge(c.Span)
	}
	n.Span = span
	return n
}

func (p *Parser) leafNode(kind NodeKind, tok Token) *Node {
	t := tok
	return &Node{Kind: kind, Span: tok.Span, Token: &t}
}

// depth guard

func (p *Parser) enter(span Span) bool {
	p.depth++
	if p.depth > p.maxDepth {
		if !p.tooDeep {
			p.tooDeep = true
			p.report(newParseError(ErrNestingTooDeep, span, "nesting exceeds the configured limit of %d", p.maxDepth))
		}
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// error recovery

// errorNode records a diagnostic and produces an Error node covering the
// offending token.
func (p *Parser) errorNode(kind ErrorKind, span Span, format string, args ...any) *Node {
	err := newParseError(kind, span, format, args...)
	p.report(err)
	return &Node{Kind: NodeError, Span: span, Err: err}
}

// errorNodeNoReport wraps an already-reported diagnostic.
func errorNodeNoReport(err *ParseError) *Node {
	return &Node{Kind: NodeError, Span: err.Span, Err: err}
}

// recoverToTerm discards tokens up to the next statement boundary so that
// parsing can continue and collect further diagnostics.
func (p *Parser) recoverToTerm() {
	for {
		switch p.peek().Kind {
		case TokenNewline, TokenSemicolon, TokenEOF,
			TokenEnd, TokenDef, TokenClass, TokenModule,
			TokenIf, TokenUnless, TokenWhile, TokenUntil, TokenCase, TokenBegin:
			return
		}
		p.next()
	}
}

// drainToEOF consumes the rest of the input. Used once the nesting limit
// has been hit, so the recursion can unwind without reparsing.
func (p *Parser) drainToEOF() {
	for p.peek().Kind != TokenEOF {
		p.next()
	}
}

// program

func (p *Parser) parseProgram() *Node {
	start := p.startPos()
	root := &Node{Kind: NodeProgram}
	p.skipTerms()
	for !p.at(TokenEOF) {
		before := p.peek().Span.Start.Offset
		stmt := p.parseStatement()
		root.appendChild(stmt)
		if stmt.Kind == NodeError {
			p.recoverToTerm()
			// sync keywords stop recovery but must not stall the loop
			if p.peek().Span.Start.Offset == before && !p.at(TokenEOF) {
				p.next()
			}
		}
		if !p.atTerm() && !p.at(TokenEOF) {
			tok := p.peek()
			root.appendChild(p.errorNode(ErrUnexpectedToken, tok.Span, "unexpected %s after statement", tok.Kind))
			p.recoverToTerm()
			if p.peek().Span.Start.Offset == before && !p.at(TokenEOF) {
				p.next()
			}
		}
		p.skipTerms()
	}
	return p.finishNode(root, start)
}

// parseBody parses statements until one of the stop keywords, which is
// left unconsumed. Used for every `...end` body in the grammar.
func (p *Parser) parseBody(stops ...TokenKind) *Node {
	start := p.startPos()
	body := &Node{Kind: NodeStatements}
	p.skipTerms()
	for {
		tok := p.peek()
		if tok.Kind == TokenEOF {
			break
		}
		if tokenKindIn(tok.Kind, stops) {
			break
		}
		before := tok.Span.Start.Offset
		stmt := p.parseStatement()
		body.appendChild(stmt)
		if stmt.Kind == NodeError {
			p.recoverToTerm()
		}
		if !p.atTerm() && !tokenKindIn(p.peek().Kind, stops) {
			t := p.peek()
			body.appendChild(p.errorNode(ErrUnexpectedToken, t.Span, "unexpected %s after statement", t.Kind))
			p.recoverToTerm()
		}
		if p.peek().Span.Start.Offset == before && !p.at(TokenEOF) && !tokenKindIn(p.peek().Kind, stops) {
			p.next()
		}
		p.skipTerms()
	}
	return p.finishNode(body, start)
}

// expectEnd consumes the `end` of a construct opened at openSpan,
// reporting an unmatched delimiter otherwise.
func (p *Parser) expectEnd(openSpan Span) {
	if p.accept(TokenEnd) {
		return
	}
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.report(newParseError(ErrUnmatchedDelimiter, openSpan, "missing end for this opening"))
		return
	}
	p.report(newParseError(ErrUnexpectedToken, tok.Span, "expected end, found %s", tok.Kind))
}

// expectClosing consumes a closing delimiter, reporting an unmatched
// delimiter anchored at the opening when the input ends first.
func (p *Parser) expectClosing(kind TokenKind, openSpan Span) {
	if p.accept(kind) {
		return
	}
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.report(newParseError(ErrUnmatchedDelimiter, openSpan, "unclosed %s", kind))
		return
	}
	p.report(newParseError(ErrUnexpectedToken, tok.Span, "expected %s, found %s", kind, tok.Kind))
}

func tokenKindIn(kind TokenKind, kinds []TokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// loop stack

func (p *Parser) pushLoop(kind loopKind) {
	p.loops = append(p.loops, kind)
}

func (p *Parser) popLoop() {
	p.loops = p.loops[:len(p.loops)-1]
}

// inLoopOrBlock reports whether break, next and redo are legal here: the
// innermost frame must be a loop or a block, not a method or the top level.
func (p *Parser) inLoopOrBlock() bool {
	switch p.loops[len(p.loops)-1] {
	case loopWhile, loopFor, loopBlock:
		return true
	}
	return false
}
