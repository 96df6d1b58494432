package parser

import (
	"strconv"
	"strings"
)

// Lexer produces Ruby tokens on demand. Tokenization is context sensitive:
// whether `/` opens a regexp, whether `<<` opens a heredoc, and whether `%`
// opens a percent literal all depend on the preceding token and on whether
// the parser has signalled command-argument position. The parser therefore
// pulls tokens one at a time instead of tokenizing up front.
type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int

	lastKind   TokenKind
	spaceSeen  bool
	commandArg bool

	states []stringState
	skips  []skipRegion
}

type stringMode int

const (
	modeDQuote stringMode = iota
	modeRegexp
	modeHeredoc
	modeInterp
)

type stringState struct {
	mode       stringMode
	term       byte
	open       byte // paired opening delimiter for %-literals, 0 otherwise
	nest       int
	braceDepth int
	interp     bool
	startPos   Position
	limit      int // heredoc body end
	indent     int // heredoc columns stripped per line (<<~)
	atLineTop  bool
	resume     lexMark // restored when a heredoc body is exhausted
}

// skipRegion marks a heredoc body that normal scanning must jump over once
// the introducing line's newline has been consumed.
type skipRegion struct {
	start, end int
	lines      int
}

type lexMark struct {
	pos, line, column int
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  input,
		file:   file,
		pos:    0,
		line:   1,
		column: 1,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// LexState captures enough lexer state for the parser to rewind after a
// trial parse. Only valid while no string mode is active at save time.
type LexState struct {
	mark      lexMark
	lastKind  TokenKind
	spaceSeen bool
	nskips    int
}

func (l *Lexer) Save() LexState {
	return LexState{
		mark:      lexMark{l.pos, l.line, l.column},
		lastKind:  l.lastKind,
		spaceSeen: l.spaceSeen,
		nskips:    len(l.skips),
	}
}

func (l *Lexer) Restore(s LexState) {
	l.pos, l.line, l.column = s.mark.pos, s.mark.line, s.mark.column
	l.lastKind = s.lastKind
	l.spaceSeen = s.spaceSeen
	if len(l.skips) > s.nskips {
		l.skips = l.skips[:s.nskips]
	}
}

// SetCommandArg is the parser's mode switch for command-argument position:
// `foo /re/` lexes a regexp while `x /2` lexes a division.
func (l *Lexer) SetCommandArg(on bool) {
	l.commandArg = on
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) NextToken() Token {
	if st := l.topState(); st != nil && st.mode != modeInterp {
		return l.scanStringSegment(st)
	}

	spaceSeen := l.skipSpace()

	start := l.Position()
	if l.pos >= len(l.input) {
		return l.emit(Token{Kind: TokenEOF, Span: Span{Start: start, End: start}}, spaceSeen)
	}

	ch := l.peek()

	if ch == '\n' {
		l.advance()
		tok := Token{Kind: TokenNewline, Span: Span{Start: start, End: l.Position()}, Literal: "\n"}
		l.applySkips()
		return l.emit(tok, spaceSeen)
	}

	if ch == '#' {
		return l.emit(l.scanComment(start), spaceSeen)
	}

	if l.column == 1 && ch == '=' && l.hasPrefix("=begin") {
		return l.emit(l.scanEmbeddedDoc(start), spaceSeen)
	}

	if l.column == 1 && l.hasPrefix("__END__") && l.isLineOnly(7) {
		l.pos = len(l.input)
		return l.emit(Token{Kind: TokenEOF, Span: Span{Start: start, End: start}}, spaceSeen)
	}

	if st := l.topState(); st != nil && st.mode == modeInterp {
		switch ch {
		case '{':
			st.braceDepth++
		case '}':
			if st.braceDepth == 0 {
				l.advance()
				l.popState()
				return l.emit(l.token(TokenInterpEnd, start), spaceSeen)
			}
			st.braceDepth--
		}
	}

	if isIdentStart(ch) {
		return l.emit(l.scanIdent(start, spaceSeen), spaceSeen)
	}
	if isDigit(ch) {
		return l.emit(l.scanNumber(start), spaceSeen)
	}

	switch ch {
	case '"':
		l.advance()
		l.pushState(stringState{mode: modeDQuote, term: '"', interp: true, startPos: start})
		return l.emit(l.token(TokenStringBegin, start), spaceSeen)
	case '\'':
		return l.emit(l.scanSingleQuoted(start, '\'', 0), spaceSeen)
	case '`':
		l.advance()
		l.pushState(stringState{mode: modeDQuote, term: '`', interp: true, startPos: start})
		return l.emit(l.token(TokenStringBegin, start), spaceSeen)
	case '@':
		return l.emit(l.scanInstanceOrClassVar(start), spaceSeen)
	case '$':
		return l.emit(l.scanGlobalVar(start), spaceSeen)
	case '%':
		if l.isPercentLiteral(spaceSeen) {
			return l.emit(l.scanPercentLiteral(start), spaceSeen)
		}
	case '/':
		if l.isRegexpStart(spaceSeen) {
			l.advance()
			l.pushState(stringState{mode: modeRegexp, term: '/', interp: true, startPos: start})
			return l.emit(l.token(TokenRegexpBegin, start), spaceSeen)
		}
	case '<':
		if l.isHeredocStart(spaceSeen) {
			return l.emit(l.scanHeredocBegin(start), spaceSeen)
		}
	case '?':
		if l.isCharLiteral() {
			return l.emit(l.scanCharLiteral(start), spaceSeen)
		}
	}

	return l.emit(l.scanOperator(start, spaceSeen), spaceSeen)
}

// emit finalizes a token: records the preceding-whitespace flag and advances
// the expression-context state machine.
func (l *Lexer) emit(tok Token, spaceSeen bool) Token {
	tok.SpaceBefore = spaceSeen
	if tok.Kind != TokenComment {
		l.lastKind = tok.Kind
	}
	return tok
}

// applySkips jumps the cursor over heredoc bodies whose introducing line
// has just ended. Bodies registered by several openers on one line sit
// back to back, so the jump repeats.
func (l *Lexer) applySkips() {
	// passed regions never match again (offsets only grow), so entries are
	// kept, which lets a trial-parse rewind replay the same jump
	for moved := true; moved; {
		moved = false
		for _, s := range l.skips {
			if s.start == l.pos {
				l.pos = s.end
				l.line += s.lines
				l.column = 1
				moved = true
			}
		}
	}
}

// skipSpace consumes spaces, tabs, carriage returns and backslash-newline
// continuations. Newlines themselves are significant and are left in place.
func (l *Lexer) skipSpace() bool {
	start := l.pos
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '\\':
			if l.peekN(1) == '\n' {
				l.advanceN(2)
			} else if l.peekN(1) == '\r' && l.peekN(2) == '\n' {
				l.advanceN(3)
			} else {
				return l.pos > start
			}
		default:
			return l.pos > start
		}
	}
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.input[l.pos:]), s)
}

// isLineOnly reports whether the current line ends right after n bytes.
func (l *Lexer) isLineOnly(n int) bool {
	ch := l.peekN(n)
	return ch == 0 || ch == '\n' || ch == '\r'
}

func (l *Lexer) scanComment(start Position) Token {
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	end := l.Position()
	return Token{
		Kind:    TokenComment,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func (l *Lexer) scanEmbeddedDoc(start Position) Token {
	for l.pos < len(l.input) {
		if l.column == 1 && l.hasPrefix("=end") {
			for l.peek() != 0 && l.peek() != '\n' {
				l.advance()
			}
			break
		}
		l.advance()
	}
	end := l.Position()
	return Token{
		Kind:    TokenComment,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

// lastEndsExpr reports whether the previous token can terminate an
// expression. An operator character that follows such a token is binary;
// otherwise it is a prefix operator or opens a literal.
func (l *Lexer) lastEndsExpr() bool {
	switch l.lastKind {
	case TokenIdent, TokenConst, TokenIVar, TokenCVar, TokenGVar,
		TokenIntLiteral, TokenFloatLiteral, TokenSymbol, TokenWords, TokenSymbolWords,
		TokenStringLiteral, TokenStringEnd, TokenRegexpEnd, TokenHeredocBegin,
		TokenRParen, TokenRBracket, TokenRBrace,
		TokenEnd, TokenSelf, TokenNil, TokenTrue, TokenFalse, TokenSuper:
		return true
	}
	return false
}

// commandArgPrefix reports the `foo -1` shape: command-argument position,
// whitespace before the current character and none after it.
func (l *Lexer) commandArgPrefix(spaceSeen bool, next byte) bool {
	if !spaceSeen {
		return false
	}
	if !l.commandArg && l.lastKind != TokenIdent {
		return false
	}
	return next != ' ' && next != '\t' && next != '\n' && next != 0
}

// labelPossible reports whether `name:` can be a label here: inside a
// container or parameter list, or in command-argument position. After `?`
// the colon belongs to a ternary instead.
func (l *Lexer) labelPossible(spaceSeen bool) bool {
	if !l.lastEndsExpr() {
		return l.lastKind != TokenQuestion
	}
	return spaceSeen && (l.commandArg || l.lastKind == TokenIdent)
}

func (l *Lexer) isRegexpStart(spaceSeen bool) bool {
	if !l.lastEndsExpr() {
		return true
	}
	return l.commandArgPrefix(spaceSeen, l.peekN(1)) && l.peekN(1) != '='
}

func (l *Lexer) isCharLiteral() bool {
	if l.lastEndsExpr() {
		return false
	}
	ch := l.peekN(1)
	if ch == 0 || ch == ' ' || ch == '\t' || ch == '\n' {
		return false
	}
	if ch == '\\' {
		return true
	}
	// ?a is a character literal only when it is not an identifier prefix:
	// `x ?a : b` must stay a ternary.
	return !isIdentChar(l.peekN(2))
}

func (l *Lexer) scanCharLiteral(start Position) Token {
	l.advance() // ?
	var value string
	if l.peek() == '\\' {
		s, perr := l.scanEscape()
		if perr != nil {
			return Token{Kind: TokenError, Span: perr.Span, Value: perr}
		}
		value = s
	} else {
		value = string(l.advance())
	}
	end := l.Position()
	return Token{
		Kind:    TokenStringLiteral,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value:   value,
	}
}

func (l *Lexer) scanIdent(start Position, spaceSeen bool) Token {
	for isIdentChar(l.peek()) {
		l.advance()
	}
	// Question/bang suffix belongs to the method name unless it starts an
	// assignment-like operator (`empty?=` is not a name, `x!=y` is a compare).
	if (l.peek() == '?' || l.peek() == '!') && l.peekN(1) != '=' {
		l.advance()
	}
	end := l.Position()
	literal := string(l.input[start.Offset:end.Offset])

	kind := LookupIdent(literal)
	if kind == TokenIdent || kind == TokenConst {
		// `name:` is a label (hash key or keyword argument) when the colon
		// is attached and not part of `::`.
		if l.peek() == ':' && l.peekN(1) != ':' && l.labelPossible(spaceSeen) {
			l.advance()
			end = l.Position()
			return Token{
				Kind:    TokenLabel,
				Span:    Span{Start: start, End: end},
				Literal: literal + ":",
				Value:   literal,
			}
		}
	}
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: literal,
	}
}

func (l *Lexer) scanInstanceOrClassVar(start Position) Token {
	l.advance() // @
	kind := TokenIVar
	if l.peek() == '@' {
		kind = TokenCVar
		l.advance()
	}
	for isIdentChar(l.peek()) {
		l.advance()
	}
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func (l *Lexer) scanGlobalVar(start Position) Token {
	l.advance() // $
	ch := l.peek()
	if isIdentChar(ch) {
		for isIdentChar(l.peek()) {
			l.advance()
		}
	} else if ch != 0 && ch != ' ' && ch != '\t' && ch != '\n' {
		// special globals: $!, $&, $1, $:, ...
		l.advance()
	}
	end := l.Position()
	return Token{
		Kind:    TokenGVar,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func (l *Lexer) scanNumber(start Position) Token {
	if l.peek() == '0' {
		switch l.peekN(1) {
		case 'x', 'X':
			return l.scanRadixNumber(start, 16, isHexDigit)
		case 'b', 'B':
			return l.scanRadixNumber(start, 2, isBinaryDigit)
		case 'o', 'O':
			return l.scanRadixNumber(start, 8, isOctalDigit)
		}
		if isOctalDigit(l.peekN(1)) {
			l.advance()
			return l.scanRadixDigits(start, 8, isOctalDigit)
		}
	}

	isFloat := false
	l.scanDigits(isDigit)

	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isFloat = true
		l.advance()
		l.scanDigits(isDigit)
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			l.scanDigits(isDigit)
		}
	}

	if isIdentChar(l.peek()) {
		return l.numberError(start, "trailing characters in numeric literal")
	}

	end := l.Position()
	literal := string(l.input[start.Offset:end.Offset])
	cleaned := strings.ReplaceAll(literal, "_", "")
	if strings.HasSuffix(literal, "_") {
		return l.numberError(start, "trailing underscore in numeric literal")
	}

	if isFloat {
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return l.numberError(start, "malformed float literal")
		}
		return Token{
			Kind:    TokenFloatLiteral,
			Span:    Span{Start: start, End: end},
			Literal: literal,
			Value:   value,
		}
	}
	return l.intToken(start, end, literal, cleaned, 10)
}

func (l *Lexer) scanRadixNumber(start Position, base int, digitOK func(byte) bool) Token {
	l.advanceN(2)
	if !digitOK(l.peek()) {
		return l.numberError(start, "numeric literal without digits")
	}
	return l.scanRadixDigits(start, base, digitOK)
}

func (l *Lexer) scanRadixDigits(start Position, base int, digitOK func(byte) bool) Token {
	digitStart := l.pos
	l.scanDigits(digitOK)
	if isIdentChar(l.peek()) {
		return l.numberError(start, "trailing characters in numeric literal")
	}
	end := l.Position()
	literal := string(l.input[start.Offset:end.Offset])
	digits := strings.ReplaceAll(string(l.input[digitStart:end.Offset]), "_", "")
	if strings.HasSuffix(literal, "_") || digits == "" {
		return l.numberError(start, "malformed numeric literal")
	}
	return l.intToken(start, end, literal, digits, base)
}

func (l *Lexer) scanDigits(digitOK func(byte) bool) {
	for digitOK(l.peek()) || (l.peek() == '_' && digitOK(l.peekN(1))) {
		l.advance()
	}
}

func (l *Lexer) intToken(start, end Position, literal, digits string, base int) Token {
	tok := Token{
		Kind:    TokenIntLiteral,
		Span:    Span{Start: start, End: end},
		Literal: literal,
	}
	if value, err := strconv.ParseInt(digits, base, 64); err == nil {
		tok.Value = value
	} else {
		// out of int64 range; keep the digit string as the payload
		tok.Value = digits
	}
	return tok
}

func (l *Lexer) numberError(start Position, msg string) Token {
	for isIdentChar(l.peek()) || l.peek() == '.' {
		l.advance()
	}
	end := l.Position()
	return Token{
		Kind:    TokenError,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value: &ParseError{
			Kind:    ErrMalformedNumericLiteral,
			Message: msg,
			Span:    Span{Start: start, End: end},
		},
	}
}

func (l *Lexer) scanOperator(start Position, spaceSeen bool) Token {
	ch := l.peek()

	switch ch {
	case '(':
		l.advance()
		return l.token(TokenLParen, start)
	case ')':
		l.advance()
		return l.token(TokenRParen, start)
	case '[':
		l.advance()
		return l.token(TokenLBracket, start)
	case ']':
		l.advance()
		return l.token(TokenRBracket, start)
	case '{':
		l.advance()
		return l.token(TokenLBrace, start)
	case '}':
		l.advance()
		return l.token(TokenRBrace, start)
	case ';':
		l.advance()
		return l.token(TokenSemicolon, start)
	case ',':
		l.advance()
		return l.token(TokenComma, start)
	case '~':
		l.advance()
		return l.token(TokenTilde, start)
	case '^':
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenCaretAssign, start)
		}
		l.advance()
		return l.token(TokenCaret, start)

	case '.':
		if l.peekN(1) == '.' {
			if l.peekN(2) == '.' {
				l.advanceN(3)
				return l.token(TokenDot3, start)
			}
			l.advanceN(2)
			return l.token(TokenDot2, start)
		}
		l.advance()
		return l.token(TokenDot, start)

	case ':':
		if l.peekN(1) == ':' {
			l.advanceN(2)
			return l.token(TokenColonColon, start)
		}
		// after an expression `:` is the ternary separator unless it sits
		// in command-argument position: `a ? b:c` vs `foo :sym`
		if !l.lastEndsExpr() || l.commandArgPrefix(spaceSeen, l.peekN(1)) {
			if tok, ok := l.scanSymbol(start); ok {
				return tok
			}
		}
		l.advance()
		return l.token(TokenColon, start)

	case '?':
		l.advance()
		return l.token(TokenQuestion, start)

	case '=':
		switch l.peekN(1) {
		case '=':
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenTEQ, start)
			}
			l.advanceN(2)
			return l.token(TokenEQ, start)
		case '~':
			l.advanceN(2)
			return l.token(TokenMatch, start)
		case '>':
			l.advanceN(2)
			return l.token(TokenHashRocket, start)
		}
		l.advance()
		return l.token(TokenAssign, start)

	case '!':
		switch l.peekN(1) {
		case '=':
			l.advanceN(2)
			return l.token(TokenNE, start)
		case '~':
			l.advanceN(2)
			return l.token(TokenNMatch, start)
		}
		l.advance()
		return l.token(TokenBang, start)

	case '<':
		if l.peekN(1) == '=' {
			if l.peekN(2) == '>' {
				l.advanceN(3)
				return l.token(TokenCmp, start)
			}
			l.advanceN(2)
			return l.token(TokenLE, start)
		}
		if l.peekN(1) == '<' {
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenShlAssign, start)
			}
			l.advanceN(2)
			return l.token(TokenShl, start)
		}
		l.advance()
		return l.token(TokenLT, start)

	case '>':
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenGE, start)
		}
		if l.peekN(1) == '>' {
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenShrAssign, start)
			}
			l.advanceN(2)
			return l.token(TokenShr, start)
		}
		l.advance()
		return l.token(TokenGT, start)

	case '&':
		switch l.peekN(1) {
		case '&':
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenAndAssign, start)
			}
			l.advanceN(2)
			return l.token(TokenAnd, start)
		case '=':
			l.advanceN(2)
			return l.token(TokenAmpAssign, start)
		case '.':
			l.advanceN(2)
			return l.token(TokenSafeNav, start)
		}
		l.advance()
		return l.token(TokenAmp, start)

	case '|':
		switch l.peekN(1) {
		case '|':
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenOrAssign, start)
			}
			l.advanceN(2)
			return l.token(TokenOr, start)
		case '=':
			l.advanceN(2)
			return l.token(TokenPipeAssign, start)
		}
		l.advance()
		return l.token(TokenPipe, start)

	case '+':
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenPlusAssign, start)
		}
		l.advance()
		return l.token(TokenPlus, start)

	case '-':
		switch l.peekN(1) {
		case '=':
			l.advanceN(2)
			return l.token(TokenMinusAssign, start)
		case '>':
			l.advanceN(2)
			return l.token(TokenArrow, start)
		}
		l.advance()
		return l.token(TokenMinus, start)

	case '*':
		if l.peekN(1) == '*' {
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenDStarAssign, start)
			}
			l.advanceN(2)
			return l.token(TokenDStar, start)
		}
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenStarAssign, start)
		}
		l.advance()
		return l.token(TokenStar, start)

	case '/':
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenSlashAssign, start)
		}
		l.advance()
		return l.token(TokenSlash, start)

	case '%':
		if l.peekN(1) == '=' {
			l.advanceN(2)
			return l.token(TokenPercentAssign, start)
		}
		l.advance()
		return l.token(TokenPercent, start)
	}

	l.advance()
	end := l.Position()
	return Token{
		Kind:    TokenError,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value: &ParseError{
			Kind:    ErrUnexpectedToken,
			Message: "unexpected character " + strconv.Quote(string(l.input[start.Offset:end.Offset])),
			Span:    Span{Start: start, End: end},
		},
	}
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isOctalDigit(ch byte) bool {
	return ch >= '0' && ch <= '7'
}

func isBinaryDigit(ch byte) bool {
	return ch == '0' || ch == '1'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 128
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
