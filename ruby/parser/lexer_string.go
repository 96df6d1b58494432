package parser

import (
	"strconv"
	"strings"
)

func (l *Lexer) topState() *stringState {
	if len(l.states) == 0 {
		return nil
	}
	return &l.states[len(l.states)-1]
}

func (l *Lexer) pushState(st stringState) {
	l.states = append(l.states, st)
}

func (l *Lexer) popState() {
	l.states = l.states[:len(l.states)-1]
}

// scanStringSegment is called while a double-quoted string, regexp or
// heredoc is open. It produces one of: a content token, an interpolation
// opener, or the closing token that pops the mode.
func (l *Lexer) scanStringSegment(st *stringState) Token {
	start := l.Position()

	if st.mode == modeHeredoc && l.pos >= st.limit {
		return l.finishHeredoc(st)
	}

	if st.mode != modeHeredoc && l.peek() == st.term && st.nest == 0 {
		l.advance()
		if st.mode == modeRegexp {
			for isRegexpFlag(l.peek()) {
				l.advance()
			}
			end := l.Position()
			l.popState()
			return l.emit(Token{
				Kind:    TokenRegexpEnd,
				Span:    Span{Start: start, End: end},
				Literal: string(l.input[start.Offset:end.Offset]),
				Value:   string(l.input[start.Offset+1 : end.Offset]),
			}, false)
		}
		l.popState()
		return l.emit(l.token(TokenStringEnd, start), false)
	}

	if st.interp && l.peek() == '#' && l.peekN(1) == '{' {
		l.advanceN(2)
		l.pushState(stringState{mode: modeInterp})
		return l.emit(l.token(TokenInterpBegin, start), false)
	}

	var b strings.Builder
	for {
		if st.mode == modeHeredoc {
			if l.pos >= st.limit {
				break
			}
			if st.atLineTop && st.indent > 0 {
				l.stripIndent(st)
				st.atLineTop = false
				if l.pos >= st.limit {
					break
				}
			}
			st.atLineTop = false
		}
		ch := l.peek()
		if ch == 0 {
			l.states = nil
			return l.emit(unterminatedLiteral(st.startPos), false)
		}
		if st.mode != modeHeredoc {
			if ch == st.term {
				if st.nest == 0 {
					break
				}
				st.nest--
				b.WriteByte(l.advance())
				continue
			}
			if st.open != 0 && ch == st.open {
				st.nest++
				b.WriteByte(l.advance())
				continue
			}
		}
		if st.interp && ch == '#' && l.peekN(1) == '{' {
			break
		}
		if ch == '\\' {
			if st.mode == modeRegexp {
				// the regexp engine interprets escapes; keep them raw
				b.WriteByte(l.advance())
				if l.peek() != 0 {
					b.WriteByte(l.advance())
				}
				continue
			}
			s, perr := l.scanEscape()
			if perr != nil {
				return l.emit(Token{
					Kind:  TokenError,
					Span:  perr.Span,
					Value: perr,
				}, false)
			}
			b.WriteString(s)
			continue
		}
		b.WriteByte(l.advance())
		if st.mode == modeHeredoc && ch == '\n' {
			st.atLineTop = true
		}
	}

	end := l.Position()
	return l.emit(Token{
		Kind:    TokenStringContent,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value:   b.String(),
	}, false)
}

// stripIndent consumes up to st.indent bytes of leading whitespace at the
// start of a heredoc body line. Used by <<~ heredocs.
func (l *Lexer) stripIndent(st *stringState) {
	for n := 0; n < st.indent && l.pos < st.limit; n++ {
		if c := l.peek(); c != ' ' && c != '\t' {
			return
		}
		l.advance()
	}
}

func (l *Lexer) finishHeredoc(st *stringState) Token {
	end := l.Position()
	tok := Token{Kind: TokenStringEnd, Span: Span{Start: end, End: end}}
	l.pos, l.line, l.column = st.resume.pos, st.resume.line, st.resume.column
	l.popState()
	return l.emit(tok, false)
}

func unterminatedLiteral(open Position) Token {
	end := open
	end.Offset++
	end.Column++
	span := Span{Start: open, End: end}
	return Token{
		Kind: TokenError,
		Span: span,
		Value: &ParseError{
			Kind:    ErrUnterminatedLiteral,
			Message: "unterminated literal meets end of file",
			Span:    span,
		},
	}
}

// scanEscape consumes a backslash escape inside an interpolating literal
// and returns the decoded text. Unknown single-character escapes pass the
// character through, matching Ruby; malformed \u and \x sequences are
// reported as invalid escapes.
func (l *Lexer) scanEscape() (string, *ParseError) {
	start := l.Position()
	l.advance() // backslash
	ch := l.advance()
	switch ch {
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case 'r':
		return "\r", nil
	case 's':
		return " ", nil
	case 'a':
		return "\a", nil
	case 'b':
		return "\b", nil
	case 'v':
		return "\v", nil
	case 'f':
		return "\f", nil
	case 'e':
		return "\x1b", nil
	case '0':
		return "\x00", nil
	case '\n':
		// escaped newline is elided
		return "", nil
	case 'u':
		return l.scanUnicodeEscape(start)
	case 'x':
		return l.scanHexEscape(start)
	case 0:
		return "", &ParseError{
			Kind:    ErrInvalidEscape,
			Message: "escape sequence meets end of file",
			Span:    Span{Start: start, End: l.Position()},
		}
	default:
		return string(ch), nil
	}
}

func (l *Lexer) scanUnicodeEscape(start Position) (string, *ParseError) {
	var digits string
	if l.peek() == '{' {
		l.advance()
		for isHexDigit(l.peek()) {
			digits += string(l.advance())
		}
		if l.peek() != '}' || digits == "" {
			return "", invalidEscape(start, l.Position(), "malformed \\u{} escape")
		}
		l.advance()
	} else {
		for i := 0; i < 4; i++ {
			if !isHexDigit(l.peek()) {
				return "", invalidEscape(start, l.Position(), "\\u escape needs four hex digits")
			}
			digits += string(l.advance())
		}
	}
	code, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || code > 0x10ffff {
		return "", invalidEscape(start, l.Position(), "\\u escape out of range")
	}
	return string(rune(code)), nil
}

func (l *Lexer) scanHexEscape(start Position) (string, *ParseError) {
	var digits string
	for i := 0; i < 2 && isHexDigit(l.peek()); i++ {
		digits += string(l.advance())
	}
	if digits == "" {
		return "", invalidEscape(start, l.Position(), "\\x escape needs hex digits")
	}
	code, _ := strconv.ParseUint(digits, 16, 8)
	return string(byte(code)), nil
}

func invalidEscape(start, end Position, msg string) *ParseError {
	return &ParseError{
		Kind:    ErrInvalidEscape,
		Message: msg,
		Span:    Span{Start: start, End: end},
	}
}

// scanSingleQuoted scans a non-interpolating string in one pass. Only the
// backslash-backslash and backslash-terminator escapes are recognized.
func (l *Lexer) scanSingleQuoted(start Position, term, open byte) Token {
	l.advance() // opening delimiter
	var b strings.Builder
	nest := 0
	for {
		ch := l.peek()
		if ch == 0 {
			l.states = nil
			return l.emit(unterminatedLiteral(start), false)
		}
		if ch == term {
			if nest == 0 {
				l.advance()
				break
			}
			nest--
		} else if open != 0 && ch == open {
			nest++
		} else if ch == '\\' {
			next := l.peekN(1)
			if next == '\\' || next == term || (open != 0 && next == open) {
				l.advance()
				b.WriteByte(l.advance())
				continue
			}
		}
		b.WriteByte(l.advance())
	}
	end := l.Position()
	return Token{
		Kind:    TokenStringLiteral,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value:   b.String(),
	}
}

func (l *Lexer) scanSymbol(start Position) (Token, bool) {
	next := l.peekN(1)

	if isIdentStart(next) || next == '@' || next == '$' || next == '_' {
		l.advance() // :
		if l.peek() == '@' {
			l.advance()
			if l.peek() == '@' {
				l.advance()
			}
		} else if l.peek() == '$' {
			l.advance()
		}
		for isIdentChar(l.peek()) {
			l.advance()
		}
		if l.peek() == '?' || l.peek() == '!' || (l.peek() == '=' && l.peekN(1) != '=' && l.peekN(1) != '~' && l.peekN(1) != '>') {
			l.advance()
		}
		end := l.Position()
		literal := string(l.input[start.Offset:end.Offset])
		return Token{
			Kind:    TokenSymbol,
			Span:    Span{Start: start, End: end},
			Literal: literal,
			Value:   literal[1:],
		}, true
	}

	if next == '"' {
		l.advance() // :
		inner := l.scanSingleQuoted(l.Position(), '"', 0)
		if inner.Kind == TokenError {
			return inner, true
		}
		end := l.Position()
		return Token{
			Kind:    TokenSymbol,
			Span:    Span{Start: start, End: end},
			Literal: string(l.input[start.Offset:end.Offset]),
			Value:   inner.Value,
		}, true
	}

	for _, op := range operatorSymbols {
		if strings.HasPrefix(string(l.input[start.Offset+1:]), op) {
			l.advanceN(1 + len(op))
			end := l.Position()
			return Token{
				Kind:    TokenSymbol,
				Span:    Span{Start: start, End: end},
				Literal: ":" + op,
				Value:   op,
			}, true
		}
	}
	return Token{}, false
}

// longest first
var operatorSymbols = []string{
	"[]=", "[]", "<=>", "===", "==", "=~", "<<", ">>", "<=", ">=",
	"**", "+@", "-@", "+", "-", "*", "/", "%", "<", ">",
	"&", "|", "^", "!", "~",
}

func (l *Lexer) isPercentLiteral(spaceSeen bool) bool {
	if l.lastEndsExpr() && !l.commandArgPrefix(spaceSeen, l.peekN(1)) {
		return false
	}
	c := l.peekN(1)
	switch c {
	case 'w', 'W', 'i', 'I', 'q', 'Q', 'r', 's':
		return isPercentDelim(l.peekN(2))
	}
	return isPercentDelim(c) && c != '=' && c != ' '
}

func isPercentDelim(ch byte) bool {
	if ch == 0 || ch == ' ' || ch == '\t' || ch == '\n' {
		return false
	}
	return !isIdentChar(ch)
}

func matchingDelim(open byte) (term byte, paired bool) {
	switch open {
	case '(':
		return ')', true
	case '[':
		return ']', true
	case '{':
		return '}', true
	case '<':
		return '>', true
	}
	return open, false
}

func (l *Lexer) scanPercentLiteral(start Position) Token {
	l.advance() // %
	kind := byte('Q')
	if c := l.peek(); (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		kind = l.advance()
	}
	openCh := l.advance()
	term, paired := matchingDelim(openCh)
	open := byte(0)
	if paired {
		open = openCh
	}

	switch kind {
	case 'q':
		tok := l.scanSingleQuoted(l.Position(), term, open)
		if tok.Kind == TokenError {
			return tok
		}
		tok.Span.Start = start
		tok.Literal = string(l.input[start.Offset:tok.Span.End.Offset])
		return tok
	case 's':
		tok := l.scanSingleQuoted(l.Position(), term, open)
		if tok.Kind == TokenError {
			return tok
		}
		end := l.Position()
		return Token{
			Kind:    TokenSymbol,
			Span:    Span{Start: start, End: end},
			Literal: string(l.input[start.Offset:end.Offset]),
			Value:   tok.Value.(string),
		}
	case 'r':
		l.pushState(stringState{mode: modeRegexp, term: term, open: open, interp: true, startPos: start})
		return l.token(TokenRegexpBegin, start)
	case 'Q':
		l.pushState(stringState{mode: modeDQuote, term: term, open: open, interp: true, startPos: start})
		return l.token(TokenStringBegin, start)
	case 'w', 'W':
		return l.scanWordList(start, term, open, TokenWords)
	case 'i', 'I':
		return l.scanWordList(start, term, open, TokenSymbolWords)
	}

	end := l.Position()
	span := Span{Start: start, End: end}
	return Token{
		Kind:    TokenError,
		Span:    span,
		Literal: string(l.input[start.Offset:end.Offset]),
		Value: &ParseError{
			Kind:    ErrUnexpectedToken,
			Message: "unknown percent literal type " + strconv.Quote(string(kind)),
			Span:    span,
		},
	}
}

// scanWordList handles %w and %i: whitespace-separated bare words, no
// interpolation, with backslash escaping a space or the delimiter.
func (l *Lexer) scanWordList(start Position, term, open byte, kind TokenKind) Token {
	var words []string
	var cur strings.Builder
	nest := 0
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for {
		ch := l.peek()
		if ch == 0 {
			l.states = nil
			return l.emit(unterminatedLiteral(start), false)
		}
		if ch == term && nest == 0 {
			l.advance()
			break
		}
		switch {
		case open != 0 && ch == open:
			nest++
			cur.WriteByte(l.advance())
		case ch == term:
			nest--
			cur.WriteByte(l.advance())
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			l.advance()
			flush()
		case ch == '\\':
			l.advance()
			if l.peek() != 0 {
				cur.WriteByte(l.advance())
			}
		default:
			cur.WriteByte(l.advance())
		}
	}
	flush()
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
		Value:   words,
	}
}

func isRegexpFlag(ch byte) bool {
	switch ch {
	case 'i', 'm', 'x', 'o', 'u', 'e', 's', 'n':
		return true
	}
	return false
}

func (l *Lexer) isHeredocStart(spaceSeen bool) bool {
	if l.peekN(1) != '<' {
		return false
	}
	c := l.peekN(2)
	ok := c == '~' || c == '-' || c == '"' || c == '\'' || isIdentStart(c)
	if !ok {
		return false
	}
	if !l.lastEndsExpr() {
		return true
	}
	return l.commandArgPrefix(spaceSeen, c)
}

// scanHeredocBegin recognizes the heredoc opener, locates the body region
// by scanning ahead for the terminator line, and registers a skip region so
// that normal scanning jumps over the body after the introducing line's
// newline. The parser re-enters the body through EnterHeredoc.
func (l *Lexer) scanHeredocBegin(start Position) Token {
	l.advanceN(2) // <<
	squiggly := false
	allowIndent := false
	switch l.peek() {
	case '~':
		squiggly = true
		allowIndent = true
		l.advance()
	case '-':
		allowIndent = true
		l.advance()
	}
	interp := true
	quote := byte(0)
	if c := l.peek(); c == '"' || c == '\'' {
		quote = c
		interp = c != '\''
		l.advance()
	}
	tagStart := l.pos
	for isIdentChar(l.peek()) {
		l.advance()
	}
	tag := string(l.input[tagStart:l.pos])
	if tag == "" {
		end := l.Position()
		span := Span{Start: start, End: end}
		return Token{
			Kind: TokenError,
			Span: span,
			Value: &ParseError{
				Kind:    ErrUnexpectedToken,
				Message: "heredoc identifier expected",
				Span:    span,
			},
		}
	}
	if quote != 0 {
		if l.peek() != quote {
			return unterminatedLiteral(start)
		}
		l.advance()
	}
	openerEnd := l.Position()

	// body begins after the introducing line, past any heredoc bodies
	// already claimed by earlier openers on the same line
	lineEnd := l.pos
	for lineEnd < len(l.input) && l.input[lineEnd] != '\n' {
		lineEnd++
	}
	if lineEnd >= len(l.input) {
		return unterminatedLiteral(start)
	}
	bodyStart := lineEnd + 1
	for moved := true; moved; {
		moved = false
		for _, s := range l.skips {
			if s.start == bodyStart {
				bodyStart = s.end
				moved = true
			}
		}
	}

	bodyEnd, afterTerm, found := findHeredocTerminator(l.input, bodyStart, tag, allowIndent)
	if !found {
		return unterminatedLiteral(start)
	}

	indent := 0
	if squiggly {
		indent = minHeredocIndent(l.input[bodyStart:bodyEnd])
	}

	l.skips = append(l.skips, skipRegion{
		start: bodyStart,
		end:   afterTerm,
		lines: countNewlines(l.input[bodyStart:afterTerm]),
	})

	bodyLine := l.line + countNewlines(l.input[l.pos:bodyStart])
	return Token{
		Kind:    TokenHeredocBegin,
		Span:    Span{Start: start, End: openerEnd},
		Literal: string(l.input[start.Offset:openerEnd.Offset]),
		Value: &HeredocInfo{
			Tag:       tag,
			BodyStart: bodyStart,
			BodyEnd:   bodyEnd,
			Indent:    indent,
			Interp:    interp,
			BodyPos: Position{
				File:   l.file,
				Offset: bodyStart,
				Line:   bodyLine,
				Column: 1,
			},
		},
	}
}

func findHeredocTerminator(input []byte, from int, tag string, allowIndent bool) (bodyEnd, afterTerm int, found bool) {
	p := from
	for p <= len(input) {
		lineStart := p
		q := p
		for q < len(input) && input[q] != '\n' {
			q++
		}
		if isHeredocTerminatorLine(input[lineStart:q], tag, allowIndent) {
			after := q
			if after < len(input) {
				after++ // consume the terminator's newline
			}
			return lineStart, after, true
		}
		if q >= len(input) {
			break
		}
		p = q + 1
	}
	return 0, 0, false
}

func isHeredocTerminatorLine(line []byte, tag string, allowIndent bool) bool {
	s := string(line)
	if allowIndent {
		s = strings.TrimLeft(s, " \t")
	}
	if !strings.HasPrefix(s, tag) {
		return false
	}
	return strings.TrimRight(s[len(tag):], " \t\r") == ""
}

// minHeredocIndent computes the smallest leading-whitespace width over the
// non-blank body lines; <<~ strips that many bytes from every line.
func minHeredocIndent(body []byte) int {
	min := -1
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		n := len(line) - len(trimmed)
		if min < 0 || n < min {
			min = n
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func countNewlines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

// EnterHeredoc repositions the lexer at the heredoc body so that content
// and interpolation tokens can be pulled. Once the body is exhausted the
// cursor returns to where the opener left off.
func (l *Lexer) EnterHeredoc(info *HeredocInfo) {
	st := stringState{
		mode:      modeHeredoc,
		interp:    info.Interp,
		limit:     info.BodyEnd,
		indent:    info.Indent,
		atLineTop: true,
		startPos:  info.BodyPos,
		resume:    lexMark{l.pos, l.line, l.column},
	}
	l.pushState(st)
	l.pos = info.BodyStart
	l.line = info.BodyPos.Line
	l.column = 1
}
