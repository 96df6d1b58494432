package parser

import "strconv"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

type Span struct {
	Start Position
	End   Position
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	merged := s
	if other.Start.Offset < merged.Start.Offset {
		merged.Start = other.Start
	}
	if other.End.Offset > merged.End.Offset {
		merged.End = other.End
	}
	return merged
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenNewline
	TokenComment

	// Identifiers and literals
	TokenIdent
	TokenConst
	TokenIVar
	TokenCVar
	TokenGVar
	TokenLabel
	TokenIntLiteral
	TokenFloatLiteral
	TokenSymbol
	TokenWords
	TokenSymbolWords

	// String machinery. Double-quoted strings, regexes and heredocs are
	// delivered as a begin token, content/interpolation segments, and an
	// end token so the parser can splice sub-expressions in.
	TokenStringLiteral
	TokenStringBegin
	TokenStringContent
	TokenStringEnd
	TokenRegexpBegin
	TokenRegexpEnd
	TokenInterpBegin
	TokenInterpEnd
	TokenHeredocBegin

	// Keywords
	TokenAlias
	TokenAndKw
	TokenBegin
	TokenBreak
	TokenCase
	TokenClass
	TokenDef
	TokenDefined
	TokenDo
	TokenElse
	TokenElsif
	TokenEnd
	TokenEnsure
	TokenFalse
	TokenFor
	TokenIf
	TokenIn
	TokenModule
	TokenNext
	TokenNil
	TokenNotKw
	TokenOrKw
	TokenRedo
	TokenRescue
	TokenRetry
	TokenReturn
	TokenSelf
	TokenSuper
	TokenThen
	TokenTrue
	TokenUndef
	TokenUnless
	TokenUntil
	TokenWhen
	TokenWhile
	TokenYield

	// Operators and punctuation
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenSemicolon
	TokenComma
	TokenDot
	TokenSafeNav
	TokenDot2
	TokenDot3
	TokenColon
	TokenColonColon
	TokenQuestion
	TokenArrow
	TokenHashRocket

	TokenAssign
	TokenEQ
	TokenTEQ
	TokenNE
	TokenMatch
	TokenNMatch
	TokenLT
	TokenLE
	TokenGT
	TokenGE
	TokenCmp
	TokenAnd
	TokenOr
	TokenBang
	TokenAmp
	TokenPipe
	TokenCaret
	TokenTilde
	TokenShl
	TokenShr
	TokenPlus
	TokenMinus
	TokenStar
	TokenDStar
	TokenSlash
	TokenPercent

	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenDStarAssign
	TokenSlashAssign
	TokenPercentAssign
	TokenShlAssign
	TokenShrAssign
	TokenAmpAssign
	TokenPipeAssign
	TokenCaretAssign
	TokenAndAssign
	TokenOrAssign
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:     "EOF",
	TokenError:   "Error",
	TokenNewline: "Newline",
	TokenComment: "Comment",

	TokenIdent:        "Identifier",
	TokenConst:        "Constant",
	TokenIVar:         "InstanceVariable",
	TokenCVar:         "ClassVariable",
	TokenGVar:         "GlobalVariable",
	TokenLabel:        "Label",
	TokenIntLiteral:   "IntLiteral",
	TokenFloatLiteral: "FloatLiteral",
	TokenSymbol:       "Symbol",
	TokenWords:        "Words",
	TokenSymbolWords:  "SymbolWords",

	TokenStringLiteral: "StringLiteral",
	TokenStringBegin:   "StringBegin",
	TokenStringContent: "StringContent",
	TokenStringEnd:     "StringEnd",
	TokenRegexpBegin:   "RegexpBegin",
	TokenRegexpEnd:     "RegexpEnd",
	TokenInterpBegin:   "InterpBegin",
	TokenInterpEnd:     "InterpEnd",
	TokenHeredocBegin:  "HeredocBegin",

	TokenAlias:   "alias",
	TokenAndKw:   "and",
	TokenBegin:   "begin",
	TokenBreak:   "break",
	TokenCase:    "case",
	TokenClass:   "class",
	TokenDef:     "def",
	TokenDefined: "defined?",
	TokenDo:      "do",
	TokenElse:    "else",
	TokenElsif:   "elsif",
	TokenEnd:     "end",
	TokenEnsure:  "ensure",
	TokenFalse:   "false",
	TokenFor:     "for",
	TokenIf:      "if",
	TokenIn:      "in",
	TokenModule:  "module",
	TokenNext:    "next",
	TokenNil:     "nil",
	TokenNotKw:   "not",
	TokenOrKw:    "or",
	TokenRedo:    "redo",
	TokenRescue:  "rescue",
	TokenRetry:   "retry",
	TokenReturn:  "return",
	TokenSelf:    "self",
	TokenSuper:   "super",
	TokenThen:    "then",
	TokenTrue:    "true",
	TokenUndef:   "undef",
	TokenUnless:  "unless",
	TokenUntil:   "until",
	TokenWhen:    "when",
	TokenWhile:   "while",
	TokenYield:   "yield",

	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenLBracket:   "[",
	TokenRBracket:   "]",
	TokenLBrace:     "{",
	TokenRBrace:     "}",
	TokenSemicolon:  ";",
	TokenComma:      ",",
	TokenDot:        ".",
	TokenSafeNav:    "&.",
	TokenDot2:       "..",
	TokenDot3:       "...",
	TokenColon:      ":",
	TokenColonColon: "::",
	TokenQuestion:   "?",
	TokenArrow:      "->",
	TokenHashRocket: "=>",

	TokenAssign:  "=",
	TokenEQ:      "==",
	TokenTEQ:     "===",
	TokenNE:      "!=",
	TokenMatch:   "=~",
	TokenNMatch:  "!~",
	TokenLT:      "<",
	TokenLE:      "<=",
	TokenGT:      ">",
	TokenGE:      ">=",
	TokenCmp:     "<=>",
	TokenAnd:     "&&",
	TokenOr:      "||",
	TokenBang:    "!",
	TokenAmp:     "&",
	TokenPipe:    "|",
	TokenCaret:   "^",
	TokenTilde:   "~",
	TokenShl:     "<<",
	TokenShr:     ">>",
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenDStar:   "**",
	TokenSlash:   "/",
	TokenPercent: "%",

	TokenPlusAssign:    "+=",
	TokenMinusAssign:   "-=",
	TokenStarAssign:    "*=",
	TokenDStarAssign:   "**=",
	TokenSlashAssign:   "/=",
	TokenPercentAssign: "%=",
	TokenShlAssign:     "<<=",
	TokenShrAssign:     ">>=",
	TokenAmpAssign:     "&=",
	TokenPipeAssign:    "|=",
	TokenCaretAssign:   "^=",
	TokenAndAssign:     "&&=",
	TokenOrAssign:      "||=",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token is one lexical unit. Literal holds the raw source text; Value holds
// the decoded payload where one exists (int64/float64 for numbers, the
// processed text for string segments and symbols, []string for word arrays,
// *HeredocInfo for heredoc openers).
type Token struct {
	Kind        TokenKind
	Span        Span
	Literal     string
	Value       any
	SpaceBefore bool
}

// HeredocInfo describes a heredoc whose body the lexer located ahead of the
// introducing line. The parser assembles the body segments on demand.
type HeredocInfo struct {
	Tag       string
	BodyStart int
	BodyEnd   int
	Indent    int  // columns stripped from each body line (<<~ form)
	Interp    bool // false for <<'TAG'
	BodyPos   Position
}

func (t Token) IsTerm() bool {
	switch t.Kind {
	case TokenNewline, TokenSemicolon, TokenEOF:
		return true
	}
	return false
}

// IsKeyword reports whether k is a reserved word.
func (k TokenKind) IsKeyword() bool {
	return k >= TokenAlias && k <= TokenYield
}

// OpAssignBase maps a compound-assignment token to its base operator kind.
func (k TokenKind) OpAssignBase() (TokenKind, bool) {
	switch k {
	case TokenPlusAssign:
		return TokenPlus, true
	case TokenMinusAssign:
		return TokenMinus, true
	case TokenStarAssign:
		return TokenStar, true
	case TokenDStarAssign:
		return TokenDStar, true
	case TokenSlashAssign:
		return TokenSlash, true
	case TokenPercentAssign:
		return TokenPercent, true
	case TokenShlAssign:
		return TokenShl, true
	case TokenShrAssign:
		return TokenShr, true
	case TokenAmpAssign:
		return TokenAmp, true
	case TokenPipeAssign:
		return TokenPipe, true
	case TokenCaretAssign:
		return TokenCaret, true
	case TokenAndAssign:
		return TokenAnd, true
	case TokenOrAssign:
		return TokenOr, true
	}
	return k, false
}

var keywords = map[string]TokenKind{
	"alias":    TokenAlias,
	"and":      TokenAndKw,
	"begin":    TokenBegin,
	"break":    TokenBreak,
	"case":     TokenCase,
	"class":    TokenClass,
	"def":      TokenDef,
	"defined?": TokenDefined,
	"do":       TokenDo,
	"else":     TokenElse,
	"elsif":    TokenElsif,
	"end":      TokenEnd,
	"ensure":   TokenEnsure,
	"false":    TokenFalse,
	"for":      TokenFor,
	"if":       TokenIf,
	"in":       TokenIn,
	"module":   TokenModule,
	"next":     TokenNext,
	"nil":      TokenNil,
	"not":      TokenNotKw,
	"or":       TokenOrKw,
	"redo":     TokenRedo,
	"rescue":   TokenRescue,
	"retry":    TokenRetry,
	"return":   TokenReturn,
	"self":     TokenSelf,
	"super":    TokenSuper,
	"then":     TokenThen,
	"true":     TokenTrue,
	"undef":    TokenUndef,
	"unless":   TokenUnless,
	"until":    TokenUntil,
	"when":     TokenWhen,
	"while":    TokenWhile,
	"yield":    TokenYield,
}

// LookupIdent classifies an identifier as a keyword, a constant (leading
// upper-case letter), or a plain identifier.
func LookupIdent(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	if len(ident) > 0 && ident[0] >= 'A' && ident[0] <= 'Z' {
		return TokenConst
	}
	return TokenIdent
}
