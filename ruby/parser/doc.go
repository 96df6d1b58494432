// Package parser provides an error-tolerant parser for Ruby source code.
//
// # Overview
//
// The parser produces a homogeneous syntax tree with precise source spans
// and collects every diagnostic it can find in a single pass. It is meant
// for tooling: a broken file still yields a tree, with Error nodes where
// statements could not be understood.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Parser    │
//	│  (bytes)    │     │  (tokens)   │     │   (AST)     │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                           ▲                   │
//	                           └───────────────────┘
//	                        mode switches, heredoc re-entry
//
// Unlike most languages, Ruby cannot be tokenized ahead of parsing: the
// meaning of /, %, << and a leading minus depends on what came before.
// The parser therefore pulls tokens on demand and the lexer keeps a small
// state machine keyed on the previous significant token.
//
// # Usage
//
//	program, err := parser.ParseProgram(src, parser.WithFile("app.rb"))
//	if err != nil {
//	    for _, d := range program.Diagnostics {
//	        fmt.Println(d)
//	    }
//	}
//	program.Root.Walk(func(n *parser.Node) bool {
//	    fmt.Println(n.Kind, n.Span)
//	    return true
//	})
//
// # Name resolution
//
// A lowercase identifier is resolved at its point of use: if an
// assignment to that name has been parsed earlier in the current scope
// chain it becomes a LocalVariable node, otherwise a zero-argument Call.
// Blocks see the locals of their enclosing scope; method, class and
// module bodies do not.
//
// # Error recovery
//
// Recovery happens at statement boundaries. When a statement cannot be
// parsed the parser records a diagnostic, emits an Error node, skips to
// the next terminator or structural keyword, and continues, so one parse
// reports as many problems as possible.
package parser
