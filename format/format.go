package format

import (
	"github.com/dhamidi/rubylyzer/ruby/parser"
)

// Encoder renders a parsed syntax tree to an output format.
type Encoder interface {
	Encode(node *parser.Node) error
	MarshalText(node *parser.Node) ([]byte, error)
}
