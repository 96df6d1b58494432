package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/rubylyzer/ruby/parser"
)

// TreeEncoder writes one node per line, indented by depth.
type TreeEncoder struct {
	w io.Writer
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(node *parser.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText(node *parser.Node) ([]byte, error) {
	var sb strings.Builder
	writeTree(&sb, node, 0)
	return []byte(sb.String()), nil
}

func writeTree(sb *strings.Builder, n *parser.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	if n.Token != nil && n.Token.Literal != "" {
		fmt.Fprintf(sb, " %q", n.Token.Literal)
	}
	fmt.Fprintf(sb, " @ %s", n.Span.Start)
	if n.Err != nil {
		fmt.Fprintf(sb, " !%s: %s", n.Err.Kind, n.Err.Message)
	}
	sb.WriteByte('\n')
	for _, child := range n.Children {
		writeTree(sb, child, depth+1)
	}
}
