package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/rubylyzer/ruby/parser"
)

// OutlineEncoder emits a tab-separated summary of the definitions in a
// file: one line per class, module, and method, with its nesting path.
type OutlineEncoder struct {
	w io.Writer
}

func NewOutlineEncoder(w io.Writer) *OutlineEncoder {
	return &OutlineEncoder{w: w}
}

func (e *OutlineEncoder) Encode(node *parser.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *OutlineEncoder) MarshalText(node *parser.Node) ([]byte, error) {
	var sb strings.Builder
	writeOutline(&sb, node, nil)
	return []byte(sb.String()), nil
}

func writeOutline(sb *strings.Builder, n *parser.Node, path []string) {
	switch n.Kind {
	case parser.NodeClass, parser.NodeModule:
		kind := "class"
		if n.Kind == parser.NodeModule {
			kind = "module"
		}
		name := constPathName(n.Children[0])
		emitOutline(sb, kind, append(path, name), n)
		path = append(path, name)
	case parser.NodeDef:
		name := n.Name()
		if len(n.Children) > 0 && n.Children[0].Kind == parser.NodeSelf {
			name = "self." + name
		}
		emitOutline(sb, "def", append(path, name), n)
		path = append(path, name)
	}
	for _, child := range n.Children {
		writeOutline(sb, child, path)
	}
}

func emitOutline(sb *strings.Builder, kind string, path []string, n *parser.Node) {
	fmt.Fprintf(sb, "%s\t%s\t%d:%d\n",
		kind, strings.Join(path, "::"), n.Span.Start.Line, n.Span.Start.Column)
}

// constPathName flattens a constant or constant path node to source form.
func constPathName(n *parser.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case parser.NodeConstant:
		return n.Name()
	case parser.NodeConstPath:
		var parts []string
		for _, c := range n.Children {
			parts = append(parts, constPathName(c))
		}
		parts = append(parts, n.Name())
		return strings.Join(parts, "::")
	}
	return n.Name()
}
