package parser

import "encoding/json"

type jsonNode struct {
	Kind     string      `json:"kind"`
	Span     *jsonSpan   `json:"span,omitempty"`
	Token    string      `json:"token,omitempty"`
	Error    *jsonError  `json:"error,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *Node) toJSON() *jsonNode {
	jn := &jsonNode{
		Kind: n.Kind.String(),
	}

	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		jn.Span = &jsonSpan{
			Start: jsonPosition{Line: n.Span.Start.Line, Column: n.Span.Start.Column},
			End:   jsonPosition{Line: n.Span.End.Line, Column: n.Span.End.Column},
		}
	}

	if n.Token != nil {
		jn.Token = n.Token.Literal
	}

	if n.Err != nil {
		jn.Error = &jsonError{
			Kind:    n.Err.Kind.String(),
			Message: n.Err.Message,
		}
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = child.toJSON()
		}
	}

	return jn
}

// MarshalJSON renders a program with its diagnostics alongside the tree.
func (p *Program) MarshalJSON() ([]byte, error) {
	type jsonDiagnostic struct {
		Kind    string   `json:"kind"`
		Message string   `json:"message"`
		Span    jsonSpan `json:"span"`
	}
	out := struct {
		Path            string           `json:"path,omitempty"`
		Context         string           `json:"context,omitempty"`
		Root            *Node            `json:"root"`
		Diagnostics     []jsonDiagnostic `json:"diagnostics,omitempty"`
		YieldAtTopLevel bool             `json:"yieldAtTopLevel,omitempty"`
	}{
		Path:            p.Path,
		Context:         p.Context,
		Root:            p.Root,
		YieldAtTopLevel: p.YieldAtTopLevel,
	}
	for _, d := range p.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			Kind:    d.Kind.String(),
			Message: d.Message,
			Span: jsonSpan{
				Start: jsonPosition{Line: d.Span.Start.Line, Column: d.Span.Start.Column},
				End:   jsonPosition{Line: d.Span.End.Line, Column: d.Span.End.Column},
			},
		})
	}
	return json.Marshal(out)
}
