package codebase

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/dhamidi/rubylyzer/ruby/parser"
)

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	files   map[string]*FileInfo
}

type FileInfo struct {
	Path    string
	Content []byte
	Program *parser.Program
}

func New(rootDir string) *Codebase {
	return &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) ScanAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".rb" {
			c.ScanFile(path)
		}
		return nil
	})
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.UpdateFile(path, content)
}

func (c *Codebase) UpdateFile(path string, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prog, _ := parser.ParseProgram(content, parser.WithFile(filepath.Base(path)))
	c.files[path] = &FileInfo{
		Path:    path,
		Content: content,
		Program: prog,
	}
	return nil
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Diagnostics returns the parse diagnostics recorded for a file. A nil
// result means the file is unknown; an empty one means it parsed cleanly.
func (c *Codebase) Diagnostics(path string) []*parser.ParseError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.files[path]
	if f == nil || f.Program == nil {
		return nil
	}
	diags := f.Program.Diagnostics
	if diags == nil {
		diags = []*parser.ParseError{}
	}
	return diags
}

// Symbol describes one class, module, or method definition in a file.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Span     parser.Span
	Children []Symbol
}

type SymbolKind int

const (
	SymbolKindClass SymbolKind = iota
	SymbolKindModule
	SymbolKindMethod
)

// Symbols returns the definition outline of a file as a tree.
func (c *Codebase) Symbols(path string) []Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.files[path]
	if f == nil || f.Program == nil || f.Program.Root == nil {
		return nil
	}
	return collectSymbols(f.Program.Root)
}

func collectSymbols(n *parser.Node) []Symbol {
	var out []Symbol
	for _, child := range n.Children {
		switch child.Kind {
		case parser.NodeClass, parser.NodeModule:
			kind := SymbolKindClass
			if child.Kind == parser.NodeModule {
				kind = SymbolKindModule
			}
			name := ""
			if len(child.Children) > 0 {
				name = nodeName(child.Children[0])
			}
			out = append(out, Symbol{
				Name:     name,
				Kind:     kind,
				Span:     child.Span,
				Children: collectSymbols(child),
			})
		case parser.NodeDef:
			name := child.Name()
			if len(child.Children) > 0 && child.Children[0].Kind == parser.NodeSelf {
				name = "self." + name
			}
			out = append(out, Symbol{
				Name: name,
				Kind: SymbolKindMethod,
				Span: child.Span,
			})
		default:
			out = append(out, collectSymbols(child)...)
		}
	}
	return out
}

func nodeName(n *parser.Node) string {
	if n.Kind == parser.NodeConstPath {
		prefix := ""
		for _, c := range n.Children {
			prefix += nodeName(c) + "::"
		}
		return prefix + n.Name()
	}
	return n.Name()
}
