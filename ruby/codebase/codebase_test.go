package codebase

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateFileDiagnostics(t *testing.T) {
	c := New(".")
	c.UpdateFile("bad.rb", []byte(`x = "abc`))
	diags := c.Diagnostics("bad.rb")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].Span.Start.Line != 1 {
		t.Errorf("diagnostic line: got %d", diags[0].Span.Start.Line)
	}

	c.UpdateFile("bad.rb", []byte(`x = "abc"`))
	if diags := c.Diagnostics("bad.rb"); len(diags) != 0 {
		t.Errorf("after fix: got %v", diags)
	}

	if c.Diagnostics("unknown.rb") != nil {
		t.Errorf("unknown file should report nil")
	}
}

func TestSymbols(t *testing.T) {
	c := New(".")
	c.UpdateFile("app.rb", []byte("module App\n  class Server\n    def start\n    end\n  end\nend\n"))
	syms := c.Symbols("app.rb")
	if len(syms) != 1 || syms[0].Name != "App" || syms[0].Kind != SymbolKindModule {
		t.Fatalf("got %+v", syms)
	}
	cls := syms[0].Children
	if len(cls) != 1 || cls[0].Name != "Server" || cls[0].Kind != SymbolKindClass {
		t.Fatalf("got %+v", cls)
	}
	meths := cls[0].Children
	if len(meths) != 1 || meths[0].Name != "start" || meths[0].Kind != SymbolKindMethod {
		t.Fatalf("got %+v", meths)
	}
}

func TestScanAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.rb")
	if err := os.WriteFile(path, []byte("def m\nend\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not ruby"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(dir)
	if err := c.ScanAll(); err != nil {
		t.Fatal(err)
	}
	if c.GetFile(path) == nil {
		t.Errorf("ruby file not scanned")
	}
	if c.GetFile(filepath.Join(dir, "skip.txt")) != nil {
		t.Errorf("non-ruby file should be ignored")
	}
}
