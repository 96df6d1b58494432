package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dhamidi/rubylyzer/ruby/parser"
)

func parseSource(t *testing.T, src string) *parser.Node {
	t.Helper()
	prog, err := parser.ParseProgram([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog.Root
}

func TestASTJSONEncoder(t *testing.T) {
	root := parseSource(t, "x = 1")
	var buf bytes.Buffer
	if err := NewASTJSONEncoder(&buf).Encode(root); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"kind": "Program"`, `"kind": "Assign"`, `"kind": "IntLiteral"`, `"line": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
}

func TestTreeEncoder(t *testing.T) {
	root := parseSource(t, "foo(1)")
	var buf bytes.Buffer
	if err := NewTreeEncoder(&buf).Encode(root); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], "Program") {
		t.Errorf("first line: %q", lines[0])
	}
	foundCall := false
	for _, line := range lines {
		if strings.Contains(line, `Call "foo"`) {
			foundCall = true
			if !strings.HasPrefix(line, "  ") {
				t.Errorf("call should be indented: %q", line)
			}
		}
	}
	if !foundCall {
		t.Errorf("missing call line in:\n%s", buf.String())
	}
}

func TestOutlineEncoder(t *testing.T) {
	src := strings.Join([]string{
		"module Billing",
		"  class Invoice",
		"    def total",
		"    end",
		"    def self.build",
		"    end",
		"  end",
		"end",
	}, "\n")
	root := parseSource(t, src)
	var buf bytes.Buffer
	if err := NewOutlineEncoder(&buf).Encode(root); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"module\tBilling\t1:1",
		"class\tBilling::Invoice\t2:3",
		"def\tBilling::Invoice::total\t3:5",
		"def\tBilling::Invoice::self.build\t5:5",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
