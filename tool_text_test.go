package main

import (
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/agilira/go-errors"
)

// ===== TEMPLATE TOOL TESTS =====

func TestTemplateDefaultDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"in.tpl": "name=&NAME&\r\nversion=&VERSION&\nplain\n"})

	spec, err := NewToolSpec("template")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{
		Tools: Registry{"template": spec},
		Vars:  map[string]any{"NAME": "wbs", "VERSION": 3},
	}, nil)

	if err := runTool(t, e, "template", filepath.Join(dir, "in.tpl"), filepath.Join(dir, "out.txt")); err != nil {
		t.Fatalf("template unexpected error: %v", err)
	}
	assertFile(t, filepath.Join(dir, "out.txt"), "name=wbs\r\nversion=3\nplain\n")
}

func TestTemplateCustomDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"in.tpl": "keep &A& but swap @A@\n"})

	spec, err := NewToolSpec("template", "@")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{
		Tools: Registry{"tpl": spec},
		Vars:  map[string]any{"A": "x", "DIR": dir},
	}, nil)

	// file paths are substituted with the default marker
	if err := runTool(t, e, "tpl", "&DIR&/in.tpl", "&DIR&/out.txt"); err != nil {
		t.Fatalf("template unexpected error: %v", err)
	}
	assertFile(t, filepath.Join(dir, "out.txt"), "keep &A& but swap x\n")
}

func TestTemplateErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"in.tpl": "&MISSING&\n", "ok.tpl": "ok\n"})

	spec, err := NewToolSpec("template")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Tools: Registry{"template": spec}}, nil)

	tests := []struct {
		name string
		args []any
		code goerrors.ErrorCode
	}{
		{name: "Unknown token", args: []any{filepath.Join(dir, "in.tpl"), filepath.Join(dir, "o1")}, code: ErrUnknownVariable},
		{name: "Missing source", args: []any{filepath.Join(dir, "none.tpl"), filepath.Join(dir, "o2")}, code: ErrFileSystem},
		{name: "Unknown encoding", args: []any{filepath.Join(dir, "ok.tpl"), filepath.Join(dir, "o3"), "klingon"}, code: ErrInvalidArgument},
		{name: "Missing destination", args: []any{filepath.Join(dir, "ok.tpl")}, code: ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runTool(t, e, "template", tt.args...); !goerrors.HasCode(err, tt.code) {
				t.Errorf("template error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTemplateRejectsEmptyDelimiter(t *testing.T) {
	spec, err := NewToolSpec("template", "x*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := spec.Factory(nil, "tpl", spec.Args...); !goerrors.HasCode(err, ErrConfiguration) {
		t.Errorf("empty-matching delimiter error = %v, want configuration error", err)
	}
}

// ===== FIND/REPLACE TOOL TESTS =====

func TestFindReplace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.ini")
	writeFiles(t, dir, map[string]string{"config.ini": "debug=1\nlevel=debug\n"})

	spec, err := NewToolSpec("findreplace")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Tools: Registry{"fr": spec}}, nil)

	// in place: source is read completely before the destination is created
	if err := runTool(t, e, "fr", src, src, `^debug=(\d)`, "debug=0 ; was $1"); err != nil {
		t.Fatalf("findreplace unexpected error: %v", err)
	}
	assertFile(t, src, "debug=0 ; was 1\nlevel=debug\n")
}

func TestFindReplaceEncodings(t *testing.T) {
	dir := t.TempDir()
	latin1 := []byte{'c', 'a', 'f', 0xe9, '\n'}
	if err := os.WriteFile(filepath.Join(dir, "latin1.txt"), latin1, 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := NewToolSpec("findreplace")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Tools: Registry{"fr": spec}}, nil)

	out := filepath.Join(dir, "out.txt")
	if err := runTool(t, e, "fr", filepath.Join(dir, "latin1.txt"), out, "café", "thé", "latin1"); err != nil {
		t.Fatalf("findreplace latin1 unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{'t', 'h', 0xe9, '\n'}; string(data) != string(want) {
		t.Errorf("latin1 output = %v, want %v", data, want)
	}

	// the default encoding refuses bytes above 0x7f
	err = runTool(t, e, "fr", filepath.Join(dir, "latin1.txt"), filepath.Join(dir, "ascii.txt"), "a", "b")
	if !goerrors.HasCode(err, ErrFileSystem) {
		t.Errorf("ascii decode error = %v, want file system error", err)
	}
}

func TestFindReplaceBadPattern(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "a\n"})
	spec, err := NewToolSpec("findreplace")
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Tools: Registry{"fr": spec}}, nil)
	err = runTool(t, e, "fr", filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"), "(", "x")
	if !goerrors.HasCode(err, ErrInvalidArgument) {
		t.Errorf("findreplace error = %v, want invalid argument", err)
	}
}

func TestSplitEOL(t *testing.T) {
	tests := []struct {
		line, body, eol string
	}{
		{"a\r\n", "a", "\r\n"},
		{"a\n", "a", "\n"},
		{"a", "a", ""},
		{"\n", "", "\n"},
	}
	for _, tt := range tests {
		body, eol := splitEOL(tt.line)
		if body != tt.body || eol != tt.eol {
			t.Errorf("splitEOL(%q) = %q, %q; want %q, %q", tt.line, body, eol, tt.body, tt.eol)
		}
	}
}
