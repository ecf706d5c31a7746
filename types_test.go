package main

import (
	"path/filepath"
	"testing"

	goerrors "github.com/agilira/go-errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

var stepOpts = []cmp.Option{cmp.AllowUnexported(Step{}), cmpopts.EquateEmpty()}

// ===== STEP DECODING =====

func decodeSteps(t *testing.T, src string) ([]Step, error) {
	t.Helper()
	var steps []Step
	err := yaml.Unmarshal([]byte(src), &steps)
	return steps, err
}

func TestStepUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []Step
	}{
		{
			name:     "Leaf with mixed args",
			src:      `[[copy, "src/*.txt", dist, true]]`,
			expected: []Step{Leaf("copy", "src/*.txt", "dist", true)},
		},
		{
			name:     "Leaf without args",
			src:      `[[clean]]`,
			expected: []Step{Leaf("clean")},
		},
		{
			name:     "Integer argument",
			src:      `[[wait, 3]]`,
			expected: []Step{Leaf("wait", 3)},
		},
		{
			name:     "Nested group",
			src:      "- [a]\n- - [b, 1]\n  - - [c]\n",
			expected: []Step{Leaf("a"), Group(Leaf("b", 1), Group(Leaf("c")))},
		},
		{
			name:     "Empty group",
			src:      `[[]]`,
			expected: []Step{Group()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSteps(t, tt.src)
			if err != nil {
				t.Fatalf("decode unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got, stepOpts...); diff != "" {
				t.Errorf("steps mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStepUnmarshalYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "Scalar step", src: `[copy]`},
		{name: "Mapping step", src: `[{tool: copy}]`},
		{name: "Numeric tool name", src: `[[42, a]]`},
		{name: "Scalar inside group", src: `[[[a], b]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeSteps(t, tt.src); !goerrors.HasCode(err, ErrInvalidStep) {
				t.Errorf("decode(%s) error = %v, want invalid step", tt.src, err)
			}
		})
	}
}

func TestStepCheck(t *testing.T) {
	if err := (Step{}).check(); !goerrors.HasCode(err, ErrInvalidStep) {
		t.Errorf("nameless leaf error = %v, want invalid step", err)
	}
	bad := Group()
	bad.Tool = "copy"
	if err := bad.check(); !goerrors.HasCode(err, ErrInvalidStep) {
		t.Errorf("named group error = %v, want invalid step", err)
	}
	if got := Leaf("copy", "a").String(); got != "copy[a]" {
		t.Errorf("String() = %q", got)
	}
}

// ===== TOOL DECLARATIONS =====

func TestToolDeclForms(t *testing.T) {
	src := `
plain: template
list: [cmd, make, /usr/bin]
mapping:
  kind: git
  args: [/opt/git/bin/git]
`
	var decls map[string]ToolDecl
	if err := yaml.Unmarshal([]byte(src), &decls); err != nil {
		t.Fatalf("decode unexpected error: %v", err)
	}
	want := map[string]ToolDecl{
		"plain":   {Kind: "template"},
		"list":    {Kind: "cmd", Args: []any{"make", "/usr/bin"}},
		"mapping": {Kind: "git", Args: []any{"/opt/git/bin/git"}},
	}
	if diff := cmp.Diff(want, decls); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"x: []", "x: [1, 2]"} {
		var d map[string]ToolDecl
		if err := yaml.Unmarshal([]byte(bad), &d); !goerrors.HasCode(err, ErrConfiguration) {
			t.Errorf("decode(%q) error = %v, want configuration error", bad, err)
		}
	}
}

func TestBuildFileConfig(t *testing.T) {
	bf, err := ParseBuildFile([]byte(`
build_tools:
  make: [cmd, make]
global_build_tools:
  tpl: template
build_vars:
  A: 1
global_build_vars:
  B: two
steps:
  - [make, all]
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := bf.Config()
	if err != nil {
		t.Fatalf("Config() unexpected error: %v", err)
	}
	if cfg.Tools["make"].Kind != "cmd" || cfg.GlobalTools["tpl"].Kind != "template" {
		t.Errorf("unexpected registries: %v / %v", cfg.Tools, cfg.GlobalTools)
	}
	if diff := cmp.Diff([]any{"make"}, cfg.Tools["make"].Args); diff != "" {
		t.Errorf("construction args mismatch (-want +got):\n%s", diff)
	}
	if cfg.Vars["A"] != 1 || cfg.GlobalVars["B"] != "two" {
		t.Errorf("unexpected vars: %v / %v", cfg.Vars, cfg.GlobalVars)
	}

	unknown, err := ParseBuildFile([]byte("build_tools:\n  x: teleport\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := unknown.Config(); !goerrors.HasCode(err, ErrUnknownTool) {
		t.Errorf("Config() error = %v, want unknown tool", err)
	}
}

// ===== LOADING AND INCLUDES =====

func TestLoadBuildFileIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"common/base.yaml": `
build_vars:
  NAME: base
  ONLY_BASE: base-only
steps:
  - [first]
`,
		"wbs.yaml": `
include:
  - common/base.yaml
  - missing.yaml
build_vars:
  NAME: main
steps:
  - [second]
targets:
  dist: [[copy, a, b]]
`,
	})

	bf, err := LoadBuildFile(filepath.Join(dir, "wbs.yaml"))
	if err != nil {
		t.Fatalf("LoadBuildFile() unexpected error: %v", err)
	}
	if bf.Vars["NAME"] != "main" || bf.Vars["ONLY_BASE"] != "base-only" {
		t.Errorf("merged vars = %v", bf.Vars)
	}
	if diff := cmp.Diff([]Step{Leaf("first"), Leaf("second")}, bf.Steps, stepOpts...); diff != "" {
		t.Errorf("merged steps mismatch (-want +got):\n%s", diff)
	}
	if _, ok := bf.Targets["dist"]; !ok {
		t.Error("target dist missing after merge")
	}
}

func TestLoadBuildFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"loop.yaml":    "include: [loop.yaml]\n",
		"broken.yaml":  "steps: [[copy]\n",
		"badstep.yaml": "steps:\n  - copy\n",
	})

	tests := []struct {
		file string
		code goerrors.ErrorCode
	}{
		{file: "loop.yaml", code: ErrRecursionLimit},
		{file: "broken.yaml", code: ErrConfiguration},
		{file: "badstep.yaml", code: ErrInvalidStep},
		{file: "absent.yaml", code: ErrFileSystem},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadBuildFile(filepath.Join(dir, tt.file))
			if !goerrors.HasCode(err, tt.code) {
				t.Errorf("LoadBuildFile(%s) error = %v, want %s", tt.file, err, tt.code)
			}
		})
	}
}

func TestBuildFileOptions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WBS_OPTIONS_TEST", "env")
	bf := &BuildFile{WorkDir: dir, UseEnv: true}

	e := newTestEngine(t, Config{}, nil, bf.Options()...)
	if e.WorkDir() != filepath.Clean(dir) {
		t.Errorf("WorkDir() = %q, want %q", e.WorkDir(), dir)
	}
	if v, ok := e.Vars().Lookup("WBS_OPTIONS_TEST"); !ok || v != "env" {
		t.Errorf("environment var = %q, %v", v, ok)
	}
}

// ===== TARGETS =====

func TestPlan(t *testing.T) {
	bf := &BuildFile{
		Steps: []Step{Leaf("all")},
		Targets: map[string][]Step{
			"clean": {Leaf("delete", "out")},
			"dist":  {Leaf("copy", "a", "b"), Leaf("rename", "b", "x", "y")},
		},
	}

	tests := []struct {
		name     string
		targets  []string
		expected []Step
	}{
		{name: "No targets", expected: []Step{Leaf("all")}},
		{name: "Single target", targets: []string{"clean"}, expected: []Step{Group(Leaf("delete", "out"))}},
		{
			name:    "Targets keep their order",
			targets: []string{"dist", " clean ", ""},
			expected: []Step{
				Group(Leaf("copy", "a", "b"), Leaf("rename", "b", "x", "y")),
				Group(Leaf("delete", "out")),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bf.Plan(tt.targets)
			if err != nil {
				t.Fatalf("Plan() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got, stepOpts...); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := bf.Plan([]string{"missing"}); !goerrors.HasCode(err, ErrUnknownTarget) {
		t.Errorf("Plan(missing) error = %v, want unknown target", err)
	}
}

func TestOverlay(t *testing.T) {
	base := map[string]any{"a": 1}
	got := overlay(base, map[string]any{"a": 2, "b": 3})
	if diff := cmp.Diff(map[string]any{"a": 2, "b": 3}, got); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
	if got := overlay[any](nil, nil); got != nil {
		t.Errorf("overlay(nil, nil) = %v, want nil", got)
	}
}
