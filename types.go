package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxIncludeDepth caps nested build file includes.
const maxIncludeDepth = 10

// Step is a leaf (tool name plus positional args) or a group of nested steps.
type Step struct {
	Tool  string
	Args  []any
	Steps []Step
	group bool
}

// Leaf builds a step that runs tool with args.
func Leaf(tool string, args ...any) Step {
	return Step{Tool: tool, Args: args}
}

// Group builds a nested step list executed in place.
func Group(steps ...Step) Step {
	return Step{Steps: steps, group: true}
}

// IsGroup reports whether s is a nested step list.
func (s Step) IsGroup() bool { return s.group }

func (s Step) check() error {
	switch {
	case s.group && s.Tool != "":
		return raise(ErrInvalidStep, fmt.Sprintf("group carries tool name %q", s.Tool))
	case !s.group && s.Tool == "":
		return raise(ErrInvalidStep, fmt.Sprintf("step has no tool name (args %v)", s.Args))
	}
	return nil
}

func (s Step) String() string {
	if s.group {
		return fmt.Sprintf("group(%d)", len(s.Steps))
	}
	return fmt.Sprintf("%s%v", s.Tool, s.Args)
}

// UnmarshalYAML decodes [tool, args...] as a leaf and [[...], ...] as a group.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return raise(ErrInvalidStep, fmt.Sprintf("line %d: expected a list, got %s", node.Line, nodeKind(node)))
	}
	if len(node.Content) == 0 {
		*s = Group()
		return nil
	}

	first := node.Content[0]
	if first.Kind == yaml.ScalarNode {
		if first.Tag != "!!str" {
			return raise(ErrInvalidStep, fmt.Sprintf("line %d: tool name must be a string, got %q", first.Line, first.Value))
		}
		args := make([]any, 0, len(node.Content)-1)
		for _, n := range node.Content[1:] {
			var v any
			if err := n.Decode(&v); err != nil {
				return err
			}
			args = append(args, v)
		}
		*s = Leaf(first.Value, args...)
		return nil
	}

	var steps []Step
	if err := node.Decode(&steps); err != nil {
		return err
	}
	*s = Group(steps...)
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return fmt.Sprintf("scalar %q", node.Value)
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	}
	return "document"
}

// ToolDecl names a tool kind and its fixed construction arguments.
// It decodes from "kind", [kind, args...] or {kind: ..., args: [...]}.
type ToolDecl struct {
	Kind string `yaml:"kind"`
	Args []any  `yaml:"args"`
}

func (d *ToolDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d.Kind = node.Value
		return nil
	case yaml.SequenceNode:
		var raw []any
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			return raise(ErrConfiguration, fmt.Sprintf("line %d: empty tool declaration", node.Line))
		}
		kind, ok := raw[0].(string)
		if !ok {
			return raise(ErrConfiguration, fmt.Sprintf("line %d: tool kind must be a string", node.Line))
		}
		d.Kind, d.Args = kind, raw[1:]
		return nil
	case yaml.MappingNode:
		type plain ToolDecl
		return node.Decode((*plain)(d))
	}
	return raise(ErrConfiguration, fmt.Sprintf("line %d: invalid tool declaration", node.Line))
}

// BuildFile is the YAML form of an engine configuration and its steps.
type BuildFile struct {
	Includes    []string            `yaml:"include"`
	WorkDir     string              `yaml:"workdir"`
	UseEnv      bool                `yaml:"use_env"`
	Tools       map[string]ToolDecl `yaml:"build_tools"`
	GlobalTools map[string]ToolDecl `yaml:"global_build_tools"`
	Vars        map[string]any      `yaml:"build_vars"`
	GlobalVars  map[string]any      `yaml:"global_build_vars"`
	Steps       []Step              `yaml:"steps"`
	Targets     map[string][]Step   `yaml:"targets"`
}

// LoadBuildFile reads path and its includes. Included files apply first,
// so the including file overrides them.
func LoadBuildFile(path string) (*BuildFile, error) {
	return loadBuildFile(path, 0)
}

func loadBuildFile(path string, depth int) (*BuildFile, error) {
	if depth > maxIncludeDepth {
		return nil, raise(ErrRecursionLimit, maxIncludeDepth, "includes of "+path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(err, ErrFileSystem, "read", path)
	}
	bf, err := ParseBuildFile(data)
	if err != nil {
		if IsConfigurationError(err) {
			return nil, err
		}
		return nil, wrapErr(err, ErrConfiguration, fmt.Sprintf("%s: %v", path, err))
	}

	merged := &BuildFile{}
	for _, inc := range bf.Includes {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(filepath.Dir(path), inc)
		}
		if _, err := os.Stat(incPath); err != nil {
			slog.Warn("cannot load include", "file", incPath, "error", err)
			continue
		}
		sub, err := loadBuildFile(incPath, depth+1)
		if err != nil {
			return nil, err
		}
		merged.merge(sub)
	}
	merged.merge(bf)
	return merged, nil
}

// ParseBuildFile decodes a single build file without resolving includes.
func ParseBuildFile(data []byte) (*BuildFile, error) {
	var bf BuildFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, err
	}
	return &bf, nil
}

func (bf *BuildFile) merge(other *BuildFile) {
	if other.WorkDir != "" {
		bf.WorkDir = other.WorkDir
	}
	bf.UseEnv = bf.UseEnv || other.UseEnv
	bf.Tools = overlay(bf.Tools, other.Tools)
	bf.GlobalTools = overlay(bf.GlobalTools, other.GlobalTools)
	bf.Vars = overlay(bf.Vars, other.Vars)
	bf.GlobalVars = overlay(bf.GlobalVars, other.GlobalVars)
	bf.Targets = overlay(bf.Targets, other.Targets)
	bf.Steps = append(bf.Steps, other.Steps...)
}

func overlay[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// Config resolves the tool declarations into an engine configuration.
func (bf *BuildFile) Config() (Config, error) {
	tools, err := registryFrom(bf.Tools)
	if err != nil {
		return Config{}, err
	}
	global, err := registryFrom(bf.GlobalTools)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Tools:       tools,
		GlobalTools: global,
		Vars:        bf.Vars,
		GlobalVars:  bf.GlobalVars,
	}, nil
}

// Options returns the engine options a build file asks for.
func (bf *BuildFile) Options() []Option {
	var opts []Option
	if bf.WorkDir != "" {
		opts = append(opts, WithWorkDir(bf.WorkDir))
	}
	if bf.UseEnv {
		opts = append(opts, WithEnvironment())
	}
	return opts
}

// Plan returns the steps to run: the file's steps, or the named targets in order.
func (bf *BuildFile) Plan(targets []string) ([]Step, error) {
	if len(targets) == 0 {
		return bf.Steps, nil
	}
	var steps []Step
	for _, name := range targets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		target, ok := bf.Targets[name]
		if !ok {
			return nil, raise(ErrUnknownTarget, name)
		}
		steps = append(steps, Group(target...))
	}
	return steps, nil
}

func registryFrom(decls map[string]ToolDecl) (Registry, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	reg := make(Registry, len(decls))
	for name, decl := range decls {
		spec, err := NewToolSpec(decl.Kind, decl.Args...)
		if err != nil {
			return nil, err
		}
		reg[name] = spec
	}
	return reg, nil
}
