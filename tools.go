package main

import (
	"context"
	"log/slog"
)

// Tool is one unit of build work. Arguments come straight from the step.
type Tool interface {
	Execute(ctx context.Context, args ...any) error
}

// Factory constructs a tool instance bound to an engine. Extra args are the
// fixed construction arguments of the registry entry.
type Factory func(e *Engine, name string, args ...any) (Tool, error)

// ToolSpec is a registry entry: a constructor plus fixed construction arguments.
type ToolSpec struct {
	Kind    string
	Factory Factory
	Args    []any
}

// Registry maps tool names to their specs.
type Registry map[string]ToolSpec

// Names returns the registered tool names in sorted order.
func (r Registry) Names() []string {
	return sortedKeys(r)
}

// NewToolSpec looks up a tool kind by name.
func NewToolSpec(kind string, args ...any) (ToolSpec, error) {
	factory, ok := lookupKind(kind)
	if !ok {
		return ToolSpec{}, raise(ErrUnknownTool, kind)
	}
	return ToolSpec{Kind: kind, Factory: factory, Args: args}, nil
}

// Kinds lists the tool kinds usable from build files.
var Kinds = []string{"cmd", "copy", "delete", "findreplace", "git", "rename", "script", "svn", "template"}

func lookupKind(kind string) (Factory, bool) {
	switch kind {
	case "cmd":
		return newCmdCall, true
	case "copy":
		return newFullCopy, true
	case "delete":
		return newDelTree, true
	case "rename":
		return newFileRename, true
	case "git":
		return newGitCheckout, true
	case "svn":
		return newSVNCheckout, true
	case "template":
		return newProcessTemplate, true
	case "findreplace":
		return newFindReplace, true
	case "script":
		return newScriptRun, true
	}
	return nil, false
}

// defaultRegistry holds the tools every engine starts with.
func defaultRegistry() Registry {
	return Registry{
		"copy":   {Kind: "copy", Factory: newFullCopy},
		"delete": {Kind: "delete", Factory: newDelTree},
		"rename": {Kind: "rename", Factory: newFileRename},
	}
}

// toolBase carries what every tool needs to reach back into its engine.
type toolBase struct {
	engine *Engine
	name   string
	log    *slog.Logger
}

func newToolBase(e *Engine, name string) toolBase {
	return toolBase{engine: e, name: name, log: e.logger.With("tool", name)}
}

// Name returns the registry name of the tool instance.
func (t toolBase) Name() string { return t.name }

func (t toolBase) sub(text string) (string, error) {
	return t.engine.Substitute(text)
}

// svnCheckout is kept for build files that still name it; it does nothing.
type svnCheckout struct {
	toolBase
}

func newSVNCheckout(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 1); err != nil {
		return nil, err
	}
	return &svnCheckout{toolBase: newToolBase(e, name)}, nil
}

func (t *svnCheckout) Execute(_ context.Context, args ...any) error {
	t.log.Debug("svn checkout is a no-op", "args", args)
	return nil
}
