package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
)

// ScriptContext is the read-only view of an engine handed to a script.
type ScriptContext struct {
	Tools Registry
	Vars  Vars
	File  string
}

// scriptRun runs a nested build file or an expression script.
type scriptRun struct {
	toolBase
}

func newScriptRun(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 0); err != nil {
		return nil, err
	}
	return &scriptRun{toolBase: newToolBase(e, name)}, nil
}

// Execute takes (script file). YAML files run as build files whose global
// tools and vars are this engine's; anything else is an expression script.
func (t *scriptRun) Execute(ctx context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 1); err != nil {
		return err
	}
	file, err := argString(t.name, args, 0, "script")
	if err != nil {
		return err
	}
	if file, err = t.sub(file); err != nil {
		return err
	}
	if t.engine.scriptDepth >= maxStepDepth {
		return raise(ErrRecursionLimit, maxStepDepth, "scripts started from "+file)
	}

	sc := ScriptContext{
		Tools: t.engine.Tools(),
		Vars:  t.engine.Vars(),
		File:  t.engine.AbsPath(file),
	}
	t.log.Info("exec script", "file", file)

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return t.runBuildFile(ctx, file, sc)
	default:
		return t.runExpr(ctx, file, sc)
	}
}

func (t *scriptRun) childOptions() []Option {
	return []Option{
		WithLogger(t.engine.logger),
		WithOutput(t.engine.stdout, t.engine.stderr),
		withScriptDepth(t.engine.scriptDepth + 1),
	}
}

func (t *scriptRun) runBuildFile(ctx context.Context, file string, sc ScriptContext) error {
	bf, err := LoadBuildFile(file)
	if err != nil {
		return err
	}
	cfg, err := bf.Config()
	if err != nil {
		return err
	}
	cfg.GlobalTools = overlay(cfg.GlobalTools, sc.Tools)
	cfg.GlobalVars = overlay(cfg.GlobalVars, sc.Vars)

	child, err := NewEngine(cfg, bf.Steps, append(t.childOptions(), bf.Options()...)...)
	if err != nil {
		return err
	}
	return child.Run(ctx)
}

// runExpr evaluates one expression per line. Blank lines and lines starting
// with # are skipped. The environment offers vars, tools and file, plus the
// functions run(tool, args...), sub(text) and getenv(name).
func (t *scriptRun) runExpr(ctx context.Context, file string, sc ScriptContext) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "read", file)
	}

	child, err := NewEngine(Config{GlobalTools: sc.Tools, GlobalVars: sc.Vars}, nil, t.childOptions()...)
	if err != nil {
		return err
	}
	tools, err := child.instantiate()
	if err != nil {
		return err
	}

	// errors raised by run/sub keep their codes even when expr wraps them
	var callErr error
	env := map[string]any{
		"vars":  map[string]any(maps.Clone(sc.Vars)),
		"tools": sc.Tools.Names(),
		"file":  sc.File,
	}
	opts := []expr.Option{
		expr.Env(env),
		expr.Function("run", func(params ...any) (any, error) {
			if len(params) == 0 {
				callErr = raise(ErrInvalidArgument, "run", "missing tool name")
				return nil, callErr
			}
			name, ok := params[0].(string)
			if !ok {
				callErr = raise(ErrInvalidArgument, "run", fmt.Sprintf("tool name must be a string, got %v", params[0]))
				return nil, callErr
			}
			if callErr = child.runSteps(ctx, tools, []Step{Leaf(name, params[1:]...)}, 0); callErr != nil {
				return nil, callErr
			}
			return true, nil
		}),
		expr.Function("sub", func(params ...any) (any, error) {
			if len(params) != 1 {
				callErr = raise(ErrInvalidArgument, "sub", "expects one argument")
				return nil, callErr
			}
			out, err := child.Substitute(fmt.Sprint(params[0]))
			if err != nil {
				callErr = err
				return nil, err
			}
			return out, nil
		}),
		expr.Function("getenv", func(params ...any) (any, error) {
			if len(params) != 1 {
				callErr = raise(ErrInvalidArgument, "getenv", "expects one argument")
				return nil, callErr
			}
			return os.Getenv(fmt.Sprint(params[0])), nil
		}),
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		program, err := expr.Compile(line, opts...)
		if err != nil {
			return wrapErr(err, ErrConfiguration, fmt.Sprintf("%s:%d: %v", file, i+1, err))
		}
		callErr = nil
		if _, err := expr.Run(program, env); err != nil {
			if callErr != nil {
				return callErr
			}
			return wrapErr(err, ErrConfiguration, fmt.Sprintf("%s:%d: %v", file, i+1, err))
		}
	}
	return nil
}
