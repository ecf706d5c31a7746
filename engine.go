package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
)

// maxStepDepth caps nesting of step groups.
const maxStepDepth = 10

// Config is the in-memory engine configuration. Global entries take
// precedence over local ones.
type Config struct {
	Tools       Registry
	GlobalTools Registry
	Vars        map[string]any
	GlobalVars  map[string]any
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnvironment overlays the process environment onto the build vars.
func WithEnvironment() Option {
	return func(e *Engine) { e.useEnv = true }
}

// WithWorkDir sets the absolute directory Run executes in. Tokens in dir are
// resolved against the build vars.
func WithWorkDir(dir string) Option {
	return func(e *Engine) { e.workDir = dir }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOutput redirects output of child processes.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// withScriptDepth marks an engine started from a script at the given level.
func withScriptDepth(depth int) Option {
	return func(e *Engine) { e.scriptDepth = depth }
}

// Engine runs a list of build steps against a tool registry and a variable table.
type Engine struct {
	tools   Registry
	vars    Vars
	steps   []Step
	workDir string
	useEnv  bool
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer

	// nesting level of script tools that started this engine
	scriptDepth int
}

// NewEngine merges cfg over the default tools and prepares steps for Run.
func NewEngine(cfg Config, steps []Step, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		steps:  steps,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.tools = defaultRegistry()
	maps.Copy(e.tools, cfg.Tools)
	maps.Copy(e.tools, cfg.GlobalTools)
	for name, spec := range e.tools {
		if spec.Factory == nil {
			return nil, raise(ErrConfiguration, fmt.Sprintf("tool %q has no constructor", name))
		}
	}

	if e.useEnv {
		e.vars = mergeVars(cfg.Vars, cfg.GlobalVars, environ())
	} else {
		e.vars = mergeVars(cfg.Vars, cfg.GlobalVars)
	}

	if e.workDir != "" {
		dir, err := e.Substitute(e.workDir)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(dir) {
			return nil, raise(ErrConfiguration, fmt.Sprintf("working directory %q is not absolute", dir))
		}
		e.workDir = filepath.Clean(dir)
	}
	return e, nil
}

// Vars returns a copy of the build variables.
func (e *Engine) Vars() Vars { return maps.Clone(e.vars) }

// Tools returns a copy of the tool registry.
func (e *Engine) Tools() Registry { return maps.Clone(e.tools) }

// WorkDir returns the configured working directory, or "".
func (e *Engine) WorkDir() string { return e.workDir }

// Run executes the step list. The process working directory is switched
// for the duration of the run and restored on every return path.
func (e *Engine) Run(ctx context.Context) (err error) {
	if e.workDir != "" {
		prev, gerr := os.Getwd()
		if gerr != nil {
			return wrapErr(gerr, ErrFileSystem, "getwd", "")
		}
		if cerr := os.Chdir(e.workDir); cerr != nil {
			return wrapErr(cerr, ErrFileSystem, "chdir", e.workDir)
		}
		e.logger.Info("changed directory", "from", prev, "to", e.workDir)

		defer func() {
			if rerr := os.Chdir(prev); rerr != nil {
				if err == nil {
					err = wrapErr(rerr, ErrFileSystem, "chdir", prev)
				}
				return
			}
			e.logger.Info("directory restored", "dir", prev)
		}()
	}

	tools, err := e.instantiate()
	if err != nil {
		return err
	}
	return e.runSteps(ctx, tools, e.steps, 0)
}

// instantiate creates one tool per registry entry.
func (e *Engine) instantiate() (map[string]Tool, error) {
	tools := make(map[string]Tool, len(e.tools))
	for _, name := range e.tools.Names() {
		spec := e.tools[name]
		tool, err := spec.Factory(e, name, spec.Args...)
		if err != nil {
			return nil, err
		}
		tools[name] = tool
		e.logger.Debug("create tool", "name", name, "kind", spec.Kind, "args", spec.Args)
	}
	return tools, nil
}

func (e *Engine) runSteps(ctx context.Context, tools map[string]Tool, steps []Step, depth int) error {
	if depth > maxStepDepth {
		return raise(ErrRecursionLimit, maxStepDepth, "build steps")
	}

	for _, step := range steps {
		if err := step.check(); err != nil {
			return err
		}
		if step.IsGroup() {
			if err := e.runSteps(ctx, tools, step.Steps, depth+1); err != nil {
				return err
			}
			continue
		}

		tool, ok := tools[step.Tool]
		if !ok {
			return raise(ErrUnknownTool, step.Tool)
		}
		e.logger.Info("step", "tool", step.Tool, "args", step.Args)
		if err := tool.Execute(ctx, step.Args...); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks step shapes, tool names and nesting without running anything.
func (e *Engine) Validate() error {
	return e.validateSteps(e.steps, 0)
}

func (e *Engine) validateSteps(steps []Step, depth int) error {
	if depth > maxStepDepth {
		return raise(ErrRecursionLimit, maxStepDepth, "build steps")
	}
	for _, step := range steps {
		if err := step.check(); err != nil {
			return err
		}
		if step.IsGroup() {
			if err := e.validateSteps(step.Steps, depth+1); err != nil {
				return err
			}
			continue
		}
		if _, ok := e.tools[step.Tool]; !ok {
			return raise(ErrUnknownTool, step.Tool)
		}
	}
	return nil
}

// Substitute resolves &NAME& tokens against the build vars.
func (e *Engine) Substitute(text string) (string, error) {
	return Substitute(text, defaultDelimiter, e.vars)
}

// SubstituteWith resolves tokens using a custom delimiter pattern and extra
// tokens that override the build vars.
func (e *Engine) SubstituteWith(text, pattern string, extra map[string]any) (string, error) {
	delim, err := compileDelimiter(pattern)
	if err != nil {
		return "", err
	}
	tokens := map[string]any(e.vars)
	if len(extra) > 0 {
		tokens = mergeVars(e.vars, extra)
	}
	return Substitute(text, delim, tokens)
}

// AbsPath joins rel onto the working directory. Without a working directory
// the path is returned unchanged.
func (e *Engine) AbsPath(rel string) string {
	if e.workDir == "" {
		e.logger.Warn("path cannot be converted to absolute path", "path", rel)
		return rel
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(e.workDir, rel)
}
