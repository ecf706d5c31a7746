package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	goerrors "github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"gopkg.in/yaml.v3"
)

const defaultBuildFile = "wbs.yaml"

// buildOptions carries the CLI flags shared by the commands.
type buildOptions struct {
	File    string
	Targets []string
	WorkDir string
	UseEnv  bool
	Stdout  io.Writer
	Stderr  io.Writer
}

func loadConfig(path string) (*BuildFile, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultBuildFile
	}
	return LoadBuildFile(path)
}

func splitTargets(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// newBuildEngine wires a loaded build file and the CLI overrides into an engine.
func newBuildEngine(bf *BuildFile, opts buildOptions) (*Engine, error) {
	cfg, err := bf.Config()
	if err != nil {
		return nil, err
	}
	steps, err := bf.Plan(opts.Targets)
	if err != nil {
		return nil, err
	}

	engineOpts := bf.Options()
	if opts.WorkDir != "" {
		engineOpts = append(engineOpts, WithWorkDir(opts.WorkDir))
	}
	if opts.UseEnv {
		engineOpts = append(engineOpts, WithEnvironment())
	}
	if opts.Stdout != nil || opts.Stderr != nil {
		stdout, stderr := opts.Stdout, opts.Stderr
		if stdout == nil {
			stdout = os.Stdout
		}
		if stderr == nil {
			stderr = os.Stderr
		}
		engineOpts = append(engineOpts, WithOutput(stdout, stderr))
	}
	return NewEngine(cfg, steps, engineOpts...)
}

// runBuild loads, validates and runs a build file.
func runBuild(ctx context.Context, opts buildOptions) error {
	bf, err := loadConfig(opts.File)
	if err != nil {
		return err
	}
	engine, err := newBuildEngine(bf, opts)
	if err != nil {
		return err
	}
	return engine.Run(ctx)
}

// validateBuild checks the steps and every target of a build file.
func validateBuild(opts buildOptions) error {
	bf, err := loadConfig(opts.File)
	if err != nil {
		return err
	}
	plans := [][]string{nil}
	for _, name := range sortedKeys(bf.Targets) {
		plans = append(plans, []string{name})
	}
	for _, targets := range plans {
		opts.Targets = targets
		engine, err := newBuildEngine(bf, opts)
		if err != nil {
			return err
		}
		if err := engine.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func buildCommand(ctx *orpheus.Context) error {
	opts := buildOptions{
		File:    ctx.GetFlagString("file"),
		Targets: splitTargets(ctx.GetFlagString("targets")),
		WorkDir: ctx.GetFlagString("workdir"),
		UseEnv:  ctx.GetFlagBool("env"),
	}
	if err := runBuild(context.Background(), opts); err != nil {
		return cliError("build", err)
	}
	return nil
}

func validateCommand(ctx *orpheus.Context) error {
	opts := buildOptions{File: ctx.GetFlagString("file")}
	if err := validateBuild(opts); err != nil {
		return cliError("validate", err)
	}
	fmt.Printf("%s: ok\n", opts.File)
	return nil
}

func listCommand(ctx *orpheus.Context) error {
	bf, err := loadConfig(ctx.GetFlagString("file"))
	if err != nil {
		return cliError("list", err)
	}
	engine, err := newBuildEngine(bf, buildOptions{UseEnv: ctx.GetFlagBool("env")})
	if err != nil {
		return cliError("list", err)
	}
	return listEngine(os.Stdout, engine, ctx.GetFlagString("format"))
}

// cliError maps domain errors onto orpheus error kinds.
func cliError(command string, err error) error {
	switch {
	case goerrors.HasCode(err, ErrUnknownTarget), goerrors.HasCode(err, ErrUnknownTool):
		return orpheus.NotFoundError(command, err.Error())
	case IsConfigurationError(err):
		return orpheus.ValidationError(command, err.Error())
	default:
		return orpheus.ExecutionError(command, err.Error())
	}
}

type toolInfo struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
	Args []any  `json:"args,omitempty" yaml:"args,omitempty"`
}

type listing struct {
	Tools []toolInfo     `json:"tools" yaml:"tools"`
	Vars  map[string]any `json:"vars" yaml:"vars"`
}

func describe(e *Engine) listing {
	reg := e.Tools()
	l := listing{Vars: e.Vars()}
	for _, name := range reg.Names() {
		spec := reg[name]
		l.Tools = append(l.Tools, toolInfo{Name: name, Kind: spec.Kind, Args: spec.Args})
	}
	return l
}

func listEngine(w io.Writer, e *Engine, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(describe(e))
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(describe(e))
	default: // table
		return listTable(w, e)
	}
}

func listTable(w io.Writer, e *Engine) error {
	l := describe(e)

	fmt.Fprintln(w, "Tools:")
	fmt.Fprintln(w, "------")
	maxNameLen := 0
	for _, t := range l.Tools {
		maxNameLen = max(maxNameLen, len(t.Name))
	}
	for _, t := range l.Tools {
		padding := strings.Repeat(" ", maxNameLen-len(t.Name)+2)
		args := ""
		if len(t.Args) > 0 {
			args = fmt.Sprintf(" %v", t.Args)
		}
		fmt.Fprintf(w, "  %s%s%s%s\n", t.Name, padding, t.Kind, args)
	}

	fmt.Fprintln(w, "\nVariables:")
	fmt.Fprintln(w, "----------")
	if len(l.Vars) == 0 {
		fmt.Fprintln(w, "No variables defined")
	}
	for _, name := range sortedKeys(l.Vars) {
		fmt.Fprintf(w, "  %s=%v\n", name, l.Vars[name])
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d tools, %d variables\n", len(l.Tools), len(l.Vars))
	return err
}
