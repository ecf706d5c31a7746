package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// cmdCall runs a command line through the shell.
type cmdCall struct {
	toolBase
	cmd       string
	path      string
	exception bool
}

// newCmdCall takes (command, path="", exception=true). A path prefixes the
// command, resolved against the working directory.
func newCmdCall(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 3); err != nil {
		return nil, err
	}
	cmd, err := argString(name, args, 0, "command")
	if err != nil {
		return nil, err
	}
	path, err := argString(name, args, 1, "path", "")
	if err != nil {
		return nil, err
	}
	if path != "" {
		if path, err = e.Substitute(path); err != nil {
			return nil, err
		}
	}
	exception, err := argBool(name, args, 2, "exception", true)
	if err != nil {
		return nil, err
	}
	return &cmdCall{toolBase: newToolBase(e, name), cmd: cmd, path: path, exception: exception}, nil
}

func (t *cmdCall) Execute(ctx context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 1); err != nil {
		return err
	}
	param, err := argString(t.name, args, 0, "parameters", "")
	if err != nil {
		return err
	}
	if param, err = t.sub(param); err != nil {
		return err
	}

	line := t.commandLine(param)
	t.log.Info("exec", "cmd", line)

	code, err := ExecuteCommand(ctx, line, t.engine.stdout, t.engine.stderr)
	if err != nil {
		return wrapErr(err, ErrCommandExecution, t.name, line, err.Error())
	}
	if code != 0 {
		if t.exception {
			return raise(ErrCommandExecution, t.name, line, fmt.Sprintf("exit status %d", code))
		}
		t.log.Warn("command failed", "cmd", line, "exit", code)
	}
	return nil
}

func (t *cmdCall) commandLine(param string) string {
	cmd := t.cmd
	if t.path != "" {
		cmd = `"` + filepath.Join(t.engine.AbsPath(t.path), t.cmd) + `"`
	}
	return strings.TrimSpace(cmd + " " + param)
}
