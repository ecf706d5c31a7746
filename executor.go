package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// ExecuteCommand runs a command line through the host shell and returns its
// exit code. A non-nil error means the shell could not be started.
func ExecuteCommand(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	if strings.TrimSpace(command) == "" {
		return 0, fmt.Errorf("empty command")
	}

	var cmd *exec.Cmd
	// Windows
	if runtime.GOOS == "windows" {
		// #nosec G204 - build steps run user-defined commands
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		// Linux && MacOsX
		// #nosec G204 - build steps run user-defined commands
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", command)
	}
	return runProcess(cmd, stdout, stderr)
}

// ExecuteProgram runs name with args in dir ("" for the current directory).
func ExecuteProgram(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	// #nosec G204 - program and args come from the build file
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return runProcess(cmd, stdout, stderr)
}

func runProcess(cmd *exec.Cmd, stdout, stderr io.Writer) (int, error) {
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
