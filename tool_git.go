package main

import (
	"context"
	"fmt"
	"strings"
)

// defaultRef leaves a fresh clone on its default branch.
const defaultRef = "default"

// gitCheckout clones a repository and optionally checks out a branch, tag or commit.
type gitCheckout struct {
	toolBase
	git string
}

func newGitCheckout(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 1); err != nil {
		return nil, err
	}
	git, err := argString(name, args, 0, "executable", "git")
	if err != nil {
		return nil, err
	}
	return &gitCheckout{toolBase: newToolBase(e, name), git: git}, nil
}

func (t *gitCheckout) Execute(ctx context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 2); err != nil {
		return err
	}
	url, err := argString(t.name, args, 0, "repository")
	if err != nil {
		return err
	}
	if url, err = t.sub(url); err != nil {
		return err
	}
	ref, err := argString(t.name, args, 1, "ref", defaultRef)
	if err != nil {
		return err
	}
	if ref, err = t.sub(ref); err != nil {
		return err
	}

	t.log.Info("git clone", "url", url)
	if err := t.run(ctx, "", "clone", url); err != nil {
		return err
	}
	if ref == defaultRef {
		t.log.Info("default branch", "url", url)
		return nil
	}

	folder := repoFolder(url)
	t.log.Info("checkout", "ref", ref, "folder", folder)
	return t.run(ctx, folder, "checkout", ref)
}

func (t *gitCheckout) run(ctx context.Context, dir string, args ...string) error {
	code, err := ExecuteProgram(ctx, dir, t.engine.stdout, t.engine.stderr, t.git, args...)
	line := t.git + " " + strings.Join(args, " ")
	if err != nil {
		return wrapErr(err, ErrCommandExecution, t.name, line, err.Error())
	}
	if code != 0 {
		return raise(ErrCommandExecution, t.name, line, fmt.Sprintf("exit status %d", code))
	}
	return nil
}

// repoFolder derives the clone directory from the last URL segment.
// The characters '.', 'g', 'i' and 't' are trimmed from both ends, so a
// name that itself starts or ends with them loses those too.
func repoFolder(url string) string {
	url = strings.TrimRight(url, "/")
	seg := url[strings.LastIndex(url, "/")+1:]
	return strings.Trim(seg, ".git")
}
