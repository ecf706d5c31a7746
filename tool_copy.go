package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// maxTreeDepth caps directory recursion of the copy and rename tools.
const maxTreeDepth = 20

// fullCopy copies files matching a glob into a destination, creating the
// destination path as needed.
type fullCopy struct {
	toolBase
	base string
}

// newFullCopy takes an optional base path that destinations are relative to.
func newFullCopy(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 1); err != nil {
		return nil, err
	}
	base, err := argString(name, args, 0, "base path", "")
	if err != nil {
		return nil, err
	}
	if base != "" {
		if base, err = e.Substitute(base); err != nil {
			return nil, err
		}
	}
	return &fullCopy{toolBase: newToolBase(e, name), base: base}, nil
}

// Execute takes (source pattern, destination, recurse=false). The pattern's
// last element is a unix-style glob.
func (t *fullCopy) Execute(_ context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 3); err != nil {
		return err
	}
	src, err := argString(t.name, args, 0, "source")
	if err != nil {
		return err
	}
	dest, err := argString(t.name, args, 1, "destination")
	if err != nil {
		return err
	}
	recurse, err := argBool(t.name, args, 2, "recurse", false)
	if err != nil {
		return err
	}
	if src, err = t.sub(src); err != nil {
		return err
	}
	if dest, err = t.sub(dest); err != nil {
		return err
	}
	return t.copyTree(src, dest, recurse, 0)
}

func (t *fullCopy) copyTree(src, dest string, recurse bool, depth int) error {
	if depth > maxTreeDepth {
		return raise(ErrRecursionLimit, maxTreeDepth, t.name)
	}

	match := filepath.Base(src)
	dir := filepath.Dir(src)
	pattern := filepath.Join(dir, match)

	files, err := filepath.Glob(pattern)
	if err != nil {
		return wrapErr(err, ErrInvalidArgument, t.name, fmt.Sprintf("bad pattern %q", pattern))
	}
	if len(files) == 0 {
		t.log.Warn("no files found, nothing to do", "pattern", pattern)
	}

	target := dest
	if t.base != "" {
		target = filepath.Join(t.base, dest)
	}
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return wrapErr(err, ErrFileSystem, "create", target)
		}
		t.log.Info("created", "dir", target)
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return wrapErr(err, ErrFileSystem, "stat", file)
		}
		if info.IsDir() {
			t.log.Info("skipping directory", "path", file)
			continue
		}
		to := filepath.Join(target, filepath.Base(file))
		if err := copyFile(file, to, info.Mode().Perm()); err != nil {
			return err
		}
		t.log.Info("copied", "from", file, "to", to)
	}

	if !recurse {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "list", dir)
	}
	for _, entry := range entries {
		sub := filepath.Join(dir, entry.Name())
		if info, err := os.Stat(sub); err != nil || !info.IsDir() {
			continue
		}
		if err := t.copyTree(filepath.Join(sub, match), filepath.Join(dest, entry.Name()), true, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(from, to string, perm fs.FileMode) error {
	in, err := os.Open(from)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "open", from)
	}
	defer func() { _ = in.Close() }()

	// opening the destination truncates it, so a self copy would empty the file
	if src, err := in.Stat(); err == nil {
		if dst, err := os.Stat(to); err == nil && os.SameFile(src, dst) {
			return raise(ErrFileSystem, "copy", from+" -> "+to+": same file")
		}
	}

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "create", to)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return wrapErr(err, ErrFileSystem, "copy", from+" -> "+to)
	}
	if err := out.Close(); err != nil {
		return wrapErr(err, ErrFileSystem, "close", to)
	}
	return nil
}
