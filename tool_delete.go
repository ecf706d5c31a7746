package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// delTree deletes a file or a directory tree.
type delTree struct {
	toolBase
}

func newDelTree(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 0); err != nil {
		return nil, err
	}
	return &delTree{toolBase: newToolBase(e, name)}, nil
}

// Execute takes (path, raiseOnError=true). A missing path is not an error.
func (t *delTree) Execute(_ context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 2); err != nil {
		return err
	}
	path, err := argString(t.name, args, 0, "path")
	if err != nil {
		return err
	}
	if path, err = t.sub(path); err != nil {
		return err
	}
	raiseErrors, err := argBool(t.name, args, 1, "raise on error", true)
	if err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		t.log.Info("doesn't exist", "path", path)
		return nil
	}
	if err == nil {
		remove := os.Remove
		if info.IsDir() {
			remove = os.RemoveAll
		}
		err = removeWithRetry(path, remove)
	}
	if err != nil {
		if raiseErrors {
			return wrapErr(err, ErrFileSystem, "delete", path)
		}
		t.log.Warn("delete failed", "path", path, "error", err)
		return nil
	}
	t.log.Info("deleted", "path", path)
	return nil
}

// removeWithRetry retries once after granting owner write access when the
// first attempt is denied.
func removeWithRetry(path string, remove func(string) error) error {
	err := remove(path)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return err
	}
	makeWritable(path)
	return remove(path)
}

// makeWritable clears read-only bits on path, its parent and, for
// directories, everything below it.
func makeWritable(path string) {
	chmodWritable(filepath.Dir(path))
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		chmodWritable(p)
		if err != nil && d != nil && d.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
}

func chmodWritable(p string) {
	info, err := os.Lstat(p)
	if err != nil || info.Mode()&fs.ModeSymlink != 0 {
		return
	}
	mode := info.Mode().Perm() | 0o200
	if info.IsDir() {
		mode |= 0o700
	}
	_ = os.Chmod(p, mode)
}
