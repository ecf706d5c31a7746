package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// renameLimit is how many matches are replaced in one file name.
const renameLimit = 2

// fileRename renames files by regex search and replace.
type fileRename struct {
	toolBase
}

func newFileRename(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 0); err != nil {
		return nil, err
	}
	return &fileRename{toolBase: newToolBase(e, name)}, nil
}

// Execute takes (path, search pattern, replacement, recurse=false).
// The replacement may reference groups as $1 or ${name}.
func (t *fileRename) Execute(_ context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 4); err != nil {
		return err
	}
	var strs [3]string
	for i, name := range []string{"path", "search pattern", "replacement"} {
		s, err := argString(t.name, args, i, name)
		if err != nil {
			return err
		}
		if strs[i], err = t.sub(s); err != nil {
			return err
		}
	}
	recurse, err := argBool(t.name, args, 3, "recurse", false)
	if err != nil {
		return err
	}

	re, err := regexp.Compile(strs[1])
	if err != nil {
		return wrapErr(err, ErrInvalidArgument, t.name, fmt.Sprintf("bad search pattern %q", strs[1]))
	}
	return t.renameTree(strs[0], re, strs[2], recurse, 0)
}

func (t *fileRename) renameTree(path string, re *regexp.Regexp, repl string, recurse bool, depth int) error {
	if depth > maxTreeDepth {
		return raise(ErrRecursionLimit, maxTreeDepth, t.name)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "list", path)
	}
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(path, name)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}

		switch {
		case info.Mode().IsRegular():
			renamed := replaceN(re, name, repl, renameLimit)
			if renamed == name {
				continue
			}
			t.log.Info("rename", "from", name, "to", renamed, "dir", path)
			if err := os.Rename(full, filepath.Join(path, renamed)); err != nil {
				return wrapErr(err, ErrFileSystem, "rename", full)
			}
		case info.IsDir() && recurse:
			if err := t.renameTree(full, re, repl, true, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceN replaces at most n leftmost matches of re in s.
func replaceN(re *regexp.Regexp, s, repl string, n int) string {
	matches := re.FindAllStringSubmatchIndex(s, n)
	if matches == nil {
		return s
	}
	var out []byte
	last := 0
	for _, m := range matches {
		out = append(out, s[last:m[0]]...)
		out = re.ExpandString(out, repl, s, m)
		last = m[1]
	}
	out = append(out, s[last:]...)
	return string(out)
}
