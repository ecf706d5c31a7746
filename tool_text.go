package main

import (
	"context"
	"fmt"
	"regexp"
)

// processTemplate writes a copy of a file with tokens substituted.
type processTemplate struct {
	toolBase
	delim string
}

// newProcessTemplate takes an optional delimiter pattern, default "&".
func newProcessTemplate(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 1); err != nil {
		return nil, err
	}
	delim, err := argString(name, args, 0, "delimiter", DefaultDelimiter)
	if err != nil {
		return nil, err
	}
	if _, err := compileDelimiter(delim); err != nil {
		return nil, err
	}
	return &processTemplate{toolBase: newToolBase(e, name), delim: delim}, nil
}

// Execute takes (source file, destination file, encoding="ascii").
func (t *processTemplate) Execute(_ context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 3); err != nil {
		return err
	}
	src, dest, enc, err := t.files(args)
	if err != nil {
		return err
	}
	t.log.Info("process template", "src", src, "dest", dest)
	return rewriteLines(t.name, src, dest, enc, func(line string) (string, error) {
		t.log.Debug("template line", "line", line)
		return t.engine.SubstituteWith(line, t.delim, nil)
	})
}

func (t *processTemplate) files(args []any) (src, dest, enc string, err error) {
	if src, err = argString(t.name, args, 0, "source file"); err != nil {
		return
	}
	if dest, err = argString(t.name, args, 1, "destination file"); err != nil {
		return
	}
	if enc, err = argString(t.name, args, 2, "encoding", defaultEncoding); err != nil {
		return
	}
	if src, err = t.sub(src); err != nil {
		return
	}
	dest, err = t.sub(dest)
	return
}

// findReplace applies a regex substitution to every line of a file.
type findReplace struct {
	toolBase
}

func newFindReplace(e *Engine, name string, args ...any) (Tool, error) {
	if err := maxArgs(name, args, 0); err != nil {
		return nil, err
	}
	return &findReplace{toolBase: newToolBase(e, name)}, nil
}

// Execute takes (source file, destination file, pattern, replacement, encoding="ascii").
func (t *findReplace) Execute(_ context.Context, args ...any) error {
	if err := maxArgs(t.name, args, 5); err != nil {
		return err
	}
	var strs [4]string
	for i, name := range []string{"source file", "destination file", "pattern", "replacement"} {
		s, err := argString(t.name, args, i, name)
		if err != nil {
			return err
		}
		strs[i] = s
	}
	enc, err := argString(t.name, args, 4, "encoding", defaultEncoding)
	if err != nil {
		return err
	}
	src, err := t.sub(strs[0])
	if err != nil {
		return err
	}
	dest, err := t.sub(strs[1])
	if err != nil {
		return err
	}
	re, err := regexp.Compile(strs[2])
	if err != nil {
		return wrapErr(err, ErrInvalidArgument, t.name, fmt.Sprintf("bad pattern %q", strs[2]))
	}

	t.log.Info("find/replace", "src", src, "dest", dest, "pattern", strs[2])
	return rewriteLines(t.name, src, dest, enc, func(line string) (string, error) {
		return re.ReplaceAllString(line, strs[3]), nil
	})
}
