package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Vars is the build variable table.
type Vars map[string]any

// mergeVars overlays each layer onto a fresh table; later layers win.
func mergeVars(layers ...map[string]any) Vars {
	out := Vars{}
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

// environ returns the process environment as a variable layer.
func environ() map[string]any {
	env := os.Environ()
	out := make(map[string]any, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Lookup returns the string form of a variable.
func (v Vars) Lookup(name string) (string, bool) {
	val, ok := v[name]
	if !ok {
		return "", false
	}
	return fmt.Sprint(val), true
}

// Get a positional argument as string, or def when absent
func argString(tool string, args []any, i int, name string, def ...string) (string, error) {
	if i >= len(args) || args[i] == nil {
		if len(def) > 0 {
			return def[0], nil
		}
		return "", raise(ErrInvalidArgument, tool, fmt.Sprintf("missing argument %d (%s)", i+1, name))
	}
	if s, ok := args[i].(string); ok {
		return s, nil
	}
	return fmt.Sprint(args[i]), nil
}

// Get a positional argument as bool, accepting YAML booleans and their spellings
func argBool(tool string, args []any, i int, name string, def bool) (bool, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	switch v := args[i].(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, raise(ErrInvalidArgument, tool, fmt.Sprintf("argument %d (%s) is not a boolean: %q", i+1, name, v))
		}
		return b, nil
	default:
		return false, raise(ErrInvalidArgument, tool, fmt.Sprintf("argument %d (%s) is not a boolean: %v", i+1, name, v))
	}
}

// maxArgs rejects surplus positional arguments.
func maxArgs(tool string, args []any, n int) error {
	if len(args) > n {
		return raise(ErrInvalidArgument, tool, fmt.Sprintf("expected at most %d arguments, got %d", n, len(args)))
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
