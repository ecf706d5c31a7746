package main

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultDelimiter is the token marker used when no other pattern is given: &NAME&
const DefaultDelimiter = `&`

// maxSubstitutions bounds replacement passes so self-referencing values terminate.
const maxSubstitutions = 1000

var defaultDelimiter = regexp.MustCompile(DefaultDelimiter)

func compileDelimiter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" || pattern == DefaultDelimiter {
		return defaultDelimiter, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, wrapErr(err, ErrConfiguration, fmt.Sprintf("bad delimiter pattern %q", pattern))
	}
	if re.MatchString("") {
		return nil, raise(ErrConfiguration, fmt.Sprintf("delimiter pattern %q matches the empty string", pattern))
	}
	return re, nil
}

// Substitute replaces delimited tokens in text with their values from tokens.
//
// The scan finds a start marker, then the next marker after it; the text in
// between names the token. Every literal occurrence of marker+name+marker is
// replaced and the scan restarts from the beginning, until no marker is left.
func Substitute(text string, delim *regexp.Regexp, tokens map[string]any) (string, error) {
	if delim == nil {
		delim = defaultDelimiter
	}

	tx := text
	for pass := 0; ; pass++ {
		start := delim.FindStringIndex(tx)
		if start == nil {
			return tx, nil
		}
		if pass >= maxSubstitutions {
			return "", raise(ErrRecursionLimit, maxSubstitutions, fmt.Sprintf("substitution of %q", text))
		}

		end := delim.FindStringIndex(tx[start[1]:])
		if end == nil {
			return "", raise(ErrUnterminatedToken, tx[start[0]:start[1]], text)
		}
		end[0] += start[1]
		end[1] += start[1]

		name := tx[start[1]:end[0]]
		divider := tx[start[0]:start[1]]

		val, ok := tokens[name]
		if !ok {
			return "", raise(ErrUnknownVariable, name)
		}

		token := divider + name + divider
		if !strings.Contains(tx, token) {
			// start and end markers matched different text
			token = tx[start[0]:end[1]]
		}
		tx = strings.ReplaceAll(tx, token, fmt.Sprint(val))
	}
}
