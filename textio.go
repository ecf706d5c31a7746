package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// defaultEncoding is used when a text tool is given no encoding.
const defaultEncoding = "ascii"

var errNotASCII = errors.New("byte outside the ASCII range")

// asciiEncoding is strict: bytes above 0x7f fail both ways.
type asciiEncoding struct{}

func (asciiEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: asciiOnly{}}
}

func (asciiEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: asciiOnly{}}
}

type asciiOnly struct{ transform.NopResetter }

func (asciiOnly) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if src[nSrc] >= utf8.RuneSelf {
			return nDst, nSrc, errNotASCII
		}
		dst[nDst] = src[nSrc]
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}

// lookupEncoding resolves an encoding label such as "utf-8" or "latin1".
func lookupEncoding(tool, name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ascii", "us-ascii":
		return asciiEncoding{}, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, wrapErr(err, ErrInvalidArgument, tool, fmt.Sprintf("unknown encoding %q", name))
	}
	return enc, nil
}

// rewriteLines decodes src, passes every line through fn and writes the
// result to dest. Line endings are split off before fn and restored after.
// src is read completely before dest is created, so both may name the same file.
func rewriteLines(tool, src, dest, encName string, fn func(line string) (string, error)) error {
	enc, err := lookupEncoding(tool, encName)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "read", src)
	}
	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return wrapErr(err, ErrFileSystem, "decode", fmt.Sprintf("%s (%s)", src, encName))
	}

	var buf bytes.Buffer
	r := bufio.NewReader(bytes.NewReader(text))
	for {
		line, rerr := r.ReadString('\n')
		if line != "" {
			body, eol := splitEOL(line)
			out, err := fn(body)
			if err != nil {
				return err
			}
			buf.WriteString(out)
			buf.WriteString(eol)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return wrapErr(rerr, ErrFileSystem, "read", src)
		}
	}

	out, err := os.Create(dest)
	if err != nil {
		return wrapErr(err, ErrFileSystem, "create", dest)
	}
	w := transform.NewWriter(out, enc.NewEncoder())
	if _, err := w.Write(buf.Bytes()); err != nil {
		_ = out.Close()
		return wrapErr(err, ErrFileSystem, "encode", fmt.Sprintf("%s (%s)", dest, encName))
	}
	if err := w.Close(); err != nil {
		_ = out.Close()
		return wrapErr(err, ErrFileSystem, "encode", fmt.Sprintf("%s (%s)", dest, encName))
	}
	if err := out.Close(); err != nil {
		return wrapErr(err, ErrFileSystem, "close", dest)
	}
	return nil
}

func splitEOL(line string) (string, string) {
	if body, ok := strings.CutSuffix(line, "\r\n"); ok {
		return body, "\r\n"
	}
	if body, ok := strings.CutSuffix(line, "\n"); ok {
		return body, "\n"
	}
	return line, ""
}
