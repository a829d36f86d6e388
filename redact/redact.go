// Package redact overwrites literal byte patterns with same-length runs of a
// filler byte, preserving the total length of whatever it touches.
package redact

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultFiller is the byte written over every byte of a matched pattern.
const DefaultFiller byte = 'x'

type Redact struct {
	ID      string `json:"ID"`
	pattern []byte
	Filler  byte `json:"filler"`
}

// New takes a literal pattern string and returns a ready-to-use redaction.
// The pattern is matched as its UTF-8 bytes, with no metacharacters. ID is
// optional and can be left empty.
func New(pattern, id string) (*Redact, error) {
	if !utf8.ValidString(pattern) {
		return nil, fmt.Errorf("pattern is not valid UTF-8, pattern=%q", pattern)
	}
	if id == "" {
		genID := md5.Sum([]byte(pattern))
		id = fmt.Sprint(genID)
	}
	return &Redact{id, []byte(pattern), DefaultFiller}, nil
}

// Pattern returns the literal pattern this redaction matches.
func (x Redact) Pattern() string {
	return string(x.pattern)
}

// Count reports the number of non-overlapping occurrences of the pattern in bts.
func (x Redact) Count(bts []byte) int {
	if len(x.pattern) == 0 {
		return 0
	}
	return bytes.Count(bts, x.pattern)
}

// replaceAll substitutes every non-overlapping occurrence, left to right.
// Zero-length patterns are skipped outright: bytes.ReplaceAll would splice
// filler between every byte of the input.
func (x Redact) replaceAll(bts []byte) []byte {
	if len(x.pattern) == 0 {
		return bts
	}
	filler := bytes.Repeat([]byte{x.Filler}, len(x.pattern))
	return bytes.ReplaceAll(bts, x.pattern, filler)
}

func (x Redact) Apply(w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = w.Write(x.replaceAll(bts))
	if err != nil {
		return err
	}
	return nil
}

// ApplyMany takes a slice of redactions and a writer + reader, reading everything in and applying redactions in
// sequential order before writing. Each redaction scans the output of the one before it, so a later pattern may
// match filler bytes produced by an earlier substitution. That re-matching is part of the contract, not a bug.
func ApplyMany(redactions []*Redact, w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = w.Write(Bytes(bts, redactions))
	if err != nil {
		return err
	}
	return nil
}

// Bytes applies redactions to a buffer in slice order and returns the result.
// The result always has the same length as the input. A nil or empty slice
// of redactions returns the input unchanged.
func Bytes(bts []byte, redactions []*Redact) []byte {
	for _, redact := range redactions {
		bts = redact.replaceAll(bts)
	}
	return bts
}

// String takes a string and a slice of redactions, and wraps it with a reader and writer to apply the
// redactions, returning a string back.
func String(result string, redactions []*Redact) (string, error) {
	r := strings.NewReader(result)
	buf := new(bytes.Buffer)
	err := ApplyMany(redactions, buf, r)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// File reads the file at path entirely into memory, applies the redactions,
// and overwrites the file in place. The file's length and permissions are
// unchanged. Returns nil on success, otherwise an error.
func File(path string, redactions []*Redact) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, Bytes(bts, redactions), info.Mode().Perm())
}
