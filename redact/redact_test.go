package redact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tcs := []struct {
		name    string
		pattern string
		id      string
	}{
		{
			name:    "empty optional id",
			pattern: "hunter2",
		},
		{
			name:    "set optional id",
			pattern: "some-token",
			id:      "COOLCOOL",
		},
	}

	for _, tc := range tcs {
		red, err := New(tc.pattern, tc.id)
		assert.NoError(t, err, tc.name)
		assert.NotEqual(t, "", red.ID, tc.name)
		assert.Equal(t, tc.pattern, red.Pattern(), tc.name)
		assert.Equal(t, DefaultFiller, red.Filler, tc.name)
	}
}

func TestNewInvalidUTF8(t *testing.T) {
	_, err := New("bad\xff\xfepattern", "")
	assert.Error(t, err)
}

func TestRedact_Apply(t *testing.T) {
	tcs := []struct {
		name    string
		pattern string
		input   string
		expect  string
	}{
		{
			name:    "empty input",
			pattern: "secret",
			input:   "",
			expect:  "",
		},
		{
			name:    "redacts once",
			pattern: "hunter2",
			input:   "secret=hunter2;other=ok",
			expect:  "secret=xxxxxxx;other=ok",
		},
		{
			name:    "redacts many",
			pattern: "test",
			input:   "test test_test+test-test\n!test ??test",
			expect:  "xxxx xxxx_xxxx+xxxx-xxxx\n!xxxx ??xxxx",
		},
		{
			name:    "non-overlapping scan resumes after each match",
			pattern: "aa",
			input:   "aaaa",
			expect:  "xxxx",
		},
		{
			name:    "odd run leaves the unmatched tail byte",
			pattern: "aa",
			input:   "aaaaa",
			expect:  "xxxxa",
		},
		{
			name:    "empty pattern matches nowhere",
			pattern: "",
			input:   "untouched",
			expect:  "untouched",
		},
		{
			name:    "binary input",
			pattern: "key",
			input:   "\x00\x01key\x02\xff",
			expect:  "\x00\x01xxx\x02\xff",
		},
	}
	for _, tc := range tcs {
		red, err := New(tc.pattern, "")
		require.NoError(t, err, tc.name)

		r := strings.NewReader(tc.input)
		buf := new(bytes.Buffer)
		err = red.Apply(buf, r)
		assert.NoError(t, err, tc.name)

		assert.Equal(t, tc.expect, buf.String(), tc.name)
		assert.Equal(t, len(tc.input), buf.Len(), tc.name)
	}
}

func TestApplyMany(t *testing.T) {
	tcs := []struct {
		name     string
		patterns []string
		input    string
		expect   string
	}{
		{
			name:     "empty input",
			patterns: []string{"secret"},
			input:    "",
			expect:   "",
		},
		{
			name:     "patterns apply in order",
			patterns: []string{"ab", "b"},
			input:    "ab",
			expect:   "xx",
		},
		{
			name:     "reversed order gives a different result",
			patterns: []string{"b", "ab"},
			input:    "ab",
			expect:   "ax",
		},
		{
			name:     "later pattern can match filler from an earlier one",
			patterns: []string{"ab", "x"},
			input:    "ab",
			expect:   "xx",
		},
		{
			name:     "no pattern applies",
			patterns: []string{"missing", "also missing"},
			input:    "plain text",
			expect:   "plain text",
		},
	}
	for _, tc := range tcs {
		var redactions []*Redact
		for _, pattern := range tc.patterns {
			red, err := New(pattern, "")
			require.NoError(t, err, tc.name)
			redactions = append(redactions, red)
		}

		r := strings.NewReader(tc.input)
		buf := new(bytes.Buffer)
		err := ApplyMany(redactions, buf, r)
		assert.NoError(t, err, tc.name)
		assert.Equal(t, tc.expect, buf.String(), tc.name)
	}
}

func TestBytes(t *testing.T) {
	input := []byte("password=swordfish")

	t.Run("nil redactions return input unchanged", func(t *testing.T) {
		assert.Equal(t, input, Bytes(input, nil))
	})

	t.Run("idempotent when filler differs from pattern", func(t *testing.T) {
		red, err := New("swordfish", "")
		require.NoError(t, err)
		redactions := []*Redact{red}

		once := Bytes(input, redactions)
		twice := Bytes(once, redactions)
		assert.Equal(t, []byte("password=xxxxxxxxx"), once)
		assert.Equal(t, once, twice)
	})
}

func TestCount(t *testing.T) {
	red, err := New("aa", "")
	require.NoError(t, err)
	assert.Equal(t, 2, red.Count([]byte("aaaa")))
	assert.Equal(t, 0, red.Count([]byte("zzzz")))

	empty, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count([]byte("anything")))
}

func TestString(t *testing.T) {
	red, err := New("hunter2", "")
	require.NoError(t, err)

	result, err := String("secret=hunter2;other=ok", []*Redact{red})
	assert.NoError(t, err)
	assert.Equal(t, "secret=xxxxxxx;other=ok", result)
}

func TestFile(t *testing.T) {
	red, err := New("hunter2", "")
	require.NoError(t, err)
	redactions := []*Redact{red}

	t.Run("overwrites file in place", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.txt")
		require.NoError(t, os.WriteFile(path, []byte("secret=hunter2;other=ok"), 0o644))

		err := File(path, redactions)
		assert.NoError(t, err)

		bts, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "secret=xxxxxxx;other=ok", string(bts))
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		err := File(filepath.Join(t.TempDir(), "nope.txt"), redactions)
		assert.Error(t, err)
	})
}
