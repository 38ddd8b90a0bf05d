// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ANSWER CLEAN-UP TESTS
// =============================================================================

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bold and newline", "**AI** learns\npatterns.", "AI learns patterns."},
		{"italic asterisk", "an *important* point", "an important point"},
		{"bold italic", "***very*** loud", "very loud"},
		{"double underscore", "__very strong__ text", "very strong text"},
		{"single underscore emphasis", "this is _subtle_ here", "this is subtle here"},
		{"adjacent underscore emphasis", "_one_ _two_", "one two"},
		{"snake_case survives", "call get_user_id now", "call get_user_id now"},
		{"strikethrough", "~~old~~ new", "old new"},
		{"list bullets collapse", "Steps:\n* one\n* two", "Steps: one two"},
		{"whitespace runs", "  a \t\t b\n\n\nc  ", "a b c"},
		{"crlf", "line one\r\nline two", "line one line two"},
		{"empty", "", ""},
		{"lone markers survive", "** __ ~~", "** __"},
		{"nested markers", "~~*x*~~", "x"},
		{"spaced multiplication", "2 * 3 = 6", "2 * 3 = 6"},
		{"chained multiplication", "2 * 3 * 4", "2 * 3 * 4"},
		{"unspaced multiplication", "2*3=6", "2*3=6"},
		{"glob pattern", "use a*b", "use a*b"},
		{"python varargs", "*args and **kwargs", "*args and **kwargs"},
		{"dunder name", "Define __init__ in Python", "Define __init__ in Python"},
		{"bold dunder name", "**__init__**", "__init__"},
		{"unicode preserved", "**héllo** wörld", "héllo wörld"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanAnswer(tc.input))
		})
	}
}

func TestCleanAnswer_Idempotent(t *testing.T) {
	inputs := []string{
		"**AI** learns\npatterns.",
		"AI learns patterns.",
		"_a_ _b_ _c_",
		"_~~_ x",
		"~__~ y",
		"mixed *emphasis* and __strong__ and snake_case_name",
		"  already clean text  ",
		"a_ _b",
		"2 * 3 = 6",
		"2*3=6",
		"use a*b",
		"Define __init__ in Python",
		"~~*x*~~ and __very strong__",
	}

	for _, in := range inputs {
		once := CleanAnswer(in)
		assert.Equal(t, once, CleanAnswer(once), "input %q", in)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b", CollapseWhitespace("\n a \n\n b \t"))
	assert.Equal(t, "", CollapseWhitespace(" \n\t "))
}

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		maxRunes int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 2, "he"},
		{"日本語テキスト", 5, "日本..."},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, TruncateRunes(tc.input, tc.maxRunes), "TruncateRunes(%q, %d)", tc.input, tc.maxRunes)
	}
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "hello", TruncateWidth("hello", 5))
	assert.Equal(t, "hel...", TruncateWidth("hello world", 6))
	assert.Equal(t, "", TruncateWidth("hello", 0))

	// Each CJK rune is two cells wide.
	got := TruncateWidth("日本語テキスト", 7)
	assert.LessOrEqual(t, StringWidth(got), 7)
	assert.Equal(t, "日本...", got)
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 5, RuneLen("héllo"))
	assert.Equal(t, 0, RuneLen(""))
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("hello, world!"), 0644, 0755))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", string(content))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "test.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("test data"), 0644, 0755))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0644, 0755))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0644, 0755))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAtomicWriteFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on Windows")
	}
	path := filepath.Join(t.TempDir(), "secret.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("k = 1"), 0600, 0700))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
