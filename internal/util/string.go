// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ANSWER CLEAN-UP
// =============================================================================

var (
	// Asterisk and double-underscore emphasis only when the markers wrap
	// non-space text at word boundaries, so "2 * 3" and "a*b" survive.
	asteriskStrongEm = wrappedBy(`***`)
	asteriskStrong   = wrappedBy(`**`)
	asteriskEm       = wrappedBy(`*`)
	underscoreStrong = wrappedBy(`__`)

	// Single-underscore emphasis only when it wraps text at word boundaries,
	// so snake_case identifiers survive.
	underscoreEmphasis = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^_\s](?:[^_]*[^_\s])?)_($|[^\p{L}\p{N}_])`)

	// "* item" list bullets at the start of a line.
	asteriskBullet = regexp.MustCompile(`(?m)^[ \t]*\*[ \t]+`)

	// A lone identifier between double underscores is a dunder name.
	dunderName = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

	// Strikethrough markers.
	strikethrough = regexp.MustCompile(`~~`)
)

// wrappedBy matches marker on both sides of text that starts and ends with a
// non-space character. Groups: leading boundary, inner text, trailing boundary.
func wrappedBy(marker string) *regexp.Regexp {
	m := regexp.QuoteMeta(marker)
	return regexp.MustCompile(`(^|[^\p{L}\p{N}_])` + m + `(\S(?:.*?\S)?)` + m + `($|[^\p{L}\p{N}_])`)
}

// unwrap drops the markers matched by re, leaving any match whose inner text
// satisfies keep untouched.
func unwrap(re *regexp.Regexp, s string, keep func(inner string) bool) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		sm := re.FindStringSubmatch(match)
		if sm == nil || (keep != nil && keep(sm[2])) {
			return match
		}
		return sm[1] + sm[2] + sm[3]
	})
}

// CleanAnswer normalizes generated text for display in the transcript:
// markdown emphasis markers are stripped, newlines and runs of whitespace are
// collapsed to single spaces, and the result is trimmed.
//
// CleanAnswer is idempotent: CleanAnswer(CleanAnswer(s)) == CleanAnswer(s).
func CleanAnswer(s string) string {
	// Removing one marker can expose another ("~~*x*~~"), and adjacent
	// "_a_ _b_" matches overlap, so run to a fixed point.
	for {
		next := stripEmphasis(s)
		if next == s {
			return next
		}
		s = next
	}
}

func stripEmphasis(s string) string {
	s = asteriskBullet.ReplaceAllString(s, "")
	s = unwrap(asteriskStrongEm, s, nil)
	s = unwrap(asteriskStrong, s, nil)
	s = unwrap(asteriskEm, s, nil)
	s = unwrap(underscoreStrong, s, dunderName.MatchString)
	s = strikethrough.ReplaceAllString(s, "")
	s = CollapseWhitespace(s)
	s = underscoreEmphasis.ReplaceAllString(s, "$1$2$3")
	return CollapseWhitespace(s)
}

// CollapseWhitespace replaces every run of whitespace (including newlines)
// with a single space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// TRUNCATION
// =============================================================================

// UNICODE: Rune-aware truncation preserves multi-byte characters.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// This is safe for UTF-8 strings as it counts characters, not bytes.
// If the string is truncated, "..." is appended within the limit.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width in terminal
// cells. Double-width characters (CJK, emoji) count as 2 columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// RuneLen returns the number of runes (characters) in a string.
// This is safer than len() for UTF-8 strings.
func RuneLen(s string) int {
	return len([]rune(s))
}
