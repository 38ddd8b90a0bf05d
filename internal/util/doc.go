// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides string and file helpers shared across askq.
//
// # Key Functions
//
// Answer clean-up:
//   - CleanAnswer: strip markdown emphasis, collapse whitespace, trim
//   - CollapseWhitespace: fold newlines and space runs into single spaces
//
// Display helpers:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: terminal-cell aware truncation (go-runewidth)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	clean := util.CleanAnswer("**AI** learns\npatterns.") // "AI learns patterns."
//	label := util.TruncateWidth(title, 24)
package util
