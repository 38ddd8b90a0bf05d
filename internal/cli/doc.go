// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the askq command line.
//
// # Commands
//
//   - askq: full-screen chat (Bubble Tea)
//   - askq ask [question...]: one question, answer on stdout (--markdown, --json)
//   - askq chat: line-mode REPL with history and slash commands
//   - askq config init|show|path: manage ~/.askq/config.toml
//   - askq version
//
// Every command accepts --config, --endpoint and --log-level. Flags win over
// ASKQ_* environment variables, which win over the config file.
package cli
