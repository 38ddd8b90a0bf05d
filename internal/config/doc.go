// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for askq.
//
// Configuration sources, lowest precedence first:
//   - Built-in defaults
//   - ~/.askq/config.toml (or the --config path)
//   - .env in the working directory
//   - ASKQ_* environment variables
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := cloud.NewClient(cfg.Endpoint.URL).WithTimeout(cfg.Endpoint.Timeout())
//
// Watch reloads the file on change so a running TUI picks up a new endpoint
// without a restart.
package config
