// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the client for the remote text-completion endpoint.
//
// The endpoint speaks the generateContent JSON shape: a prompt goes out as
// contents[0].parts[0].text and the answer comes back at
// candidates[0].content.parts[0].text.
//
// # Key Types
//
//   - Client: single-attempt HTTP client with optional per-request timeout
//   - GenerateRequest / GenerateResponse: wire shapes
//   - TransportError, StatusError: typed failures
//
// # Usage
//
//	client := cloud.NewClient(endpointURL).WithTimeout(30 * time.Second)
//	text, err := client.Generate(ctx, "What is AI?")
//
// # Security
//
// The endpoint URL may embed an access key in its query string. Logs and
// transport errors only ever carry scheme, host and path. Response bodies
// are capped at MaxResponseSize.
package cloud
