// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error variables for failures that carry no extra data.
var (
	// ErrNotConfigured indicates no endpoint URL was supplied.
	ErrNotConfigured = errors.New("completion endpoint not configured")

	// ErrMalformedResponse indicates a success status whose body lacks
	// candidates[0].content.parts[0].text or is not JSON.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// TransportError means the request never produced an HTTP response:
// connectivity, DNS, TLS, or a cancelled context.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

// Unwrap exposes the underlying cause (e.g. context.Canceled).
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError means the endpoint answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	// Message is the endpoint's own error text when the body carried one,
	// otherwise a short prefix of the raw body.
	Message string
}

// Error implements the error interface. The status code is always part of
// the message.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("endpoint returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("endpoint returned HTTP %d", e.StatusCode)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsMalformed reports whether err is a malformed-response failure.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
