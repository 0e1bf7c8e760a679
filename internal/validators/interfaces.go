// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ledgerkeep Authors

// Package validators provides abstractions for input validation and
// enforcement of business rules across the application.
//
// The push engine validates every staged record before it is allowed on the
// wire; the HTTP handlers validate inbound requests before they reach the
// repositories. Both go through [Validator] so the rules live in one place.
package validators

import "context"

// Validator defines a generic validation interface for arbitrary input
// values. Implementations may perform structural validation, semantic
// checks, cross-field rules.
type Validator interface {

	// Validate validates the provided input and optionally restricts
	// validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
