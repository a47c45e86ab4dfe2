// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authbridge.
//
// go-authbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package correlation generates and propagates operation identifiers, the
// correlation keys tying native events back to one interactive flow.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// OperationIDKey is the context key for storing operation identifiers
const OperationIDKey contextKey = "operation-id"

// WithOperationID adds an operation identifier to the context so logging
// and metrics can attribute work to one flow.
func WithOperationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, OperationIDKey, id)
}

// GetOperationID retrieves the operation identifier from context.
// Returns an empty string if none is present.
func GetOperationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(OperationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 operation identifier. Identifiers are
// generated client-side before any native call is made.
func NewID() string {
	return uuid.New().String()
}

// GetOrGenerate retrieves an existing operation identifier from context
// or generates a new one if none exists.
func GetOrGenerate(ctx context.Context) string {
	if id := GetOperationID(ctx); id != "" {
		return id
	}
	return NewID()
}
