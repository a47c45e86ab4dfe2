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

package clienterror

import "github.com/jeremyhahn/go-authbridge/pkg/message"

// DeregistrationErrorKind discriminates deregistration failures.
type DeregistrationErrorKind string

const (
	DeregistrationFido    DeregistrationErrorKind = "fidoError"
	DeregistrationNetwork DeregistrationErrorKind = "networkError"
	DeregistrationUnknown DeregistrationErrorKind = "unknown"
)

// DeregistrationError is returned when removing credentials fails.
type DeregistrationError struct {
	Kind        DeregistrationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *DeregistrationError) Error() string {
	return format("deregistration", string(e.Kind), e.Description, e.Cause)
}

// Is matches another DeregistrationError by kind.
func (e *DeregistrationError) Is(target error) bool {
	t, ok := target.(*DeregistrationError)
	return ok && t.Kind == e.Kind
}

var deregistrationKinds = map[string]DeregistrationErrorKind{
	"fidoError":    DeregistrationFido,
	"networkError": DeregistrationNetwork,
}

// ToDeregistrationError converts a native error payload. Unmapped
// discriminators yield DeregistrationUnknown.
func ToDeregistrationError(p message.ErrorPayload) *DeregistrationError {
	kind, ok := deregistrationKinds[p.Type]
	if !ok {
		kind = DeregistrationUnknown
	}
	return &DeregistrationError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
