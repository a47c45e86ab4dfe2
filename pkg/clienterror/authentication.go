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

// AuthenticationErrorKind discriminates authentication failures.
type AuthenticationErrorKind string

const (
	AuthenticationFido             AuthenticationErrorKind = "fidoError"
	AuthenticationNetwork          AuthenticationErrorKind = "networkError"
	AuthenticationDeviceProtection AuthenticationErrorKind = "deviceProtectionError"
	AuthenticationNoDeviceLock     AuthenticationErrorKind = "noDeviceLock"
	AuthenticationUserCanceled     AuthenticationErrorKind = "userCanceled"
	AuthenticationUnknown          AuthenticationErrorKind = "unknown"
)

// AuthenticationError is returned when an authentication flow fails.
type AuthenticationError struct {
	Kind        AuthenticationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *AuthenticationError) Error() string {
	return format("authentication", string(e.Kind), e.Description, e.Cause)
}

// Is matches another AuthenticationError by kind.
func (e *AuthenticationError) Is(target error) bool {
	t, ok := target.(*AuthenticationError)
	return ok && t.Kind == e.Kind
}

var authenticationKinds = map[string]AuthenticationErrorKind{
	"fidoError":             AuthenticationFido,
	"networkError":          AuthenticationNetwork,
	"deviceProtectionError": AuthenticationDeviceProtection,
	"noDeviceLock":          AuthenticationNoDeviceLock,
	"userCanceled":          AuthenticationUserCanceled,
}

// ToAuthenticationError converts a native error payload. Unmapped
// discriminators yield AuthenticationUnknown.
func ToAuthenticationError(p message.ErrorPayload) *AuthenticationError {
	kind, ok := authenticationKinds[p.Type]
	if !ok {
		kind = AuthenticationUnknown
	}
	return &AuthenticationError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
