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

// RegistrationErrorKind discriminates registration failures.
type RegistrationErrorKind string

const (
	RegistrationFido             RegistrationErrorKind = "fidoError"
	RegistrationNetwork          RegistrationErrorKind = "networkError"
	RegistrationDeviceProtection RegistrationErrorKind = "deviceProtectionError"
	RegistrationNoDeviceLock     RegistrationErrorKind = "noDeviceLock"
	RegistrationUserCanceled     RegistrationErrorKind = "userCanceled"
	RegistrationUnknown          RegistrationErrorKind = "unknown"
)

// RegistrationError is returned when a registration flow fails.
type RegistrationError struct {
	Kind        RegistrationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *RegistrationError) Error() string {
	return format("registration", string(e.Kind), e.Description, e.Cause)
}

// Is matches another RegistrationError by kind.
func (e *RegistrationError) Is(target error) bool {
	t, ok := target.(*RegistrationError)
	return ok && t.Kind == e.Kind
}

var registrationKinds = map[string]RegistrationErrorKind{
	"fidoError":             RegistrationFido,
	"networkError":          RegistrationNetwork,
	"deviceProtectionError": RegistrationDeviceProtection,
	"noDeviceLock":          RegistrationNoDeviceLock,
	"userCanceled":          RegistrationUserCanceled,
}

// ToRegistrationError converts a native error payload. Unmapped
// discriminators yield RegistrationUnknown.
func ToRegistrationError(p message.ErrorPayload) *RegistrationError {
	kind, ok := registrationKinds[p.Type]
	if !ok {
		kind = RegistrationUnknown
	}
	return &RegistrationError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
