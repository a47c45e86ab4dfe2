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

// PinChangeErrorKind discriminates PIN change failures.
type PinChangeErrorKind string

const (
	PinChangePinLocked        PinChangeErrorKind = "pinLocked"
	PinChangePinNotEnrolled   PinChangeErrorKind = "pinNotEnrolled"
	PinChangeUserCanceled     PinChangeErrorKind = "userCanceled"
	PinChangeDeviceProtection PinChangeErrorKind = "deviceProtectionError"
	PinChangeUnknown          PinChangeErrorKind = "unknown"
)

// PinChangeError is returned when a PIN change flow fails.
type PinChangeError struct {
	Kind        PinChangeErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *PinChangeError) Error() string {
	return format("pin change", string(e.Kind), e.Description, e.Cause)
}

// Is matches another PinChangeError by kind.
func (e *PinChangeError) Is(target error) bool {
	t, ok := target.(*PinChangeError)
	return ok && t.Kind == e.Kind
}

var pinChangeKinds = map[string]PinChangeErrorKind{
	"pinLocked":             PinChangePinLocked,
	"pinNotEnrolled":        PinChangePinNotEnrolled,
	"userCanceled":          PinChangeUserCanceled,
	"deviceProtectionError": PinChangeDeviceProtection,
}

// ToPinChangeError converts a native error payload. Unmapped discriminators
// yield PinChangeUnknown.
func ToPinChangeError(p message.ErrorPayload) *PinChangeError {
	kind, ok := pinChangeKinds[p.Type]
	if !ok {
		kind = PinChangeUnknown
	}
	return &PinChangeError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
