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

// InitializationErrorKind discriminates initialization failures.
type InitializationErrorKind string

const (
	InitializationDeviceProtection     InitializationErrorKind = "deviceProtectionError"
	InitializationNoDeviceLock         InitializationErrorKind = "noDeviceLock"
	InitializationLockScreenHasChanged InitializationErrorKind = "lockScreenHasChanged"
	InitializationHardware             InitializationErrorKind = "hardwareError"
	InitializationRooted               InitializationErrorKind = "rooted"
	InitializationUnknown              InitializationErrorKind = "unknown"
)

// InitializationError is returned when establishing the native SDK fails.
type InitializationError struct {
	Kind        InitializationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *InitializationError) Error() string {
	return format("initialization", string(e.Kind), e.Description, e.Cause)
}

// Is matches another InitializationError by kind.
func (e *InitializationError) Is(target error) bool {
	t, ok := target.(*InitializationError)
	return ok && t.Kind == e.Kind
}

var initializationKinds = map[string]InitializationErrorKind{
	"deviceProtectionError": InitializationDeviceProtection,
	"noDeviceLock":          InitializationNoDeviceLock,
	"lockScreenHasChanged":  InitializationLockScreenHasChanged,
	"hardwareError":         InitializationHardware,
	"rooted":                InitializationRooted,
}

// ToInitializationError converts a native error payload. Unmapped
// discriminators yield InitializationUnknown.
func ToInitializationError(p message.ErrorPayload) *InitializationError {
	kind, ok := initializationKinds[p.Type]
	if !ok {
		kind = InitializationUnknown
	}
	return &InitializationError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
