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

// OutOfBandOperationErrorKind discriminates out-of-band operation failures.
type OutOfBandOperationErrorKind string

const (
	OutOfBandOperationTokenExpired         OutOfBandOperationErrorKind = "tokenExpired"
	OutOfBandOperationTokenAlreadyRedeemed OutOfBandOperationErrorKind = "tokenAlreadyRedeemed"
	OutOfBandOperationNetwork              OutOfBandOperationErrorKind = "networkError"
	OutOfBandOperationDeviceProtection     OutOfBandOperationErrorKind = "deviceProtectionError"
	OutOfBandOperationNoDeviceLock         OutOfBandOperationErrorKind = "noDeviceLock"
	OutOfBandOperationUnknown              OutOfBandOperationErrorKind = "unknown"
)

// OutOfBandOperationError is returned when redeeming an out-of-band payload
// fails.
type OutOfBandOperationError struct {
	Kind        OutOfBandOperationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *OutOfBandOperationError) Error() string {
	return format("out-of-band operation", string(e.Kind), e.Description, e.Cause)
}

// Is matches another OutOfBandOperationError by kind.
func (e *OutOfBandOperationError) Is(target error) bool {
	t, ok := target.(*OutOfBandOperationError)
	return ok && t.Kind == e.Kind
}

var outOfBandOperationKinds = map[string]OutOfBandOperationErrorKind{
	"tokenExpired":          OutOfBandOperationTokenExpired,
	"tokenAlreadyRedeemed":  OutOfBandOperationTokenAlreadyRedeemed,
	"networkError":          OutOfBandOperationNetwork,
	"deviceProtectionError": OutOfBandOperationDeviceProtection,
	"noDeviceLock":          OutOfBandOperationNoDeviceLock,
}

// ToOutOfBandOperationError converts a native error payload. Unmapped
// discriminators yield OutOfBandOperationUnknown.
func ToOutOfBandOperationError(p message.ErrorPayload) *OutOfBandOperationError {
	kind, ok := outOfBandOperationKinds[p.Type]
	if !ok {
		kind = OutOfBandOperationUnknown
	}
	return &OutOfBandOperationError{Kind: kind, Description: p.Description, Cause: p.Cause}
}

// OutOfBandPayloadErrorKind discriminates payload decoding failures.
type OutOfBandPayloadErrorKind string

const (
	OutOfBandPayloadDecryption OutOfBandPayloadErrorKind = "decryptionError"
	OutOfBandPayloadMalformed  OutOfBandPayloadErrorKind = "malformedPayload"
	OutOfBandPayloadExpired    OutOfBandPayloadErrorKind = "expired"
	OutOfBandPayloadUnknown    OutOfBandPayloadErrorKind = "unknown"
)

// OutOfBandPayloadError is returned when an out-of-band payload cannot be
// decoded into a redeemable form.
type OutOfBandPayloadError struct {
	Kind        OutOfBandPayloadErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *OutOfBandPayloadError) Error() string {
	return format("out-of-band payload", string(e.Kind), e.Description, e.Cause)
}

// Is matches another OutOfBandPayloadError by kind.
func (e *OutOfBandPayloadError) Is(target error) bool {
	t, ok := target.(*OutOfBandPayloadError)
	return ok && t.Kind == e.Kind
}

var outOfBandPayloadKinds = map[string]OutOfBandPayloadErrorKind{
	"decryptionError":  OutOfBandPayloadDecryption,
	"malformedPayload": OutOfBandPayloadMalformed,
	"expired":          OutOfBandPayloadExpired,
}

// ToOutOfBandPayloadError converts a native error payload. Unmapped
// discriminators yield OutOfBandPayloadUnknown.
func ToOutOfBandPayloadError(p message.ErrorPayload) *OutOfBandPayloadError {
	kind, ok := outOfBandPayloadKinds[p.Type]
	if !ok {
		kind = OutOfBandPayloadUnknown
	}
	return &OutOfBandPayloadError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
