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

// DeviceInformationChangeErrorKind discriminates device information change
// failures.
type DeviceInformationChangeErrorKind string

const (
	DeviceInformationChangeNameAlreadyExists DeviceInformationChangeErrorKind = "nameAlreadyExists"
	DeviceInformationChangeNotFound          DeviceInformationChangeErrorKind = "notFound"
	DeviceInformationChangeNetwork           DeviceInformationChangeErrorKind = "networkError"
	DeviceInformationChangeSigning           DeviceInformationChangeErrorKind = "signingError"
	DeviceInformationChangeUnknown           DeviceInformationChangeErrorKind = "unknown"
)

// DeviceInformationChangeError is returned when updating the dispatch target
// metadata fails.
type DeviceInformationChangeError struct {
	Kind        DeviceInformationChangeErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *DeviceInformationChangeError) Error() string {
	return format("device information change", string(e.Kind), e.Description, e.Cause)
}

// Is matches another DeviceInformationChangeError by kind.
func (e *DeviceInformationChangeError) Is(target error) bool {
	t, ok := target.(*DeviceInformationChangeError)
	return ok && t.Kind == e.Kind
}

var deviceInformationChangeKinds = map[string]DeviceInformationChangeErrorKind{
	"nameAlreadyExists": DeviceInformationChangeNameAlreadyExists,
	"notFound":          DeviceInformationChangeNotFound,
	"networkError":      DeviceInformationChangeNetwork,
	"signingError":      DeviceInformationChangeSigning,
}

// ToDeviceInformationChangeError converts a native error payload. Unmapped
// discriminators yield DeviceInformationChangeUnknown.
func ToDeviceInformationChangeError(p message.ErrorPayload) *DeviceInformationChangeError {
	kind, ok := deviceInformationChangeKinds[p.Type]
	if !ok {
		kind = DeviceInformationChangeUnknown
	}
	return &DeviceInformationChangeError{Kind: kind, Description: p.Description, Cause: p.Cause}
}
