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

// Domain selects which taxonomy a native error payload converts into.
type Domain string

const (
	DomainInitialization          Domain = "initialization"
	DomainRegistration            Domain = "registration"
	DomainAuthentication          Domain = "authentication"
	DomainOutOfBandOperation      Domain = "outOfBandOperation"
	DomainDeregistration          Domain = "deregistration"
	DomainPinChange               Domain = "pinChange"
	DomainDeviceInformationChange Domain = "deviceInformationChange"
)

// Convert maps a native error payload into the typed variant for the given
// domain. It is total: unmapped discriminators produce the domain's Unknown
// kind, and an unrecognized domain falls back to the authentication taxonomy
// so no diagnostic information is ever lost.
func Convert(domain Domain, p message.ErrorPayload) error {
	switch domain {
	case DomainInitialization:
		return ToInitializationError(p)
	case DomainRegistration:
		return ToRegistrationError(p)
	case DomainAuthentication:
		return ToAuthenticationError(p)
	case DomainOutOfBandOperation:
		return ToOutOfBandOperationError(p)
	case DomainDeregistration:
		return ToDeregistrationError(p)
	case DomainPinChange:
		return ToPinChangeError(p)
	case DomainDeviceInformationChange:
		return ToDeviceInformationChangeError(p)
	default:
		return ToAuthenticationError(p)
	}
}
