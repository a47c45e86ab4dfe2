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

// Package clienterror defines the typed error taxonomy delivered to callers
// and the converters that map native error payloads into it. Each operation
// domain has a closed set of kinds plus an Unknown catch-all, so conversion
// is total: every native payload produces a typed error, with description and
// cause preserved verbatim even when the discriminator is unmapped.
package clienterror

import "strings"

// format renders the common error string for every domain.
func format(domain, kind, description, cause string) string {
	var b strings.Builder
	b.WriteString(domain)
	b.WriteString(" error (")
	b.WriteString(kind)
	b.WriteString(")")
	if description != "" {
		b.WriteString(": ")
		b.WriteString(description)
	}
	if cause != "" {
		b.WriteString(": ")
		b.WriteString(cause)
	}
	return b.String()
}

// IsClientError reports whether err is one of the bridge's typed error
// variants. This replaces an inheritance-style root error check with a
// membership test.
func IsClientError(err error) bool {
	switch err.(type) {
	case *InitializationError,
		*RegistrationError,
		*AuthenticationError,
		*OutOfBandOperationError,
		*OutOfBandPayloadError,
		*DeregistrationError,
		*PinChangeError,
		*DeviceInformationChangeError,
		*PinUserVerificationError,
		*BiometricUserVerificationError,
		*DevicePasscodeUserVerificationError,
		*FingerprintUserVerificationError:
		return true
	}
	return false
}
