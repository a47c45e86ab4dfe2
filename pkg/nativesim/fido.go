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

package nativesim

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/descope/virtualwebauthn"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

// simulatedAAID identifies the virtual platform authenticator in
// authenticator selection payloads.
const simulatedAAID = "SIM#0001"

// fidoAccount is a registered user on the simulated relying party. It
// satisfies webauthn.User.
type fidoAccount struct {
	id          []byte
	username    string
	displayName string
	credentials []webauthn.Credential
}

func (a *fidoAccount) WebAuthnID() []byte                         { return a.id }
func (a *fidoAccount) WebAuthnName() string                       { return a.username }
func (a *fidoAccount) WebAuthnDisplayName() string                { return a.displayName }
func (a *fidoAccount) WebAuthnCredentials() []webauthn.Credential { return a.credentials }

// keyMaterial pairs the virtual authenticator with the credential it holds
// for one account. Both are mutated across ceremonies (sign counter).
type keyMaterial struct {
	authenticator virtualwebauthn.Authenticator
	credential    virtualwebauthn.Credential
}

// relyingParty runs both halves of the FIDO ceremony in-process: a
// go-webauthn relying party validates what a virtual authenticator produces.
type relyingParty struct {
	webAuthn   *webauthn.WebAuthn
	virtual    virtualwebauthn.RelyingParty
	signingKey []byte

	mu       sync.Mutex
	accounts map[string]*fidoAccount
	keys     map[string]*keyMaterial
}

func newRelyingParty(rpID, rpName, origin string, signingKey []byte) (*relyingParty, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: rpName,
		RPOrigins:     []string{origin},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn relying party: %w", err)
	}
	return &relyingParty{
		webAuthn: wa,
		virtual: virtualwebauthn.RelyingParty{
			Name:   rpName,
			ID:     rpID,
			Origin: origin,
		},
		signingKey: signingKey,
		accounts:   make(map[string]*fidoAccount),
		keys:       make(map[string]*keyMaterial),
	}, nil
}

// register runs a full attestation ceremony for username and stores the
// resulting credential. Registering an existing username replaces its
// credential.
func (rp *relyingParty) register(username string) error {
	acct := &fidoAccount{
		id:          []byte(uuid.New().String()),
		username:    username,
		displayName: username,
	}

	options, session, err := rp.webAuthn.BeginRegistration(acct)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}

	optionsJSON, err := json.Marshal(options.Response)
	if err != nil {
		return fmt.Errorf("marshal attestation options: %w", err)
	}
	parsedOptions, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	if err != nil {
		return fmt.Errorf("parse attestation options: %w", err)
	}

	authenticator := virtualwebauthn.NewAuthenticator()
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attestation := virtualwebauthn.CreateAttestationResponse(rp.virtual, authenticator, credential, *parsedOptions)

	var ccr protocol.CredentialCreationResponse
	if err := json.Unmarshal([]byte(attestation), &ccr); err != nil {
		return fmt.Errorf("decode attestation response: %w", err)
	}
	parsed, err := ccr.Parse()
	if err != nil {
		return fmt.Errorf("parse attestation response: %w", err)
	}

	waCred, err := rp.webAuthn.CreateCredential(acct, *session, parsed)
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	acct.credentials = append(acct.credentials, *waCred)
	authenticator.AddCredential(credential)

	rp.mu.Lock()
	rp.accounts[username] = acct
	rp.keys[username] = &keyMaterial{authenticator: authenticator, credential: credential}
	rp.mu.Unlock()
	return nil
}

// authenticate runs a full assertion ceremony for a previously registered
// username.
func (rp *relyingParty) authenticate(username string) error {
	rp.mu.Lock()
	acct := rp.accounts[username]
	key := rp.keys[username]
	rp.mu.Unlock()
	if acct == nil || key == nil {
		return fmt.Errorf("no credential registered for %q", username)
	}

	options, session, err := rp.webAuthn.BeginLogin(acct)
	if err != nil {
		return fmt.Errorf("begin login: %w", err)
	}

	optionsJSON, err := json.Marshal(options.Response)
	if err != nil {
		return fmt.Errorf("marshal assertion options: %w", err)
	}
	parsedOptions, err := virtualwebauthn.ParseAssertionOptions(string(optionsJSON))
	if err != nil {
		return fmt.Errorf("parse assertion options: %w", err)
	}

	// Real authenticators bump the sign counter on every assertion.
	key.credential.Counter++
	assertion := virtualwebauthn.CreateAssertionResponse(rp.virtual, key.authenticator, key.credential, *parsedOptions)

	var car protocol.CredentialAssertionResponse
	if err := json.Unmarshal([]byte(assertion), &car); err != nil {
		return fmt.Errorf("decode assertion response: %w", err)
	}
	parsed, err := car.Parse()
	if err != nil {
		return fmt.Errorf("parse assertion response: %w", err)
	}

	validated, err := rp.webAuthn.ValidateLogin(acct, *session, parsed)
	if err != nil {
		return fmt.Errorf("validate login: %w", err)
	}

	rp.mu.Lock()
	for i := range acct.credentials {
		if string(acct.credentials[i].ID) == string(validated.ID) {
			acct.credentials[i] = *validated
		}
	}
	rp.mu.Unlock()
	return nil
}

// deregister removes the credential for username and reports whether one
// existed.
func (rp *relyingParty) deregister(username string) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if _, ok := rp.accounts[username]; !ok {
		return false
	}
	delete(rp.accounts, username)
	delete(rp.keys, username)
	return true
}

func (rp *relyingParty) registered(username string) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	_, ok := rp.accounts[username]
	return ok
}

// accountList returns every registered account for selection prompts.
func (rp *relyingParty) accountList() []message.Account {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	accounts := make([]message.Account, 0, len(rp.accounts))
	for _, acct := range rp.accounts {
		accounts = append(accounts, message.Account{
			Username:    acct.username,
			DisplayName: acct.displayName,
		})
	}
	return accounts
}

// issueToken signs an HS256 authorization token for username.
func (rp *relyingParty) issueToken(username string) (*message.AuthorizationToken, error) {
	now := time.Now()
	expiry := now.Add(time.Hour)
	claims := jwt.RegisteredClaims{
		Issuer:    rp.virtual.ID,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(rp.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authorization token: %w", err)
	}
	return &message.AuthorizationToken{
		Value:     signed,
		Type:      "jwt",
		ExpiresAt: expiry,
	}, nil
}
