// Package testhelpers provides shared fixtures for handler and
// middleware tests.
package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

// SigningKey is a throwaway RSA key for minting test JWTs alongside
// the static JWKS the server validates them with.
type SigningKey struct {
	key *rsa.PrivateKey
	kid string
}

// NewSigningKey generates a fresh RSA signing key.
func NewSigningKey(t *testing.T) *SigningKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &SigningKey{key: key, kid: "test-signing-key"}
}

// JWKS returns the JSON key set holding this key's public half, in the
// format accepted by JWT_JWKS_STATIC.
func (k *SigningKey) JWKS(t *testing.T) string {
	t.Helper()

	keySet := jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       &k.key.PublicKey,
			KeyID:     k.kid,
			Algorithm: "RS256",
			Use:       "sig",
		}},
	}

	raw, err := json.Marshal(keySet)
	require.NoError(t, err)

	return string(raw)
}

// Mint signs a JWT with the given identity claims, valid for an hour.
func (k *SigningKey) Mint(t *testing.T, issuer, audience, subject string) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	token.Header["kid"] = k.kid

	signed, err := token.SignedString(k.key)
	require.NoError(t, err)

	return signed
}
