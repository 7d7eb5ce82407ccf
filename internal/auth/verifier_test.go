package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := signToken(t, testSecret, identityClaims{
		Name:    "Alice",
		Email:   "alice@example.com",
		Picture: "http://x/alice.png",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "http://x/alice.png", claims.Avatar)
}

func TestVerify_WrongSecret(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := signToken(t, "other-secret", jwt.RegisteredClaims{
		Subject:   "uid-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := verifier.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerify_ExpiredToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "uid-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := verifier.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerify_MissingSubject(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subject")
}

func TestVerify_RejectsNonHMACAlgorithm(t *testing.T) {
	verifier := NewVerifier(testSecret)

	// alg=none style tokens must never pass.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "uid-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	verifier := NewVerifier(testSecret)

	_, err := verifier.Verify(context.Background(), "not.a.token")
	assert.Error(t, err)
}
