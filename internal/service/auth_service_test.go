package service

import (
	"testing"

	"github.com/Marga-Ghale/protolab-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateRoundTrip(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: 1})

	token, err := svc.GenerateToken("user-42")
	require.NoError(t, err)

	userID, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	issuer := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: 1})
	verifier := NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: 1})

	token, err := issuer.GenerateToken("user-42")
	require.NoError(t, err)

	_, err = verifier.Authenticate(token)
	assert.Error(t, err, "signature mismatch must fail")
	_, err = verifier.Authenticate("garbage")
	assert.Error(t, err)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: -1})

	token, err := svc.GenerateToken("user-42")
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	assert.Error(t, err)
}
