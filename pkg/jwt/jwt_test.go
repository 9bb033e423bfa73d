package jwt_test

import (
	"testing"
	"time"

	"backoffice-api/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer := jwt.NewSigner("secret", "backoffice-api", time.Hour)

	token, err := signer.GenerateToken("u-1", "ops@example.com", "Ops")
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, "Ops", claims.Name)
}

func TestSigner_Rejects(t *testing.T) {
	signer := jwt.NewSigner("secret", "backoffice-api", time.Hour)
	other := jwt.NewSigner("other-secret", "backoffice-api", time.Hour)
	wrongIssuer := jwt.NewSigner("secret", "someone-else", time.Hour)

	token, err := other.GenerateToken("u-1", "", "Ops")
	require.NoError(t, err)
	_, err = signer.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	token, err = wrongIssuer.GenerateToken("u-1", "", "Ops")
	require.NoError(t, err)
	_, err = signer.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = signer.ValidateToken("")
	assert.ErrorIs(t, err, jwt.ErrMissingToken)

	_, err = signer.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
