package services

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
)

func TestTwoFactorSetup(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	u, err := RegisterUser("alice", "alice@example.com", "password123", "password123", "user")
	assert.NoError(t, err)

	data, err := TwoFactorSetup(u)
	assert.NoError(t, err)
	assert.NotEmpty(t, data.Secret)
	assert.True(t, strings.HasPrefix(data.URI, "otpauth://totp/"))
	assert.Contains(t, data.URI, "secret="+data.Secret)
	assert.Contains(t, data.URI, "issuer=PromptManager")
	assert.NotNil(t, data.QRCode)
	assert.True(t, strings.HasPrefix(*data.QRCode, "data:image/png;base64,"))

	// Setup is re-entrant: the secret is generated once and reused.
	again, err := TwoFactorSetup(u)
	assert.NoError(t, err)
	assert.Equal(t, data.Secret, again.Secret)
}

func TestEnableTwoFactorRequiresValidCode(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	u, err := RegisterUser("alice", "alice@example.com", "password123", "password123", "user")
	assert.NoError(t, err)

	secret, err := GenerateTwoFactorSecret(u)
	assert.NoError(t, err)

	err = EnableTwoFactor(u, "000000")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
	assert.False(t, u.TwoFactorEnabled)

	code, err := totp.GenerateCode(secret, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, EnableTwoFactor(u, code))
	assert.True(t, u.TwoFactorEnabled)

	reloaded, err := FindUserByID(u.ID)
	assert.NoError(t, err)
	assert.True(t, reloaded.TwoFactorEnabled)
}

func TestDisableTwoFactorClearsSecret(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	u, err := RegisterUser("alice", "alice@example.com", "password123", "password123", "user")
	assert.NoError(t, err)

	secret, err := GenerateTwoFactorSecret(u)
	assert.NoError(t, err)
	code, err := totp.GenerateCode(secret, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, EnableTwoFactor(u, code))

	// Disable is unconditional, no code required.
	assert.NoError(t, DisableTwoFactor(u))
	assert.False(t, u.TwoFactorEnabled)
	assert.Empty(t, u.TwoFactorSecret)

	reloaded, err := FindUserByID(u.ID)
	assert.NoError(t, err)
	assert.False(t, reloaded.TwoFactorEnabled)
	assert.Empty(t, reloaded.TwoFactorSecret)
	assert.False(t, VerifyTwoFactorCode(&reloaded, code))
}
