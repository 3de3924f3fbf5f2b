package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		req.NoError(err)
		req.Len(code, CodeLength)
		for _, r := range code {
			req.True(r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 20 draws of a 6-digit code virtually never collapse to one value.
	req.Greater(len(seen), 1)
}

func TestHashAndCompareCode(t *testing.T) {
	req := require.New(t)

	hash, err := HashCode("123456")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")
	// The hash never contains the code itself.
	req.NotContains(hash, "123456")

	match, err := CompareCode("123456", hash)
	req.NoError(err)
	req.True(match)

	match, err = CompareCode("654321", hash)
	req.NoError(err)
	req.False(match)

	// Same code, fresh salt, different hash.
	other, err := HashCode("123456")
	req.NoError(err)
	req.NotEqual(hash, other)
}

func TestCompareCode_RejectsMalformedHash(t *testing.T) {
	req := require.New(t)
	_, err := CompareCode("123456", "not-a-hash")
	req.Error(err)
}

func TestTokenRoundtrip(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", "alice@example.com", time.Hour, secret)
	req.NoError(err)

	claims, err := ValidateToken(token, secret)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice@example.com", claims.Email)
	req.Equal("dm-lab", claims.Issuer)
}

func TestValidateToken_RejectsBadInput(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", "alice@example.com", time.Hour, secret)
	req.NoError(err)

	// Wrong secret.
	_, err = ValidateToken(token, []byte("other-secret"))
	req.Error(err)

	// Expired token.
	expired, err := GenerateToken("user-1", "alice@example.com", -time.Minute, secret)
	req.NoError(err)
	_, err = ValidateToken(expired, secret)
	req.Error(err)
}
