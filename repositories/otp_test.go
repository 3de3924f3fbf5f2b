package repositories

import (
	"testing"
	"time"

	"dm-lab/domain"

	"github.com/stretchr/testify/require"
)

func Test_Store_And_List_Tokens_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := NewOtpRepository(openTestDB(t), time.Hour)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		at := now.Add(time.Duration(i) * time.Minute)
		err := repository.StoreToken("alice@example.com", domain.PurposeLogin, OtpToken{
			HashedCode: "hash",
			CreatedAt:  at.UnixNano(),
			ExpiresAt:  at.Add(10 * time.Minute).UnixNano(),
		})
		req.NoError(err)
	}

	tokens, err := repository.RecentTokens("alice@example.com", domain.PurposeLogin)
	req.NoError(err)
	req.Len(tokens, 3)
	req.Greater(tokens[0].CreatedAt, tokens[1].CreatedAt)
	req.Greater(tokens[1].CreatedAt, tokens[2].CreatedAt)
}

func Test_Tokens_Are_Scoped_By_Purpose(t *testing.T) {
	req := require.New(t)
	repository := NewOtpRepository(openTestDB(t), time.Hour)

	now := time.Now().UTC()
	err := repository.StoreToken("alice@example.com", domain.PurposeRegister, OtpToken{
		HashedCode: "hash",
		CreatedAt:  now.UnixNano(),
		ExpiresAt:  now.Add(10 * time.Minute).UnixNano(),
	})
	req.NoError(err)

	tokens, err := repository.RecentTokens("alice@example.com", domain.PurposeLogin)
	req.NoError(err)
	req.Empty(tokens)

	tokens, err = repository.RecentTokens("alice@example.com", domain.PurposeRegister)
	req.NoError(err)
	req.Len(tokens, 1)
}

func Test_Mark_Used_Rewrites_In_Place(t *testing.T) {
	req := require.New(t)
	repository := NewOtpRepository(openTestDB(t), time.Hour)

	now := time.Now().UTC()
	err := repository.StoreToken("alice@example.com", domain.PurposeLogin, OtpToken{
		HashedCode: "hash",
		CreatedAt:  now.UnixNano(),
		ExpiresAt:  now.Add(10 * time.Minute).UnixNano(),
	})
	req.NoError(err)

	tokens, err := repository.RecentTokens("alice@example.com", domain.PurposeLogin)
	req.NoError(err)
	req.Len(tokens, 1)
	req.False(tokens[0].Used)

	req.NoError(repository.MarkUsed(tokens[0]))

	tokens, err = repository.RecentTokens("alice@example.com", domain.PurposeLogin)
	req.NoError(err)
	req.Len(tokens, 1)
	req.True(tokens[0].Used)
	req.Equal("hash", tokens[0].HashedCode)
}
