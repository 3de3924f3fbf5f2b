package services

import (
	goerrors "errors"
	"log/slog"
	"testing"
	"time"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// capturingMailer records codes instead of sending them.
type capturingMailer struct {
	codes []string
}

func (c *capturingMailer) SendCode(_, code string, _ domain.Purpose) error {
	c.codes = append(c.codes, code)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *capturingMailer) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mailer := &capturingMailer{}
	svc := NewAuthService(
		repositories.NewOtpRepository(db, time.Hour),
		repositories.NewUserRepository(db), mailer, slog.Default(),
		24*time.Hour, []byte("test-secret"),
	)
	return svc, mailer
}

func TestAuthService_RegisterFlow(t *testing.T) {
	req := require.New(t)
	svc, mailer := newAuthFixture(t)
	email := "alice@example.com"

	req.NoError(svc.RequestCode(email, domain.PurposeRegister))
	req.Len(mailer.codes, 1)
	req.Len(mailer.codes[0], auth.CodeLength)

	user, err := svc.Register(email, mailer.codes[0], "alice")
	req.NoError(err)
	req.Equal(email, user.Email)
	req.Equal("alice", user.Username)
	req.NotEmpty(user.ID)

	// The code burned on registration; it cannot verify twice.
	_, err = svc.Register(email, mailer.codes[0], "alice")
	req.ErrorIs(err, errors.ErrInvalidCode)
}

func TestAuthService_LoginFlow(t *testing.T) {
	req := require.New(t)
	svc, mailer := newAuthFixture(t)
	email := "alice@example.com"

	req.NoError(svc.RequestCode(email, domain.PurposeRegister))
	_, err := svc.Register(email, mailer.codes[0], "alice")
	req.NoError(err)

	req.NoError(svc.RequestCode(email, domain.PurposeLogin))
	req.Len(mailer.codes, 2)

	result, err := svc.Login(email, mailer.codes[1])
	req.NoError(err)
	req.Equal(email, result.User.Email)
	req.NotEmpty(result.Token)

	claims, err := auth.ValidateToken(result.Token, []byte("test-secret"))
	req.NoError(err)
	req.Equal(result.User.ID, claims.UserID)
	req.Equal(email, claims.Email)
}

func TestAuthService_RequestCode_PurposeGuards(t *testing.T) {
	req := require.New(t)
	svc, mailer := newAuthFixture(t)
	email := "alice@example.com"

	// LOGIN before the profile exists is refused.
	err := svc.RequestCode(email, domain.PurposeLogin)
	req.ErrorIs(err, errors.ErrUserNotRegistered)

	req.NoError(svc.RequestCode(email, domain.PurposeRegister))
	_, err = svc.Register(email, mailer.codes[0], "alice")
	req.NoError(err)

	// REGISTER for a known email is refused.
	err = svc.RequestCode(email, domain.PurposeRegister)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestAuthService_RequestCode_RateLimit(t *testing.T) {
	req := require.New(t)
	svc, mailer := newAuthFixture(t)
	email := "alice@example.com"

	for i := 0; i < maxCodesPerHour; i++ {
		req.NoError(svc.RequestCode(email, domain.PurposeRegister))
	}
	err := svc.RequestCode(email, domain.PurposeRegister)
	req.ErrorIs(err, errors.ErrTooManyCodes)
	req.Len(mailer.codes, maxCodesPerHour)
}

func TestAuthService_VerifyCode_RejectsWrongCode(t *testing.T) {
	req := require.New(t)
	svc, mailer := newAuthFixture(t)
	email := "alice@example.com"

	req.NoError(svc.RequestCode(email, domain.PurposeRegister))

	wrong := "000000"
	if mailer.codes[0] == wrong {
		wrong = "000001"
	}
	ok, err := svc.VerifyCode(email, wrong, domain.PurposeRegister)
	req.NoError(err)
	req.False(ok)

	// A code issued for one purpose never verifies for another.
	ok, err = svc.VerifyCode(email, mailer.codes[0], domain.PurposeLogin)
	req.NoError(err)
	req.False(ok)
}

// failingMailer simulates a broken mail relay.
type failingMailer struct {
	err error
}

func (f failingMailer) SendCode(string, string, domain.Purpose) error { return f.err }

func TestAuthService_RequestCode_MailerFailure(t *testing.T) {
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	errMailDown := goerrors.New("smtp down")
	svc := NewAuthService(
		repositories.NewOtpRepository(db, time.Hour),
		repositories.NewUserRepository(db), failingMailer{err: errMailDown}, slog.Default(),
		24*time.Hour, []byte("test-secret"),
	)
	req.ErrorIs(svc.RequestCode("alice@example.com", domain.PurposeRegister), errMailDown)
}
