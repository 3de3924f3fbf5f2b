//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"time"

	"dm-lab/auth"
	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/repositories"
)

const (
	codeExpiry      = 10 * time.Minute
	maxCodesPerHour = 5
)

type IAuthService interface {
	contract.Verifier
	Login(email, code string) (LoginResult, error)
	Register(email, code, username string) (repositories.User, error)
}

// LoginResult is what a verified LOGIN code yields: the profile plus a
// signed session token.
type LoginResult struct {
	User  repositories.User
	Token string
}

// AuthService is the production Verifier: it issues argon2-hashed one-time
// codes, rate-limits issuance, and turns verified codes into registrations
// or sessions.
type AuthService struct {
	otpRepository  repositories.IOtpRepository
	userRepository repositories.IUserRepository
	mailer         contract.Mailer
	log            *slog.Logger
	tokenDuration  time.Duration
	tokenSecret    []byte
}

func NewAuthService(otpRepository repositories.IOtpRepository,
	userRepository repositories.IUserRepository, mailer contract.Mailer,
	log *slog.Logger, tokenDuration time.Duration, tokenSecret []byte) *AuthService {
	return &AuthService{
		otpRepository:  otpRepository,
		userRepository: userRepository,
		mailer:         mailer,
		log:            log,
		tokenDuration:  tokenDuration,
		tokenSecret:    tokenSecret,
	}
}

// RequestCode issues a fresh code for the given purpose. REGISTER refuses
// known emails, LOGIN refuses unknown ones, both before anything is sent.
func (s *AuthService) RequestCode(email string, purpose domain.Purpose) error {
	exists, err := s.userRepository.EmailExists(email)
	if err != nil {
		return err
	}
	if purpose == domain.PurposeRegister && exists {
		return errors.ErrUserAlreadyExists
	}
	if purpose == domain.PurposeLogin && !exists {
		return errors.ErrUserNotRegistered
	}

	recent, err := s.otpRepository.RecentTokens(email, purpose)
	if err != nil {
		return err
	}
	if len(recent) >= maxCodesPerHour {
		return errors.ErrTooManyCodes
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return err
	}
	hashed, err := auth.HashCode(code)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	token := repositories.OtpToken{
		HashedCode: hashed,
		CreatedAt:  now.UnixNano(),
		ExpiresAt:  now.Add(codeExpiry).UnixNano(),
	}
	if err := s.otpRepository.StoreToken(email, purpose, token); err != nil {
		return err
	}
	return s.mailer.SendCode(email, code, purpose)
}

// VerifyCode checks the submitted code against the most recent live token.
// A matching token is burned immediately so it can never verify twice.
func (s *AuthService) VerifyCode(email, code string, purpose domain.Purpose) (bool, error) {
	tokens, err := s.otpRepository.RecentTokens(email, purpose)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC().UnixNano()
	for _, token := range tokens {
		if token.Used || token.ExpiresAt < now {
			continue
		}
		match, err := auth.CompareCode(code, token.HashedCode)
		if err != nil {
			return false, err
		}
		if !match {
			continue
		}
		if err := s.otpRepository.MarkUsed(token); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Register creates the profile once a REGISTER code verifies.
func (s *AuthService) Register(email, code, username string) (repositories.User, error) {
	ok, err := s.VerifyCode(email, code, domain.PurposeRegister)
	if err != nil {
		return repositories.User{}, err
	}
	if !ok {
		return repositories.User{}, errors.ErrInvalidCode
	}
	return s.userRepository.CreateUser(email, username)
}

// Login verifies a LOGIN code and issues the session token. A verified code
// for a missing profile is a hard failure: the response cannot be built.
func (s *AuthService) Login(email, code string) (LoginResult, error) {
	ok, err := s.VerifyCode(email, code, domain.PurposeLogin)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, errors.ErrInvalidCode
	}

	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, email)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.tokenDuration, s.tokenSecret)
	if err != nil {
		return LoginResult{}, errors.ErrTokenGeneration
	}
	return LoginResult{User: user, Token: token}, nil
}
