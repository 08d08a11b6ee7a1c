package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// MySQL error number for a unique index violation.
const mysqlDuplicateEntry = 1062

var (
	ErrUserExists          = errors.New("account already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountNotConfirmed = errors.New("account not confirmed")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrVerificationFailed  = errors.New("verification failed")
)

// AsyncRunner executes fire-and-forget work. Injectable so tests can run
// the task synchronously.
type AsyncRunner func(task func())

type AuthServiceOption func(*AuthService)

// AuthService orchestrates signup, login, refresh rotation, logout and
// email confirmation over the users table.
type AuthService struct {
	db          *sql.DB
	userRepo    *repository.UserRepository
	tokens      *TokenCodec
	passwords   *PasswordHasher
	mailer      Mailer
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewAuthService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	tokens *TokenCodec,
	passwords *PasswordHasher,
	mailer Mailer,
	cfg *config.Config,
	opts ...AuthServiceOption,
) *AuthService {
	svc := &AuthService{
		db:        db,
		userRepo:  userRepo,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		cfg:       cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) AuthServiceOption {
	return func(s *AuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// Signup creates an unconfirmed account and dispatches the confirmation
// mail in the background. Mail failures are logged, never surfaced; the
// account stays created either way.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*dto.SignupResult, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsConfirmed:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// two concurrent signups can both pass the FindByEmail check; the
		// unique index on email decides the race
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.asyncRunner(func() {
		s.sendConfirmationMail(user.Email, user.Username)
	})

	return &dto.SignupResult{User: user}, nil
}

func (s *AuthService) sendConfirmationMail(email, username string) {
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := s.tokens.IssueEmailToken(email)
	if err != nil {
		logrus.WithError(err).WithField("email", email).Error("Failed to issue confirmation token")
		return
	}

	if err := s.mailer.SendConfirmation(sendCtx, email, username, token, s.cfg.BaseURL); err != nil {
		logrus.WithError(err).WithField("email", email).Error("Failed to send confirmation email")
	}
}

// Login verifies the credentials and issues a fresh token pair. The new
// refresh token overwrites whatever the account held before; that overwrite
// is the only revocation mechanism for earlier sessions.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// same caller-visible error as a wrong password, so the endpoint
		// cannot be used to probe for registered emails
		logrus.WithField("email", email).Debug("Login attempt for unknown email")
		return nil, ErrInvalidCredentials
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		logrus.WithField("email", email).Debug("Login password mismatch")
		return nil, ErrInvalidCredentials
	}

	if !user.IsConfirmed {
		return nil, ErrAccountNotConfirmed
	}

	pair, err := s.issueTokenPair(user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, sql.NullString{String: pair.RefreshToken, Valid: true}); err != nil {
		return nil, err
	}

	return pair, nil
}

// Refresh rotates the presented refresh token. Each refresh token is
// single-use: the stored token must equal the presented one exactly, and a
// mismatch clears the stored token so the account is forced through a fresh
// login. The row lock serializes concurrent rotations for the same user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	email, err := s.tokens.Verify(refreshToken, PurposeRefresh)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txUserRepo := repository.NewUserRepository(tx)
	user, err := txUserRepo.FindByEmailForUpdate(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRefreshTokenRevoked
	}

	if !user.RefreshToken.Valid || user.RefreshToken.String != refreshToken {
		if err := txUserRepo.UpdateRefreshToken(ctx, user.ID, sql.NullString{}); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		logrus.WithField("email", email).Warn("Refresh token mismatch, stored token cleared")
		return nil, ErrRefreshTokenRevoked
	}

	pair, err := s.issueTokenPair(email)
	if err != nil {
		return nil, err
	}

	if err := txUserRepo.UpdateRefreshToken(ctx, user.ID, sql.NullString{String: pair.RefreshToken, Valid: true}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return pair, nil
}

// ConfirmEmail flips the account to confirmed. Re-confirming an already
// confirmed account succeeds without touching the row.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.tokens.Verify(token, PurposeEmailConfirm)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, err.Error())
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrVerificationFailed
	}

	if user.IsConfirmed {
		return nil
	}

	return s.userRepo.SetConfirmed(ctx, user.ID)
}

// Logout clears the stored refresh token; every refresh attempt afterwards
// fails until the next login.
func (s *AuthService) Logout(ctx context.Context, user *entity.User) error {
	return s.userRepo.UpdateRefreshToken(ctx, user.ID, sql.NullString{})
}

func (s *AuthService) issueTokenPair(email string) (*dto.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(email)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken(email)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}
