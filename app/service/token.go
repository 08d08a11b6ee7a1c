package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token is only accepted by the operation its purpose
// names; an access token can never pass for a refresh token and vice versa.
const (
	PurposeAccess       = "access"
	PurposeRefresh      = "refresh"
	PurposeEmailConfirm = "email_confirm"
)

var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenPurposeMismatch  = errors.New("token purpose mismatch")
)

type TokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the compact bearer tokens used for access,
// refresh and email confirmation. The signing key is loaded once at startup;
// rotating it invalidates every outstanding token.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

func NewTokenCodec(cfg *config.Config) *TokenCodec {
	return &TokenCodec{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		emailTTL:   cfg.EmailTokenTTL,
	}
}

// Issue signs a token carrying subject, purpose, issued-at and expiry. The
// jti claim makes two tokens issued within the same second distinct strings;
// refresh rotation compares stored and presented tokens by equality and
// relies on that.
func (c *TokenCodec) Issue(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *TokenCodec) IssueAccessToken(subject string) (string, error) {
	return c.Issue(subject, PurposeAccess, c.accessTTL)
}

func (c *TokenCodec) IssueRefreshToken(subject string) (string, error) {
	return c.Issue(subject, PurposeRefresh, c.refreshTTL)
}

func (c *TokenCodec) IssueEmailToken(subject string) (string, error) {
	return c.Issue(subject, PurposeEmailConfirm, c.emailTTL)
}

// Verify checks signature, expiry and purpose and returns the subject. It
// has no side effects.
func (c *TokenCodec) Verify(tokenString, expectedPurpose string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignatureInvalid
		default:
			return "", ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return "", ErrTokenMalformed
	}

	if claims.Purpose != expectedPurpose {
		return "", ErrTokenPurposeMismatch
	}

	return claims.Subject, nil
}

// AccessTokenTTL is exposed for the expires_in field of token responses.
func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}
