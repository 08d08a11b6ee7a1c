package service

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthGuard resolves a bearer access token into the calling principal. It
// only reads; it is safe to call concurrently and independently of the
// session operations for the same user.
type AuthGuard struct {
	tokens   *TokenCodec
	userRepo *repository.UserRepository
}

func NewAuthGuard(tokens *TokenCodec, userRepo *repository.UserRepository) *AuthGuard {
	return &AuthGuard{tokens: tokens, userRepo: userRepo}
}

// Resolve fails closed: any token defect and any unknown subject collapse
// to ErrUnauthorized. Store failures surface unchanged.
func (g *AuthGuard) Resolve(ctx context.Context, bearerToken string) (*entity.User, error) {
	email, err := g.tokens.Verify(bearerToken, PurposeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := g.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	return user, nil
}
