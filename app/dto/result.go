package dto

import "github.com/vibast-solutions/ms-go-contacts/app/entity"

type SignupResult struct {
	User *entity.User
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}
