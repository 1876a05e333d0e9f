package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/auth"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, email string, role auth.Role) (string, error)
}

type Service interface {
	Signup(ctx context.Context, in SignupInput) (*User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Profile(ctx context.Context, id int64) (*User, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if !in.Role.Valid() {
		return nil, auth.ErrInvalidRole
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("service: signup lookup: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("service: signup: %w", err)
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}

	if _, err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Str("email", in.Email).Msg("Failed to create user in repository")
		return nil, fmt.Errorf("service: signup: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Stringer("role", u.Role).Msg("User registered")

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: login: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("Failed to issue token")
		return nil, fmt.Errorf("service: login: %w", err)
	}

	return &LoginResult{Token: token, User: u}, nil
}

func (s *service) Profile(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: profile %d: %w", id, err)
	}

	return u, nil
}
