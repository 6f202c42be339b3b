package app

import (
	"context"
	"log"
	"strings"

	"bhss/domain/core"
	"bhss/internal/auth"
	"bhss/internal/errors"
	"bhss/internal/validation"
	"bhss/models"
	"bhss/ports"
)

// UserService handles accounts, login and token verification
type UserService struct {
	repo      ports.UserRepository
	tokens    *auth.TokenIssuer
	validator *validation.Validator
}

// NewUserService creates a user service
func NewUserService(repo ports.UserRepository, tokens *auth.TokenIssuer, validator *validation.Validator) *UserService {
	return &UserService{repo: repo, tokens: tokens, validator: validator}
}

// Login checks the credentials and issues a session token
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (*models.Session, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !auth.ComparePassword(user.PasswordHash, in.Password) {
		return nil, errors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	log.Printf("[Auth] %s logged in (%s)", user.Email, user.Role)
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Authenticate verifies token and loads the active user it belongs to
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}
	return user, nil
}

// List returns every account
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// Create adds an account with a hashed password
func (s *UserService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		Municipality: strings.TrimSpace(in.Municipality),
		School:       strings.TrimSpace(in.School),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[Auth] created %s user %s", user.Role, user.Email)
	return user, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id core.ID) error {
	if actor != nil && actor.ID == id {
		return errors.InvalidInput("you cannot delete your own account")
	}
	return s.repo.DeleteUser(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account unless it already exists
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.HasCode(err, errors.CodeNotFound) {
		return err
	}
	_, err = s.Create(ctx, models.UserInput{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     models.RoleAdmin,
	})
	return err
}
