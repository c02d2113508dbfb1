package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"delivery-service/internal/apperr"
	"delivery-service/internal/auth"
	"delivery-service/pkg/validation"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(id auth.Identity) (string, error)
}

// Service contains user business logic.
type Service struct {
	repo   Repository
	tokens TokenIssuer
	log    *zap.Logger
}

// NewService creates a user service.
func NewService(repo Repository, tokens TokenIssuer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, tokens: tokens, log: log}
}

// Login authenticates a user and returns a JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Generate(u.Identity())
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return &AuthResponse{
		Token: token,
		User:  &AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
	}, nil
}

// Resolve returns the identity of a user id.
func (s *Service) Resolve(ctx context.Context, userID string) (auth.Identity, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return u.Identity(), nil
}

// List returns users, optionally narrowed to one role. Admin only.
func (s *Service) List(ctx context.Context, actor auth.Identity, role string) ([]*User, error) {
	if _, err := auth.Authorize(actor, auth.OpListUsers); err != nil {
		return nil, err
	}
	var filter auth.Role
	if strings.TrimSpace(role) != "" {
		r, ok := auth.ParseRole(role)
		if !ok {
			return nil, apperr.ValidationField("role", "unknown role "+role)
		}
		filter = r
	}
	return s.repo.List(ctx, filter)
}

// Upsert creates the user, or resets the password and role of the user with
// the same email.
func (s *Service) Upsert(ctx context.Context, in SeedUser) (*User, error) {
	email := normalizeEmail(in.Email)
	if !validation.ValidateEmail(email) {
		return nil, apperr.ValidationField("email", "invalid email")
	}
	if !validation.ValidatePassword(in.Password) {
		return nil, apperr.ValidationField("password", "password must be 6-100 characters")
	}
	if !in.Role.Valid() {
		return nil, apperr.ValidationField("role", "unknown role "+string(in.Role))
	}
	if in.Phone != "" && !validation.ValidatePhone(in.Phone) {
		return nil, apperr.ValidationField("phone", "invalid phone")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       true,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
