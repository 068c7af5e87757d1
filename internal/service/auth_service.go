// Package service contains the application's business logic, orchestrating
// repositories and the media relay beneath the HTTP layer.
package service

import (
	"context"
	"strings"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and identity resolution.
type AuthService struct {
	userRepo   repository.UserRepository
	issuer     *token.Issuer
	bcryptCost int
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NewAuthService returns an AuthService hashing passwords with the given cost.
func NewAuthService(userRepo repository.UserRepository, issuer *token.Issuer, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account and issues a token for it. The email must not
// belong to an existing account (case-insensitive).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, "", models.NewInvalidContentError("Name, email, and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", models.NewEmailTakenError()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index is the backstop for registrations racing past the
		// existence check above.
		return nil, "", err
	}

	t, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	return user, t, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", models.NewInvalidCredentialsError()
	}

	t, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	return user, t, nil
}

// VerifyIdentity resolves the authenticated user's record. The auth gate has
// already verified the token; this only resolves the ID to a user.
func (s *AuthService) VerifyIdentity(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
