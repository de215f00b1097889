package accessgate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// RegisterInput is the sign-up payload
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Service registers users and logs them in, returning access tokens
type Service struct {
	repo   repository.AuctionDB
	tokens *TokenIssuer
	cost   int
}

// NewService creates the access gate over the user ledger
func NewService(repo repository.AuctionDB, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates a user with a bcrypt-hashed password and returns a token
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("accessgate: %w - name is required", biddingerrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("accessgate: %w - invalid email", biddingerrors.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return "", fmt.Errorf("accessgate: %w - password must be at least %d characters", biddingerrors.ErrValidation, minPasswordLength)
	}

	role := in.Role
	switch role {
	case "":
		role = models.RoleBuyer
	case models.RoleBuyer, models.RoleSeller:
	default:
		return "", fmt.Errorf("accessgate: %w - role must be buyer or seller", biddingerrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("accessgate: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        utils.GenerateID(),
		Name:      name,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return "", fmt.Errorf("accessgate: register %s: %w", email, err)
	}
	return s.tokens.Issue(user.ID)
}

// Login checks the credentials and returns a token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, biddingerrors.ErrNotFound) {
		return "", fmt.Errorf("accessgate: %w", biddingerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("accessgate: login %s: %w", email, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("accessgate: %w", biddingerrors.ErrInvalidCredentials)
	}
	return s.tokens.Issue(user.ID)
}

// Verify resolves a bearer token to the caller's user id
func (s *Service) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}
