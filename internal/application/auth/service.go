package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crediview/policyhub/internal/application"
	"github.com/crediview/policyhub/internal/domain/users"
)

// ErrInvalidCredentials covers both unknown email and wrong password
var ErrInvalidCredentials = errors.New("invalid email or password")

const tokenTTL = 24 * time.Hour

// Service implements signup/login/me use-cases
type Service struct {
	Repo   users.Repository
	Secret []byte
	Clock  application.Clock
}

type SignupCommand struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Signup creates an account with a bcrypt password hash
func (s *Service) Signup(ctx context.Context, cmd SignupCommand) (*users.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if len(cmd.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if existing, err := s.Repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, users.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(cmd.Name),
		Department:   strings.TrimSpace(cmd.Department),
		PasswordHash: string(hash),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token
func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.Clock.Now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"dept": u.Department,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Me returns the account behind an authenticated request
func (s *Service) Me(ctx context.Context, userID string) (*users.User, error) {
	return s.Repo.GetByID(ctx, userID)
}
