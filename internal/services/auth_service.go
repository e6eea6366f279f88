package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/auth"
	"github.com/charlesng35/abordo/internal/models"
	"github.com/charlesng35/abordo/pkg/crypto"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/metrics"
)

// RegisterInput captures a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is a user with a freshly issued access token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService registers and authenticates users.
type AuthService struct {
	db  *gorm.DB
	jwt *auth.JWTService
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, jwt *auth.JWTService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{db: db, jwt: jwt}, nil
}

// Register creates an account with email reminders enabled.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperrors.NewBadRequest("Invalid email address")
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, apperrors.NewBadRequest("First and last name are required")
	}

	hash, err := crypto.HashPassword(input.Password)
	if errors.Is(err, crypto.ErrPasswordTooShort) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("Password must be at least %d characters", crypto.MinPasswordLength))
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       hash,
		FirstName:          firstName,
		LastName:           lastName,
		EmailNotifications: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("Email already registered")
		}
		return nil, fmt.Errorf("auth service: create user: %w", err)
	}
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}
	if err != nil || !crypto.VerifyPassword(user.PasswordHash, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.issue(&user)
}

// Get returns a user by id.
func (s *AuthService) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ensureContext(ctx)).Take(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

// UpdatePreferences toggles reminder emails for the user.
func (s *AuthService) UpdatePreferences(ctx context.Context, userID string, emailNotifications bool) (*models.User, error) {
	ctx = ensureContext(ctx)
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("email_notifications", emailNotifications).Error; err != nil {
		return nil, fmt.Errorf("auth service: update preferences: %w", err)
	}
	user.EmailNotifications = emailNotifications
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
