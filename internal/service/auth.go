// Package service contains the business logic: credential lifecycle and the
// blog visibility/ownership policy. Handlers stay HTTP-only; repositories
// stay SQL-only.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/model"
	"github.com/careblog/careblog/internal/repository"
)

// MinPasswordLength mirrors the signup validator of the original system.
const MinPasswordLength = 6

// AuthService handles signup, login, and current-user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// SignupInput is the profile submitted at registration. ProfileImage is the
// stored path of an already-saved upload (the handler writes the file before
// calling Signup; a later DB failure leaves an orphaned file, accepted).
type SignupInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	UserType     string // free-form; parsed onto model.Role, defaults to patient
	AddressLine1 string
	City         string
	State        string
	Pincode      string
	ProfileImage string
}

// AuthResult bundles the account and its freshly issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new account and issues a 7-day token.
//
// The email is normalized (trimmed, lowercased) before storage so the
// repository's case-insensitive uniqueness holds a single canonical form.
// Duplicate emails surface as apperror.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "Invalid email")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d chars", MinPasswordLength))
	}

	role := model.RolePatient
	if in.UserType != "" {
		parsed, err := model.ParseRole(in.UserType)
		if err != nil {
			return nil, apperror.ValidationFailed("userType", "userType must be patient or doctor")
		}
		role = parsed
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ProfileImage: in.ProfileImage,
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		Pincode:      strings.TrimSpace(in.Pincode),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	return s.issue(user)
}

// Login authenticates by email and password and issues a 7-day token.
// Unknown email and wrong password are deliberately indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// Me returns the account behind a resolved identity.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	return s.users.GetByID(ctx, userID)
}

// ListSignups returns every account for the public signups listing. The
// password hash never leaves the model's json:"-" field, so the records are
// safe to serialize as-is.
func (s *AuthService) ListSignups(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing signups: %w", err)
	}
	return users, nil
}

// AttachProfileImage records a stored upload path on the account and
// returns the updated record.
func (s *AuthService) AttachProfileImage(ctx context.Context, userID, imageURL string) (*model.User, error) {
	user, err := s.users.UpdateProfileImage(ctx, userID, imageURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile image updated", slog.String("userID", userID))
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}
