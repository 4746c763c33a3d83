// Package authpw provides email/password authentication and reset tokens.
package authpw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password reset token stays redeemable.
const ResetTokenTTL = 1 * time.Hour

const minPasswordLength = 8

var (
	// ErrInvalidCredentials is deliberately the same for unknown emails and
	// wrong passwords so login responses cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	InsertUser(ctx context.Context, user store.User) error
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, id, userID, token string, expiresAt time.Time) error
	RedeemPasswordReset(ctx context.Context, token string) (string, error)
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// HashPassword produces a bcrypt hash at the default work factor.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SignIn authenticates a user by email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// CreateUser registers a portal account. The caller picks the id; client
// accounts reuse the client record's id so ownership checks compare directly.
func (s *Service) CreateUser(ctx context.Context, id, name, email, password, role string) (store.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
		return store.User{}, errors.New("name and email are required")
	}
	if len(password) < minPasswordLength {
		return store.User{}, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return store.User{}, err
	}
	user := store.User{
		ID:           id,
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return store.User{}, err
	}
	return user, nil
}

// RequestPasswordReset creates a reset token. An unknown email returns an
// empty token and no error so callers respond uniformly.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(ResetTokenTTL)
	if err := s.store.CreatePasswordReset(ctx, util.NewID("prt"), user.ID, token, expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

// ResetPassword redeems a token and sets a new password. Redemption is a
// single check-and-set in the store, so a token succeeds exactly once.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	userID, err := s.store.RedeemPasswordReset(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrTokenInvalid) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// PurgeExpired deletes used and expired reset tokens.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredResets(ctx)
}

// generateToken creates a secure random token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
