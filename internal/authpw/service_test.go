package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"citylyfe/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string // email -> userID
	resets     map[string]struct {
		userID    string
		expiresAt time.Time
		used      bool
	}
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
		resets: make(map[string]struct {
			userID    string
			expiresAt time.Time
			used      bool
		}),
	}
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) InsertUser(ctx context.Context, user store.User) error {
	if _, ok := m.emailIndex[user.Email]; ok {
		return store.ErrDuplicate
	}
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	if user, ok := m.users[userID]; ok {
		user.PasswordHash = passwordHash
		m.users[userID] = user
		return nil
	}
	return errors.New("user not found")
}

func (m *mockUserStore) CreatePasswordReset(ctx context.Context, id, userID, token string, expiresAt time.Time) error {
	m.resets[token] = struct {
		userID    string
		expiresAt time.Time
		used      bool
	}{userID: userID, expiresAt: expiresAt, used: false}
	return nil
}

func (m *mockUserStore) RedeemPasswordReset(ctx context.Context, token string) (string, error) {
	reset, ok := m.resets[token]
	if !ok || reset.used || !time.Now().Before(reset.expiresAt) {
		return "", store.ErrTokenInvalid
	}
	reset.used = true
	m.resets[token] = reset
	return reset.userID, nil
}

func (m *mockUserStore) PurgeExpiredResets(ctx context.Context) (int64, error) {
	var purged int64
	for token, reset := range m.resets {
		if reset.used || !time.Now().Before(reset.expiresAt) {
			delete(m.resets, token)
			purged++
		}
	}
	return purged, nil
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := NewService(mockStore)

	t.Run("successful create", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, "cl_1", "Test Client", "client@example.com", "password123", "client")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != "cl_1" {
			t.Errorf("expected id cl_1, got %s", user.ID)
		}
		if user.PasswordHash == "password123" || user.PasswordHash == "" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "cl_2", "Other", "client@example.com", "password123", "client")
		if !errors.Is(err, store.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "cl_3", "Weak", "weak@example.com", "short", "client")
		if !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		if _, err := svc.CreateUser(ctx, "cl_4", "", "", "password123", "client"); err == nil {
			t.Error("expected error for missing fields")
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := NewService(mockStore)

	if _, err := svc.CreateUser(ctx, "usr_1", "Test User", "test@example.com", "password123", "admin"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	t.Run("successful sign in", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "test@example.com", "password123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "test@example.com" || user.Role != "admin" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "test@example.com", "wrongpassword")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		_, unknownErr := svc.SignIn(ctx, "nonexistent@example.com", "password123")
		_, wrongErr := svc.SignIn(ctx, "test@example.com", "wrongpassword")
		if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
			t.Fatalf("expected both failures to be ErrInvalidCredentials, got %v and %v", unknownErr, wrongErr)
		}
		if unknownErr.Error() != wrongErr.Error() {
			t.Errorf("expected identical messages, got %q and %q", unknownErr.Error(), wrongErr.Error())
		}
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := NewService(mockStore)

	if _, err := svc.CreateUser(ctx, "usr_1", "Test User", "test@example.com", "password123", "client"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	t.Run("request reset for existing user", func(t *testing.T) {
		token, err := svc.RequestPasswordReset(ctx, "test@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Error("expected token to be generated")
		}
	})

	t.Run("request reset for non-existent user - no error", func(t *testing.T) {
		token, err := svc.RequestPasswordReset(ctx, "nonexistent@example.com")
		if err != nil {
			t.Errorf("expected no error for non-existent user, got: %v", err)
		}
		if token != "" {
			t.Error("expected empty token for non-existent user")
		}
	})

	t.Run("reset password with valid token", func(t *testing.T) {
		token, _ := svc.RequestPasswordReset(ctx, "test@example.com")

		if err := svc.ResetPassword(ctx, token, "newpassword123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := svc.SignIn(ctx, "test@example.com", "password123"); err == nil {
			t.Error("expected old password to not work")
		}
		if _, err := svc.SignIn(ctx, "test@example.com", "newpassword123"); err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
	})

	t.Run("token redeems exactly once", func(t *testing.T) {
		token, _ := svc.RequestPasswordReset(ctx, "test@example.com")

		if err := svc.ResetPassword(ctx, token, "anotherpassword1"); err != nil {
			t.Fatalf("first redemption failed: %v", err)
		}
		err := svc.ResetPassword(ctx, token, "anotherpassword2")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("expected ErrInvalidResetToken on second redemption, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		mockStore.resets["expired-token"] = struct {
			userID    string
			expiresAt time.Time
			used      bool
		}{userID: "usr_1", expiresAt: time.Now().Add(-time.Minute), used: false}

		err := svc.ResetPassword(ctx, "expired-token", "newpassword123")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("expected ErrInvalidResetToken for expired token, got %v", err)
		}
	})

	t.Run("reset with invalid token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "invalid-token", "newpassword123")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("expected ErrInvalidResetToken, got %v", err)
		}
	})

	t.Run("reset with short password", func(t *testing.T) {
		if err := svc.ResetPassword(ctx, "some-token", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("purge removes used and expired tokens", func(t *testing.T) {
		live, _ := svc.RequestPasswordReset(ctx, "test@example.com")
		purged, err := svc.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if purged == 0 {
			t.Error("expected at least one purged token")
		}
		if _, ok := mockStore.resets[live]; !ok {
			t.Error("expected live token to survive the purge")
		}
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := NewService(mockStore)

	if _, err := svc.CreateUser(ctx, "usr_1", "Test User", "test@example.com", "password123", "client"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	t.Run("requires current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "usr_1", "wrong-current", "newpassword123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("successful change", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, "usr_1", "password123", "newpassword123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.SignIn(ctx, "test@example.com", "newpassword123"); err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
	})
}
