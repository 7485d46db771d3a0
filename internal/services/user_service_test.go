package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agamariel/mastercrm/internal/auth"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestUserServiceImpl_Register(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"

	tests := []struct {
		name        string
		username    string
		password    string
		mockStorage *storage.MockUserStorage
		wantErr     bool
		errType     error
	}{
		{
			name:     "successful registration",
			username: "admin",
			password: "password123",
			mockStorage: &storage.MockUserStorage{
				CreateFirstFunc: func(ctx context.Context, user *models.User) error {
					return nil
				},
			},
			wantErr: false,
		},
		{
			name:        "empty username",
			username:    "  ",
			password:    "password123",
			mockStorage: &storage.MockUserStorage{},
			wantErr:     true,
			errType:     ErrEmptyCredentials,
		},
		{
			name:        "empty password",
			username:    "admin",
			password:    "",
			mockStorage: &storage.MockUserStorage{},
			wantErr:     true,
			errType:     ErrEmptyCredentials,
		},
		{
			name:        "short password",
			username:    "admin",
			password:    "abc",
			mockStorage: &storage.MockUserStorage{},
			wantErr:     true,
			errType:     ErrPasswordTooShort,
		},
		{
			name:        "password over 72 bytes",
			username:    "admin",
			password:    strings.Repeat("п", 37),
			mockStorage: &storage.MockUserStorage{},
			wantErr:     true,
			errType:     ErrPasswordTooLong,
		},
		{
			name:     "password of exactly 72 bytes",
			username: "admin",
			password: strings.Repeat("p", 72),
			mockStorage: &storage.MockUserStorage{
				CreateFirstFunc: func(ctx context.Context, user *models.User) error {
					return nil
				},
			},
			wantErr: false,
		},
		{
			name:     "registration closed",
			username: "admin",
			password: "password123",
			mockStorage: &storage.MockUserStorage{
				CreateFirstFunc: func(ctx context.Context, user *models.User) error {
					return storage.ErrRegistrationClosed
				},
			},
			wantErr: true,
			errType: storage.ErrRegistrationClosed,
		},
		{
			name:     "storage error",
			username: "admin",
			password: "password123",
			mockStorage: &storage.MockUserStorage{
				CreateFirstFunc: func(ctx context.Context, user *models.User) error {
					return errors.New("database error")
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUserService(tt.mockStorage, secret, 24*time.Hour, zap.NewNop())

			user, token, err := service.Register(ctx, tt.username, tt.password)

			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("Register() error = %v, want %v", err, tt.errType)
				}
				return
			}

			if user == nil {
				t.Fatal("Register() returned nil user")
			}
			if user.Username != tt.username {
				t.Errorf("Register() user.Username = %v, want %v", user.Username, tt.username)
			}
			if token == "" {
				t.Error("Register() returned empty token")
			}
		})
	}
}

func TestUserServiceImpl_Login(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"
	correctPassword := "password123"

	hash, err := auth.HashPassword(correctPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	existingUser := &models.User{
		ID:           uuid.New(),
		Username:     "operator",
		PasswordHash: hash,
	}

	tests := []struct {
		name        string
		username    string
		password    string
		mockStorage *storage.MockUserStorage
		wantErr     bool
		errType     error
	}{
		{
			name:     "successful login",
			username: "operator",
			password: correctPassword,
			mockStorage: &storage.MockUserStorage{
				GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return existingUser, nil
				},
			},
			wantErr: false,
		},
		{
			name:        "empty username",
			username:    "",
			password:    correctPassword,
			mockStorage: &storage.MockUserStorage{},
			wantErr:     true,
			errType:     ErrEmptyCredentials,
		},
		{
			name:     "user not found",
			username: "ghost",
			password: correctPassword,
			mockStorage: &storage.MockUserStorage{
				GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return nil, storage.ErrUserNotFound
				},
			},
			wantErr: true,
			errType: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "operator",
			password: "wrongpassword",
			mockStorage: &storage.MockUserStorage{
				GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return existingUser, nil
				},
			},
			wantErr: true,
			errType: ErrInvalidCredentials,
		},
		{
			name:     "storage error",
			username: "operator",
			password: correctPassword,
			mockStorage: &storage.MockUserStorage{
				GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
					return nil, errors.New("database error")
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUserService(tt.mockStorage, secret, 24*time.Hour, zap.NewNop())

			user, token, err := service.Login(ctx, tt.username, tt.password)

			if (err != nil) != tt.wantErr {
				t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("Login() error = %v, want %v", err, tt.errType)
				}
				return
			}

			if user == nil {
				t.Error("Login() returned nil user")
			}
			if token == "" {
				t.Error("Login() returned empty token")
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.UserID != existingUser.ID {
				t.Errorf("token UserID = %v, want %v", claims.UserID, existingUser.ID)
			}
		})
	}
}

func TestUserServiceImpl_NeedsRegistration(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		count   int64
		err     error
		want    bool
		wantErr bool
	}{
		{name: "no users", count: 0, want: true},
		{name: "has users", count: 2, want: false},
		{name: "storage error", err: errors.New("database error"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &storage.MockUserStorage{
				CountFunc: func(ctx context.Context) (int64, error) {
					return tt.count, tt.err
				},
			}
			service := NewUserService(mock, "secret", time.Hour, zap.NewNop())

			got, err := service.NeedsRegistration(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NeedsRegistration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NeedsRegistration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserServiceImpl_DeleteUser(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		target  uuid.UUID
		delErr  error
		errType error
	}{
		{name: "delete other", target: other},
		{name: "delete self", target: self, errType: ErrDeleteSelf},
		{name: "not found", target: other, delErr: storage.ErrUserNotFound, errType: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			mock := &storage.MockUserStorage{
				DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
					deleted = true
					return tt.delErr
				},
			}
			service := NewUserService(mock, "secret", time.Hour, zap.NewNop())

			err := service.DeleteUser(ctx, self, tt.target)
			if tt.errType != nil {
				if !errors.Is(err, tt.errType) {
					t.Fatalf("DeleteUser() error = %v, want %v", err, tt.errType)
				}
				if tt.target == self && deleted {
					t.Error("DeleteUser() reached storage when deleting self")
				}
				return
			}
			if err != nil {
				t.Fatalf("DeleteUser() error = %v", err)
			}
			if !deleted {
				t.Error("DeleteUser() did not call storage")
			}
		})
	}
}

func TestUserServiceImpl_ChangePassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	hash, err := auth.HashPassword("old-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name    string
		current string
		next    string
		errType error
	}{
		{name: "success", current: "old-pass", next: "new-pass"},
		{name: "wrong current", current: "nope", next: "new-pass", errType: ErrWrongPassword},
		{name: "too short", current: "old-pass", next: "abc", errType: ErrPasswordTooShort},
		{name: "too long", current: "old-pass", next: strings.Repeat("x", 73), errType: ErrPasswordTooLong},
		{name: "longest allowed", current: "old-pass", next: strings.Repeat("x", 72)},
		{name: "empty", current: "", next: "new-pass", errType: ErrEmptyCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored string
			mock := &storage.MockUserStorage{
				GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
					return &models.User{ID: userID, Username: "operator", PasswordHash: hash}, nil
				},
				UpdatePasswordFunc: func(ctx context.Context, id uuid.UUID, passwordHash string) error {
					stored = passwordHash
					return nil
				},
			}
			service := NewUserService(mock, "secret", time.Hour, zap.NewNop())

			err := service.ChangePassword(ctx, userID, tt.current, tt.next)
			if tt.errType != nil {
				if !errors.Is(err, tt.errType) {
					t.Fatalf("ChangePassword() error = %v, want %v", err, tt.errType)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePassword() error = %v", err)
			}
			if !auth.CheckPassword(tt.next, stored) {
				t.Error("ChangePassword() stored hash does not match new password")
			}
		})
	}
}

func TestUserServiceImpl_RegisterHashesPassword(t *testing.T) {
	ctx := context.Background()
	password := "testpassword123"

	var storedHash string
	mockStorage := &storage.MockUserStorage{
		CreateFirstFunc: func(ctx context.Context, user *models.User) error {
			storedHash = user.PasswordHash
			return nil
		},
	}

	service := NewUserService(mockStorage, "test-secret", 24*time.Hour, zap.NewNop())
	if _, _, err := service.Register(ctx, "admin", password); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if storedHash == password {
		t.Error("Register() did not hash the password")
	}
	if storedHash == "" {
		t.Error("Register() stored empty password hash")
	}
}
