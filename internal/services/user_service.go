package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agamariel/mastercrm/internal/auth"
	"github.com/agamariel/mastercrm/internal/models"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 4

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCredentials   = errors.New("username and password are required")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters")
	ErrPasswordTooLong    = auth.ErrPasswordTooLong
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrDeleteSelf         = errors.New("cannot delete yourself")
)

// UserService определяет интерфейс для работы с пользователями.
type UserService interface {
	NeedsRegistration(ctx context.Context) (bool, error)
	Register(ctx context.Context, username, password string) (*models.User, string, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
	DeleteUser(ctx context.Context, currentID, id uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// UserServiceImpl реализует UserService.
type UserServiceImpl struct {
	userStorage     UserStorage
	jwtSecret       string
	tokenExpiration time.Duration
	log             *zap.Logger
}

// NewUserService создаёт новый экземпляр UserService.
func NewUserService(userStorage UserStorage, jwtSecret string, tokenExpiration time.Duration, log *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		userStorage:     userStorage,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
		log:             log,
	}
}

// NeedsRegistration сообщает, что в системе ещё нет ни одного пользователя.
func (s *UserServiceImpl) NeedsRegistration(ctx context.Context) (bool, error) {
	count, err := s.userStorage.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count == 0, nil
}

// Register регистрирует первого пользователя. Когда пользователи уже есть, возвращает storage.ErrRegistrationClosed.
func (s *UserServiceImpl) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.newUser(username, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.userStorage.CreateFirst(ctx, user); err != nil {
		if errors.Is(err, storage.ErrRegistrationClosed) || errors.Is(err, storage.ErrLoginExists) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info("first user registered", zap.String("username", user.Username))
	return user, token, nil
}

// Login аутентифицирует пользователя.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrEmptyCredentials
	}

	user, err := s.userStorage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Me возвращает текущего пользователя.
func (s *UserServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userStorage.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers возвращает всех пользователей.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userStorage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser добавляет пользователя от имени уже вошедшего.
func (s *UserServiceImpl) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.newUser(username, password)
	if err != nil {
		return nil, err
	}

	if err := s.userStorage.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrLoginExists) {
			return nil, storage.ErrLoginExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user created", zap.String("username", user.Username))
	return user, nil
}

// DeleteUser удаляет пользователя. Удалить самого себя нельзя.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, currentID, id uuid.UUID) error {
	if currentID == id {
		return ErrDeleteSelf
	}
	if err := s.userStorage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return ErrEmptyCredentials
	}
	if err := checkPasswordLength(next); err != nil {
		return err
	}

	user, err := s.userStorage.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}

	if err := s.userStorage.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// checkPasswordLength: минимум считается в символах, максимум в байтах (предел bcrypt).
func checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > auth.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func (s *UserServiceImpl) newUser(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

// generateToken генерирует JWT токен для пользователя.
func (s *UserServiceImpl) generateToken(user *models.User) (string, error) {
	exp := s.tokenExpiration
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return auth.GenerateToken(user, s.jwtSecret, exp)
}
