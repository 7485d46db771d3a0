package storage

import (
	"context"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/google/uuid"
)

// MockUserStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockUserStorage struct {
	CreateFunc         func(ctx context.Context, user *models.User) error
	CreateFirstFunc    func(ctx context.Context, user *models.User) error
	GetByUsernameFunc  func(ctx context.Context, username string) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListFunc           func(ctx context.Context) ([]*models.User, error)
	CountFunc          func(ctx context.Context) (int64, error)
	UpdatePasswordFunc func(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *MockUserStorage) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStorage) CreateFirst(ctx context.Context, user *models.User) error {
	if m.CreateFirstFunc != nil {
		return m.CreateFirstFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStorage) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStorage) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserStorage) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserStorage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
