package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет оператора CRM.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CredentialsRequest - запрос на регистрацию, вход или создание пользователя.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest - смена собственного пароля.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse - ответ с токеном после входа или регистрации.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
