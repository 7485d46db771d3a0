package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "regular", password: "s3cret-pass"},
		{name: "cyrillic", password: "пароль-оператора"},
		{name: "exactly 72 bytes", password: strings.Repeat("a", MaxPasswordBytes)},
		{name: "73 bytes", password: strings.Repeat("a", MaxPasswordBytes+1), wantErr: ErrPasswordTooLong},
		{name: "37 cyrillic runes are 74 bytes", password: strings.Repeat("я", 37), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, CheckPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("operator")
	require.NoError(t, err)
	second, err := HashPassword("operator")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("operator", first))
	assert.True(t, CheckPassword("operator", second))
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"match", "correct horse", hash, true},
		{"wrong password", "correct horsE", hash, false},
		{"empty password", "", hash, false},
		{"garbage hash", "correct horse", "not-a-bcrypt-hash", false},
		{"empty hash", "correct horse", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, tt.hash))
		})
	}
}
