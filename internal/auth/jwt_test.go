package auth

import (
	"testing"
	"time"

	"github.com/agamariel/mastercrm/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "operator"}
}

func TestGenerateToken_Claims(t *testing.T) {
	user := testUser()

	token, err := GenerateToken(user, testSecret, 720*time.Hour)
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, raw)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), raw["user_id"])
	assert.Equal(t, "operator", raw["username"])
	assert.Equal(t, "mastercrm", raw["iss"])

	exp, err := raw.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), exp.Time, time.Minute)
}

func TestValidateToken(t *testing.T) {
	user := testUser()

	valid, err := GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(user, testSecret, -time.Hour)
	require.NoError(t, err)
	otherSecret, err := GenerateToken(user, "another-secret", time.Hour)
	require.NoError(t, err)

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           user.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"expired", expired, true},
		{"signed with another secret", otherSecret, true},
		{"foreign issuer", foreignIssuer, true},
		{"without expiry", noExpiry, true},
		{"HS512 instead of HS256", wrongAlg, true},
		{"garbage", "not.a.token", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, testSecret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, claims)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, claims.UserID)
			assert.Equal(t, user.Username, claims.Username)
		})
	}
}
