package session

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStoreLogin(t *testing.T) {
	secrets := NewMemorySecretStore()
	store := NewStore(secrets, zap.NewNop())

	token := signToken(t, jwt.MapClaims{
		"userId": "u-1",
		"sub":    "anna",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	require.NoError(t, store.Login(token, "USER"))

	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "anna", user.Name)
	assert.Equal(t, "USER", user.Role)
	assert.Equal(t, token, store.Token())

	stored, ok, err := secrets.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, token, stored)
}

func TestStoreLogin_InvalidToken(t *testing.T) {
	secrets := NewMemorySecretStore()
	store := NewStore(secrets, zap.NewNop())

	assert.Error(t, store.Login("not-a-jwt", "USER"))

	_, ok := store.User()
	assert.False(t, ok)
	_, stored, _ := secrets.Get(KeyToken)
	assert.False(t, stored)
}

func TestStoreRestore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		claims     jwt.MapClaims
		wantUser   bool
		wantStored bool
	}{
		{
			name: "valid token",
			claims: jwt.MapClaims{
				"userId": 42,
				"sub":    "anna",
				"exp":    now.Add(time.Hour).Unix(),
			},
			wantUser:   true,
			wantStored: true,
		},
		{
			name: "expired token",
			claims: jwt.MapClaims{
				"userId": "u-1",
				"sub":    "anna",
				"exp":    now.Add(-time.Minute).Unix(),
			},
			wantUser:   false,
			wantStored: false,
		},
		{
			name: "token without expiry",
			claims: jwt.MapClaims{
				"userId": "u-1",
				"sub":    "anna",
			},
			wantUser:   false,
			wantStored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secrets := NewMemorySecretStore()
			require.NoError(t, secrets.Set(KeyToken, signToken(t, tt.claims)))
			require.NoError(t, secrets.Set(KeyRole, "USER"))

			store := NewStore(secrets, zap.NewNop())
			store.now = func() time.Time { return now }

			assert.True(t, store.Loading())
			require.NoError(t, store.Restore(context.Background()))
			assert.False(t, store.Loading())

			_, ok := store.User()
			assert.Equal(t, tt.wantUser, ok)

			_, stored, err := secrets.Get(KeyToken)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, stored)
			_, storedRole, err := secrets.Get(KeyRole)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, storedRole)
		})
	}
}

func TestStoreRestore_NumericUserID(t *testing.T) {
	secrets := NewMemorySecretStore()
	require.NoError(t, secrets.Set(KeyToken, signToken(t, jwt.MapClaims{
		"userId": 42,
		"sub":    "anna",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})))
	require.NoError(t, secrets.Set(KeyRole, "USER"))

	store := NewStore(secrets, zap.NewNop())
	require.NoError(t, store.Restore(context.Background()))

	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "42", user.ID)
}

func TestStoreRestore_Empty(t *testing.T) {
	store := NewStore(NewMemorySecretStore(), zap.NewNop())

	require.NoError(t, store.Restore(context.Background()))

	assert.False(t, store.Loading())
	_, ok := store.User()
	assert.False(t, ok)
}

func TestStoreLogout_Idempotent(t *testing.T) {
	secrets := NewMemorySecretStore()
	store := NewStore(secrets, zap.NewNop())

	token := signToken(t, jwt.MapClaims{"userId": "u-1", "sub": "anna", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, store.Login(token, "USER"))

	require.NoError(t, store.Logout())
	require.NoError(t, store.Logout())

	_, ok := store.User()
	assert.False(t, ok)
	assert.Empty(t, store.Token())
}

func TestFileSecretStore(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSecretStore(dir, "passphrase")
	require.NoError(t, err)

	_, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyToken, "value"))

	v, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	other, err := NewFileSecretStore(dir, "another")
	require.NoError(t, err)
	_, _, err = other.Get(KeyToken)
	assert.Error(t, err, "wrong passphrase must not decrypt")

	require.NoError(t, s.Delete(KeyToken))
	require.NoError(t, s.Delete(KeyToken))

	_, ok, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
