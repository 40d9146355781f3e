package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/storage"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)
	return s
}

func TestSaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())

	assert.False(t, s.IsAuthenticated(ctx))

	user := &model.User{ID: "u1", Name: "Rahim", Email: "rahim@example.com"}
	require.NoError(t, s.Save(ctx, "rahim@example.com", "pa:ss", "opaque", user))

	header, ok := s.BasicAuth(ctx)
	require.True(t, ok)
	// base64("rahim@example.com:pa:ss")
	assert.Equal(t, "Basic cmFoaW1AZXhhbXBsZS5jb206cGE6c3M=", header)
	assert.Equal(t, "opaque", s.Token(ctx))
	assert.Equal(t, "rahim@example.com", s.Email(ctx))
	assert.Equal(t, "Rahim", s.User(ctx).Name)
	assert.True(t, s.IsAuthenticated(ctx))
	assert.False(t, s.IsAdmin(ctx))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	s := New(local)
	require.NoError(t, s.Save(ctx, "a@example.com", "pw", "tok", &model.User{Role: "admin"}))
	require.True(t, s.IsAdmin(ctx))

	require.NoError(t, s.Clear(ctx))

	for _, k := range []string{KeyBasic, KeyToken, KeyUser} {
		_, ok, err := local.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be cleared", k)
	}
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Nil(t, s.User(ctx))
}

func TestExpiredJWTIsNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "a@example.com", "pw", signedToken(t, now.Add(time.Hour)), nil))
	assert.True(t, s.IsAuthenticated(ctx))

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, TokenExpired("", now))
	assert.False(t, TokenExpired("opaque-session-token", now))
	assert.False(t, TokenExpired("a.b.c", now))
	assert.True(t, TokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	assert.False(t, TokenExpired(signedToken(t, now.Add(time.Minute)), now))
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())
	assert.ErrorIs(t, s.SetPassword(ctx, "new"), model.ErrAuthRequired)

	require.NoError(t, s.Save(ctx, "a@example.com", "old", "", nil))
	require.NoError(t, s.SetPassword(ctx, "new"))

	header, _ := s.BasicAuth(ctx)
	assert.Equal(t, "Basic YUBleGFtcGxlLmNvbTpuZXc=", header)
}
