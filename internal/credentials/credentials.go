// Package credentials keeps the signed-in account's Basic pair, bearer token
// and cached profile in the session's local store.
package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
	"storefront/internal/storage"
)

// Storage keys. They are cleared together on logout.
const (
	KeyBasic = "auth_basic"
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// Store reads and writes credentials in a storage namespace.
type Store struct {
	local storage.Store
	now   func() time.Time
}

// New creates a credential store over local.
func New(local storage.Store) *Store {
	return &Store{local: local, now: time.Now}
}

// Save records a successful login. The Basic pair is what most backend calls
// attach; the bearer token is kept for logout and expiry checks.
func (s *Store) Save(ctx context.Context, email, password, token string, user *model.User) error {
	pair := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	if err := s.local.Set(ctx, KeyBasic, []byte(pair)); err != nil {
		return fmt.Errorf("saving basic credentials: %w", err)
	}
	if token != "" {
		if err := s.local.Set(ctx, KeyToken, []byte(token)); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
	}
	if user != nil {
		return s.SetUser(ctx, user)
	}
	return nil
}

// SetPassword replaces the stored Basic pair after a password change.
func (s *Store) SetPassword(ctx context.Context, password string) error {
	email := s.Email(ctx)
	if email == "" {
		return model.ErrAuthRequired
	}
	pair := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	return s.local.Set(ctx, KeyBasic, []byte(pair))
}

// SetUser caches the profile.
func (s *Store) SetUser(ctx context.Context, user *model.User) error {
	return storage.SaveJSON(ctx, s.local, KeyUser, user)
}

// User returns the cached profile, or nil.
func (s *Store) User(ctx context.Context) *model.User {
	var u model.User
	if !storage.LoadJSON(ctx, s.local, KeyUser, &u) {
		return nil
	}
	return &u
}

// BasicAuth returns the Authorization header value for Basic auth.
func (s *Store) BasicAuth(ctx context.Context) (string, bool) {
	pair, ok, err := s.local.Get(ctx, KeyBasic)
	if err != nil || !ok || len(pair) == 0 {
		return "", false
	}
	return "Basic " + string(pair), true
}

// Token returns the bearer token, or empty.
func (s *Store) Token(ctx context.Context) string {
	tok, ok, err := s.local.Get(ctx, KeyToken)
	if err != nil || !ok {
		return ""
	}
	return string(tok)
}

// Email decodes the user name half of the stored Basic pair.
func (s *Store) Email(ctx context.Context) string {
	pair, ok, err := s.local.Get(ctx, KeyBasic)
	if err != nil || !ok {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(string(pair))
	if err != nil {
		return ""
	}
	email, _, _ := strings.Cut(string(raw), ":")
	return email
}

// IsAuthenticated reports whether a Basic pair is stored and the bearer
// token, if it is a JWT, has not expired.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	if _, ok := s.BasicAuth(ctx); !ok {
		return false
	}
	return !TokenExpired(s.Token(ctx), s.now())
}

// IsAdmin reports whether the cached profile grants admin access.
func (s *Store) IsAdmin(ctx context.Context) bool {
	return s.IsAuthenticated(ctx) && s.User(ctx).Admin()
}

// Clear removes all credential keys.
func (s *Store) Clear(ctx context.Context) error {
	return s.local.Remove(ctx, KeyBasic, KeyToken, KeyUser)
}

// TokenExpired reads the exp claim without verifying the signature; the client
// never holds the signing key. Opaque or exp-less tokens never expire here.
func TokenExpired(token string, now time.Time) bool {
	if token == "" || strings.Count(token, ".") != 2 {
		return false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

