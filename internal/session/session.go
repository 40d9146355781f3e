// Package session maps a signed browser cookie to one storefront session:
// its local store namespace, credentials, cart/wishlist store and orders.
//
// Sessions live in memory while active and are evicted after an idle TTL.
// Their persisted state stays in the backing store, so a returning cookie
// rebuilds the session the way a page reload restores browser storage.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/adapter"
	"storefront/internal/credentials"
	"storefront/internal/metrics"
	"storefront/internal/orders"
	"storefront/internal/shop"
	"storefront/internal/storage"
)

// DefaultCookieName is the session cookie.
const DefaultCookieName = "sf_session"

// ErrInvalidCookie is returned for cookies that fail signature or format checks.
var ErrInvalidCookie = errors.New("invalid session cookie")

// BackendFactory returns a backend bound to one session's credentials.
type BackendFactory func(creds *credentials.Store) adapter.Backend

// Config holds session settings.
type Config struct {
	Secret     []byte
	CookieName string
	IdleTTL    time.Duration
	Secure     bool
	Mirror     shop.MirrorConfig
}

// Session is one visitor's state.
type Session struct {
	ID      string
	Local   storage.Store
	Creds   *credentials.Store
	Backend adapter.Backend
	Shop    *shop.Store
	Orders  *orders.Store
	Logger  *slog.Logger

	mirror   *shop.Mirror
	mu       sync.Mutex
	lastSeen time.Time
}

// Observe feeds the current authentication value to the stores. Reconciliation
// errors land in the shop's error slot and are only logged here.
func (s *Session) Observe(ctx context.Context) {
	authenticated := s.Creds.IsAuthenticated(ctx)
	if !authenticated {
		s.Orders.Reset()
	}
	if err := s.Shop.ObserveAuth(ctx, authenticated); err != nil {
		s.Logger.Warn("reconciliation failed", "error", err)
	}
}

// Logout revokes the token (best effort), clears credentials and wipes the
// stores.
func (s *Session) Logout(ctx context.Context) error {
	if s.Creds.Token(ctx) != "" {
		if err := s.Backend.Logout(ctx); err != nil {
			s.Logger.Warn("backend logout failed", "error", err)
		}
	}
	if err := s.Creds.Clear(ctx); err != nil {
		return err
	}
	s.Orders.Reset()
	s.Shop.EndSession(ctx)
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Manager owns the in-memory sessions.
type Manager struct {
	cfg        Config
	store      storage.Namespacer
	newBackend BackendFactory
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cfg Config, store storage.Namespacer, newBackend BackendFactory, logger *slog.Logger) (*Manager, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Mirror.MaxAttempts == 0 {
		cfg.Mirror = shop.DefaultMirrorConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		store:      store,
		newBackend: newBackend,
		logger:     logger,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}, nil
}

// Resolve returns the request's session, creating one (and setting the
// cookie) when the cookie is missing or invalid.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		if id, err := m.verify(c.Value); err == nil {
			return m.load(ctx, id)
		}
		m.logger.Debug("discarding invalid session cookie", "remote", r.RemoteAddr)
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    m.sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.load(ctx, id)
}

// Get returns an in-memory session by ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// load returns the live session for id, rebuilding it from storage if needed.
func (m *Manager) load(ctx context.Context, id string) *Session {
	now := m.now()
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		s.touch(now)
		return s
	}
	s := m.build(ctx, id)
	s.touch(now)
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	s.Shop.NormalizeLegacy(ctx)
	return s
}

func (m *Manager) build(ctx context.Context, id string) *Session {
	local := m.store.Namespace(id)
	creds := credentials.New(local)
	backend := m.newBackend(creds)
	logger := m.logger.With("session_id", id)
	mirror := shop.NewMirror(m.cfg.Mirror, logger)
	return &Session{
		ID:      id,
		Local:   local,
		Creds:   creds,
		Backend: backend,
		Shop:    shop.New(ctx, backend, creds, local, shop.WithLogger(logger), shop.WithMirror(mirror)),
		Orders:  orders.New(backend, creds, logger),
		Logger:  logger,
		mirror:  mirror,
	}
}

// Sweep evicts sessions idle longer than the TTL, draining their mirrors.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTTL {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		s.close(ctx)
	}
	if len(idle) > 0 {
		m.logger.Debug("evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.IdleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close drains and stops every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, s := range all {
		s.close(ctx)
	}
}

// Len returns the number of in-memory sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (s *Session) close(ctx context.Context) {
	if err := s.mirror.Drain(ctx); err != nil {
		s.Logger.Warn("session closed with pending backend writes", "pending", s.mirror.Pending())
	}
	s.mirror.Close()
}

// sign returns "id.mac" with a base64url HMAC-SHA256 of id.
func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.cfg.Secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok {
		return "", ErrInvalidCookie
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrInvalidCookie
	}
	if !hmac.Equal([]byte(m.sign(id)), []byte(id+"."+sig)) {
		return "", ErrInvalidCookie
	}
	return id, nil
}

type ctxKey struct{}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Middleware resolves the session, observes authentication, then calls next
// with the session in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Resolve(r.Context(), w, r)
		s.Observe(r.Context())
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
