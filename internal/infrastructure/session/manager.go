package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Manager binds sessions to requests through a cookie
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *zap.Logger
}

// NewManager creates a session manager on store
func NewManager(store Store, cfg config.SessionConfig, logger *zap.Logger) *Manager {
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		logger:     logger.Named("sessions"),
	}
}

// Store returns the underlying session store
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the session named by the request cookie. Missing, expired
// or unreadable sessions are replaced by a new one. A session past half its
// lifetime gets a fresh expiry.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		s, err := m.store.Get(r.Context(), cookie.Value)
		switch {
		case err == nil:
			s.Renew(time.Now().UTC(), m.ttl)
			return s, nil
		case errors.Is(err, ErrSessionNotFound):
		default:
			m.logger.Warn("Session store read failed, starting a new session", zap.Error(err))
		}
	}

	s, err := New(m.ttl)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Commit stores s when it changed and sets the cookie for new or renewed
// sessions.
// It must run before the response header is written.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.Modified() {
		return nil
	}

	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if s.isNew || s.renewed {
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  s.ExpiresAt,
			MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		})
	}

	s.isNew = false
	s.modified = false
	s.renewed = false
	return nil
}
