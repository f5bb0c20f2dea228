package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. Implementations are safe for concurrent use and
// never share a *Session between callers.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// NewStore builds the store selected by session.store
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Session.Store {
	case "", "memory":
		return NewMemoryStore(cfg.Session.CleanupInterval, logger), nil
	case "redis":
		return NewRedisStore(NewRedisClient(cfg), cfg.Session.KeyPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}
