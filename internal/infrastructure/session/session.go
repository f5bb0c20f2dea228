// Package session keeps per-visitor state between requests: the
// anti-forgery token, one-shot flash messages and the last rejected form.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"maps"
	"time"
)

// MessageKey is the flash slot used for the status banner of the listing page
const MessageKey = "message"

// FlashKind selects how a flash message is presented
type FlashKind string

const (
	FlashError      FlashKind = "error"
	FlashValidation FlashKind = "validation"
	FlashSuccess    FlashKind = "success"
)

// Flash is a message shown once on the next rendered page
type Flash struct {
	Kind FlashKind `json:"type"`
	Text string    `json:"text"`
}

// Session represents a visitor session
type Session struct {
	ID        string            `json:"id"`
	CSRFToken string            `json:"csrf_token"`
	Flashes   map[string]Flash  `json:"flashes,omitempty"`
	OldInput  map[string]string `json:"old_input,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`

	isNew    bool
	modified bool
	renewed  bool
}

// New creates an unsaved session that expires after ttl
func New(ttl time.Duration) (*Session, error) {
	id, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now().UTC()
	return &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		isNew:     true,
		modified:  true,
	}, nil
}

// IsNew reports whether the session has never been stored
func (s *Session) IsNew() bool {
	return s.isNew
}

// Modified reports whether the session changed since it was loaded
func (s *Session) Modified() bool {
	return s.modified
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Renew pushes the expiry to now+ttl once less than half of ttl remains.
// It reports whether the expiry moved.
func (s *Session) Renew(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || s.ExpiresAt.Sub(now) >= ttl/2 {
		return false
	}
	s.ExpiresAt = now.Add(ttl)
	s.modified = true
	s.renewed = true
	return true
}

// Token returns the session's anti-forgery token, issuing one on first use
func (s *Session) Token() (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}

	token, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	s.CSRFToken = token
	s.modified = true

	return token, nil
}

// ValidToken compares candidate with the issued token in constant time.
// A session without a token accepts nothing.
func (s *Session) ValidToken(candidate string) bool {
	if s.CSRFToken == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(candidate)) == 1
}

// SetFlash stores a message for the next page render
func (s *Session) SetFlash(key string, flash Flash) {
	if s.Flashes == nil {
		s.Flashes = make(map[string]Flash)
	}
	s.Flashes[key] = flash
	s.modified = true
}

// PopFlash returns and clears the message stored under key
func (s *Session) PopFlash(key string) (Flash, bool) {
	flash, ok := s.Flashes[key]
	if !ok {
		return Flash{}, false
	}
	delete(s.Flashes, key)
	s.modified = true
	return flash, true
}

// SetOldInput remembers submitted form values so the form can be refilled
func (s *Session) SetOldInput(values map[string]string) {
	s.OldInput = maps.Clone(values)
	s.modified = true
}

// PopOldInput returns and clears the remembered form values
func (s *Session) PopOldInput() map[string]string {
	if s.OldInput == nil {
		return map[string]string{}
	}
	values := s.OldInput
	s.OldInput = nil
	s.modified = true
	return values
}

// Clone returns a deep copy with the change tracking reset
func (s *Session) Clone() *Session {
	c := *s
	c.Flashes = maps.Clone(s.Flashes)
	c.OldInput = maps.Clone(s.OldInput)
	c.isNew = false
	c.modified = false
	c.renewed = false
	return &c
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
