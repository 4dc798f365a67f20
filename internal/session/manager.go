package session

import (
	"context"
	"fmt"
	"time"

	"campusdate/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Key is the storage key holding the serialized session
const Key = "user"

// Manager is the single typed accessor for the signed-in session
type Manager struct {
	store *Store
	log   zerolog.Logger
}

// NewManager creates a session manager over store
func NewManager(store *Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   logger.With().Str("component", "session").Logger(),
	}
}

// GetSession returns the stored session, if one exists and is well formed
func (m *Manager) GetSession(ctx context.Context) (*models.Session, bool) {
	var s models.Session
	if !m.store.Get(ctx, Key, &s) {
		return nil, false
	}
	if err := s.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("Ignoring malformed stored session")
		return nil, false
	}
	return &s, true
}

// SetSession validates and persists s
func (m *Manager) SetSession(ctx context.Context, s models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to store session: %w", err)
	}
	m.store.Save(ctx, Key, s)
	m.log.Info().Int64("user_id", s.User.UserID).Msg("Session stored")
	return nil
}

// UpdateUser replaces the profile snapshot and keeps the token
func (m *Manager) UpdateUser(ctx context.Context, snapshot models.UserSnapshot) error {
	s, ok := m.GetSession(ctx)
	if !ok {
		return fmt.Errorf("no session to update")
	}
	s.User = snapshot
	return m.SetSession(ctx, *s)
}

// ClearSession destroys the session
func (m *Manager) ClearSession(ctx context.Context) {
	m.store.Remove(ctx, Key)
	m.log.Info().Msg("Session cleared")
}

// Token returns the bearer token of the current session, or ""
func (m *Manager) Token(ctx context.Context) string {
	s, ok := m.GetSession(ctx)
	if !ok {
		return ""
	}
	return s.Token
}

// UserID returns the signed-in user id
func (m *Manager) UserID(ctx context.Context) (int64, bool) {
	s, ok := m.GetSession(ctx)
	if !ok {
		return 0, false
	}
	return s.User.UserID, true
}

// ExpiresAt reads the exp claim of the session token. The signature is not
// verified; the server remains the authority on validity.
func (m *Manager) ExpiresAt(ctx context.Context) (time.Time, bool) {
	token := m.Token(ctx)
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
