package client

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tush00nka/bbbab_chat/internal/model"
)

// Session is the identity a caller acts as. It is passed explicitly to every
// authenticated call.
type Session struct {
	Token     string
	User      model.User
	ExpiresAt time.Time
}

func newSession(token string, user *model.User) *Session {
	s := &Session{Token: token}
	if user != nil {
		s.User = *user
	}
	// The signature is the server's business; the client only reads exp.
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.Token == "" || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// SessionManager owns the token and user lifecycle for one signed-in user.
type SessionManager struct {
	client *Client
	now    func() time.Time

	mu      sync.RWMutex
	current *Session
}

func NewSessionManager(c *Client) *SessionManager {
	return &SessionManager{client: c, now: time.Now}
}

func (m *SessionManager) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	s, err := m.client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	m.set(s)
	return s, nil
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, error) {
	s, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.set(s)
	return s, nil
}

// Current returns the active session, or ErrNoSession once it has been
// cleared or its token has expired.
func (m *SessionManager) Current() (*Session, error) {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()

	if s.Expired(m.now()) {
		return nil, ErrNoSession
	}
	return s, nil
}

func (m *SessionManager) Logout() {
	m.set(nil)
}

func (m *SessionManager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}
