package client

import "sync"

// Session holds the bearer token for one signed-in operator. It is safe for
// concurrent use.
type Session struct {
	mu        sync.RWMutex
	token     string
	onExpired func()
}

func NewSession(token string) *Session {
	return &Session{token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token and, if one was held, calls the expiry hook.
func (s *Session) Clear() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	hook := s.onExpired
	s.mu.Unlock()

	if had && hook != nil {
		hook()
	}
}

// OnExpired registers fn to run when the server rejects the token, typically
// to send the operator back to the login prompt.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}
