// Package portalclient is a Go client for the college portal API. It
// holds the token pair in an explicit Session (scoped to one logged-in
// user, not a package-level singleton) and transparently refreshes the
// access token once when a request comes back 401.
package portalclient

import "sync"

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the mutable token holder. Safe for concurrent use; a
// cleared session means logged out.
type Session struct {
	mu   sync.RWMutex
	pair *TokenPair
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Set(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := pair
	s.pair = &p
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = nil
}

// Pair returns the held tokens, ok=false when logged out.
func (s *Session) Pair() (TokenPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pair == nil {
		return TokenPair{}, false
	}

	return *s.pair, true
}

func (s *Session) LoggedIn() bool {
	_, ok := s.Pair()
	return ok
}
