package client

import (
	"context"
	"net/http"
	"sync"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/service"
)

// Session holds the token pair of one signed-in user. It is safe to share
// between goroutines; a refresh replaces both tokens.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         service.UserResponse
}

func NewSession(accessToken, refreshToken string) *Session {
	return &Session{accessToken: accessToken, refreshToken: refreshToken}
}

// Tokens returns the current access and refresh tokens.
func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) User() service.UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) update(tokens service.TokenResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tokens.Token
	s.refreshToken = tokens.RefreshToken
	s.user = tokens.User
}

// Login signs in by username or email and returns a new session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var tokens service.TokenResponse
	err := c.send(ctx, "", request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   service.LoginUserRequest{Username: username, Password: password},
	}, &tokens)
	if err != nil {
		return nil, err
	}

	s := &Session{}
	s.update(tokens)
	return s, nil
}

// Refresh rotates the session's refresh token into a new token pair.
func (c *Client) Refresh(ctx context.Context, s *Session) error {
	if s == nil {
		return apperr.Unauthorized("no session")
	}
	_, refresh := s.Tokens()
	if refresh == "" {
		return apperr.Unauthorized("session has no refresh token")
	}

	var tokens service.TokenResponse
	err := c.send(ctx, "", request{
		method: http.MethodPost,
		path:   "/api/auth/refresh",
		body:   service.RefreshTokenRequest{RefreshToken: refresh},
	}, &tokens)
	if err != nil {
		return err
	}

	s.update(tokens)
	return nil
}
