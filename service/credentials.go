package service

import (
	"context"
	"strings"
	"sync"
)

// CredentialProvider supplies the bearer token for a workflow run
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialProvider holding a fixed token
type StaticToken string

// Token returns the token, or ErrAuthMissing when it is blank
func (t StaticToken) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", ErrAuthMissing
	}
	return token, nil
}

// CredentialFunc adapts a function to CredentialProvider
type CredentialFunc func(ctx context.Context) (string, error)

// Token calls f
func (f CredentialFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// SessionToken is a CredentialProvider whose token is replaced by each
// request made on behalf of a mounted view
type SessionToken struct {
	mu    sync.RWMutex
	token string
}

// Set replaces the token
func (s *SessionToken) Set(token string) {
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
}

// Token returns the latest token, or ErrAuthMissing when none was set
func (s *SessionToken) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrAuthMissing
	}
	return s.token, nil
}
