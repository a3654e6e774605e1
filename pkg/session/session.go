// Package session owns the bearer credential used for every call to the
// service and refreshes it before it runs out.
//
// A token is valid for ValidityWindow after it was issued. Token refreshes
// synchronously once less than SafetyMargin of that window remains, and only
// one login is ever in flight: concurrent callers wait for its result.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var tokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "thema_token_refreshes_total",
	Help: "Token refresh attempts by outcome (success, failure)",
}, []string{"outcome"})

const (
	// DefaultValidityWindow is how long the service honours a token.
	DefaultValidityWindow = 600 * time.Second

	// DefaultSafetyMargin is the minimum remaining validity a token must have
	// to be used for a call.
	DefaultSafetyMargin = 20 * time.Second
)

// ErrEmptyToken is returned when a login succeeds but yields no token.
var ErrEmptyToken = errors.New("authentication returned an empty token")

// Authenticator performs the login exchange and returns a fresh token.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) (string, error)

// Authenticate calls f(ctx).
func (f AuthenticatorFunc) Authenticate(ctx context.Context) (string, error) {
	return f(ctx)
}

// Config holds session timing.
type Config struct {
	ValidityWindow time.Duration
	SafetyMargin   time.Duration

	// Clock returns the current time (default: time.Now)
	Clock func() time.Time
}

// DefaultConfig returns the service's token timing.
func DefaultConfig() Config {
	return Config{
		ValidityWindow: DefaultValidityWindow,
		SafetyMargin:   DefaultSafetyMargin,
		Clock:          time.Now,
	}
}

// Session holds the current token. It is safe for concurrent use.
type Session struct {
	auth   Authenticator
	config Config
	logger zerolog.Logger

	mu       sync.RWMutex
	token    string
	issuedAt time.Time

	refresh singleflight.Group
}

// New creates a session. No login happens until the first Token call.
func New(auth Authenticator, cfg Config, logger zerolog.Logger) *Session {
	if cfg.ValidityWindow <= 0 {
		cfg.ValidityWindow = DefaultValidityWindow
	}
	if cfg.SafetyMargin < 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Session{
		auth:   auth,
		config: cfg,
		logger: logger,
	}
}

// Token returns a token with at least SafetyMargin of validity left,
// logging in first when needed.
func (s *Session) Token(ctx context.Context) (string, error) {
	if tok, ok := s.current(); ok {
		return tok, nil
	}

	ch := s.refresh.DoChan("login", func() (any, error) {
		// another caller may have refreshed while we were queued
		if tok, ok := s.current(); ok {
			return tok, nil
		}
		return s.login(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Session) current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	now := s.config.Clock()
	if s.issuedAt.Add(s.config.ValidityWindow).Before(now.Add(s.config.SafetyMargin)) {
		return "", false
	}
	return s.token, true
}

func (s *Session) login(ctx context.Context) (string, error) {
	tok, err := s.auth.Authenticate(ctx)
	if err == nil && tok == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		tokenRefreshesTotal.WithLabelValues("failure").Inc()
		s.logger.Error().Err(err).Msg("Authentication failed")
		return "", err
	}

	issued := s.config.Clock()
	s.mu.Lock()
	s.token = tok
	s.issuedAt = issued
	s.mu.Unlock()

	tokenRefreshesTotal.WithLabelValues("success").Inc()
	s.logger.Debug().
		Time("issued_at", issued).
		Dur("valid_for", s.config.ValidityWindow).
		Msg("Token refreshed")
	return tok, nil
}

// Invalidate drops the token if it is still stale, so the next Token call
// logs in again. A token that was already replaced by a newer login is kept.
func (s *Session) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
		s.issuedAt = time.Time{}
	}
}

// Valid reports whether a usable token is held.
func (s *Session) Valid() bool {
	_, ok := s.current()
	return ok
}

// IssuedAt returns when the current token was issued, zero if none is held.
func (s *Session) IssuedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issuedAt
}
