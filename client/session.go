package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Routes the session navigates to after establish/clear, keyed by role.
const (
	RouteLogin          = "/login"
	RouteHome           = "/"
	RouteStudentHome    = "/alumno"
	RouteSpecialistHome = "/especialista"
)

// TokenStore persists the access/refresh token pair. Implementations must
// tolerate Load on an empty store by returning empty strings, not an error.
type TokenStore interface {
	Save(access, refresh string) error
	Load() (access, refresh string, err error)
	Clear() error
}

// Navigator receives the navigation side effects the session requests
// (post-login routing, logout redirect). Implementations are free to
// ignore them.
type Navigator interface {
	NavigateTo(route string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route string)

func (f NavigatorFunc) NavigateTo(route string) { f(route) }

// Session owns the authenticated identity derived from the bearer token.
// Restore, Establish and Clear are the only mutation points and are
// serialized by a single mutex; reads may happen from any goroutine.
type Session struct {
	mu       sync.Mutex
	store    TokenStore
	nav      Navigator
	logger   *slog.Logger
	identity Identity
	access   string
	refresh  string
}

// NewSession creates a session backed by the given token store. nav may be
// nil when no navigation side effects are wanted.
func NewSession(store TokenStore, nav Navigator, logger *slog.Logger) *Session {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Session{store: store, nav: nav, logger: logger}
}

// Restore loads a previously persisted token pair and rebuilds the
// identity from the access token claims. No network I/O is performed. A
// missing or undecodable token silently resolves to the logged-out state:
// the persisted pair is cleared and no error is returned.
func (s *Session) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, refresh, err := s.store.Load()
	if err != nil || access == "" {
		s.identity = Identity{}
		s.access, s.refresh = "", ""
		return
	}

	identity, err := DecodeClaims(access)
	if err != nil {
		s.logger.DebugContext(ctx, "discarding persisted session: token undecodable",
			slog.String("error", err.Error()),
		)
		_ = s.store.Clear()
		s.identity = Identity{}
		s.access, s.refresh = "", ""
		return
	}

	s.identity = identity
	s.access, s.refresh = access, refresh
}

// Establish persists the token pair, decodes the access token into the
// identity, and navigates to the home route for the decoded role. If the
// token cannot be decoded the caller stays unauthenticated and the error
// is returned.
func (s *Session) Establish(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, err := DecodeClaims(access)
	if err != nil {
		s.logger.WarnContext(ctx, "login token undecodable",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("decode access token: %w", err)
	}

	if err := s.store.Save(access, refresh); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	s.identity = identity
	s.access, s.refresh = access, refresh

	switch identity.Role {
	case RoleStudent:
		s.nav.NavigateTo(RouteStudentHome)
	case RoleSpecialist:
		s.nav.NavigateTo(RouteSpecialistHome)
	default:
		s.nav.NavigateTo(RouteHome)
	}
	return nil
}

// Clear erases the persisted tokens, empties the identity, and navigates
// to the login route.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.store.Clear()
	s.identity = Identity{}
	s.access, s.refresh = "", ""
	s.nav.NavigateTo(RouteLogin)
}

// Identity returns the current identity. The zero value means logged out.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// IsAuthenticated reports whether an identity is established.
func (s *Session) IsAuthenticated() bool {
	return !s.Identity().IsZero()
}

// Role returns the role from the current identity, or "" when logged out.
func (s *Session) Role() string {
	return s.Identity().Role
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// DecodeClaims extracts the identity from a JWT without verifying its
// signature. Verification is the server's job; client-side the claims are
// advisory, used only for UI gating and routing.
//
// The token must have the three dot-separated segment structure; anything
// else fails the decode as a whole. Individual claim fields are optional:
// a missing or mistyped field falls back to its zero value instead of
// failing the decode.
func DecodeClaims(token string) (Identity, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return Identity{}, fmt.Errorf("token has %d segments, want 3", len(segments))
	}

	payload, err := decodeSegment(segments[1])
	if err != nil {
		return Identity{}, fmt.Errorf("decode claims segment: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return Identity{}, fmt.Errorf("parse claims JSON: %w", err)
	}

	return Identity{
		ID:            stringClaim(claims["user_id"]),
		Email:         stringClaim(claims["email"]),
		Role:          stringClaim(claims["rol"]),
		FullName:      stringClaim(claims["full_name"]),
		EmailVerified: boolClaim(claims["email_verified"]),
	}, nil
}

// stringClaim reads a claim as a string, tolerating issuers that emit
// numeric ids.
func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func boolClaim(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// decodeSegment handles both unpadded (RFC 7515) and padded base64url.
func decodeSegment(seg string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(seg)
}
