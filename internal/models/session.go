package models

import (
	"time"
)

// Session is the in-memory record of the console's authentication status.
// Only the session manager mutates it; everything else reads snapshots.
type Session struct {
	SignedIn bool   `json:"signedIn"`
	Token    string `json:"token,omitempty"`
	User     *User  `json:"user,omitempty"`
}

// IsAuthenticated requires both a bearer token and the signed in flag.
func (s Session) IsAuthenticated() bool {
	return len(s.Token) > 0 && s.SignedIn
}

// IsEmpty reports whether the session holds no authentication state at all.
func (s Session) IsEmpty() bool {
	return !s.SignedIn && len(s.Token) == 0 && s.User == nil
}

// SessionState is what observers (route guards, headers, the CLI) see.
type SessionState struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

func (s Session) State() SessionState {
	var user *User
	if s.User != nil {
		copied := *s.User
		user = &copied
	}
	return SessionState{
		Authenticated: s.IsAuthenticated(),
		User:          user,
	}
}

// Token is a bearer credential as issued by the remote API.
type Token struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// ExpiresWithin reports whether the token expires within the given window.
// Tokens without an expiry never do.
func (t Token) ExpiresWithin(now time.Time, window time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-window))
}
