package api

import (
	"time"

	"github.com/gamingear/console/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ResolveExpiry works out when the token in resp expires: an explicit
// expiresAt wins, then expiresIn relative to now, then the JWT exp claim.
// The JWT is read without verification, the signature is the server's
// business. Returns nil when none of these are available.
func ResolveExpiry(resp *models.TokenResponse, now time.Time) *time.Time {
	if resp == nil {
		return nil
	}

	if len(resp.ExpiresAt) > 0 {
		if expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
			expiresAt = expiresAt.UTC()
			return &expiresAt
		}
		logrus.WithFields(logrus.Fields{
			"expiresAt": resp.ExpiresAt,
		}).Warnln("Ignoring unparsable token expiry")
	}

	if resp.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
		return &expiresAt
	}

	return TokenExpiry(resp.Token)
}

// TokenExpiry returns the exp claim of a JWT access token, or nil for
// opaque tokens and tokens without one.
func TokenExpiry(token string) *time.Time {
	if len(token) == 0 {
		return nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logrus.WithError(err).Debugln("Access token is not a JWT, expiry unknown")
		return nil
	}

	if claims.ExpiresAt == nil {
		return nil
	}

	expiresAt := claims.ExpiresAt.Time.UTC()
	return &expiresAt
}
