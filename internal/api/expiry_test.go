package api

import (
	"testing"
	"time"

	"github.com/gamingear/console/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt *time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: "1"}
	if expiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*expiresAt)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestResolveExpiry(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	jwtExpiry := now.Add(30 * time.Minute)

	tests := []struct {
		name     string
		resp     *models.TokenResponse
		expected *time.Time
	}{
		{
			name:     "nil response",
			resp:     nil,
			expected: nil,
		},
		{
			name:     "explicit expiresAt",
			resp:     &models.TokenResponse{Token: "opaque", ExpiresAt: "2026-10-15T13:00:00Z"},
			expected: ptr(time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)),
		},
		{
			name:     "expiresIn relative to now",
			resp:     &models.TokenResponse{Token: "opaque", ExpiresIn: 600},
			expected: ptr(now.Add(10 * time.Minute)),
		},
		{
			name:     "jwt exp claim",
			resp:     &models.TokenResponse{Token: signedToken(t, &jwtExpiry)},
			expected: ptr(jwtExpiry),
		},
		{
			name:     "unparsable expiresAt falls through to expiresIn",
			resp:     &models.TokenResponse{Token: "opaque", ExpiresAt: "tomorrow", ExpiresIn: 60},
			expected: ptr(now.Add(time.Minute)),
		},
		{
			name:     "opaque token without hints",
			resp:     &models.TokenResponse{Token: "opaque"},
			expected: nil,
		},
		{
			name:     "jwt without exp",
			resp:     &models.TokenResponse{Token: signedToken(t, nil)},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveExpiry(tt.resp, now)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
