package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"9m", 9 * time.Minute, false},
		{" 60s ", time.Minute, false},
		{"PT9M", 9 * time.Minute, false},
		{"PT1H30M", 90 * time.Minute, false},
		{"P1D", 24 * time.Hour, false},
		{"nine minutes", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateDuration(t *testing.T) {
	got, err := ValidateDuration("PT9M")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Minute, got)

	_, err = ValidateDuration("30s")
	assert.Error(t, err)
}

func TestFormatDurationRemaining(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0 seconds"},
		{-time.Minute, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute, 1 second"},
		{9 * time.Minute, "9 minutes"},
		{26*time.Hour + 2*time.Minute, "1 day, 2 hours, 2 minutes"},
		{48 * time.Hour, "2 days"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDurationRemaining(tt.input), tt.input.String())
	}
}
