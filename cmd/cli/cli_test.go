package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamingear/console/internal/api"
	"github.com/gamingear/console/internal/models"
)

func TestRenderSession(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	soon := now.Add(90 * time.Second)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		state     models.SessionState
		expiresAt *time.Time
		contains  []string
		excludes  []string
	}{
		{
			name:     "signed out",
			state:    models.SessionState{},
			contains: []string{"signed out"},
			excludes: []string{"User:", "Expires:"},
		},
		{
			name:     "signed in without user",
			state:    models.SessionState{Authenticated: true},
			contains: []string{"signed in"},
			excludes: []string{"User:"},
		},
		{
			name: "signed in with user",
			state: models.SessionState{Authenticated: true, User: &models.User{
				UserName:  "admin",
				Email:     "admin@example.com",
				Authority: []string{"admin", "user"},
			}},
			expiresAt: &soon,
			contains:  []string{"admin", "admin@example.com", "admin, user", "1 minute, 30 seconds remaining"},
		},
		{
			name:      "expired token",
			state:     models.SessionState{Authenticated: true},
			expiresAt: &past,
			contains:  []string{"refresh pending"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := renderSessionAt(tt.state, tt.expiresAt, now)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestRenderAuthResult(t *testing.T) {
	assert.Contains(t, renderAuthResult(models.NewAuthResult(nil)), "Signed in")

	rejected := &api.Error{Kind: api.KindRejectedByServer, Message: "Invalid credentials"}
	assert.Contains(t, renderAuthResult(models.NewAuthResult(rejected)), "Failed: Invalid credentials")

	assert.Contains(t, renderAuthResult(models.NewAuthResult(errors.New("boom"))), "Failed: boom")
}

func TestPrettyBody(t *testing.T) {
	assert.Equal(t, "{\n  \"id\": 1\n}", prettyBody([]byte(`{"id":1}`)))
	assert.Equal(t, "not json", prettyBody([]byte("not json")))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateEmail("admin@example.com"))
	assert.Error(t, validateEmail("admin"))

	required := validateRequired("password")
	assert.NoError(t, required("secret"))
	assert.EqualError(t, required(""), "password is required")
}

func newConfigCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{}
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("api", "", "")
	require.NoError(t, cmd.Flags().Parse(args))

	return cmd
}

func TestPreRunConfigE(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("api:\n  base_url: http://catalog.internal\nstorage:\n  type: memory\n"), 0600))

	t.Run("loads config file", func(t *testing.T) {
		require.NoError(t, preRunConfigE(newConfigCommand(t, "--config", configFile), nil))
		assert.Equal(t, "http://catalog.internal/api", cfg.GetAPIBaseURL())
	})

	t.Run("api flag overrides", func(t *testing.T) {
		require.NoError(t, preRunConfigE(newConfigCommand(t, "--config", configFile, "--api", "https://staging.example.com"), nil))
		assert.Equal(t, "https://staging.example.com/api", cfg.GetAPIBaseURL())
	})

	t.Run("invalid api flag", func(t *testing.T) {
		err := preRunConfigE(newConfigCommand(t, "--config", configFile, "--api", "staging"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid api server url")
	})
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range GetCommandOptions().Commands() {
		names[cmd.Name()] = true
	}

	for _, name := range []string{"serve", "login", "signup", "logout", "status", "forgot-password", "reset-password", "api", "service", "version"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}
