package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/config"
	"github.com/gamingear/console/internal/sessions"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Get the api server override from the flag
	apiServer, err := cmd.Flags().GetString("api")
	if err == nil && len(apiServer) > 0 {
		if !common.IsValidAPIServer(apiServer) {
			return fmt.Errorf("invalid api server url: %s", apiServer)
		}
		cfg.SetAPIBaseURL(apiServer)
	}

	return nil
}

// restoreSession revalidates the persisted session, if there is one. It
// reports whether a session is active afterwards.
func restoreSession(ctx context.Context, manager *sessions.Manager) (bool, error) {
	var err error

	spinErr := spinner.New().
		Title("Checking session...").
		Context(ctx).
		Action(func() {
			err = manager.Rehydrate(ctx)
		}).
		Run()

	if spinErr != nil {
		return false, spinErr
	}

	if errors.Is(err, sessions.ErrNoPersistedSession) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return manager.IsAuthenticated(), nil
}

// requireSession restores the persisted session or fails with a hint to
// sign in first.
func requireSession(ctx context.Context, manager *sessions.Manager) error {
	active, err := restoreSession(ctx, manager)
	if err != nil {
		return fmt.Errorf("session is no longer valid: %w", err)
	}
	if !active {
		return fmt.Errorf("not signed in, run '%s login' first", common.AppName)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   common.AppName,
	Short: "Catalog Console - admin shell for the catalog API",
	Long: `Catalog Console signs administrators in to the catalog API and keeps
their session alive. It can run as a local shell that serves the console
pages and proxies catalog requests with the session's bearer token.`,
	PersistentPreRunE: preRunConfigE,
	RunE:              runStatus,
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/console/config.yaml)")
	// Add the api server flag
	rootCmd.PersistentFlags().String("api", "", "Override the catalog API base URL (e.g., http://localhost:5000)")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
