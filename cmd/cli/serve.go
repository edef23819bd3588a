package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/agent"
	"github.com/gamingear/console/internal/common"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console shell",
	Long:  "Serves the console entry pages and the auth endpoints, and proxies catalog requests with the session's token until interrupted",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		if flags.Changed("host") {
			cfg.Server.Host, _ = flags.GetString("host")
		}
		if flags.Changed("port") {
			cfg.Server.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("rehydrate") {
			cfg.Session.Rehydrate, _ = flags.GetBool("rehydrate")
		}

		if flags.Changed("refresh-interval") {
			value, _ := flags.GetString("refresh-interval")
			interval, err := common.ValidateDuration(value)
			if err != nil {
				return fmt.Errorf("invalid refresh interval: %w", err)
			}
			cfg.Refresh.Interval = interval
		}

		if flags.Changed("refresh-threshold") {
			value, _ := flags.GetString("refresh-threshold")
			threshold, err := common.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid refresh threshold: %w", err)
			}
			cfg.Refresh.Threshold = threshold
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		console, err := agent.StartConsole(ctx, cfg)
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render("Console shell running"))
		fmt.Printf("Open %s\n", infoStyle.Render(cfg.GetLocalServerUrl()))

		<-ctx.Done()

		logrus.Debugln("Interrupt received, stopping console shell")
		console.Stop()

		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "", "Address to bind the shell to")
	serveCmd.Flags().Int("port", 0, "Port to bind the shell to")
	serveCmd.Flags().Bool("rehydrate", false, "Revalidate the persisted session on startup")
	serveCmd.Flags().String("refresh-interval", "", "How often to check the token expiry (e.g. 9m or PT9M)")
	serveCmd.Flags().String("refresh-threshold", "", "Refresh when the token expires within this window (e.g. 60s or PT1M)")

	rootCmd.AddCommand(serveCmd)
}
