package cli

import (
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/agent"
	"github.com/gamingear/console/internal/common"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Service management commands",
	Long:  `Manage the console shell as a system service`,
}

func createServiceOrExit() service.Service {
	s, err := agent.CreateService(cfg)
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	return s
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the shell as a system service",
	Long:  `Install the console shell as a system service that will start automatically on boot`,
	Run: func(cmd *cobra.Command, args []string) {
		s := createServiceOrExit()

		err := s.Install()
		if err != nil {
			fmt.Printf("Failed to install service: %v\n", err)
			printInstallInstructions()
			os.Exit(1)
		}

		fmt.Println(successStyle.Render("Console service installed successfully"))
		fmt.Printf("   Use '%s service start' to start the service\n", common.AppName)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the console service",
	Run: func(cmd *cobra.Command, args []string) {
		s := createServiceOrExit()

		err := s.Start()
		if err != nil {
			fmt.Printf("Failed to start service: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(successStyle.Render("Console service started successfully"))
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the console service",
	Run: func(cmd *cobra.Command, args []string) {
		s := createServiceOrExit()

		err := s.Stop()
		if err != nil {
			fmt.Printf("Failed to stop service: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(successStyle.Render("Console service stopped successfully"))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the console service status",
	Run: func(cmd *cobra.Command, args []string) {
		s := createServiceOrExit()

		status, err := s.Status()
		if err != nil {
			fmt.Printf("Failed to get service status: %v\n", err)
			os.Exit(1)
		}

		var statusText string
		switch status {
		case service.StatusRunning:
			statusText = activeStyle.Render("Running")
		case service.StatusStopped:
			statusText = expiredStyle.Render("Stopped")
		default:
			statusText = warningStyle.Render("Unknown")
		}

		fmt.Printf("Console Service Status: %s\n", statusText)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall the console service",
	Run: func(cmd *cobra.Command, args []string) {
		s := createServiceOrExit()

		// Stop the service first if it's running
		err := s.Stop()
		if err != nil {
			// Don't fail if service is already stopped
			fmt.Println("Service was not running")
		}

		err = s.Uninstall()
		if err != nil {
			fmt.Printf("Failed to uninstall service: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(successStyle.Render("Console service uninstalled successfully"))
	},
}

func printInstallInstructions() {
	exePath, _ := os.Executable()
	fmt.Println("\nService installation failed. You may need to run with elevated privileges:")
	fmt.Println("\nLinux:")
	fmt.Printf("   sudo %s service install\n", exePath)
	fmt.Println("\nWindows:")
	fmt.Printf("   Run as Administrator: %s service install\n", exePath)
	fmt.Println("\nmacOS:")
	fmt.Printf("   sudo %s service install\n", exePath)
}

func init() {

	rootCmd.AddCommand(serviceCmd) // Service management commands
	serviceCmd.AddCommand(installCmd)
	serviceCmd.AddCommand(startCmd)
	serviceCmd.AddCommand(stopCmd)
	serviceCmd.AddCommand(statusCmd)
	serviceCmd.AddCommand(removeCmd)
}
