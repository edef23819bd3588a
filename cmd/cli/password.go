package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/models"
)

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		var request models.ForgotPassword
		request.Email, _ = cmd.Flags().GetString("email")

		if len(request.Email) == 0 {
			if err := huh.NewForm(huh.NewGroup(emailInput(&request.Email))).Run(); err != nil {
				return fmt.Errorf("prompt cancelled: %w", err)
			}
		}

		manager, err := cfg.NewSessionManager()
		if err != nil {
			return err
		}
		defer manager.Close()

		err = manager.ForgotPassword(ctx, request)
		result := models.NewAuthResult(err)
		if err == nil {
			result.Message = fmt.Sprintf("Check %s for a reset link", request.Email)
		}

		fmt.Println(renderAuthResult(result))
		return err
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		var request models.ResetPassword
		request.Token, _ = cmd.Flags().GetString("token")
		request.Password, _ = cmd.Flags().GetString("password")

		var fields []huh.Field
		if len(request.Token) == 0 {
			fields = append(fields, huh.NewInput().
				Title("Reset token").
				Value(&request.Token).
				Validate(validateRequired("reset token")))
		}
		if len(request.Password) == 0 {
			fields = append(fields, passwordInput(&request.Password))
		}
		if len(fields) > 0 {
			if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
				return fmt.Errorf("prompt cancelled: %w", err)
			}
		}

		manager, err := cfg.NewSessionManager()
		if err != nil {
			return err
		}
		defer manager.Close()

		err = manager.ResetPassword(ctx, request)
		result := models.NewAuthResult(err)
		if err == nil {
			result.Message = fmt.Sprintf("Password updated, run '%s login' to sign in", common.AppName)
		}

		fmt.Println(renderAuthResult(result))
		return err
	},
}

func init() {
	forgotPasswordCmd.Flags().String("email", "", "Account email")

	resetPasswordCmd.Flags().String("token", "", "Token from the reset email")
	resetPasswordCmd.Flags().String("password", "", "New password")

	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)
}
