package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/models"
	"github.com/gamingear/console/internal/sessions"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the catalog API",
	Long:  "Signs in with an email and password and persists the session for later commands and the shell",
	RunE:  runLogin,
}

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  runSignUp,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	RunE:  runLogout,
}

func validateEmail(value string) error {
	if !common.IsValidEmail(value) {
		return errors.New("please enter a valid email address")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(value string) error {
		if len(value) == 0 {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func emailInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("Email").
		Value(value).
		Validate(validateEmail)
}

func passwordInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(value).
		Validate(validateRequired("password"))
}

// promptSignIn asks for whichever sign in fields were not passed as flags.
func promptSignIn(credential *models.SignInCredential) error {
	var fields []huh.Field

	if len(credential.Email) == 0 {
		fields = append(fields, emailInput(&credential.Email))
	}
	if len(credential.Password) == 0 {
		fields = append(fields, passwordInput(&credential.Password))
	}
	if len(fields) == 0 {
		return nil
	}

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func promptSignUp(credential *models.SignUpCredential) error {
	var fields []huh.Field

	if len(credential.UserName) == 0 {
		fields = append(fields, huh.NewInput().
			Title("User name").
			Value(&credential.UserName).
			Validate(validateRequired("user name")))
	}
	if len(credential.Email) == 0 {
		fields = append(fields, emailInput(&credential.Email))
	}
	if len(credential.Password) == 0 {
		fields = append(fields, passwordInput(&credential.Password))
	}
	if len(fields) == 0 {
		return nil
	}

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// authenticate runs a sign in style operation behind a spinner and prints
// its outcome the way the console's forms display it.
func authenticate(ctx context.Context, title string, manager *sessions.Manager, action func(context.Context) error) error {
	var err error

	spinErr := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() {
			err = action(ctx)
		}).
		Run()

	if spinErr != nil {
		return spinErr
	}

	fmt.Println(renderAuthResult(models.NewAuthResult(err)))

	if err != nil {
		return err
	}

	fmt.Print(renderSession(manager.State(), manager.ExpiresAt()))
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	var credential models.SignInCredential
	credential.Email, _ = cmd.Flags().GetString("email")
	credential.Password, _ = cmd.Flags().GetString("password")

	if err := promptSignIn(&credential); err != nil {
		return fmt.Errorf("login prompt cancelled: %w", err)
	}

	manager, err := cfg.NewSessionManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	return authenticate(ctx, "Signing in...", manager, func(ctx context.Context) error {
		return manager.SignIn(ctx, credential)
	})
}

func runSignUp(cmd *cobra.Command, args []string) error {
	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	var credential models.SignUpCredential
	credential.UserName, _ = cmd.Flags().GetString("username")
	credential.Email, _ = cmd.Flags().GetString("email")
	credential.Password, _ = cmd.Flags().GetString("password")

	if err := promptSignUp(&credential); err != nil {
		return fmt.Errorf("sign up prompt cancelled: %w", err)
	}

	manager, err := cfg.NewSessionManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	return authenticate(ctx, "Creating account...", manager, func(ctx context.Context) error {
		return manager.SignUp(ctx, credential)
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	skipConfirm, _ := cmd.Flags().GetBool("yes")

	if !skipConfirm {
		var confirmed bool

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Sign out of the catalog console?").
					Description("The persisted session is removed for the shell as well").
					Value(&confirmed),
			),
		)

		if err := form.Run(); err != nil {
			return fmt.Errorf("logout prompt cancelled: %w", err)
		}

		if !confirmed {
			fmt.Println("Logout cancelled.")
			return nil
		}
	}

	manager, err := cfg.NewSessionManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	manager.SignOut(ctx)

	fmt.Println(successStyle.Render("Signed out"))
	return nil
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")

	signUpCmd.Flags().String("username", "", "User name for the new account")
	signUpCmd.Flags().String("email", "", "Account email")
	signUpCmd.Flags().String("password", "", "Account password")

	logoutCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signUpCmd)
	rootCmd.AddCommand(logoutCmd)
}
