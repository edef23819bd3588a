package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
)

var apiCmd = &cobra.Command{
	Use:   "api <method> <path>",
	Short: "Call the catalog API with the session's token",
	Long: `Sends an authorized request to the catalog API, for example:

  console api GET /products
  console api PUT /products/42 --data '{"price": 10}'

A 401 response signs the session out.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		method := strings.ToUpper(args[0])
		path := args[1]
		data, _ := cmd.Flags().GetString("data")

		manager, err := cfg.NewSessionManager()
		if err != nil {
			return err
		}
		defer manager.Close()

		if err := requireSession(ctx, manager); err != nil {
			return err
		}

		request := manager.Authorized().R().
			SetContext(ctx).
			SetHeader("Accept", "application/json")

		if len(data) > 0 {
			request.SetHeader("Content-Type", "application/json").SetBody(data)
		}

		resp, err := request.Execute(method, path)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		status := fmt.Sprintf("%s %s -> %d", method, path, resp.StatusCode())
		if resp.IsError() {
			fmt.Println(errorStyle.Render(status))
		} else {
			fmt.Println(successStyle.Render(status))
		}

		fmt.Println(prettyBody(resp.Body()))

		if resp.StatusCode() == http.StatusUnauthorized {
			fmt.Println(warningStyle.Render("Session expired, you have been signed out"))
		}

		if resp.IsError() {
			return fmt.Errorf("catalog API returned %d", resp.StatusCode())
		}
		return nil
	},
}

// prettyBody indents JSON bodies and returns anything else unchanged.
func prettyBody(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}

func init() {
	apiCmd.Flags().StringP("data", "d", "", "JSON request body")

	rootCmd.AddCommand(apiCmd)
}
