package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/models"
)

func renderAuthResult(result models.AuthResult) string {
	if result.Succeeded() {
		message := "Signed in"
		if len(result.Message) > 0 {
			message = result.Message
		}
		return successStyle.Render(message)
	}
	return errorStyle.Render(fmt.Sprintf("Failed: %s", result.Message))
}

// renderSession prints the session the way the console header shows it.
func renderSession(state models.SessionState, expiresAt *time.Time) string {
	return renderSessionAt(state, expiresAt, time.Now())
}

func renderSessionAt(state models.SessionState, expiresAt *time.Time, now time.Time) string {
	var content strings.Builder

	content.WriteString(headerStyle.Render("Session"))
	content.WriteString("\n")

	if !state.Authenticated {
		content.WriteString(fmt.Sprintf("Status:   %s\n", expiredStyle.Render("signed out")))
		return content.String()
	}

	content.WriteString(fmt.Sprintf("Status:   %s\n", activeStyle.Render("signed in")))

	if state.User != nil {
		content.WriteString(fmt.Sprintf("User:     %s\n", state.User.GetName()))
		if len(state.User.Email) > 0 && state.User.Email != state.User.GetName() {
			content.WriteString(fmt.Sprintf("Email:    %s\n", state.User.Email))
		}
		if len(state.User.Authority) > 0 {
			content.WriteString(fmt.Sprintf("Roles:    %s\n", strings.Join(state.User.Authority, ", ")))
		}
	}

	if expiresAt != nil {
		remaining := expiresAt.Sub(now)
		if remaining > 0 {
			content.WriteString(fmt.Sprintf("Expires:  %s (%s remaining)\n",
				expiresAt.Local().Format("2006-01-02 15:04:05"),
				common.FormatDurationRemaining(remaining)))
		} else {
			content.WriteString(fmt.Sprintf("Expires:  %s\n", warningStyle.Render("expired, refresh pending")))
		}
	}

	return content.String()
}
