package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/models"
)

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long:  "Revalidates the persisted session and shows who is signed in. With --watch it follows the running shell's session instead.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return runSessionWatchTUI(cfg.GetLocalServerUrl())
	}

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	manager, err := cfg.NewSessionManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	if _, err := restoreSession(ctx, manager); err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("Persisted session was rejected: %s", models.NewAuthResult(err).Message)))
	}

	fmt.Print(renderSession(manager.State(), manager.ExpiresAt()))
	fmt.Printf("API:      %s\n", infoStyle.Render(cfg.GetAPIBaseURL()))

	return nil
}

type sessionInfo struct {
	session *models.SessionResponse
}

type errorMsg struct {
	err error
}

type watchModel struct {
	serverUrl  string
	client     *resty.Client
	session    *models.SessionResponse
	spinner    spinner.Model
	loading    bool
	err        error
	lastUpdate time.Time
	quitting   bool
}

func newWatchModel(serverUrl string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return watchModel{
		serverUrl: strings.TrimSuffix(serverUrl, "/"),
		client:    resty.New().SetTimeout(5 * time.Second),
		spinner:   s,
		loading:   true,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchSession)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionInfo:
		m.loading = false
		m.err = nil
		m.session = msg.session
		m.lastUpdate = time.Now()

		return m, tea.Tick(time.Second*3, func(t time.Time) tea.Msg {
			return m.fetchSession()
		})

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())) + "\n"
	}

	if m.loading || m.session == nil {
		return fmt.Sprintf("\n %s Connecting to %s...\n\n", m.spinner.View(), m.serverUrl)
	}

	var content strings.Builder

	content.WriteString(titleStyle.Render("Console Session"))
	content.WriteString("\n")

	content.WriteString(renderSession(m.session.SessionState, nil))
	content.WriteString(fmt.Sprintf("Page:     %s\n", m.session.Location))
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("%s Last updated: %s", m.spinner.View(), m.lastUpdate.Format("15:04:05")))
	content.WriteString("\n")
	content.WriteString("Press q to quit")
	content.WriteString("\n")

	return content.String()
}

func (m watchModel) fetchSession() tea.Msg {
	url := fmt.Sprintf("%s/auth/session", m.serverUrl)

	var session models.SessionResponse

	resp, err := m.client.R().
		SetHeader("Accept", "application/json").
		SetResult(&session).
		Get(url)

	if err != nil {
		return errorMsg{err: fmt.Errorf("console shell is not reachable, start it with '%s serve': %w", common.AppName, err)}
	}

	if resp.StatusCode() != http.StatusOK {
		return errorMsg{err: fmt.Errorf("shell error: %d - %s for: %s", resp.StatusCode(), string(resp.Body()), url)}
	}

	return sessionInfo{session: &session}
}

// runSessionWatchTUI follows the running shell's session until the user quits
func runSessionWatchTUI(serverUrl string) error {
	program := tea.NewProgram(newWatchModel(serverUrl))

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	finalWatchModel, ok := finalModel.(watchModel)
	if !ok {
		return fmt.Errorf("unexpected model type returned from TUI")
	}

	return finalWatchModel.err
}

func init() {
	sessionStatusCmd.Flags().BoolP("watch", "w", false, "Follow the running shell's session")
	rootCmd.Flags().BoolP("watch", "w", false, "Follow the running shell's session")

	rootCmd.AddCommand(sessionStatusCmd)
}
