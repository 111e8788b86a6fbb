// ABOUTME: Login screen as a bubbletea model wrapping a huh form
// ABOUTME: Collects credentials, shows the in-flight spinner and the last sign-in error

package login

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/trainer-admin/internal/session"
	"github.com/markalston/trainer-admin/internal/tui/icons"
	"github.com/markalston/trainer-admin/internal/tui/styles"
	"github.com/markalston/trainer-admin/internal/tui/widgets"
)

// SubmitMsg is sent when the user submits the form
type SubmitMsg struct {
	Credentials session.Credentials
}

// Login is the sign-in screen
type Login struct {
	form    *huh.Form
	spinner spinner.Model
	loading bool
	errText string
	width   int

	// Form field values
	email    string
	password string
	remember bool
}

// New creates the login screen with an empty form
func New() *Login {
	l := &Login{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary))),
	}
	l.form = l.buildForm()
	return l
}

func (l *Login) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("admin@example.com").
				Value(&l.email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(required("password")),
			huh.NewConfirm().
				Title("Remember me").
				Affirmative("Yes").
				Negative("No").
				Value(&l.remember),
		).Title(icons.Lock.String() + " Sign in").
			Description("Only administrator accounts can use the dashboard"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
	case spinner.TickMsg:
		if !l.loading {
			return l, nil
		}
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return l, cmd
	}

	// Input is ignored while a sign-in is in flight
	if l.loading {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		creds := l.credentials()
		l.loading = true
		l.errText = ""
		return l, tea.Batch(l.spinner.Tick, func() tea.Msg {
			return SubmitMsg{Credentials: creds}
		})
	}

	return l, cmd
}

// Fail ends the in-flight state, shows msg and rebuilds the form with the
// email and remember choice kept and the password cleared
func (l *Login) Fail(msg string) tea.Cmd {
	l.loading = false
	l.errText = msg
	l.password = ""
	l.form = l.buildForm()
	return l.form.Init()
}

// Loading reports whether a sign-in is in flight
func (l *Login) Loading() bool {
	return l.loading
}

// Error returns the message shown under the form
func (l *Login) Error() string {
	return l.errText
}

func (l *Login) credentials() session.Credentials {
	return session.Credentials{
		Email:      strings.TrimSpace(l.email),
		Password:   l.password,
		RememberMe: l.remember,
	}
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.App.String() + " Training Platform Admin"))
	sb.WriteString("\n")
	sb.WriteString(l.form.View())

	if l.loading {
		sb.WriteString("\n")
		sb.WriteString(l.spinner.View() + " Signing in...")
	}
	if l.errText != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(l.errText, widgets.StatusCritical))
	}

	return sb.String()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
