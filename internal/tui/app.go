// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state, session routing and user administration commands

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/observable"
	"github.com/markalston/trainer-admin/internal/session"
	"github.com/markalston/trainer-admin/internal/tui/dashboard"
	"github.com/markalston/trainer-admin/internal/tui/icons"
	"github.com/markalston/trainer-admin/internal/tui/login"
	"github.com/markalston/trainer-admin/internal/tui/styles"
	"github.com/markalston/trainer-admin/internal/tui/userform"
	"github.com/markalston/trainer-admin/internal/users"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
	ScreenUserForm
	ScreenConfirmDelete
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width the frame is drawn at
	panelPadding     = 4  // Horizontal padding inside panel borders (2 each side)
	panelBorder      = 2  // Left and right panel border
	loginPanelWidth  = 64
)

// Session is the session state the app needs
type Session interface {
	Snapshot() session.State
	Login(ctx context.Context, creds session.Credentials) (*client.BackendUser, error)
	Logout(ctx context.Context) error
	Subscribe(fn func(session.State)) (cancel func())
}

// UserService is the user administration the app needs
type UserService interface {
	Refresh(ctx context.Context, filter users.ListFilter) (users.Snapshot, error)
	CreateUser(ctx context.Context, in users.NewUser) (users.ViewUser, error)
	UpdateUser(ctx context.Context, id int64, patch users.UserPatch) (users.ViewUser, error)
	DeleteUser(ctx context.Context, id int64) error
	ToggleUserStatus(ctx context.Context, id int64) (users.ViewUser, error)
	Users() *observable.Value[[]users.ViewUser]
}

// Results of commands issued while the dashboard is open carry the
// generation they were issued in. A result from an older generation is
// dropped.

type sessionMsg struct {
	gen   int
	state session.State
}

type usersMsg struct {
	gen  int
	list []users.ViewUser
}

type refreshedMsg struct {
	gen  int
	snap users.Snapshot
	err  error
}

type mutatedMsg struct {
	gen    int
	notice string
	err    error
}

type loginResultMsg struct {
	err error
}

type logoutResultMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	ctx        context.Context
	sess       Session
	svc        UserService
	screen     Screen
	width      int
	height     int
	lastUpdate time.Time

	// gen increases every time the dashboard opens or closes
	gen          int
	sessionWatch *watcher[session.State]
	usersWatch   *watcher[[]users.ViewUser]

	// Child models
	login     *login.Login
	dashboard *dashboard.Dashboard
	form      *userform.Form
	formBusy  bool
	confirm   *confirmDelete
}

// New creates a new TUI application. Remote calls run under ctx.
func New(ctx context.Context, sess Session, svc UserService) *App {
	return &App{
		ctx:    ctx,
		sess:   sess,
		svc:    svc,
		screen: ScreenLogin,
		login:  login.New(),
	}
}

// Screen returns the screen being shown
func (a *App) Screen() Screen {
	return a.screen
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if session.Route(a.sess.Snapshot()) == session.ToDashboard {
		return a.enterDashboard()
	}
	return a.login.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.dashboard != nil {
			a.dashboard.SetSize(a.contentWidth(), a.contentHeight())
		}
		if a.login != nil {
			a.login.Update(msg)
		}
		if a.form != nil {
			a.form.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			a.stopWatchers()
			return a, tea.Quit
		}

		switch a.screen {
		case ScreenLogin:
			return a.updateLogin(msg)
		case ScreenDashboard:
			return a.updateDashboard(msg)
		case ScreenUserForm:
			return a.updateForm(msg)
		case ScreenConfirmDelete:
			return a.updateConfirm(msg)
		}
		return a, nil

	case login.SubmitMsg:
		return a, a.submitLogin(msg.Credentials)

	case loginResultMsg:
		return a.handleLoginResult(msg)

	case logoutResultMsg:
		if msg.err != nil {
			slog.Warn("Logout failed", "error", msg.err)
			if a.screen == ScreenLogin && a.login != nil {
				return a, a.login.Fail(msg.err.Error())
			}
			if a.dashboard != nil {
				a.dashboard.SetLoading(false)
				a.dashboard.SetError(msg.err.Error())
			}
		}
		return a, nil

	case sessionMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		if !msg.state.IsAuthenticated && !msg.state.Loading {
			slog.Info("Session ended, returning to login")
			return a, a.leaveDashboard()
		}
		return a, a.waitSession()

	case usersMsg:
		if msg.gen != a.gen || a.dashboard == nil {
			return a, nil
		}
		a.dashboard.SetUsers(msg.list)
		return a, a.waitUsers()

	case refreshedMsg:
		if msg.gen != a.gen || a.dashboard == nil {
			slog.Debug("Dropping stale refresh result", "gen", msg.gen, "current", a.gen)
			return a, nil
		}
		a.dashboard.SetLoading(false)
		if msg.err != nil {
			a.dashboard.SetError(msg.err.Error())
			return a, nil
		}
		a.dashboard.SetStats(msg.snap.Stats)
		a.lastUpdate = time.Now()
		return a, nil

	case mutatedMsg:
		return a.handleMutated(msg)

	case dashboard.ActionMsg:
		return a.handleAction(msg)

	case userform.SubmitMsg:
		return a.submitForm(msg.Form)

	case userform.CancelledMsg:
		a.closeModal()
		return a, nil

	case confirmedMsg:
		a.closeModal()
		if !msg.ok || a.dashboard == nil {
			return a, nil
		}
		id := msg.user.ID
		return a, tea.Batch(a.dashboard.SetLoading(true), a.mutate(fmt.Sprintf("Deleted %s", msg.user.Name), func(ctx context.Context) error {
			return a.svc.DeleteUser(ctx, id)
		}))

	case spinner.TickMsg:
		if a.login != nil && a.screen == ScreenLogin {
			_, cmd := a.login.Update(msg)
			return a, cmd
		}
		if a.dashboard != nil {
			_, cmd := a.dashboard.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward everything else to the active screen (huh and bubbles internals)
	switch a.screen {
	case ScreenLogin:
		return a.updateLogin(msg)
	case ScreenDashboard:
		return a.updateDashboard(msg)
	case ScreenUserForm:
		return a.updateForm(msg)
	case ScreenConfirmDelete:
		return a.updateConfirm(msg)
	}
	return a, nil
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.login == nil {
		return a, nil
	}
	model, cmd := a.login.Update(msg)
	a.login = model.(*login.Login)
	return a, cmd
}

func (a *App) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.dashboard == nil {
		return a, nil
	}
	model, cmd := a.dashboard.Update(msg)
	a.dashboard = model.(*dashboard.Dashboard)
	return a, cmd
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.form == nil || a.formBusy {
		return a, nil
	}
	model, cmd := a.form.Update(msg)
	a.form = model.(*userform.Form)
	return a, cmd
}

func (a *App) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.confirm == nil {
		return a, nil
	}
	model, cmd := a.confirm.Update(msg)
	a.confirm = model.(*confirmDelete)
	return a, cmd
}

func (a *App) submitLogin(creds session.Credentials) tea.Cmd {
	if err := session.RequireGuest(a.sess.Snapshot()); err != nil {
		return func() tea.Msg { return loginResultMsg{} }
	}
	return func() tea.Msg {
		_, err := a.sess.Login(a.ctx, creds)
		return loginResultMsg{err: err}
	}
}

func (a *App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenLogin || a.login == nil {
		return a, nil
	}
	if msg.err != nil {
		text := a.sess.Snapshot().Error
		if text == "" {
			text = msg.err.Error()
		}
		return a, a.login.Fail(text)
	}
	return a, a.enterDashboard()
}

// enterDashboard opens the dashboard, subscribes to session and user
// changes and starts the first refresh
func (a *App) enterDashboard() tea.Cmd {
	a.stopWatchers()
	a.gen++
	a.screen = ScreenDashboard
	a.login = nil
	a.dashboard = dashboard.New(a.contentWidth(), a.contentHeight())
	a.sessionWatch = watch(a.sess.Subscribe)
	a.usersWatch = watch(a.svc.Users().Subscribe)

	slog.Debug("Dashboard opened", "gen", a.gen)
	return tea.Batch(a.waitSession(), a.waitUsers(), a.refresh())
}

// leaveDashboard drops the dashboard and its subscriptions and shows the
// login screen
func (a *App) leaveDashboard() tea.Cmd {
	a.stopWatchers()
	a.gen++
	a.screen = ScreenLogin
	a.dashboard = nil
	a.form = nil
	a.formBusy = false
	a.confirm = nil
	a.lastUpdate = time.Time{}
	a.login = login.New()

	slog.Debug("Dashboard closed", "gen", a.gen)
	return a.login.Init()
}

func (a *App) stopWatchers() {
	if a.sessionWatch != nil {
		a.sessionWatch.stop()
		a.sessionWatch = nil
	}
	if a.usersWatch != nil {
		a.usersWatch.stop()
		a.usersWatch = nil
	}
}

func (a *App) waitSession() tea.Cmd {
	if a.sessionWatch == nil {
		return nil
	}
	gen := a.gen
	return a.sessionWatch.next(func(s session.State) tea.Msg {
		return sessionMsg{gen: gen, state: s}
	})
}

func (a *App) waitUsers() tea.Cmd {
	if a.usersWatch == nil {
		return nil
	}
	gen := a.gen
	return a.usersWatch.next(func(list []users.ViewUser) tea.Msg {
		return usersMsg{gen: gen, list: list}
	})
}

func (a *App) refresh() tea.Cmd {
	gen := a.gen
	return tea.Batch(a.dashboard.SetLoading(true), func() tea.Msg {
		snap, err := a.svc.Refresh(a.ctx, users.FilterAll)
		return refreshedMsg{gen: gen, snap: snap, err: err}
	})
}

// mutate runs fn and reports notice on success
func (a *App) mutate(notice string, fn func(ctx context.Context) error) tea.Cmd {
	gen := a.gen
	return func() tea.Msg {
		err := fn(a.ctx)
		return mutatedMsg{gen: gen, notice: notice, err: err}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		return logoutResultMsg{err: a.sess.Logout(a.ctx)}
	}
}

func (a *App) handleAction(msg dashboard.ActionMsg) (tea.Model, tea.Cmd) {
	if a.dashboard == nil {
		return a, nil
	}

	switch msg.Action {
	case dashboard.ActionQuit:
		a.stopWatchers()
		return a, tea.Quit

	case dashboard.ActionRefresh:
		a.dashboard.SetError("")
		return a, a.refresh()

	case dashboard.ActionLogout:
		return a, tea.Batch(a.dashboard.SetLoading(true), a.logout())

	case dashboard.ActionNew:
		a.form = userform.NewCreate()
		a.screen = ScreenUserForm
		return a, a.form.Init()

	case dashboard.ActionEdit:
		if msg.User == nil {
			return a, nil
		}
		a.form = userform.NewEdit(*msg.User)
		a.screen = ScreenUserForm
		return a, a.form.Init()

	case dashboard.ActionDelete:
		if msg.User == nil {
			return a, nil
		}
		a.confirm = newConfirmDelete(*msg.User)
		a.screen = ScreenConfirmDelete
		return a, a.confirm.Init()

	case dashboard.ActionToggle:
		if msg.User == nil {
			return a, nil
		}
		id := msg.User.ID
		return a, a.mutate("Status updated", func(ctx context.Context) error {
			_, err := a.svc.ToggleUserStatus(ctx, id)
			return err
		})
	}

	return a, nil
}

func (a *App) submitForm(f *userform.Form) (tea.Model, tea.Cmd) {
	if a.form == nil || f != a.form {
		return a, nil
	}
	a.formBusy = true

	if f.Mode() == userform.ModeCreate {
		in := f.NewUser()
		return a, a.mutate(fmt.Sprintf("Created %s", in.Name), func(ctx context.Context) error {
			_, err := a.svc.CreateUser(ctx, in)
			return err
		})
	}

	id, patch := f.UserID(), f.Patch()
	return a, a.mutate(fmt.Sprintf("Updated %s", *patch.Name), func(ctx context.Context) error {
		_, err := a.svc.UpdateUser(ctx, id, patch)
		return err
	})
}

func (a *App) handleMutated(msg mutatedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != a.gen || a.dashboard == nil {
		slog.Debug("Dropping stale mutation result", "gen", msg.gen, "current", a.gen)
		return a, nil
	}

	if msg.err != nil {
		slog.Warn("User change failed", "error", msg.err)
		if a.screen == ScreenUserForm && a.form != nil {
			a.formBusy = false
			return a, a.form.Fail(msg.err.Error())
		}
		a.dashboard.SetLoading(false)
		a.dashboard.SetError(msg.err.Error())
		return a, nil
	}

	a.closeModal()
	a.dashboard.SetNotice(msg.notice)
	return a, a.refresh()
}

// closeModal returns from the form or confirmation to the dashboard
func (a *App) closeModal() {
	a.form = nil
	a.formBusy = false
	a.confirm = nil
	if a.dashboard != nil {
		a.screen = ScreenDashboard
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenDashboard:
		content = a.viewDashboard()
	case ScreenUserForm:
		content = a.viewForm()
	case ScreenConfirmDelete:
		content = a.viewConfirm()
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewLogin() string {
	if a.login == nil {
		return ""
	}
	width := loginPanelWidth
	if a.width > 0 && a.width-panelBorder < width {
		width = a.width - panelBorder
	}
	panel := styles.ActivePanel.Width(width).Render(a.login.View())
	if a.width <= 0 {
		return panel
	}
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, panel)
}

func (a *App) viewDashboard() string {
	if a.dashboard == nil {
		return styles.Panel.Render("Loading...")
	}
	return styles.ActivePanel.Width(a.panelWidth()).Render(a.dashboard.View())
}

func (a *App) viewForm() string {
	if a.form == nil {
		return ""
	}
	body := a.form.View()
	if a.formBusy {
		body += "\n" + styles.Subtitle.Render("Saving...")
	}
	return styles.ActivePanel.Width(a.panelWidth()).Render(body)
}

func (a *App) viewConfirm() string {
	if a.confirm == nil {
		return ""
	}
	return styles.ActivePanel.Width(a.panelWidth()).Render(a.confirm.View())
}

// panelWidth is the width of the main panel including its padding
func (a *App) panelWidth() int {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width - panelBorder
}

// contentWidth is the width available inside the main panel
func (a *App) contentWidth() int {
	return a.panelWidth() - panelPadding
}

// contentHeight calculates the height available for dashboard content
func (a *App) contentHeight() int {
	// Header and footer: 2 lines, newlines around content: 2 lines,
	// panel border and padding: 4 lines
	return a.height - 8
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftRendered := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Trainer Admin"))

	rightRendered := ""
	if a.screen != ScreenLogin {
		if u := a.sess.Snapshot().User; u != nil {
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			rightRendered = " " + contextStyle.Render(fmt.Sprintf("%s %s <%s>", icons.Admin.String(), name, u.Email)) + " "
		}
	}

	fillWidth := width - 4 - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenLogin:
		shortcuts = []string{"Tab Next", "Enter Submit", "Ctrl+C Quit"}
	case ScreenDashboard:
		if a.dashboard != nil && a.dashboard.Searching() {
			shortcuts = []string{"Enter Apply", "Esc Clear"}
		} else {
			shortcuts = []string{"q Quit", "n New", "e Edit", "d Delete", "/ Search", "f Filter", "r Refresh", "L Logout", "t Toggle"}
		}
	case ScreenUserForm:
		shortcuts = []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
	case ScreenConfirmDelete:
		shortcuts = []string{"←→ Choose", "Enter Confirm", "Esc Cancel"}
	}

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenDashboard {
		elapsed := a.formatTimeSince(a.lastUpdate)
		rightText = " " + statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = " Updated " + elapsed + " "
	}

	// Drop trailing shortcuts that do not fit
	available := width - 4 - lipgloss.Width(rightPlainText)
	for len(shortcuts) > 0 && lipgloss.Width(" "+strings.Join(shortcuts, "  ")+" ") > available {
		shortcuts = shortcuts[:len(shortcuts)-1]
	}

	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
	}

	leftText := " " + strings.Join(styled, "  ") + " "
	leftPlainText := " " + strings.Join(shortcuts, "  ") + " "

	fillWidth := width - 4 - lipgloss.Width(leftPlainText) - lipgloss.Width(rightPlainText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func (a *App) formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}

	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until the user quits or ctx is done
func Run(ctx context.Context, sess Session, svc UserService) error {
	app := New(ctx, sess, svc)
	defer app.stopWatchers()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
