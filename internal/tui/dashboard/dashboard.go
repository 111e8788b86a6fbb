// ABOUTME: Dashboard component listing platform users with stats tiles
// ABOUTME: Search, role filter cycle, table selection and action key mapping

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/trainer-admin/internal/tui/icons"
	"github.com/markalston/trainer-admin/internal/tui/styles"
	"github.com/markalston/trainer-admin/internal/tui/widgets"
	"github.com/markalston/trainer-admin/internal/users"
)

// Action is something the dashboard asks the app to do
type Action int

const (
	ActionNew Action = iota
	ActionEdit
	ActionDelete
	ActionToggle
	ActionRefresh
	ActionLogout
	ActionQuit
)

// ActionMsg carries an action and, for row actions, the selected user
type ActionMsg struct {
	Action Action
	User   *users.ViewUser
}

// Layout constants
const (
	tileCount     = 5
	minTileWidth  = 16
	maxTileWidth  = 24
	tilesHeight   = 4
	detailHeight  = 4
	chromeHeight  = tilesHeight + detailHeight + 4 // search line, status line, spacing
	minTableRows  = 3
	avatarColumn  = 4
	nameColumn    = 20
	roleColumn    = 9
	statusColumn  = 8
	phoneColumn   = 14
	minEmailWidth = 18
)

// rowActions are the keys that act on the selected user
var rowActions = map[string]Action{
	"e": ActionEdit,
	"d": ActionDelete,
	"t": ActionToggle,
}

// roleCycle is the order the filter key walks through; empty means all roles
var roleCycle = []users.Role{"", users.RoleAdmin, users.RoleTrainer, users.RoleTrainee}

// Dashboard displays the user list
type Dashboard struct {
	all     []users.ViewUser
	visible []users.ViewUser
	stats   users.Stats
	role    users.Role

	search    textinput.Model
	searching bool
	table     table.Model
	spinner   spinner.Model

	loading bool
	errText string
	notice  string
	width   int
	height  int
}

// New creates an empty dashboard
func New(width, height int) *Dashboard {
	search := textinput.New()
	search.Placeholder = "name or email"
	search.Prompt = ""
	search.CharLimit = 64

	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)

	d := &Dashboard{
		search:  search,
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary))),
	}
	d.SetSize(width, height)
	return d
}

func columns(width int) []table.Column {
	email := width - avatarColumn - nameColumn - roleColumn - statusColumn - phoneColumn - 12
	if email < minEmailWidth {
		email = minEmailWidth
	}
	return []table.Column{
		{Title: "", Width: avatarColumn},
		{Title: "Name", Width: nameColumn},
		{Title: "Email", Width: email},
		{Title: "Role", Width: roleColumn},
		{Title: "Status", Width: statusColumn},
		{Title: "Phone", Width: phoneColumn},
	}
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.table.SetColumns(columns(width))
	d.table.SetHeight(max(minTableRows, height-chromeHeight))
}

// SetUsers replaces the listed users and reapplies search and filter
func (d *Dashboard) SetUsers(list []users.ViewUser) {
	d.all = list
	d.applyFilter()
}

// SetStats replaces the tile counts
func (d *Dashboard) SetStats(stats users.Stats) {
	d.stats = stats
}

// SetLoading toggles the spinner; the returned command starts it
func (d *Dashboard) SetLoading(loading bool) tea.Cmd {
	started := loading && !d.loading
	d.loading = loading
	if started {
		return d.spinner.Tick
	}
	return nil
}

// SetError shows msg in the status line. An empty msg clears it.
func (d *Dashboard) SetError(msg string) {
	d.errText = msg
	if msg != "" {
		d.notice = ""
	}
}

// SetNotice shows a success message in the status line
func (d *Dashboard) SetNotice(msg string) {
	d.notice = msg
	if msg != "" {
		d.errText = ""
	}
}

// Searching reports whether the search input has focus
func (d *Dashboard) Searching() bool {
	return d.searching
}

// Role is the active role filter; empty means all roles
func (d *Dashboard) Role() users.Role {
	return d.role
}

// Visible returns the users that pass search and filter
func (d *Dashboard) Visible() []users.ViewUser {
	return d.visible
}

// Selected returns the highlighted user, or nil for an empty table
func (d *Dashboard) Selected() *users.ViewUser {
	idx := d.table.Cursor()
	if idx < 0 || idx >= len(d.visible) {
		return nil
	}
	u := d.visible[idx]
	return &u
}

func (d *Dashboard) applyFilter() {
	d.visible = users.Filter(d.all, d.search.Value(), d.role)

	rows := make([]table.Row, 0, len(d.visible))
	for _, u := range d.visible {
		status := "Active"
		if !u.IsActive {
			status = "Inactive"
		}
		rows = append(rows, table.Row{
			users.Initials(u.Name),
			u.Name,
			u.Email,
			string(u.Role),
			status,
			u.Phone,
		})
	}
	d.table.SetRows(rows)
	if d.table.Cursor() >= len(rows) || d.table.Cursor() < 0 {
		d.table.SetCursor(max(0, len(rows)-1))
	}
}

func nextRole(current users.Role) users.Role {
	for i, r := range roleCycle {
		if r == current {
			return roleCycle[(i+1)%len(roleCycle)]
		}
	}
	return roleCycle[0]
}

func action(a Action, u *users.ViewUser) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: a, User: u}
	}
}

// Update implements tea.Model
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !d.loading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case tea.KeyMsg:
		if d.searching {
			return d.updateSearch(msg)
		}

		switch msg.String() {
		case "/":
			d.searching = true
			return d, d.search.Focus()
		case "esc":
			if d.search.Value() != "" {
				d.search.SetValue("")
				d.applyFilter()
			}
			return d, nil
		case "f":
			d.role = nextRole(d.role)
			d.applyFilter()
			return d, nil
		case "n":
			return d, action(ActionNew, nil)
		case "e", "d", "t":
			sel := d.Selected()
			if sel == nil {
				return d, nil
			}
			return d, action(rowActions[msg.String()], sel)
		case "r":
			return d, action(ActionRefresh, nil)
		case "L":
			return d, action(ActionLogout, nil)
		case "q":
			return d, action(ActionQuit, nil)
		}
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

func (d *Dashboard) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		d.search.SetValue("")
		fallthrough
	case "enter":
		d.searching = false
		d.search.Blur()
		d.applyFilter()
		return d, nil
	}

	var cmd tea.Cmd
	d.search, cmd = d.search.Update(msg)
	d.applyFilter()
	return d, cmd
}

// View implements tea.Model
func (d *Dashboard) View() string {
	sections := []string{
		d.renderTiles(),
		d.renderSearchLine(),
	}

	if len(d.visible) == 0 && !d.loading {
		sections = append(sections, styles.Subtitle.Render("No users match the current search and filter."))
	} else {
		sections = append(sections, d.table.View())
	}

	sections = append(sections, d.renderDetail(), d.renderStatus())
	return lipgloss.NewStyle().Width(d.width).Render(strings.Join(sections, "\n"))
}

func (d *Dashboard) renderTiles() string {
	tileWidth := d.width / tileCount
	if tileWidth < minTileWidth {
		tileWidth = minTileWidth
	}
	if tileWidth > maxTileWidth {
		tileWidth = maxTileWidth
	}

	total := d.stats.Total
	tile := func(icon icons.Icon, title string, count int, color lipgloss.Color) string {
		cfg := widgets.DefaultMetricBlockConfig()
		cfg.Width = tileWidth
		cfg.TitleColor = color
		return widgets.CountBlock(icon, title, count, total, cfg)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		tile(icons.Users, "Total", total, styles.Primary),
		tile(icons.Admin, "Admins", d.stats.ByRole.Admin, styles.RoleAdmin),
		tile(icons.Trainer, "Trainers", d.stats.ByRole.Trainer, styles.RoleTrainer),
		tile(icons.Trainee, "Trainees", d.stats.ByRole.Trainee, styles.RoleTrainee),
		tile(icons.Active, "Active", d.stats.Active, styles.Secondary),
	)
}

func (d *Dashboard) renderSearchLine() string {
	label := lipgloss.NewStyle().Foreground(styles.Muted)

	search := d.search.View()
	if !d.searching && d.search.Value() == "" {
		search = label.Render("press / to search")
	}

	roleName := "All"
	if d.role != "" {
		roleName = widgets.RoleBadge(string(d.role))
	}

	return fmt.Sprintf("%s %s   %s %s %s   %s",
		icons.Search.String(), search,
		icons.Filter.String(), label.Render("Role:"), roleName,
		label.Render(fmt.Sprintf("%d of %d shown", len(d.visible), len(d.all))),
	)
}

func (d *Dashboard) renderDetail() string {
	sel := d.Selected()
	if sel == nil {
		return strings.Repeat("\n", detailHeight-1)
	}

	joined := "unknown"
	if sel.CreatedAt != nil {
		joined = sel.CreatedAt.Format("2006-01-02")
	}
	phone := sel.Phone
	if phone == "" {
		phone = "--"
	}

	lines := []string{
		fmt.Sprintf("%s %s  %s %s",
			styles.Avatar.Render(users.Initials(sel.Name)),
			styles.ValueStyle.Render(sel.Name),
			widgets.RoleBadge(string(sel.Role)),
			widgets.ActiveBadge(sel.IsActive)),
		fmt.Sprintf("     %s  %s", sel.Email, lipgloss.NewStyle().Foreground(styles.Muted).Render("phone "+phone)),
		lipgloss.NewStyle().Foreground(styles.Muted).Render(fmt.Sprintf("     id %d  joined %s", sel.ID, joined)),
	}
	return "\n" + strings.Join(lines, "\n")
}

func (d *Dashboard) renderStatus() string {
	var parts []string
	if d.loading {
		parts = append(parts, d.spinner.View()+" Loading users...")
	}
	if d.errText != "" {
		parts = append(parts, widgets.StatusText(d.errText, widgets.StatusCritical))
	}
	if d.notice != "" {
		parts = append(parts, widgets.StatusText(d.notice, widgets.StatusOK))
	}
	return strings.Join(parts, "   ")
}
