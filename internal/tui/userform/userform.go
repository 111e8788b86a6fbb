// ABOUTME: Create and edit user form as a bubbletea model wrapping a huh form
// ABOUTME: Validates fields and converts the values into service inputs

package userform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/trainer-admin/internal/tui/icons"
	"github.com/markalston/trainer-admin/internal/tui/styles"
	"github.com/markalston/trainer-admin/internal/tui/widgets"
	"github.com/markalston/trainer-admin/internal/users"
)

// MinPasswordLength is the shortest password the form accepts
const MinPasswordLength = 8

// Mode selects between creating and editing
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// SubmitMsg is sent when the form passes validation
type SubmitMsg struct {
	Form *Form
}

// CancelledMsg is sent when the user backs out
type CancelledMsg struct{}

// Form collects the fields of one user
type Form struct {
	mode    Mode
	id      int64
	form    *huh.Form
	errText string
	width   int

	// Form field values
	first    string
	last     string
	email    string
	phone    string
	role     string
	password string
}

// NewCreate returns an empty form for a new user
func NewCreate() *Form {
	f := &Form{mode: ModeCreate, role: string(users.RoleTrainee)}
	f.form = f.buildForm()
	return f
}

// NewEdit returns a form pre-filled from u. The password is left blank.
func NewEdit(u users.ViewUser) *Form {
	first, last := users.SplitName(u.Name)
	f := &Form{
		mode:  ModeEdit,
		id:    u.ID,
		first: first,
		last:  last,
		email: u.Email,
		phone: u.Phone,
		role:  string(u.Role),
	}
	if f.role == "" {
		f.role = string(users.RoleTrainee)
	}
	f.form = f.buildForm()
	return f
}

func (f *Form) buildForm() *huh.Form {
	roleOptions := make([]huh.Option[string], 0, len(users.Roles))
	for _, r := range users.Roles {
		roleOptions = append(roleOptions, huh.NewOption(strings.ToUpper(string(r)[:1])+string(r)[1:], string(r)))
	}

	creating := f.mode == ModeCreate
	passwordDesc := "At least 8 characters"
	if !creating {
		passwordDesc = "Leave blank to keep the current password"
	}

	lastValidate := required("last name")
	phoneValidate := required("phone")
	if !creating {
		lastValidate = optional
		phoneValidate = optional
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First name").
				Value(&f.first).
				Validate(required("first name")),
			huh.NewInput().
				Title("Last name").
				Value(&f.last).
				Validate(lastValidate),
			huh.NewInput().
				Title("Email").
				Placeholder("name@example.com").
				Value(&f.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Phone").
				Value(&f.phone).
				Validate(phoneValidate),
			huh.NewSelect[string]().
				Title("Role").
				Options(roleOptions...).
				Value(&f.role),
			huh.NewInput().
				Title("Password").
				Description(passwordDesc).
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(validatePassword(creating)),
		).Title(f.title()),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (f *Form) title() string {
	if f.mode == ModeEdit {
		return icons.Edit.String() + " Edit user"
	}
	return icons.Add.String() + " New user"
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return f, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		return f, func() tea.Msg { return SubmitMsg{Form: f} }
	case huh.StateAborted:
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	return f, cmd
}

// Fail shows msg and reopens the form with every value kept
func (f *Form) Fail(msg string) tea.Cmd {
	f.errText = msg
	f.form = f.buildForm()
	return f.form.Init()
}

// Mode reports whether the form creates or edits
func (f *Form) Mode() Mode {
	return f.mode
}

// UserID is the edited user's id, zero when creating
func (f *Form) UserID() int64 {
	return f.id
}

func (f *Form) name() string {
	return strings.TrimSpace(strings.TrimSpace(f.first) + " " + strings.TrimSpace(f.last))
}

// NewUser converts the values for CreateUser
func (f *Form) NewUser() users.NewUser {
	return users.NewUser{
		Name:     f.name(),
		Email:    strings.TrimSpace(f.email),
		Phone:    strings.TrimSpace(f.phone),
		Password: f.password,
		Role:     users.Role(f.role),
	}
}

// Patch converts the values for UpdateUser. The password is only
// included when one was typed.
func (f *Form) Patch() users.UserPatch {
	name := f.name()
	email := strings.TrimSpace(f.email)
	phone := strings.TrimSpace(f.phone)
	role := users.Role(f.role)
	patch := users.UserPatch{
		Name:  &name,
		Email: &email,
		Phone: &phone,
		Role:  &role,
	}
	if f.password != "" {
		password := f.password
		patch.Password = &password
	}
	return patch
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(f.form.View())
	if f.errText != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(f.errText, widgets.StatusCritical))
	}
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("Enter next field • Esc cancel"))
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

func optional(string) error {
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 || strings.Contains(s, " ") {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validatePassword(creating bool) func(string) error {
	return func(s string) error {
		if s == "" && !creating {
			return nil
		}
		if s == "" {
			return errors.New("password is required")
		}
		if len(s) < MinPasswordLength {
			return errors.New("password must be at least 8 characters")
		}
		return nil
	}
}
