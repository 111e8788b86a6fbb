// ABOUTME: Delete confirmation step shown before removing a user
// ABOUTME: Wraps a huh confirm that names the user being deleted

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/trainer-admin/internal/tui/icons"
	"github.com/markalston/trainer-admin/internal/tui/styles"
	"github.com/markalston/trainer-admin/internal/users"
)

// confirmedMsg is sent when the user answers the prompt
type confirmedMsg struct {
	user users.ViewUser
	ok   bool
}

type confirmDelete struct {
	user users.ViewUser
	form *huh.Form
	ok   bool
}

func newConfirmDelete(u users.ViewUser) *confirmDelete {
	c := &confirmDelete{user: u}
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s Delete %s?", icons.Delete.String(), u.Name)).
				Description(fmt.Sprintf("%s will be removed permanently.", u.Email)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&c.ok),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return c
}

func (c *confirmDelete) Init() tea.Cmd {
	return c.form.Init()
}

func (c *confirmDelete) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return c, c.answer(false)
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	switch c.form.State {
	case huh.StateCompleted:
		return c, c.answer(c.ok)
	case huh.StateAborted:
		return c, c.answer(false)
	}
	return c, cmd
}

func (c *confirmDelete) answer(ok bool) tea.Cmd {
	u := c.user
	return func() tea.Msg {
		return confirmedMsg{user: u, ok: ok}
	}
}

func (c *confirmDelete) View() string {
	return c.form.View()
}
