// ABOUTME: Login and logout commands for trainer-admin CLI
// ABOUTME: Signs administrators in, persists the session, and signs them out

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/session"
)

var (
	loginEmail         string
	loginRemember      bool
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as an administrator",
	Long: `Sign in with an administrator account and keep the session for later commands.

Accounts with any other role are refused. The password is read without
echo from the terminal, or from the first line of stdin with --password-stdin.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, os.Stdin)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in administrator",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Ask the backend for a long-lived session")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
}

// sessionOutput is the machine-readable view of a session
type sessionOutput struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	ID            int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	Role          string `json:"role,omitempty" yaml:"role,omitempty"`
}

func newSessionOutput(u *client.BackendUser) sessionOutput {
	if u == nil {
		return sessionOutput{}
	}
	return sessionOutput{
		Authenticated: true,
		ID:            u.ID,
		Name:          u.FirstName + " " + u.LastName,
		Email:         u.Email,
		Role:          string(u.Role),
	}
}

// formatSessionHuman formats the signed-in user for human readability
func formatSessionHuman(out sessionOutput) string {
	if !out.Authenticated {
		return "Not logged in."
	}
	return fmt.Sprintf("%s <%s> (%s)", out.Name, out.Email, out.Role)
}

// runLogin executes the login flow and returns exit code
func runLogin(ctx context.Context, w io.Writer, in io.Reader) int {
	if _, err := getOutputFormat(); err != nil {
		return fail(w, err)
	}
	if loginEmail == "" {
		return fail(w, errors.New("--email is required"))
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()

	if err := session.RequireGuest(rt.session.Snapshot()); err != nil {
		out := newSessionOutput(rt.session.CurrentUser())
		fmt.Fprintf(w, "Already logged in as %s\n", formatSessionHuman(out))
		return exitOK
	}

	password, err := readSecret(in, loginPasswordStdin, "Password: ")
	if err != nil {
		return fail(w, err)
	}

	user, err := rt.session.Login(ctx, session.Credentials{
		Email:      loginEmail,
		Password:   password,
		RememberMe: loginRemember,
	})
	if err != nil {
		return fail(w, err)
	}

	out := newSessionOutput(user)
	if err := writeOutput(w, out, func() string {
		return "Logged in as " + formatSessionHuman(out)
	}); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// runLogout signs out; it always leaves no local session behind
func runLogout(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()

	if !rt.session.IsAuthenticated() {
		fmt.Fprintln(w, "Not logged in.")
		return exitOK
	}

	if err := rt.session.Logout(ctx); err != nil {
		return fail(w, err)
	}
	fmt.Fprintln(w, "Logged out.")
	return exitOK
}

// runWhoami prints the current session user
func runWhoami(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()

	if !rt.requireSession(w) {
		return exitRejected
	}

	out := newSessionOutput(rt.session.CurrentUser())
	if err := writeOutput(w, out, func() string { return formatSessionHuman(out) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}
