// ABOUTME: Register command for trainer-admin CLI
// ABOUTME: Public self-registration of trainer and trainee accounts

package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/users"
)

var (
	registerName          string
	registerEmail         string
	registerPhone         string
	registerRole          string
	registerPasswordStdin bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new trainer or trainee account",
	Long: `Register a new account through the public registration endpoint.
No session is needed. The password is prompted for without echo, or read
from stdin with --password-stdin.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRegister(ctx, os.Stdout, os.Stdin)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name (required)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address (required)")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&registerRole, "role", string(users.RoleTrainee), "Role: trainer, trainee")
	registerCmd.Flags().BoolVar(&registerPasswordStdin, "password-stdin", false, "Read the password from stdin")
}

// runRegister submits a registration and returns exit code
func runRegister(ctx context.Context, w io.Writer, in io.Reader) int {
	if registerName == "" || registerEmail == "" {
		return fail(w, errors.New("--name and --email are required"))
	}
	role, err := users.ParseRole(registerRole)
	if err != nil {
		return fail(w, err)
	}
	if role == users.RoleAdmin {
		return fail(w, errors.New("administrator accounts cannot self-register"))
	}

	password, err := readSecret(in, registerPasswordStdin, "Choose a password: ")
	if err != nil {
		return fail(w, err)
	}
	if len(password) < 8 {
		return fail(w, errors.New("password must be at least 8 characters"))
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()

	first, last := users.SplitName(registerName)
	resp, err := rt.client.Register(ctx, client.RegisterRequest{
		FirstName: first,
		LastName:  last,
		Email:     registerEmail,
		Phone:     registerPhone,
		Password:  password,
		Role:      role,
	})
	if err != nil {
		return fail(w, err)
	}

	u := users.ToViewUser(resp.User)
	if err := writeOutput(w, u, func() string { return "Registered user:\n" + formatUserHuman(u) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}
