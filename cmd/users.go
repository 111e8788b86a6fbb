// ABOUTME: User administration commands for trainer-admin CLI
// ABOUTME: List, create, update, delete and toggle platform accounts

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/users"
)

var (
	listRole       string
	listSearch     string
	listFilterRole string

	userName     string
	userEmail    string
	userPhone    string
	userRole     string
	userPassword string
	createRole   string

	deleteYes bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage platform users",
	Long:  `Manage trainer, trainee and administrator accounts. Requires an administrator session.`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Long: `List users. --role asks the backend for trainers or trainees only; --search and
--filter-role narrow the result locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUsersList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user. The full name is split at the first space into first and last
name. Without --password the account gets the default password.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUsersCreate(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update a user",
	Long:  `Update a user. Only the flags given on the command line are sent.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUsersUpdate(ctx, os.Stdout, args[0], patchFromFlags(cmd))
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Permanently delete a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUsersDelete(ctx, os.Stdout, os.Stdin, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var usersToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Toggle a user's active status",
	Long:  `Toggle a user's active status. The backend does not support this yet, so it always fails.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUsersToggle(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd, usersToggleCmd)

	usersListCmd.Flags().StringVar(&listRole, "role", "all", "Backend filter: all, trainer, trainee")
	usersListCmd.Flags().StringVar(&listSearch, "search", "", "Case-insensitive match on name or email")
	usersListCmd.Flags().StringVar(&listFilterRole, "filter-role", "", "Keep only this role: admin, trainer, trainee")

	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().StringVar(&userName, "name", "", "Full name")
		c.Flags().StringVar(&userEmail, "email", "", "Email address")
		c.Flags().StringVar(&userPhone, "phone", "", "Phone number")
		c.Flags().StringVar(&userPassword, "password", "", "Password (at least 8 characters)")
	}
	usersCreateCmd.Flags().StringVar(&createRole, "role", string(users.RoleTrainee), "Role: admin, trainer, trainee")
	usersUpdateCmd.Flags().StringVar(&userRole, "role", "", "Role: admin, trainer, trainee")

	usersDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

// patchFromFlags builds a patch holding only the flags the user set
func patchFromFlags(cmd *cobra.Command) userPatchInput {
	var in userPatchInput
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = &userName
	}
	if flags.Changed("email") {
		in.Email = &userEmail
	}
	if flags.Changed("phone") {
		in.Phone = &userPhone
	}
	if flags.Changed("password") {
		in.Password = &userPassword
	}
	if flags.Changed("role") {
		in.Role = &userRole
	}
	return in
}

// userPatchInput is the raw flag view of a patch before role parsing
type userPatchInput struct {
	Name, Email, Phone, Password, Role *string
}

func (in userPatchInput) toPatch() (users.UserPatch, error) {
	patch := users.UserPatch{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	}
	if in.Password != nil && *in.Password != "" && len(*in.Password) < 8 {
		return users.UserPatch{}, errors.New("password must be at least 8 characters")
	}
	if in.Role != nil {
		r, err := users.ParseRole(*in.Role)
		if err != nil {
			return users.UserPatch{}, err
		}
		patch.Role = &r
	}
	return patch, nil
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

// formatUsersHuman renders users as an aligned table
func formatUsersHuman(list []users.ViewUser) string {
	if len(list) == 0 {
		return "No users found."
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tPHONE\tSTATUS\tCREATED")
	for _, u := range list {
		created := "-"
		if u.CreatedAt != nil {
			created = u.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Name, u.Email, u.Role, u.Phone, statusLabel(u.IsActive), created)
	}
	tw.Flush()
	return fmt.Sprintf("%s\n%d user(s)", bytes.TrimRight(buf.Bytes(), "\n"), len(list))
}

// formatUserHuman renders one user as key/value lines
func formatUserHuman(u users.ViewUser) string {
	return fmt.Sprintf(`ID:      %d
Name:    %s
Email:   %s
Role:    %s
Phone:   %s
Status:  %s`, u.ID, u.Name, u.Email, u.Role, u.Phone, statusLabel(u.IsActive))
}

func statusLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// runUsersList lists users and returns exit code
func runUsersList(ctx context.Context, w io.Writer) int {
	filter, err := users.ParseListFilter(listRole)
	if err != nil {
		return fail(w, err)
	}
	var localRole users.Role
	if listFilterRole != "" {
		if localRole, err = users.ParseRole(listFilterRole); err != nil {
			return fail(w, err)
		}
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	list, err := rt.users.ListUsers(ctx, filter)
	if err != nil {
		return fail(w, err)
	}
	list = users.Filter(list, listSearch, localRole)

	if err := writeOutput(w, list, func() string { return formatUsersHuman(list) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// runUsersCreate creates a user and returns exit code
func runUsersCreate(ctx context.Context, w io.Writer) int {
	if userName == "" || userEmail == "" {
		return fail(w, errors.New("--name and --email are required"))
	}
	if userPassword != "" && len(userPassword) < 8 {
		return fail(w, errors.New("password must be at least 8 characters"))
	}
	role, err := users.ParseRole(createRole)
	if err != nil {
		return fail(w, err)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	u, err := rt.users.CreateUser(ctx, users.NewUser{
		Name:     userName,
		Email:    userEmail,
		Phone:    userPhone,
		Password: userPassword,
		Role:     role,
	})
	if err != nil {
		return fail(w, err)
	}

	if err := writeOutput(w, u, func() string { return "Created user:\n" + formatUserHuman(u) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// runUsersUpdate applies a partial update and returns exit code
func runUsersUpdate(ctx context.Context, w io.Writer, rawID string, in userPatchInput) int {
	id, err := parseUserID(rawID)
	if err != nil {
		return fail(w, err)
	}
	patch, err := in.toPatch()
	if err != nil {
		return fail(w, err)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	u, err := rt.users.UpdateUser(ctx, id, patch)
	if err != nil {
		return fail(w, err)
	}

	if err := writeOutput(w, u, func() string { return "Updated user:\n" + formatUserHuman(u) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// runUsersDelete deletes a user after confirmation and returns exit code
func runUsersDelete(ctx context.Context, w io.Writer, in io.Reader, rawID string) int {
	id, err := parseUserID(rawID)
	if err != nil {
		return fail(w, err)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	if !deleteYes && !confirm(in, w, fmt.Sprintf("Permanently delete user %d? This cannot be undone.", id)) {
		fmt.Fprintln(w, "Aborted.")
		return exitRejected
	}

	if err := rt.users.DeleteUser(ctx, id); err != nil {
		return fail(w, err)
	}
	fmt.Fprintf(w, "Deleted user %d.\n", id)
	return exitOK
}

// runUsersToggle reports that status toggling is unavailable
func runUsersToggle(ctx context.Context, w io.Writer, rawID string) int {
	id, err := parseUserID(rawID)
	if err != nil {
		return fail(w, err)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	_, err = rt.users.ToggleUserStatus(ctx, id)
	return fail(w, err)
}
