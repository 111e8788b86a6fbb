// ABOUTME: Stats command for trainer-admin CLI
// ABOUTME: Shows user totals by role and status

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/users"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runStats(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// runStats fetches user statistics and returns exit code
func runStats(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()
	if !rt.requireSession(w) {
		return exitRejected
	}

	stats, err := rt.users.GetUserStats(ctx)
	if err != nil {
		return fail(w, err)
	}
	if err := writeOutput(w, stats, func() string { return formatStatsHuman(stats) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatStatsHuman formats stats for human readability
func formatStatsHuman(s users.Stats) string {
	return fmt.Sprintf(`Total users:  %d
Active:       %d
Inactive:     %d

Admins:       %d
Trainers:     %d
Trainees:     %d`,
		s.Total, s.Active, s.Inactive,
		s.ByRole.Admin, s.ByRole.Trainer, s.ByRole.Trainee)
}
