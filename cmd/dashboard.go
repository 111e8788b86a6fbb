// ABOUTME: Dashboard command for trainer-admin CLI
// ABOUTME: Launches the interactive terminal dashboard

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/logger"
	"github.com/markalston/trainer-admin/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive user dashboard",
	Long: `Open the interactive dashboard. Without a stored session it starts at the
login screen. Logs go to debug.log in the state directory while it runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runDashboard(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// runDashboard runs the TUI until the user quits
func runDashboard(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer rt.Close()

	logFile, err := logger.InitFile(rt.cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else {
		defer logFile.Close()
	}

	if err := tui.Run(ctx, rt.session, rt.users); err != nil {
		return fail(w, err)
	}
	return exitOK
}
