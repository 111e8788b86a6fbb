// ABOUTME: Hidden dev-server command for trainer-admin CLI
// ABOUTME: Serves the in-memory backend so the client can be tried without the real API

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/trainer-admin/internal/fakebackend"
)

var devServerAddr string

var devServerCmd = &cobra.Command{
	Use:    "dev-server",
	Short:  "Serve an in-memory backend for local testing",
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runDevServer(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(devServerCmd)
	devServerCmd.Flags().StringVar(&devServerAddr, "addr", "127.0.0.1:8000", "Listen address")
}

// runDevServer serves until ctx is canceled
func runDevServer(ctx context.Context, w io.Writer) int {
	ln, err := net.Listen("tcp", devServerAddr)
	if err != nil {
		return fail(w, err)
	}

	srv := &http.Server{
		Handler:           fakebackend.NewSeeded().Handler("/api"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	fmt.Fprintf(w, "Serving fake backend at http://%s/api\n", ln.Addr())
	fmt.Fprintf(w, "Admin login: %s / %s\n", fakebackend.AdminEmail, fakebackend.AdminPassword)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Dev server shutdown failed", "error", err)
		}
		return exitOK
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return exitOK
		}
		return fail(w, err)
	}
}
