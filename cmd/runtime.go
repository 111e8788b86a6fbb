// ABOUTME: Shared wiring for commands that talk to the backend
// ABOUTME: Builds config, session store, API client, session holder and user service

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/config"
	"github.com/markalston/trainer-admin/internal/session"
	"github.com/markalston/trainer-admin/internal/storage"
	"github.com/markalston/trainer-admin/internal/users"
)

type appRuntime struct {
	cfg     *config.Config
	client  *client.Client
	store   storage.Store
	session *session.Holder
	users   *users.Service
}

// newRuntime loads configuration, applies flag overrides and restores any
// persisted session
func newRuntime(ctx context.Context) (*appRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		if err := config.ValidateURL(apiURL); err != nil {
			return nil, fmt.Errorf("--api-url: %w", err)
		}
		cfg.APIURL = apiURL
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if storeKind != "" {
		kind, err := storage.ParseKind(storeKind)
		if err != nil {
			return nil, fmt.Errorf("--store: %w", err)
		}
		cfg.Store = kind
	}

	store, err := storage.Open(cfg.Store, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	c := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	holder := session.New(c, store)
	c.SetTokenSource(holder)
	holder.Restore(ctx)

	return &appRuntime{
		cfg:     cfg,
		client:  c,
		store:   store,
		session: holder,
		users:   users.NewService(c),
	}, nil
}

func (r *appRuntime) Close() error {
	return r.store.Close()
}

// requireSession is the authenticated guard for scripted commands
func (r *appRuntime) requireSession(w io.Writer) bool {
	if err := session.RequireAuthenticated(r.session.Snapshot()); err != nil {
		fmt.Fprintln(w, "Error: not logged in. Run 'trainer-admin login' first.")
		return false
	}
	return true
}

// exitCodeFor maps a failure to the documented exit codes
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, session.ErrAccessDenied),
		errors.Is(err, session.ErrNotAuthenticated),
		users.IsPermanent(err):
		return exitRejected
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case client.KindValidation, client.KindServer, client.KindStatus, client.KindRejected:
			return exitRejected
		}
	}
	return exitError
}

// printError writes err the way every command reports failures
func printError(w io.Writer, err error) {
	msg := err.Error()
	if !strings.HasPrefix(msg, "Error") {
		msg = "Error: " + msg
	}
	fmt.Fprintln(w, msg)
}

// fail reports err and returns its exit code
func fail(w io.Writer, err error) int {
	printError(w, err)
	return exitCodeFor(err)
}
