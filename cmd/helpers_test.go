// ABOUTME: Test helpers for command tests
// ABOUTME: Starts an in-memory backend and points the global flags at it

package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/trainer-admin/internal/fakebackend"
)

// withBackend serves a seeded fake backend and isolates session state in a
// temp directory. Flags are reset when the test ends.
func withBackend(t *testing.T) *fakebackend.Backend {
	t.Helper()
	b := fakebackend.NewSeeded()
	srv := httptest.NewServer(b.Handler("/api"))

	apiURL = srv.URL + "/api"
	stateDir = t.TempDir()
	storeKind = "file"
	outputFormat = "text"
	jsonOutput = false

	t.Cleanup(func() {
		srv.Close()
		apiURL = ""
		stateDir = ""
		storeKind = ""
		outputFormat = "text"
		jsonOutput = false
	})
	return b
}

// loginAs performs a scripted login and fails the test on a non-zero exit
func loginAs(t *testing.T, email, password string) {
	t.Helper()
	loginEmail = email
	loginPasswordStdin = true
	defer resetLoginFlags()

	var buf bytes.Buffer
	if code := runLogin(context.Background(), &buf, strings.NewReader(password+"\n")); code != 0 {
		t.Fatalf("login failed with exit code %d: %s", code, buf.String())
	}
}

func resetLoginFlags() {
	loginEmail = ""
	loginPasswordStdin = false
	loginRemember = false
}
