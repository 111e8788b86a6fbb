// ABOUTME: Tests for the users and stats commands
// ABOUTME: Runs each subcommand against the in-memory backend

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/markalston/trainer-admin/internal/fakebackend"
)

func resetUserFlags() {
	listRole, listSearch, listFilterRole = "all", "", ""
	userName, userEmail, userPhone, userRole, userPassword = "", "", "", "", ""
	createRole = "trainee"
	deleteYes = false
}

func withAdmin(t *testing.T) *fakebackend.Backend {
	t.Helper()
	b := withBackend(t)
	loginAs(t, fakebackend.AdminEmail, fakebackend.AdminPassword)
	resetUserFlags()
	t.Cleanup(resetUserFlags)
	return b
}

func strPtr(s string) *string { return &s }

func TestUsersList_RequiresSession(t *testing.T) {
	withBackend(t)
	resetUserFlags()

	var buf bytes.Buffer
	if code := runUsersList(context.Background(), &buf); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestUsersList_Table(t *testing.T) {
	withAdmin(t)

	var buf bytes.Buffer
	if code := runUsersList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	out := buf.String()
	for _, check := range []string{"ID", "NAME", "EMAIL", "Ada Admin", "Tom Trainer", "Ana Gomez", "4 user(s)"} {
		if !strings.Contains(out, check) {
			t.Errorf("expected output to contain '%s'", check)
		}
	}
}

func TestUsersList_SearchAndFilters(t *testing.T) {
	withAdmin(t)
	listSearch = "ana"
	jsonOutput = true

	var buf bytes.Buffer
	if code := runUsersList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 matches for 'ana', got %d", len(parsed))
	}
	if parsed[0]["name"] != "Ana Gomez" || parsed[1]["name"] != "Luis Ana" {
		t.Errorf("unexpected order or names: %v", parsed)
	}

	listRole = "trainer"
	listSearch = ""
	buf.Reset()
	if code := runUsersList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	parsed = nil
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 || parsed[0]["role"] != "trainer" {
		t.Errorf("expected only the trainer, got %v", parsed)
	}
}

func TestUsersList_InvalidFlags(t *testing.T) {
	withAdmin(t)

	listRole = "admin"
	var buf bytes.Buffer
	if code := runUsersList(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit code 2 for invalid --role, got %d", code)
	}

	listRole = "all"
	listFilterRole = "owner"
	buf.Reset()
	if code := runUsersList(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit code 2 for invalid --filter-role, got %d", code)
	}
}

func TestUsersCreate(t *testing.T) {
	b := withAdmin(t)
	userName = "Maria de la Cruz"
	userEmail = "maria@example.com"
	userPhone = "555-0199"
	createRole = "trainer"

	var buf bytes.Buffer
	if code := runUsersCreate(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Maria de la Cruz") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	u, ok := b.User(5)
	if !ok {
		t.Fatal("expected user 5 to exist")
	}
	if u.FirstName != "Maria" || u.LastName != "de la Cruz" {
		t.Errorf("expected split name, got %q / %q", u.FirstName, u.LastName)
	}
	if b.Password(5) != "Password123" {
		t.Errorf("expected default password, got %q", b.Password(5))
	}
}

func TestUsersCreate_ValidationFromBackend(t *testing.T) {
	withAdmin(t)
	userName = "Dup User"
	userEmail = fakebackend.AdminEmail
	userPhone = "1"

	var buf bytes.Buffer
	if code := runUsersCreate(context.Background(), &buf); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if strings.TrimSpace(buf.String()) != "Error: The USR_Email has already been taken." {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestUsersCreate_BadInput(t *testing.T) {
	withAdmin(t)

	var buf bytes.Buffer
	if code := runUsersCreate(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit code 2 without --name, got %d", code)
	}

	userName, userEmail, userPassword = "A B", "a@b.io", "short"
	buf.Reset()
	if code := runUsersCreate(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit code 2 for short password, got %d", code)
	}
}

func TestUsersUpdate_OnlyChangedFields(t *testing.T) {
	b := withAdmin(t)

	var buf bytes.Buffer
	code := runUsersUpdate(context.Background(), &buf, "3", userPatchInput{Phone: strPtr("555-9999")})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	u, _ := b.User(3)
	if u.Phone != "555-9999" {
		t.Errorf("expected phone to change, got %s", u.Phone)
	}
	if u.FirstName != "Ana" || u.Email != "ana@example.com" {
		t.Errorf("expected other fields unchanged, got %+v", u)
	}
}

func TestUsersUpdate_NameAndRole(t *testing.T) {
	b := withAdmin(t)

	var buf bytes.Buffer
	code := runUsersUpdate(context.Background(), &buf, "4", userPatchInput{Name: strPtr("Luis Alberto Ana"), Role: strPtr("Trainer")})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	u, _ := b.User(4)
	if u.FirstName != "Luis" || u.LastName != "Alberto Ana" || u.Role != "trainer" {
		t.Errorf("unexpected user after update: %+v", u)
	}
}

func TestUsersUpdate_Errors(t *testing.T) {
	withAdmin(t)

	tests := []struct {
		name string
		id   string
		in   userPatchInput
		code int
	}{
		{"bad id", "abc", userPatchInput{}, 2},
		{"bad role", "3", userPatchInput{Role: strPtr("owner")}, 2},
		{"short password", "3", userPatchInput{Password: strPtr("short")}, 2},
		{"missing user", "99", userPatchInput{Phone: strPtr("1")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := runUsersUpdate(context.Background(), &buf, tt.id, tt.in); code != tt.code {
				t.Errorf("expected exit code %d, got %d: %s", tt.code, code, buf.String())
			}
		})
	}
}

func TestUsersDelete(t *testing.T) {
	b := withAdmin(t)

	var buf bytes.Buffer
	if code := runUsersDelete(context.Background(), &buf, strings.NewReader("n\n"), "3"); code != 1 {
		t.Errorf("expected exit code 1 when declined, got %d", code)
	}
	if _, ok := b.User(3); !ok {
		t.Fatal("user should survive a declined delete")
	}

	buf.Reset()
	if code := runUsersDelete(context.Background(), &buf, strings.NewReader("y\n"), "3"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if _, ok := b.User(3); ok {
		t.Error("expected user 3 to be deleted")
	}

	deleteYes = true
	buf.Reset()
	if code := runUsersDelete(context.Background(), &buf, strings.NewReader(""), "3"); code != 1 {
		t.Errorf("expected exit code 1 deleting a missing user, got %d", code)
	}
	if !strings.Contains(buf.String(), "User not found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestUsersToggle_AlwaysRejected(t *testing.T) {
	withAdmin(t)

	var buf bytes.Buffer
	if code := runUsersToggle(context.Background(), &buf, "2"); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "not implemented") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestStatsCommand(t *testing.T) {
	withAdmin(t)

	var buf bytes.Buffer
	if code := runStats(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	out := buf.String()
	for _, check := range []string{"Total users:  4", "Admins:       1", "Trainers:     1", "Trainees:     2"} {
		if !strings.Contains(out, check) {
			t.Errorf("expected output to contain '%s', got:\n%s", check, out)
		}
	}
}

func TestStatsCommand_YAML(t *testing.T) {
	withAdmin(t)
	outputFormat = "yaml"

	var buf bytes.Buffer
	if code := runStats(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "by_role:") || !strings.Contains(buf.String(), "trainee: 2") {
		t.Errorf("unexpected YAML: %s", buf.String())
	}
}

func TestFormatUsersHuman_Empty(t *testing.T) {
	if got := formatUsersHuman(nil); got != "No users found." {
		t.Errorf("unexpected output: %q", got)
	}
}
