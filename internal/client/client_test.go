// ABOUTME: Tests for the training platform API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("expected POST /api/login, got %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if req.Email != "admin@example.com" || req.Password != "secret" || !req.RememberMe {
			t.Errorf("unexpected login body: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LoginResponse{
			Envelope: Envelope{Success: true, Message: "ok"},
			User:     BackendUser{ID: 1, FirstName: "Ada", LastName: "Admin", Role: RoleAdmin},
			Token:    "tok-123",
		})
	}))
	defer server.Close()

	c := New(server.URL + "/api")
	resp, err := c.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "secret", RememberMe: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token != "tok-123" {
		t.Errorf("expected token tok-123, got %s", resp.Token)
	}
	if resp.User.Role != RoleAdmin {
		t.Errorf("expected admin role, got %s", resp.User.Role)
	}
}

func TestRequest_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(LogoutResponse{Envelope: Envelope{Success: true}})
	}))
	defer server.Close()

	c := New(server.URL, WithTokenSource(staticToken("tok-abc")))
	if _, err := c.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRequest_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no Authorization header, got %q", h)
		}
		json.NewEncoder(w).Encode(LogoutResponse{Envelope: Envelope{Success: true}})
	}))
	defer server.Close()

	c := New(server.URL, WithTokenSource(staticToken("")))
	if _, err := c.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetAllUsers_FilterPath(t *testing.T) {
	tests := []struct {
		filter RoleFilter
		path   string
	}{
		{FilterAll, "/admin/getAllUsers/all"},
		{FilterTrainer, "/admin/getAllUsers/trainer"},
		{FilterTrainee, "/admin/getAllUsers/trainee"},
		{"", "/admin/getAllUsers/all"},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("expected path %s, got %s", tt.path, r.URL.Path)
				}
				json.NewEncoder(w).Encode(GetAllUsersResponse{
					Envelope:   Envelope{Success: true},
					TotalUsers: 1,
					Users:      []BackendUser{{ID: 7, FirstName: "Tina", Role: RoleTrainer}},
				})
			}))
			defer server.Close()

			resp, err := New(server.URL).GetAllUsers(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(resp.Users) != 1 || resp.Users[0].ID != 7 {
				t.Errorf("unexpected users: %+v", resp.Users)
			}
		})
	}
}

func TestUpdateUser_EmptyPatchSendsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/admin/updateUser/42" {
			t.Errorf("expected PUT /admin/updateUser/42, got %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "{}" {
			t.Errorf("expected empty object body, got %s", body)
		}
		json.NewEncoder(w).Encode(UserResponse{Envelope: Envelope{Success: true}, User: BackendUser{ID: 42}})
	}))
	defer server.Close()

	if _, err := New(server.URL).UpdateUser(context.Background(), 42, UpdateRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/admin/deleteUser/9" {
			t.Errorf("expected DELETE /admin/deleteUser/9, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(DeleteResponse{Envelope: Envelope{Success: true}, User: &BackendUser{ID: 9}})
	}))
	defer server.Close()

	resp, err := New(server.URL).DeleteUser(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User == nil || resp.User.ID != 9 {
		t.Errorf("expected deleted record echo, got %+v", resp.User)
	}
}

func TestSuccessFalseIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Email already taken"})
	}))
	defer server.Close()

	_, err := New(server.URL).CreateUser(context.Background(), RegisterRequest{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Kind != KindRejected {
		t.Errorf("expected KindRejected, got %s", apiErr.Kind)
	}
	if apiErr.Error() != "Email already taken" {
		t.Errorf("unexpected message: %s", apiErr.Error())
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    ErrorKind
		message string
		field   string
	}{
		{
			name:    "message field",
			status:  http.StatusUnauthorized,
			body:    `{"success": false, "message": "Invalid credentials"}`,
			kind:    KindServer,
			message: "Invalid credentials",
		},
		{
			name:    "validation map uses first field in document order",
			status:  http.StatusUnprocessableEntity,
			body:    `{"message": "The given data was invalid.", "errors": {"USR_Phone": ["Phone is required", "Phone too short"], "USR_Email": ["Email is invalid"]}}`,
			kind:    KindValidation,
			message: "Phone is required",
			field:   "USR_Phone",
		},
		{
			name:    "validation map with empty first list falls back to message",
			status:  http.StatusUnprocessableEntity,
			body:    `{"message": "The given data was invalid.", "errors": {"USR_Email": []}}`,
			kind:    KindServer,
			message: "The given data was invalid.",
		},
		{
			name:    "neither message nor errors",
			status:  http.StatusInternalServerError,
			body:    `{"success": false}`,
			kind:    KindStatus,
			message: "Error 500: Internal Server Error",
		},
		{
			name:    "non-JSON body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			kind:    KindStatus,
			message: "Error 502: Bad Gateway",
		},
		{
			name:    "empty body",
			status:  http.StatusNotFound,
			body:    ``,
			kind:    KindStatus,
			message: "Error 404: Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := New(server.URL).GetAllUsers(context.Background(), FilterAll)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T (%v)", err, err)
			}
			if apiErr.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, apiErr.Kind)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
			if apiErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, apiErr.Field)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, StatusCode(err))
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	c := New("http://localhost:99999")
	_, err := c.GetAllUsers(context.Background(), FilterAll)
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if !IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(LogoutResponse{Envelope: Envelope{Success: true}})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := New(server.URL).Logout(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
	if err.Error() != "Error: request canceled" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected error to wrap context.Canceled")
	}
}

func TestContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(LogoutResponse{Envelope: Envelope{Success: true}})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(server.URL).Logout(ctx)
	if err == nil {
		t.Fatal("expected error for timed out context, got nil")
	}
	if err.Error() != "Error: request timed out" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestInvalidJSONOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer server.Close()

	_, err := New(server.URL).GetAllUsers(context.Background(), FilterAll)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleTrainer, RoleTrainee} {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if Role("owner").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}
