// ABOUTME: In-memory implementation of the training platform REST API
// ABOUTME: Serves auth and admin endpoints on a gorilla/mux router for tests and local use

package fakebackend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/markalston/trainer-admin/internal/client"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Seeded accounts
const (
	AdminEmail      = "admin@example.com"
	AdminPassword   = "admin12345"
	TrainerEmail    = "trainer@example.com"
	TrainerPassword = "trainer12345"
)

type account struct {
	user     client.BackendUser
	password string
}

// Backend holds users and issued tokens
type Backend struct {
	mu       sync.Mutex
	accounts map[int64]*account
	tokens   map[string]int64
	nextID   int64
	now      func() time.Time

	failLogout bool
}

// New returns an empty backend
func New() *Backend {
	return &Backend{
		accounts: make(map[int64]*account),
		tokens:   make(map[string]int64),
		nextID:   1,
		now:      time.Now,
	}
}

// NewSeeded returns a backend with one admin, one trainer and two trainees
func NewSeeded() *Backend {
	b := New()
	b.AddUser(client.BackendUser{FirstName: "Ada", LastName: "Admin", Email: AdminEmail, Phone: "555-0100", Role: client.RoleAdmin}, AdminPassword)
	b.AddUser(client.BackendUser{FirstName: "Tom", LastName: "Trainer", Email: TrainerEmail, Phone: "555-0101", Role: client.RoleTrainer}, TrainerPassword)
	b.AddUser(client.BackendUser{FirstName: "Ana", LastName: "Gomez", Email: "ana@example.com", Phone: "555-0102", Role: client.RoleTrainee}, "trainee12345")
	b.AddUser(client.BackendUser{FirstName: "Luis", LastName: "Ana", Email: "luis@example.com", Phone: "555-0103", Role: client.RoleTrainee}, "trainee12345")
	return b
}

// AddUser stores u with a fresh id and returns the stored record
func (b *Backend) AddUser(u client.BackendUser, password string) client.BackendUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(u, password)
}

func (b *Backend) addLocked(u client.BackendUser, password string) client.BackendUser {
	ts := b.now().UTC().Format(timestampLayout)
	u.ID = b.nextID
	u.CreatedAt = ts
	u.UpdatedAt = ts
	b.nextID++
	b.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// User returns the stored record for id
func (b *Backend) User(id int64) (client.BackendUser, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		return client.BackendUser{}, false
	}
	return a.user, true
}

// Password returns the stored password for id
func (b *Backend) Password(id int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[id]; ok {
		return a.password
	}
	return ""
}

// ActiveTokens returns the number of tokens not yet logged out
func (b *Backend) ActiveTokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tokens)
}

// FailLogout makes POST /logout answer 500
func (b *Backend) FailLogout(fail bool) {
	b.mu.Lock()
	b.failLogout = fail
	b.mu.Unlock()
}

// Handler returns the API router mounted under prefix (for example "/api")
func (b *Backend) Handler(prefix string) http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)
	api := r.PathPrefix(prefix).Subrouter()

	api.HandleFunc("/login", b.handleLogin).Methods("POST")
	api.HandleFunc("/register", b.handleRegister).Methods("POST")
	api.Handle("/logout", b.authenticated(http.HandlerFunc(b.handleLogout))).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(b.authenticated, b.adminOnly)
	admin.HandleFunc("/getAllUsers/{filter}", b.handleGetAllUsers).Methods("GET")
	admin.HandleFunc("/createUser", b.handleRegister).Methods("POST")
	admin.HandleFunc("/updateUser/{id:[0-9]+}", b.handleUpdateUser).Methods("PUT")
	admin.HandleFunc("/deleteUser/{id:[0-9]+}", b.handleDeleteUser).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Route not found"})
	})
	return r
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.required("USR_Email", req.Email)
	errs.required("USR_Password", req.Password)
	if errs.any() {
		writeValidation(w, errs)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if strings.EqualFold(a.user.Email, req.Email) && a.password == req.Password {
			token := uuid.NewString()
			b.tokens[token] = a.user.ID
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Login successful",
				"data":    a.user,
				"token":   token,
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failLogout {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Logout failed"})
		return
	}
	delete(b.tokens, bearer(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successfully logged out"})
}

// handleRegister serves both public registration and admin creation
func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs fieldErrors
	errs.required("USR_Name", req.FirstName)
	errs.required("USR_LastName", req.LastName)
	errs.required("USR_Email", req.Email)
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		errs.add("USR_Email", "The USR_Email field must be a valid email address.")
	}
	if req.Email != "" && b.emailTakenLocked(req.Email, 0) {
		errs.add("USR_Email", "The USR_Email has already been taken.")
	}
	errs.required("USR_Phone", req.Phone)
	if len(req.Password) < 8 {
		errs.add("USR_Password", "The USR_Password field must be at least 8 characters.")
	}
	if !req.Role.Valid() {
		errs.add("USR_UserRole", "The selected USR_UserRole is invalid.")
	}
	if errs.any() {
		writeValidation(w, errs)
		return
	}

	u := b.addLocked(client.BackendUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
	}, req.Password)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"data":    u,
	})
}

func (b *Backend) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	filter := strings.ToLower(mux.Vars(r)["filter"])
	if filter != "all" && filter != "trainer" && filter != "trainee" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid filter. Use: trainer, trainee, or All",
		})
		return
	}

	b.mu.Lock()
	list := make([]client.BackendUser, 0, len(b.accounts))
	for _, a := range b.accounts {
		if filter == "all" || string(a.user.Role) == filter {
			list = append(list, a.user)
		}
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Users retrieved successfully",
		"filter_applied": filter,
		"total_users":    len(list),
		"data":           list,
	})
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var req client.UpdateRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "User not found"})
		return
	}

	var errs fieldErrors
	if req.Email != nil && b.emailTakenLocked(*req.Email, id) {
		errs.add("USR_Email", "The USR_Email has already been taken.")
	}
	if req.Password != nil && len(*req.Password) < 8 {
		errs.add("USR_Password", "The USR_Password field must be at least 8 characters.")
	}
	if req.Role != nil && !req.Role.Valid() {
		errs.add("USR_UserRole", "The selected USR_UserRole is invalid.")
	}
	if errs.any() {
		writeValidation(w, errs)
		return
	}

	setIf(&a.user.FirstName, req.FirstName)
	setIf(&a.user.LastName, req.LastName)
	setIf(&a.user.Email, req.Email)
	setIf(&a.user.Phone, req.Phone)
	setIf(&a.password, req.Password)
	if req.Role != nil {
		a.user.Role = *req.Role
	}
	a.user.UpdatedAt = b.now().UTC().Format(timestampLayout)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated successfully",
		"data":    a.user,
	})
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "User not found"})
		return
	}
	delete(b.accounts, id)
	for token, owner := range b.tokens {
		if owner == id {
			delete(b.tokens, token)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User deleted successfully",
		"data":    a.user,
	})
}

func (b *Backend) emailTakenLocked(email string, except int64) bool {
	for id, a := range b.accounts {
		if id != except && strings.EqualFold(a.user.Email, email) {
			return true
		}
	}
	return false
}

func (b *Backend) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		_, ok := b.tokens[bearer(r)]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		a := b.accounts[b.tokens[bearer(r)]]
		b.mu.Unlock()
		if a == nil || a.user.Role != client.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"success": false,
				"message": "Access denied. Admin role required.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Malformed JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fieldErrors keeps per-field messages in insertion order, the way the
// backend reports them.
type fieldErrors struct {
	fields   []string
	messages map[string][]string
}

func (e *fieldErrors) add(field, msg string) {
	if e.messages == nil {
		e.messages = make(map[string][]string)
	}
	if _, ok := e.messages[field]; !ok {
		e.fields = append(e.fields, field)
	}
	e.messages[field] = append(e.messages[field], msg)
}

func (e *fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.add(field, fmt.Sprintf("The %s field is required.", field))
	}
}

func (e *fieldErrors) any() bool { return len(e.fields) > 0 }

func (e fieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.messages[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValidation(w http.ResponseWriter, errs fieldErrors) {
	first := errs.messages[errs.fields[0]][0]
	writeJSON(w, http.StatusUnprocessableEntity, struct {
		Message string      `json:"message"`
		Errors  fieldErrors `json:"errors"`
	}{first, errs})
}
