// ABOUTME: Session state holder for the admin client
// ABOUTME: Login, logout and restore with durable persistence and subscribable state

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/observable"
	"github.com/markalston/trainer-admin/internal/storage"
)

// ErrAccessDenied is returned when the backend authenticates a non-admin account
var ErrAccessDenied = errors.New("access denied: only administrators can sign in")

// State is the client's current belief about who is logged in
type State struct {
	IsAuthenticated bool                `json:"is_authenticated"`
	User            *client.BackendUser `json:"user,omitempty"`
	Token           string              `json:"-"`
	Loading         bool                `json:"loading"`
	Error           string              `json:"error,omitempty"`
}

// Credentials are the inputs of a login attempt
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Authenticator performs the remote login and logout calls
type Authenticator interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
	Logout(ctx context.Context) (*client.LogoutResponse, error)
}

// Holder owns the session state. Create one per running client and pass it
// to whatever needs it.
type Holder struct {
	auth  Authenticator
	store storage.Store
	state *observable.Value[State]
}

// New creates an unauthenticated holder
func New(auth Authenticator, store storage.Store) *Holder {
	return &Holder{
		auth:  auth,
		store: store,
		state: observable.New(State{}),
	}
}

// Snapshot returns the current state
func (h *Holder) Snapshot() State {
	return h.state.Get()
}

// Token returns the current bearer token, empty when logged out
func (h *Holder) Token() string {
	return h.state.Get().Token
}

// IsAuthenticated reports whether a session is active
func (h *Holder) IsAuthenticated() bool {
	return h.state.Get().IsAuthenticated
}

// CurrentUser returns the logged-in user, or nil
func (h *Holder) CurrentUser() *client.BackendUser {
	return h.state.Get().User
}

// Subscribe delivers the current state and every later change, in order.
// The returned function ends the subscription.
func (h *Holder) Subscribe(fn func(State)) (cancel func()) {
	return h.state.Subscribe(fn)
}

// Restore loads a persisted session. If the stored data does not parse,
// both entries are cleared. It reports whether a session was restored.
func (h *Holder) Restore(ctx context.Context) bool {
	token, hasToken, err := h.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return h.restoreFailed(ctx, err)
	}
	userJSON, hasUser, err := h.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return h.restoreFailed(ctx, err)
	}
	if !hasToken || !hasUser || token == "" || userJSON == "" {
		return false
	}

	var user *client.BackendUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil || user == nil {
		h.discard(ctx, err)
		return false
	}

	h.state.Set(State{
		IsAuthenticated: true,
		User:            user,
		Token:           token,
	})
	slog.Debug("Session restored", "user_id", user.ID)
	return true
}

// Login authenticates against the backend. Only admin accounts are accepted;
// any other role yields ErrAccessDenied and nothing is persisted.
func (h *Holder) Login(ctx context.Context, creds Credentials) (*client.BackendUser, error) {
	h.setLoading()

	resp, err := h.auth.Login(ctx, client.LoginRequest{
		Email:      creds.Email,
		Password:   creds.Password,
		RememberMe: creds.RememberMe,
	})
	if err != nil {
		slog.Warn("Login failed", "email", creds.Email, "error", err)
		h.setFailed(err)
		return nil, err
	}

	if resp.User.Role != client.RoleAdmin {
		slog.Warn("Login denied for non-admin account", "email", creds.Email, "role", resp.User.Role)
		h.setFailed(ErrAccessDenied)
		return nil, ErrAccessDenied
	}

	user := resp.User
	if err := h.persist(ctx, resp.Token, &user); err != nil {
		if clearErr := h.clear(ctx); clearErr != nil {
			slog.Warn("Failed to clear partial session", "error", clearErr)
		}
		h.state.Set(State{Error: err.Error()})
		return nil, err
	}

	h.state.Set(State{
		IsAuthenticated: true,
		User:            &user,
		Token:           resp.Token,
	})
	slog.Info("Logged in", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

// Logout tells the backend and then unconditionally clears the local
// session. Remote failures are logged and swallowed; only a failure to clear
// local storage is returned.
func (h *Holder) Logout(ctx context.Context) error {
	h.setLoading()

	if _, err := h.auth.Logout(ctx); err != nil {
		slog.Warn("Logout request failed, clearing local session anyway", "error", err)
	}

	err := h.clear(ctx)
	h.state.Set(State{})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Info("Logged out")
	return nil
}

// restoreFailed handles a store read error: a corrupt store is cleared,
// anything else is left alone
func (h *Holder) restoreFailed(ctx context.Context, err error) bool {
	if errors.Is(err, storage.ErrCorrupt) {
		h.discard(ctx, err)
		return false
	}
	slog.Warn("Failed to read persisted session", "error", err)
	return false
}

// setFailed records a failed attempt. Whatever session was active stays
// active, both in memory and in storage.
func (h *Holder) setFailed(err error) {
	h.state.Update(func(s State) State {
		s.Loading = false
		s.Error = err.Error()
		return s
	})
}

// discard drops a persisted session that could not be parsed
func (h *Holder) discard(ctx context.Context, cause error) {
	slog.Warn("Discarding unreadable persisted session", "error", cause)
	if err := h.clear(ctx); err != nil {
		slog.Warn("Failed to clear persisted session", "error", err)
	}
}

func (h *Holder) setLoading() {
	h.state.Update(func(s State) State {
		s.Loading = true
		s.Error = ""
		return s
	})
}

func (h *Holder) persist(ctx context.Context, token string, user *client.BackendUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := h.store.Set(ctx, storage.KeyToken, token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := h.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (h *Holder) clear(ctx context.Context) error {
	return h.store.Delete(ctx, storage.KeyToken, storage.KeyUser)
}
