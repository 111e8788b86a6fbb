// ABOUTME: Tests for the session holder
// ABOUTME: Covers login, logout, restore and the published state sequence

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/storage"
)

type fakeAuth struct {
	mu        sync.Mutex
	resp      *client.LoginResponse
	loginErr  error
	logoutErr error
	lastReq   client.LoginRequest
	logouts   int
}

func (f *fakeAuth) Login(_ context.Context, req client.LoginRequest) (*client.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.resp, nil
}

func (f *fakeAuth) Logout(_ context.Context) (*client.LogoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	if f.logoutErr != nil {
		return nil, f.logoutErr
	}
	return &client.LogoutResponse{Envelope: client.Envelope{Success: true}}, nil
}

type failingStore struct {
	storage.Store
	getErr    error
	setErr    error
	deleteErr error
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, keys ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, keys...)
}

func adminLogin() *client.LoginResponse {
	return &client.LoginResponse{
		Envelope: client.Envelope{Success: true, Message: "Login successful"},
		User: client.BackendUser{
			ID:        1,
			FirstName: "Ada",
			LastName:  "Admin",
			Email:     "admin@example.com",
			Role:      client.RoleAdmin,
		},
		Token: "tok-123",
	}
}

func recordStates(t *testing.T, h *Holder) func() []State {
	t.Helper()
	var mu sync.Mutex
	var states []State
	cancel := h.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	t.Cleanup(cancel)
	return func() []State {
		mu.Lock()
		defer mu.Unlock()
		return append([]State(nil), states...)
	}
}

func TestLoginAdminPersistsSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	auth := &fakeAuth{resp: adminLogin()}
	h := New(auth, store)
	states := recordStates(t, h)

	user, err := h.Login(ctx, Credentials{Email: "admin@example.com", Password: "secret", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.True(t, auth.lastReq.RememberMe)
	assert.Equal(t, "admin@example.com", auth.lastReq.Email)

	assert.True(t, h.IsAuthenticated())
	assert.Equal(t, "tok-123", h.Token())
	assert.Equal(t, "Ada", h.CurrentUser().FirstName)

	token, ok, err := store.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", token)

	userJSON, ok, err := store.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, userJSON, `"USR_Email":"admin@example.com"`)

	got := states()
	require.Len(t, got, 3)
	assert.False(t, got[0].Loading)
	assert.True(t, got[1].Loading)
	assert.False(t, got[2].Loading)
	assert.True(t, got[2].IsAuthenticated)
}

func TestLoginNonAdminDenied(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	resp := adminLogin()
	resp.User.Role = client.RoleTrainer
	h := New(&fakeAuth{resp: resp}, store)

	user, err := h.Login(ctx, Credentials{Email: "t@example.com", Password: "pw"})
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrAccessDenied)

	s := h.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Equal(t, ErrAccessDenied.Error(), s.Error)
	assert.Empty(t, h.Token())

	_, ok, err := store.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginBackendErrorPublished(t *testing.T) {
	backendErr := &client.Error{Kind: client.KindServer, Status: 401, Message: "Invalid credentials"}
	h := New(&fakeAuth{loginErr: backendErr}, storage.NewMemoryStore())

	_, err := h.Login(context.Background(), Credentials{Email: "a@b.c", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, 401, client.StatusCode(err))

	s := h.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Equal(t, "Invalid credentials", s.Error)
}

func TestFailedLoginKeepsActiveSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	auth := &fakeAuth{resp: adminLogin()}
	h := New(auth, store)
	_, err := h.Login(ctx, Credentials{})
	require.NoError(t, err)

	trainer := adminLogin()
	trainer.User.Role = client.RoleTrainer
	trainer.Token = "tok-trainer"

	tests := []struct {
		name    string
		resp    *client.LoginResponse
		err     error
		wantErr string
	}{
		{"backend error", nil, errors.New("i/o timeout"), "i/o timeout"},
		{"non-admin", trainer, nil, ErrAccessDenied.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth.resp, auth.loginErr = tt.resp, tt.err
			_, err := h.Login(ctx, Credentials{})
			require.Error(t, err)

			s := h.Snapshot()
			assert.True(t, s.IsAuthenticated)
			assert.False(t, s.Loading)
			assert.Equal(t, tt.wantErr, s.Error)
			assert.Equal(t, "tok-123", s.Token)

			token, ok, err := store.Get(ctx, storage.KeyToken)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, s.Token, token)
		})
	}
}

func TestLoginClearsPreviousError(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("boom")}
	h := New(auth, storage.NewMemoryStore())

	_, err := h.Login(context.Background(), Credentials{})
	require.Error(t, err)
	require.Equal(t, "boom", h.Snapshot().Error)

	auth.loginErr = nil
	auth.resp = adminLogin()
	states := recordStates(t, h)

	_, err = h.Login(context.Background(), Credentials{})
	require.NoError(t, err)

	got := states()
	require.Len(t, got, 3)
	assert.Empty(t, got[1].Error)
	assert.True(t, got[1].Loading)
	assert.Empty(t, got[2].Error)
}

func TestLoginPersistFailureLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemoryStore()
	store := &failingStore{Store: inner, setErr: errors.New("disk full")}
	h := New(&fakeAuth{resp: adminLogin()}, store)

	_, err := h.Login(ctx, Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, h.IsAuthenticated())

	_, ok, err := inner.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	auth := &fakeAuth{resp: adminLogin()}
	h := New(auth, store)

	_, err := h.Login(ctx, Credentials{})
	require.NoError(t, err)

	auth.logoutErr = &client.Error{Kind: client.KindTransport, Message: "Error: request timed out"}
	require.NoError(t, h.Logout(ctx))
	assert.Equal(t, 1, auth.logouts)

	s := h.Snapshot()
	assert.Equal(t, State{}, s)

	_, ok, err := store.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutReturnsStorageError(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore()}
	h := New(&fakeAuth{resp: adminLogin()}, store)
	_, err := h.Login(ctx, Credentials{})
	require.NoError(t, err)

	store.deleteErr = errors.New("read-only")
	err = h.Logout(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	assert.False(t, h.IsAuthenticated())
}

func TestLogoutSendsTokenBeforeClearing(t *testing.T) {
	ctx := context.Background()
	var seen string
	h := New(nil, storage.NewMemoryStore())
	h.auth = authFunc(func() { seen = h.Token() })
	h.state.Set(State{IsAuthenticated: true, Token: "live"})

	require.NoError(t, h.Logout(ctx))
	assert.Equal(t, "live", seen)
	assert.Empty(t, h.Token())
}

type authFunc func()

func (f authFunc) Login(context.Context, client.LoginRequest) (*client.LoginResponse, error) {
	return nil, errors.New("unused")
}

func (f authFunc) Logout(context.Context) (*client.LogoutResponse, error) {
	f()
	return &client.LogoutResponse{}, nil
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("valid session", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyToken, "abc"))
		require.NoError(t, store.Set(ctx, storage.KeyUser, `{"USR_ID":7,"USR_Name":"Ada","USR_Email":"a@x.io","USR_UserRole":"admin"}`))

		h := New(&fakeAuth{}, store)
		assert.True(t, h.Restore(ctx))
		assert.True(t, h.IsAuthenticated())
		assert.Equal(t, "abc", h.Token())
		assert.Equal(t, int64(7), h.CurrentUser().ID)
	})

	t.Run("missing token", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyUser, `{"USR_ID":7}`))

		h := New(&fakeAuth{}, store)
		assert.False(t, h.Restore(ctx))
		assert.False(t, h.IsAuthenticated())
	})

	t.Run("missing user", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyToken, "abc"))

		h := New(&fakeAuth{}, store)
		assert.False(t, h.Restore(ctx))
	})

	for _, bad := range []string{"{not json", "null"} {
		t.Run("corrupt user "+bad, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, storage.KeyToken, "abc"))
			require.NoError(t, store.Set(ctx, storage.KeyUser, bad))

			h := New(&fakeAuth{}, store)
			assert.False(t, h.Restore(ctx))
			assert.False(t, h.IsAuthenticated())

			_, ok, err := store.Get(ctx, storage.KeyToken)
			require.NoError(t, err)
			assert.False(t, ok, "token should be cleared")
			_, ok, err = store.Get(ctx, storage.KeyUser)
			require.NoError(t, err)
			assert.False(t, ok, "user should be cleared")
		})
	}
}

func TestRestoreCorruptFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries":{"auth_token":"tok","auth_user":`), 0600))
	store := storage.NewFileStore(path)

	h := New(&fakeAuth{}, store)
	assert.False(t, h.Restore(ctx))
	assert.False(t, h.IsAuthenticated())

	_, ok, err := store.Get(ctx, storage.KeyToken)
	require.NoError(t, err, "store should be readable after restore")
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreReadErrorKeepsStore(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, storage.KeyToken, "abc"))
	store := &failingStore{Store: mem, getErr: errors.New("permission denied")}

	h := New(&fakeAuth{}, store)
	assert.False(t, h.Restore(ctx))

	token, ok, err := mem.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestSubscribeReplaysCurrentState(t *testing.T) {
	h := New(&fakeAuth{resp: adminLogin()}, storage.NewMemoryStore())
	_, err := h.Login(context.Background(), Credentials{})
	require.NoError(t, err)

	var got []State
	cancel := h.Subscribe(func(s State) { got = append(got, s) })
	defer cancel()

	require.Len(t, got, 1)
	assert.True(t, got[0].IsAuthenticated)
}
