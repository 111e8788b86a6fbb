// ABOUTME: User access layer over the admin endpoints
// ABOUTME: One remote call per operation, with a shared observable user list

package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markalston/trainer-admin/internal/client"
	"github.com/markalston/trainer-admin/internal/observable"
)

// DefaultPassword is submitted when a new user is created without one
const DefaultPassword = "Password123"

// ErrToggleNotImplemented is returned by ToggleUserStatus
var ErrToggleNotImplemented = errors.New("toggling user status is not implemented by the backend")

// IsPermanent reports whether err will fail the same way on every retry
func IsPermanent(err error) bool {
	return errors.Is(err, ErrToggleNotImplemented)
}

// ListFilter selects which users the backend returns
type ListFilter = client.RoleFilter

const (
	FilterAll     = client.FilterAll
	FilterTrainer = client.FilterTrainer
	FilterTrainee = client.FilterTrainee
)

// ParseListFilter converts user input to a ListFilter. Empty means all.
func ParseListFilter(s string) (ListFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "trainer":
		return FilterTrainer, nil
	case "trainee":
		return FilterTrainee, nil
	}
	return "", fmt.Errorf("invalid filter %q: must be one of all, trainer, trainee", s)
}

// UserAPI is the subset of the backend client the service needs
type UserAPI interface {
	GetAllUsers(ctx context.Context, filter client.RoleFilter) (*client.GetAllUsersResponse, error)
	CreateUser(ctx context.Context, req client.RegisterRequest) (*client.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, req client.UpdateRequest) (*client.UserResponse, error)
	DeleteUser(ctx context.Context, id int64) (*client.DeleteResponse, error)
}

// NewUser is the input for CreateUser
type NewUser struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     Role
}

// UserPatch is the input for UpdateUser. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
	Role     *Role
}

// Snapshot is a list and its stats fetched together
type Snapshot struct {
	Users []ViewUser `json:"users" yaml:"users"`
	Stats Stats      `json:"stats" yaml:"stats"`
}

// Service performs user administration against the backend
type Service struct {
	api   UserAPI
	users *observable.Value[[]ViewUser]
}

// NewService creates a service with an empty cached list
func NewService(api UserAPI) *Service {
	return &Service{
		api:   api,
		users: observable.New[[]ViewUser](nil),
	}
}

// Users is the most recently listed users. Subscribers must not modify
// the slices they receive.
func (s *Service) Users() *observable.Value[[]ViewUser] {
	return s.users
}

// ListUsers fetches users matching filter and publishes them to Users
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]ViewUser, error) {
	resp, err := s.api.GetAllUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	list := ToViewUsers(resp.Users)
	s.users.Set(list)
	slog.Debug("Listed users", "filter", filter, "count", len(list))
	return list, nil
}

// GetUserStats fetches every user and reduces them to Stats.
// The cached list is not touched.
func (s *Service) GetUserStats(ctx context.Context) (Stats, error) {
	resp, err := s.api.GetAllUsers(ctx, FilterAll)
	if err != nil {
		return Stats{}, err
	}
	return CalculateStats(ToViewUsers(resp.Users)), nil
}

// CreateUser submits a new account. An empty password becomes DefaultPassword.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (ViewUser, error) {
	if !in.Role.Valid() {
		return ViewUser{}, fmt.Errorf("invalid role %q", in.Role)
	}
	first, last := SplitName(in.Name)
	password := in.Password
	if password == "" {
		password = DefaultPassword
	}

	resp, err := s.api.CreateUser(ctx, client.RegisterRequest{
		FirstName: first,
		LastName:  last,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  password,
		Role:      in.Role,
	})
	if err != nil {
		return ViewUser{}, err
	}
	slog.Info("Created user", "user_id", resp.User.ID, "email", resp.User.Email)
	return ToViewUser(resp.User), nil
}

// UpdateUser sends only the fields set in patch. A blank password is dropped.
func (s *Service) UpdateUser(ctx context.Context, id int64, patch UserPatch) (ViewUser, error) {
	req, err := patch.request()
	if err != nil {
		return ViewUser{}, err
	}
	resp, err := s.api.UpdateUser(ctx, id, req)
	if err != nil {
		return ViewUser{}, err
	}
	slog.Info("Updated user", "user_id", id)
	return ToViewUser(resp.User), nil
}

func (p UserPatch) request() (client.UpdateRequest, error) {
	var req client.UpdateRequest
	if p.Name != nil {
		first, last := SplitName(*p.Name)
		req.FirstName = &first
		req.LastName = &last
	}
	req.Email = p.Email
	req.Phone = p.Phone
	if p.Password != nil && strings.TrimSpace(*p.Password) != "" {
		req.Password = p.Password
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return client.UpdateRequest{}, fmt.Errorf("invalid role %q", *p.Role)
		}
		req.Role = p.Role
	}
	return req, nil
}

// DeleteUser permanently removes a user
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	slog.Info("Deleted user", "user_id", id)
	return nil
}

// ToggleUserStatus always fails; the backend has no status endpoint
func (s *Service) ToggleUserStatus(_ context.Context, id int64) (ViewUser, error) {
	slog.Debug("Toggle user status requested", "user_id", id)
	return ViewUser{}, ErrToggleNotImplemented
}

// Refresh lists users and fetches stats concurrently
func (s *Service) Refresh(ctx context.Context, filter ListFilter) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.ListUsers(ctx, filter)
		snap.Users = list
		return err
	})
	g.Go(func() error {
		stats, err := s.GetUserStats(ctx)
		snap.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
