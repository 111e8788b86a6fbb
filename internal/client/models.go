// ABOUTME: Wire types for the training platform REST API
// ABOUTME: Field names follow the backend's USR_* JSON contract

package client

// Role is the authoritative account role reported by the backend
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleTrainee Role = "trainee"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleTrainee:
		return true
	}
	return false
}

// RoleFilter is the path segment accepted by GET /admin/getAllUsers/{filter}
type RoleFilter string

const (
	FilterAll     RoleFilter = "all"
	FilterTrainer RoleFilter = "trainer"
	FilterTrainee RoleFilter = "trainee"
)

// BackendUser is the user record shape returned by the API
type BackendUser struct {
	ID        int64  `json:"USR_ID"`
	FirstName string `json:"USR_Name"`
	LastName  string `json:"USR_LastName"`
	Email     string `json:"USR_Email"`
	Phone     string `json:"USR_Phone"`
	Role      Role   `json:"USR_UserRole"`
	FCM       string `json:"USR_FCM,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Envelope carries the success flag and message present on every response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e Envelope) envelope() Envelope { return e }

type enveloped interface {
	envelope() Envelope
}

// LoginRequest represents credentials for POST /login
type LoginRequest struct {
	Email      string `json:"USR_Email"`
	Password   string `json:"USR_Password"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResponse represents the result of POST /login
type LoginResponse struct {
	Envelope
	User  BackendUser `json:"data"`
	Token string      `json:"token"`
}

// LogoutResponse represents the result of POST /logout
type LogoutResponse struct {
	Envelope
	Error string `json:"error,omitempty"`
}

// RegisterRequest is the body of POST /register and POST /admin/createUser
type RegisterRequest struct {
	FirstName string `json:"USR_Name"`
	LastName  string `json:"USR_LastName"`
	Email     string `json:"USR_Email"`
	Phone     string `json:"USR_Phone"`
	Password  string `json:"USR_Password"`
	Role      Role   `json:"USR_UserRole"`
}

// UpdateRequest is the partial body of PUT /admin/updateUser/{id}.
// Nil fields are omitted so the backend leaves them unchanged.
type UpdateRequest struct {
	FirstName *string `json:"USR_Name,omitempty"`
	LastName  *string `json:"USR_LastName,omitempty"`
	Email     *string `json:"USR_Email,omitempty"`
	Phone     *string `json:"USR_Phone,omitempty"`
	Password  *string `json:"USR_Password,omitempty"`
	Role      *Role   `json:"USR_UserRole,omitempty"`
}

// UserResponse wraps a single user record
type UserResponse struct {
	Envelope
	User BackendUser `json:"data"`
}

// GetAllUsersResponse represents GET /admin/getAllUsers/{filter}
type GetAllUsersResponse struct {
	Envelope
	FilterApplied string        `json:"filter_applied"`
	TotalUsers    int           `json:"total_users"`
	Users         []BackendUser `json:"data"`
}

// DeleteResponse represents DELETE /admin/deleteUser/{id}
type DeleteResponse struct {
	Envelope
	User *BackendUser `json:"data,omitempty"`
}
