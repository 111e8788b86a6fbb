// ABOUTME: View-model for platform users and conversion from the wire record
// ABOUTME: Name joining and splitting, role parsing, timestamp parsing

package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/markalston/trainer-admin/internal/client"
)

// Role is a platform account role
type Role = client.Role

const (
	RoleAdmin   = client.RoleAdmin
	RoleTrainer = client.RoleTrainer
	RoleTrainee = client.RoleTrainee
)

// Roles lists every role in display order
var Roles = []Role{RoleAdmin, RoleTrainer, RoleTrainee}

// ParseRole converts user input to a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: must be one of admin, trainer, trainee", s)
	}
	return r, nil
}

// ViewUser is the user shape shown by the dashboard and commands
type ViewUser struct {
	ID         int64      `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Email      string     `json:"email" yaml:"email"`
	Role       Role       `json:"role" yaml:"role"`
	IsActive   bool       `json:"is_active" yaml:"is_active"`
	Phone      string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Department string     `json:"department,omitempty" yaml:"department,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// The backend has no active flag, so every mapped user is active.
const defaultActive = true

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ToViewUser maps a backend record. The name is always first + " " + last,
// so a user without a last name keeps a trailing space.
func ToViewUser(u client.BackendUser) ViewUser {
	return ViewUser{
		ID:        u.ID,
		Name:      u.FirstName + " " + u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  defaultActive,
		Phone:     u.Phone,
		CreatedAt: parseTimestamp(u.CreatedAt),
		UpdatedAt: parseTimestamp(u.UpdatedAt),
	}
}

// ToViewUsers maps a slice of backend records, preserving order
func ToViewUsers(list []client.BackendUser) []ViewUser {
	out := make([]ViewUser, 0, len(list))
	for _, u := range list {
		out = append(out, ToViewUser(u))
	}
	return out
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// SplitName splits a display name on single spaces. The first token is the
// first name and the rest, re-joined with single spaces, is the last name.
// Multi-word first names do not survive a round trip.
func SplitName(name string) (first, last string) {
	parts := strings.Split(name, " ")
	first = parts[0]
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

// Initials returns up to two uppercase initials for an avatar
func Initials(name string) string {
	if name == "" {
		return "U"
	}
	parts := strings.Split(name, " ")
	if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[1]))
	}
	return strings.ToUpper(firstRune(strings.TrimSpace(name)))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
