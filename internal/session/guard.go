package session

import "errors"

var (
	// ErrNotAuthenticated gates screens and commands that need a session
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrAlreadyAuthenticated gates the login screen
	ErrAlreadyAuthenticated = errors.New("already logged in")
)

// Destination is where navigation should land for a given state
type Destination int

const (
	ToLogin Destination = iota
	ToDashboard
)

// RequireAuthenticated allows navigation only with an active session
func RequireAuthenticated(s State) error {
	if !s.IsAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireGuest allows navigation only without an active session
func RequireGuest(s State) error {
	if s.IsAuthenticated {
		return ErrAlreadyAuthenticated
	}
	return nil
}

// Route picks the landing screen for s
func Route(s State) Destination {
	if s.IsAuthenticated {
		return ToDashboard
	}
	return ToLogin
}
