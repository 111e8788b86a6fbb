// ABOUTME: HTTP client for the training platform REST API
// ABOUTME: Wraps auth and admin user endpoints with a single error-normalization path

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request when no other timeout is configured
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 1 << 20

// TokenSource supplies the bearer token attached to requests
type TokenSource interface {
	Token() string
}

// Client is the API client for the training platform backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the overall request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource attaches a bearer token provider
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource attaches a bearer token provider after construction.
// Must be called before the client is shared between goroutines.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Login calls POST /login
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout calls POST /logout
func (c *Client) Logout(ctx context.Context) (*LogoutResponse, error) {
	var resp LogoutResponse
	if err := c.do(ctx, http.MethodPost, "/logout", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /register
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAllUsers calls GET /admin/getAllUsers/{filter}
func (c *Client) GetAllUsers(ctx context.Context, filter RoleFilter) (*GetAllUsersResponse, error) {
	if filter == "" {
		filter = FilterAll
	}
	var resp GetAllUsersResponse
	path := "/admin/getAllUsers/" + url.PathEscape(string(filter))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateUser calls POST /admin/createUser
func (c *Client) CreateUser(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := c.do(ctx, http.MethodPost, "/admin/createUser", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateUser calls PUT /admin/updateUser/{id}
func (c *Client) UpdateUser(ctx context.Context, id int64, req UpdateRequest) (*UserResponse, error) {
	var resp UserResponse
	path := fmt.Sprintf("/admin/updateUser/%d", id)
	if err := c.do(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteUser calls DELETE /admin/deleteUser/{id}
func (c *Client) DeleteUser(ctx context.Context, id int64) (*DeleteResponse, error) {
	var resp DeleteResponse
	path := fmt.Sprintf("/admin/deleteUser/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs one request and decodes the JSON response into out.
// Every failure leaves here as a *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: fmt.Sprintf("Error: failed to marshal request: %v", err), Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("Error: failed to create request: %v", err), Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Backend request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	slog.Debug("Backend request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.handleRequestError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Kind:    KindDecode,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid response from backend: %v", err),
			Err:     err,
		}
	}

	if env, ok := out.(enveloped); ok {
		if e := env.envelope(); !e.Success {
			msg := e.Message
			if msg == "" {
				msg = "backend reported failure"
			}
			return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: msg}
		}
	}

	return nil
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	var text string
	switch {
	case ctx.Err() == context.Canceled:
		text = "request canceled"
		err = ctx.Err()
	case ctx.Err() == context.DeadlineExceeded:
		text = "request timed out"
		err = ctx.Err()
	default:
		text = fmt.Sprintf("cannot connect to backend at %s: %v", c.baseURL, err)
	}
	return &Error{Kind: KindTransport, Message: "Error: " + text, Err: err}
}
