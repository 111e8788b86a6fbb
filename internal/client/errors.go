// ABOUTME: Error taxonomy shared by every backend call
// ABOUTME: Normalizes transport, validation, server, and status failures to one type

package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies where a failure came from
type ErrorKind int

const (
	// KindTransport means no HTTP response was received
	KindTransport ErrorKind = iota
	// KindValidation means the body carried a field-level errors map
	KindValidation
	// KindServer means the body carried a message field
	KindServer
	// KindStatus means the body carried neither errors nor message
	KindStatus
	// KindRejected means a 2xx body reported success=false
	KindRejected
	// KindDecode means a 2xx body could not be decoded
	KindDecode
)

// String returns the kind name used in logs
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindStatus:
		return "status"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the normalized failure returned by every Client method
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status, zero for transport failures
	Message string // human-readable message shown to the user
	Field   string // first failing field for validation errors
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a failure to reach the backend
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}

// StatusCode returns the HTTP status carried by err, or zero
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// parseErrorResponse builds an Error from a non-2xx response body.
// The errors map is walked in document order so "first field" means the
// first field the backend listed.
func parseErrorResponse(status int, body []byte) *Error {
	fallback := &Error{
		Kind:    KindStatus,
		Status:  status,
		Message: fmt.Sprintf("Error %d: %s", status, http.StatusText(status)),
	}
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fallback
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return fallback
	}

	var field, first string
	if errs := result.Get("errors"); errs.IsObject() {
		errs.ForEach(func(key, value gjson.Result) bool {
			field = key.String()
			switch {
			case value.IsArray():
				if msgs := value.Array(); len(msgs) > 0 {
					first = msgs[0].String()
				}
			case value.Type == gjson.String:
				first = value.String()
			}
			return false
		})
	}
	if first != "" {
		return &Error{Kind: KindValidation, Status: status, Message: first, Field: field}
	}

	if msg := result.Get("message").String(); msg != "" {
		return &Error{Kind: KindServer, Status: status, Message: msg}
	}

	return fallback
}
