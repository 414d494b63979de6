package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed operation.
type ErrorKind int

// Error kinds, one per family of operations.
const (
	KindFetch ErrorKind = iota
	KindAuth
	KindNotFound
	KindCreate
	KindUpdate
	KindDelete
	KindMembership
	KindPost
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindMembership:
		return "membership"
	case KindPost:
		return "post"
	default:
		return "fetch"
	}
}

// Sentinel errors for use with errors.Is. Any *Error matches the sentinel of
// its kind.
var (
	ErrFetch      = &Error{Kind: KindFetch}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrCreate     = &Error{Kind: KindCreate}
	ErrUpdate     = &Error{Kind: KindUpdate}
	ErrDelete     = &Error{Kind: KindDelete}
	ErrMembership = &Error{Kind: KindMembership}
	ErrPost       = &Error{Kind: KindPost}
)

// Error is returned by every operation that the server did not acknowledge
// with a success flag, and by operations whose request could not be sent.
type Error struct {
	Kind       ErrorKind
	Context    string // e.g. "Could not list users"
	StatusCode int    // 0 when no response was received
	Detail     string // server "error" field, raw body, or "unknown error!"
	Cause      error  // transport or decoding error, if any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Context == "" && t.Detail == "" && t.Cause == nil && t.Kind == e.Kind
}

// IsNotFound reports whether err is a lookup the server answered with a
// client error meaning the resource does not exist. Transport failures,
// rejected credentials and server errors never qualify, whatever the kind.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch {
	case e.StatusCode == http.StatusNotFound:
		return true
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return false
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return e.Kind == KindNotFound
	}
	return false
}

// errorBody is the part of a failure response we care about.
type errorBody struct {
	Error string `json:"error"`
}

// buildError turns a failed response into an *Error. The detail is, in
// order: the body's "error" field, the raw body, or "unknown error!".
func buildError(kind ErrorKind, statusCode int, body []byte, context string) error {
	detail := "unknown error!"
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		detail = eb.Error
	} else if raw := strings.TrimSpace(string(body)); raw != "" {
		detail = raw
	}
	return &Error{
		Kind:       kind,
		Context:    context,
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// transportError wraps a failure that happened before a usable response
// was available.
func transportError(kind ErrorKind, context string, err error) error {
	return &Error{
		Kind:    kind,
		Context: context,
		Detail:  err.Error(),
		Cause:   err,
	}
}
