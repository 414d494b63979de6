package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAuth            = "AUTH_ERROR"
	ErrCodeRocketChatError = "ROCKETCHAT_ERROR"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeTimeout         = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapRocketChatError converts a library error into a coded error.
func WrapRocketChatError(err error) error {
	if err == nil {
		return nil
	}

	coded := &CodedError{Code: ErrCodeRocketChatError, Message: err.Error(), Cause: err}

	var apiErr *client.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		coded.Code = ErrCodeTimeout
		coded.Message = "request timed out"
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			coded.Code = ErrCodeAuth
		case apiErr.Kind == client.KindAuth && apiErr.StatusCode != 0 && apiErr.StatusCode < 500:
			coded.Code = ErrCodeAuth
		case client.IsNotFound(apiErr):
			coded.Code = ErrCodeNotFound
		}
	}

	slog.Warn("rocketchat API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
