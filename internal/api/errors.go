package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNetwork         = errors.New("network unreachable")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrInvalidResponse = errors.New("invalid server response")
)

// ValidationError reports a missing required input. No request is sent.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Message    string // server-provided, may be empty
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// NewStatusError builds a StatusError from a response body.
// JSON bodies with an "error" or "message" field are unwrapped; anything else
// is used as plain text.
func NewStatusError(code int, body []byte) *StatusError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &StatusError{StatusCode: code, Message: msg}
}

// UserMessage maps an error to a message fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.StatusCode == http.StatusBadRequest:
			return "Invalid input. Please check and try again."
		case status.StatusCode == http.StatusUnauthorized:
			return "Invalid email or password."
		case status.StatusCode == http.StatusNotFound:
			return "Not found."
		case status.StatusCode == http.StatusConflict:
			return "That already exists."
		case status.StatusCode >= 500:
			return "The server had a problem. Please try again later."
		case status.Message != "":
			return status.Message
		default:
			return "Something went wrong."
		}
	}

	switch {
	case errors.Is(err, ErrNetwork):
		return "Cannot reach the server. Check your connection."
	case errors.Is(err, ErrNotLoggedIn):
		return "You are not logged in."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}

	return "Something went wrong."
}
