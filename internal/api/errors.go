package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingBaseURL is returned when no API base URL is configured
	ErrMissingBaseURL = errors.New("missing API_URL configuration")
	// ErrNotFound matches a 404 from a singular-resource endpoint
	ErrNotFound = errors.New("not found")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded or validated
	ErrInvalidResponse = errors.New("invalid response")
)

// Error is a non-2xx response from the API
type Error struct {
	Op         string
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match a 404
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// errorBody covers both {"message": ...} and {"error": ...} shapes
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newError builds an Error whose message is never empty
func newError(op string, status int, body []byte, requestID string) *Error {
	return &Error{
		Op:         op,
		StatusCode: status,
		Message:    errorMessage(op, status, body),
		RequestID:  requestID,
	}
}

func errorMessage(op string, status int, body []byte) string {
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		if m := strings.TrimSpace(text); m != "" && !looksLikeHTML(m) {
			return m
		}
		return fmt.Sprintf("%s failed with status %d", op, status)
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if m := strings.TrimSpace(eb.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(eb.Error); m != "" {
			return m
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && !looksLikeHTML(text) {
		return text
	}
	return fmt.Sprintf("%s failed with status %d", op, status)
}

func looksLikeHTML(s string) bool {
	return strings.HasPrefix(s, "<")
}

// Message extracts a user-presentable message from any error
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
