// Package httputil provides utility functions for HTTP servers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starquake/trivia/internal/logging"
)

const (
	base10    = 10
	int64Size = 64

	// MaxBodyBytes is the largest request body DecodeJSON reads.
	MaxBodyBytes = 1 << 20
)

var (
	// ErrEmptyBody is returned by DecodeJSON when the request has no body.
	ErrEmptyBody = errors.New("empty request body")
	// ErrTrailingData is returned by DecodeJSON when the body holds more than one JSON value.
	ErrTrailingData = errors.New("unexpected data after the JSON value")
)

var messages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "internal server error",
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Success  bool              `json:"success"`
	Error    int               `json:"error"`
	Messages string            `json:"messages"`
	Problems map[string]string `json:"problems,omitempty"`
}

// Message returns the envelope message for an HTTP status.
func Message(status int) string {
	if msg, ok := messages[status]; ok {
		return msg
	}

	return strings.ToLower(http.StatusText(status))
}

// IDFromString parses an int64 ID from the given string.
// returns 0 if the path value is empty.
func IDFromString(pathValue string) (int64, error) {
	if pathValue == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(pathValue, base10, int64Size)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %w", pathValue, err)
	}

	return id, nil
}

// ParseIDFromPath parses an int64 ID from the given path value.
// It returns the parsed ID and true if the parsing was successful.
// It writes a 400 error response if the path value cannot be parsed.
func ParseIDFromPath(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := IDFromString(r.PathValue(name))
	if err != nil {
		logger.InfoContext(r.Context(), "error parsing "+name, logging.ErrAttr(err))
		WriteError(w, r, logger, http.StatusBadRequest, nil)

		return 0, false
	}

	return id, true
}

// QueryInt returns the integer query parameter name, or def if it is absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("error parsing query parameter %s=%q: %w", name, v, err)
	}

	return n, nil
}

// EncodeJSON encodes v to JSON, sets status, and writes it to w.
func EncodeJSON[T any](w http.ResponseWriter, statusCode int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

// DecodeJSON decodes a single JSON value from the request body.
// Bodies larger than MaxBodyBytes and trailing data are rejected.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, ErrEmptyBody
		}

		return v, fmt.Errorf("failed to decode json: %w", err)
	}
	if dec.More() {
		return v, ErrTrailingData
	}

	return v, nil
}

// WriteError writes the error envelope for status. problems is omitted when empty.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, problems map[string]string) {
	res := ErrorResponse{
		Success:  false,
		Error:    status,
		Messages: Message(status),
		Problems: problems,
	}
	if err := EncodeJSON(w, status, res); err != nil {
		logger.ErrorContext(r.Context(), "error encoding ErrorResponse", logging.ErrAttr(err))
	}
}
