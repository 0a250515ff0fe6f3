package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// maxMessageLength bounds the server message kept from a response body
const maxMessageLength = 200

// ErrorKind classifies a remote error
type ErrorKind string

const (
	// KindNone is returned for a nil error
	KindNone ErrorKind = ""
	// KindConnectivity means no response was received
	KindConnectivity ErrorKind = "connectivity"
	// KindServer means the server answered with a non-2xx status
	KindServer ErrorKind = "server"
	// KindClient means the request could not be constructed
	KindClient ErrorKind = "client"
	// KindUnknown is any other error
	KindUnknown ErrorKind = "unknown"
)

// ServerError is returned when the server responds with a non-2xx status
type ServerError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d for %s: %s", e.StatusCode, e.URL, e.Message)
}

// ConnectivityError is returned when the request produced no response
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

// Error returns the error message
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s %s: no response from server: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying transport error
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ClientError is returned when a request could not be built or encoded
type ClientError struct {
	Op  string
	Err error
}

// Error returns the error message
func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: failed to build request: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ClientError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return KindServer
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return KindConnectivity
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return KindClient
	}
	return KindUnknown
}

// StatusCode returns the HTTP status of a server error, or 0
func StatusCode(err error) int {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	return 0
}

// messageFromBody extracts a human readable message from an error response.
// JSON bodies are searched for the usual message fields; anything else is
// used verbatim (trimmed). The status text is the last resort.
func messageFromBody(statusCode int, body []byte) string {
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, path := range []string{"message", "error.message", "error", "detail"} {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return truncate(v.String())
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return truncate(text)
	}

	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", statusCode)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLength {
		return s
	}
	return string(r[:maxMessageLength]) + "..."
}
