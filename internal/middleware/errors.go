package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem is the RFC 7807 body written by the middleware itself. Handler
// errors go through errors.ErrorHandler instead.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render writes the problem with its status code
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// ProblemFromStatus creates a Problem from an HTTP status code
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	title := http.StatusText(status)
	if title == "" {
		title = "Unknown Error"
	}

	var problemType string
	switch status {
	case http.StatusTooManyRequests:
		problemType = "/errors/rate-limit-exceeded"
	case http.StatusRequestEntityTooLarge:
		problemType = "/errors/payload-too-large"
	case http.StatusInternalServerError:
		problemType = "/errors/internal-server-error"
	default:
		problemType = "/errors/" + strings.ReplaceAll(strings.ToLower(title), " ", "-")
	}

	return Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}
