// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

// ProblemDetail represents RFC7807 problem details. Denied authorization
// decisions carry the machine-readable reason so screens can render an
// accurate message.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// Denied translates a kernel denial into an HTTP response. Denials are
// expected business outcomes; out-of-range discounts map to 400, everything
// else to 403 with the reason attached.
func Denied(w http.ResponseWriter, d authz.Decision) {
	status := http.StatusForbidden
	title := "Forbidden"
	if d.Reason == authz.ReasonInvalidDiscount {
		status = http.StatusBadRequest
		title = "Invalid Discount"
	}
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Reason: string(d.Reason),
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
