package problemdetails

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ContentType is the media type of a problem details body.
const ContentType = "application/problem+json"

const (
	TypeInvalidURL        = "invalid-url"
	TypeInvalidRequest    = "invalid-request"
	TypeNotFound          = "not-found"
	TypeAliasConflict     = "alias-conflict"
	TypeRateLimitExceeded = "rate-limit-exceeded"
	TypeInternalError     = "internal-error"
	TypeValidationError   = "validation-error"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ProblemDetail struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   typeURI(problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// ForStatus returns the problem for a failure status with its standard title.
func ForStatus(status int, detail string) *ProblemDetail {
	var problemType string
	switch status {
	case http.StatusBadRequest:
		problemType = TypeInvalidRequest
	case http.StatusNotFound:
		problemType = TypeNotFound
	case http.StatusConflict:
		problemType = TypeAliasConflict
	case http.StatusTooManyRequests:
		problemType = TypeRateLimitExceeded
	default:
		problemType = TypeInternalError
		status = http.StatusInternalServerError
	}
	return New(status, problemType, http.StatusText(status), detail)
}

func NewValidation(errors []FieldError) *ProblemDetail {
	return &ProblemDetail{
		Type:   typeURI(TypeValidationError),
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: "Request validation failed",
		Errors: errors,
	}
}

// Error implements error.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%d %s: %s", p.Status, p.Title, p.Detail)
}

// Bytes renders the problem as JSON.
func (p *ProblemDetail) Bytes() []byte {
	b, err := json.Marshal(p)
	if err != nil {
		return []byte(fmt.Sprintf(`{"status":%d}`, p.Status))
	}
	return b
}

func typeURI(problemType string) string {
	return fmt.Sprintf("https://api.example.com/problems/%s", problemType)
}
