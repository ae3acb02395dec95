package biz

import (
	"errors"
	"net/http"

	"link-shortener/internal/domain"
)

// Outcome is the transport-agnostic result of a core operation.
type Outcome int

const (
	OutcomeServerError Outcome = iota
	OutcomeCreated
	OutcomeFound
	OutcomeDeleted
	OutcomeNotFound
	OutcomeConflict
	OutcomeRateLimited
	OutcomeInvalid
)

var outcomeNames = map[Outcome]string{
	OutcomeServerError: "ServerError",
	OutcomeCreated:     "Created",
	OutcomeFound:       "Found",
	OutcomeDeleted:     "Deleted",
	OutcomeNotFound:    "NotFound",
	OutcomeConflict:    "Conflict",
	OutcomeRateLimited: "RateLimited",
	OutcomeInvalid:     "Invalid",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "Unknown"
}

// StatusCode maps the outcome to an HTTP status.
func (o Outcome) StatusCode() int {
	switch o {
	case OutcomeCreated:
		return http.StatusCreated
	case OutcomeFound:
		return http.StatusOK
	case OutcomeDeleted:
		return http.StatusNoContent
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeConflict:
		return http.StatusConflict
	case OutcomeRateLimited:
		return http.StatusTooManyRequests
	case OutcomeInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// OutcomeFromError classifies an error returned by the core.
// A nil error has no failure outcome and maps to ServerError; callers
// handle success before classifying.
func OutcomeFromError(err error) Outcome {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrAliasInUse):
		return OutcomeConflict
	case errors.Is(err, domain.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrInvalidTTL),
		errors.Is(err, domain.ErrTenantRequired):
		return OutcomeInvalid
	default:
		return OutcomeServerError
	}
}

// Response is a rendered mutation outcome. It is what the idempotency
// ledger memorizes and replays.
type Response struct {
	StatusCode int
	Body       []byte
	Replayed   bool
}

// IsServerError reports whether the response must not be memorized.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= http.StatusInternalServerError
}
