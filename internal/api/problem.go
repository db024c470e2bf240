package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
	"github.com/hyperengineering/fastline/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	uri   string
	title string
}

const problemBase = "https://fastline.dev/errors/"

var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {problemBase + "bad-request", "Bad Request"},
	http.StatusUnauthorized:        {problemBase + "unauthorized", "Unauthorized"},
	http.StatusNotFound:            {problemBase + "not-found", "Not Found"},
	http.StatusUnprocessableEntity: {problemBase + "validation-error", "Validation Error"},
	http.StatusInternalServerError: {problemBase + "internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {problemBase + "remote-write-failed", "Bad Gateway"},
	http.StatusServiceUnavailable:  {problemBase + "service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{problemBase + "unknown", http.StatusText(status)}
	}
	return Problem{Type: pt.uri, Title: pt.title, Status: status, Detail: detail, Instance: r.URL.Path}
}

func encodeProblem(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "component", "api", "error", err)
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	encodeProblem(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors is a validation problem carrying per-field errors.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 response listing the rejected fields.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	status := http.StatusUnprocessableEntity
	encodeProblem(w, status, ProblemWithErrors{Problem: newProblem(r, status, detail), Errors: errs})
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *types.InputError
	switch {
	case errors.As(err, &inputErr):
		WriteProblemWithErrors(w, r, "Request contains invalid fields",
			[]validation.ValidationError{{Field: inputErr.Field, Message: inputErr.Message}})
	case errors.Is(err, types.ErrInvalidInput):
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, remote.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, remote.ErrNoUser):
		WriteProblem(w, r, http.StatusUnauthorized, "No user identity")
	case errors.Is(err, remote.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Remote store not configured")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
