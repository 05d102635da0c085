package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorClass is the small failure taxonomy every provider maps into at its
// own boundary. Callers never re-inspect provider failure text.
type ErrorClass int

const (
	// ClassOther covers failures where retrying a different model cannot
	// help (bad request, auth, malformed response).
	ClassOther ErrorClass = iota
	// ClassModelUnavailable means the requested model identifier was
	// rejected; trying a fallback identifier is reasonable.
	ClassModelUnavailable
	// ClassTransient covers timeouts, rate limits and 5xx-style failures.
	ClassTransient
)

func (c ErrorClass) String() string {
	switch c {
	case ClassModelUnavailable:
		return "model_unavailable"
	case ClassTransient:
		return "transient"
	default:
		return "other"
	}
}

type Error struct {
	Class    ErrorClass
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: model %s: %s: %v", e.Provider, e.Model, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ClassOf extracts the failure class, defaulting to ClassOther for errors
// that did not come through a provider boundary.
func ClassOf(err error) ErrorClass {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ClassOther
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusNotFound:
		return ClassModelUnavailable
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return ClassTransient
	default:
		return ClassOther
	}
}

// classifyText handles backends that report failures as human-readable text
// inside an otherwise successful response body.
func classifyText(msg string) ErrorClass {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "model") && strings.Contains(lower, "not found") {
		return ClassModelUnavailable
	}
	return ClassOther
}
