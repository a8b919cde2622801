package rest

import (
	"fmt"
	"github.com/pkg/errors"
	"net/http"
	"strings"
)

const (
	CodeInvalidToken  = 498
	CodeTokenRequired = 499
)

// ServiceError is the error reported by an ArcGIS service, either through the JSON error envelope or through a non-200
// HTTP status.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type errorEnvelope struct {
	Error *ServiceError `json:"error"`
}

func (e *ServiceError) Error() string {
	message := fmt.Sprintf("ArcGIS service error %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		message += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return message
}

// IsAuthError returns true when the error was caused by missing, invalid or insufficient credentials.
func IsAuthError(err error) bool {
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		return false
	}

	switch serviceError.Code {
	case CodeInvalidToken, CodeTokenRequired, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// IsNotFound returns true for errors that mean "nothing there" rather than a failure, e.g. a reverse geocode of a
// location in the middle of the ocean.
func IsNotFound(err error) bool {
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		return false
	}

	if serviceError.Code == http.StatusNotFound {
		return true
	}

	for _, detail := range serviceError.Details {
		lowerDetail := strings.ToLower(detail)
		if strings.Contains(lowerDetail, "unable to find") || strings.Contains(lowerDetail, "not found") {
			return true
		}
	}
	return false
}
