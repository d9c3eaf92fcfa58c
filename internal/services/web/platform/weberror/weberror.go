// Package weberror renders shared error responses for web modules.
package weberror

import (
	"errors"
	"net/http"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

// PublicMessage resolves a user-safe message for an error. Domain errors
// carry messages written for users; anything else collapses to the status
// text so internals never leak.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	status := apperrors.HTTPStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return http.StatusText(status)
}

// WriteModuleError writes a plain error response with the error's mapped
// HTTP status.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	http.Error(w, PublicMessage(err), status)
}
