// Package httpjson provides JSON request and response helpers for the API
// surface.
package httpjson

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/weberror"
)

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// Write encodes payload as a JSON response.
func Write(w http.ResponseWriter, statusCode int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteError encodes a domain error as a JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	var body errorBody
	body.Error.Code = string(apperrors.CodeOf(err))
	body.Error.Message = weberror.PublicMessage(err)
	Write(w, status, body)
}
