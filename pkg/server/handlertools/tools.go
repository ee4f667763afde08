package handlertools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
)

var log = internal.GetLogger()

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"error"`
}

// BoolFromQuery extracts a query string value and converts it to a bool
func BoolFromQuery(r *http.Request, param string) (bool, error) {
	p := r.URL.Query().Get(param)
	if p != "" {
		return strconv.ParseBool(p)
	}
	return false, nil
}

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
// An empty or malformed body is a ValidationError.
func DecodeJSON(r *http.Request, data interface{}) error {
	err := json.NewDecoder(r.Body).Decode(data)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return models.NewValidationError("body", "request body is empty")
	case isBodyTooLarge(err):
		return err
	default:
		return models.NewValidationError("body", fmt.Sprintf("invalid JSON: %s", err))
	}
}

// StatusFor maps an error onto an HTTP status code. Errors outside the
// taxonomy map to fallback.
func StatusFor(err error, fallback int) int {
	switch {
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrAuth),
		errors.Is(err, models.ErrUpstream),
		errors.Is(err, models.ErrExtraction):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrStore):
		return http.StatusInternalServerError
	default:
		return fallback
	}
}

// RenderError renders an error response. The status is derived from the
// error where possible, otherwise status is used.
func RenderError(w http.ResponseWriter, err error, status int) {
	status = StatusFor(err, status)
	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Message: err.Error()})
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
