package handlertools

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/?judge=true", nil)
	got, err := BoolFromQuery(req, "judge")
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = BoolFromQuery(req, "missing")
	assert.NoError(t, err)
	assert.False(t, got)

	req = httptest.NewRequest("GET", "/?judge=maybe", nil)
	_, err = BoolFromQuery(req, "judge")
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]any

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a": 1}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, float64(1), v["a"])

	req = httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &v), models.ErrValidation)

	req = httptest.NewRequest("POST", "/", strings.NewReader("{"))
	assert.ErrorIs(t, DecodeJSON(req, &v), models.ErrValidation)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("f", "bad"), http.StatusBadRequest},
		{models.NewNotFoundError("x"), http.StatusNotFound},
		{models.NewConflictError("x"), http.StatusConflict},
		{models.NewAuthError("down", nil), http.StatusBadGateway},
		{models.NewUpstreamError(500, "", nil), http.StatusBadGateway},
		{models.NewExtractionError("raw", nil), http.StatusBadGateway},
		{models.NewStoreError("get", assert.AnError), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", models.NewValidationError("f", "bad")), http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{assert.AnError, http.StatusTeapot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err, http.StatusTeapot), tt.err.Error())
	}
}

func TestRenderError(t *testing.T) {
	rr := httptest.NewRecorder()
	RenderError(rr, models.NewConflictError("abc"), http.StatusInternalServerError)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body APIError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body.Message, "abc")
}
