package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callMiddleware(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware()(handler)(c)
	require.NoError(t, err, "middleware handles the error, it must not bubble up")
	return rec
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	rec := callMiddleware(t, func(c echo.Context) error {
		return ValidationError("invalid input")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	rec := callMiddleware(t, func(c echo.Context) error {
		return fmt.Errorf("standard error")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeInternal, resp.Type)
	// The raw cause must not leak to clients.
	assert.NotContains(t, resp.Error, "standard error")
}

func TestMiddlewareWithStoreError(t *testing.T) {
	rec := callMiddleware(t, func(c echo.Context) error {
		return StoreError("failed to load feed", fmt.Errorf("dial tcp: refused"))
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to load feed", resp.Error)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestMiddlewarePassesThroughEchoHTTPError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "i'm a teapot")
	})

	err := handler(c)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTeapot, httpErr.Code)
}

func TestMiddlewareNoError(t *testing.T) {
	rec := callMiddleware(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddlewareIncludesContextFields(t *testing.T) {
	rec := callMiddleware(t, func(c echo.Context) error {
		return ValidationError("content is too long").WithField("max", 5000)
	})

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 5000, resp.Context["max"])
}
