package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionalRequest(t *testing.T, authHeader string, handler echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	m := NewAuthMiddleware("test-secret")
	return m.OptionalMiddleware()(handler)(c)
}

func TestOptionalMiddlewareRunsHandlerOnce(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"anonymous", ""},
		{"malformed header", "Token abc"},
		{"unparseable bearer token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := optionalRequest(t, tc.header, func(c echo.Context) error {
				calls++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestOptionalMiddlewarePropagatesHandlerError(t *testing.T) {
	// A failing handler must surface its error and must not be retried.
	handlerErr := errors.New("upstream check failed")
	calls := 0
	err := optionalRequest(t, "Bearer not-a-jwt", func(c echo.Context) error {
		calls++
		return handlerErr
	})
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, 1, calls)
}

func TestOptionalMiddlewareBrokenTokenIsAnonymous(t *testing.T) {
	err := optionalRequest(t, "Bearer not-a-jwt", func(c echo.Context) error {
		assert.Empty(t, GetUserID(c))
		return nil
	})
	require.NoError(t, err)
}

func TestMiddlewareRejectsWithoutInvokingHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	m := NewAuthMiddleware("test-secret")
	calls := 0
	err := m.Middleware()(func(c echo.Context) error {
		calls++
		return nil
	})(c)

	require.Error(t, err)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Zero(t, calls)
}
