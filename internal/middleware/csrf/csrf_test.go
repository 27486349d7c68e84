package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{Secure: false}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/products", ok)
	e.POST("/cart/items", ok)
	return e
}

func csrfCookie(t *testing.T, e *echo.Echo) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "_csrf" {
			return ck
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

func TestMiddleware_TokenRoundTrip(t *testing.T) {
	e := newServer()
	ck := csrfCookie(t, e)
	assert.False(t, ck.HttpOnly)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", ck.Value)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_RejectsMissingOrWrongToken(t *testing.T) {
	e := newServer()
	ck := csrfCookie(t, e)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", "forged")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_CrossOriginRejected(t *testing.T) {
	e := newServer()
	ck := csrfCookie(t, e)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", ck.Value)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_BearerSkipped(t *testing.T) {
	e := newServer()

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	req.Header.Set(echo.HeaderOrigin, "https://elsewhere.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
