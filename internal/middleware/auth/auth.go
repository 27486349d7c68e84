package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/epinhell/internal/jwt"
	"github.com/Skotchmaster/epinhell/internal/logging"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/service"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	LoginPath = "/account/login"
)

// Gateway resolves who is calling. It is satisfied by *service.AuthService.
type Gateway interface {
	Authenticate(ctx context.Context, accessToken string) (service.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
}

type Middleware struct {
	Gateway      Gateway
	CookieSecure bool
}

func New(gw Gateway, cookieSecure bool) *Middleware {
	return &Middleware{Gateway: gw, CookieSecure: cookieSecure}
}

type checkFunc func(id service.Identity) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, nil)
}

// RequireAdmin rejects non-admin callers before the handler runs.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, func(id service.Identity) error {
		if id.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) require(next echo.HandlerFunc, check checkFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth")

		id, err := m.Gateway.Authenticate(ctx, accessToken(c))
		if err != nil && errors.Is(err, service.ErrSessionExpired) {
			id, err = m.refresh(c)
		}
		if err != nil {
			l.Info("unauthenticated", "status", 401, "reason", err.Error())
			m.clearCookies(c)
			return Unauthenticated(c)
		}

		if check != nil {
			if err := check(id); err != nil {
				l.Warn("forbidden", "status", 403, "user_id", id.UserID, "role", id.Role)
				return err
			}
		}

		c.Set(CtxUserID, id.UserID)
		c.Set(CtxRole, id.Role)
		return next(c)
	}
}

func (m *Middleware) refresh(c echo.Context) (service.Identity, error) {
	rc, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || rc.Value == "" {
		return service.Identity{}, service.ErrUnauthenticated
	}

	res, err := m.Gateway.Refresh(c.Request().Context(), rc.Value)
	if err != nil {
		return service.Identity{}, err
	}

	SetAuthCookies(c, res, m.CookieSecure)
	return service.Identity{UserID: res.UserID, Role: res.Role}, nil
}

func (m *Middleware) clearCookies(c echo.Context) {
	ClearAuthCookies(c, m.CookieSecure)
}

func accessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie(jwthelp.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func SetAuthCookies(c echo.Context, res *service.LoginResult, secure bool) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp, secure))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, secure))
}

func ClearAuthCookies(c echo.Context, secure bool) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/", secure))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/", secure))
}

// WantsHTML reports a browser navigation, which gets redirects instead of JSON bodies.
func WantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// Unauthenticated sends browsers to the login page and tells API clients where it is.
func Unauthenticated(c echo.Context) error {
	if WantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, LoginPath)
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error":    "authentication required",
		"redirect": LoginPath,
	})
}

func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(CtxUserID).(string)
	return s, ok && s != ""
}
