package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/epinhell/internal/jwt"
	"github.com/Skotchmaster/epinhell/internal/logging"
	authmw "github.com/Skotchmaster/epinhell/internal/middleware/auth"
	"github.com/Skotchmaster/epinhell/internal/service"
	"github.com/Skotchmaster/epinhell/internal/transport"
)

type AuthAPI interface {
	Register(ctx context.Context, req transport.RegisterRequest) (*service.LoginResult, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type AuthHTTP struct {
	Svc          AuthAPI
	CookieSecure bool
}

type sessionBody struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}

func session(res *service.LoginResult) sessionBody {
	return sessionBody{UserID: res.UserID, Username: res.Username, Role: res.Role, IsAdmin: res.IsAdmin}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(c, l, "register_error", err)
	}

	authmw.SetAuthCookies(c, res, h.CookieSecure)
	l.Info("register_success", "user_id", res.UserID)
	return done(c, http.StatusCreated, "/", "", session(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, l, "login_error", err)
	}

	authmw.SetAuthCookies(c, res, h.CookieSecure)
	l.Info("login_success", "user_id", res.UserID)
	return done(c, http.StatusOK, "/", "", session(res))
}

// Refresh takes the refresh token from its cookie, or from the body for non-browser clients.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	token := ""
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		token = ck.Value
	}
	if token == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		authmw.ClearAuthCookies(c, h.CookieSecure)
		return fail(c, l, "refresh_error", err)
	}

	authmw.SetAuthCookies(c, res, h.CookieSecure)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"access_exp":    res.AccessExp.Unix(),
		"refresh_exp":   res.RefreshExp.Unix(),
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	token := ""
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		token = ck.Value
	}

	authmw.ClearAuthCookies(c, h.CookieSecure)
	if err := h.Svc.Logout(ctx, token); err != nil {
		return fail(c, l, "logout_error", err)
	}

	l.Info("logout_success")
	return done(c, http.StatusOK, "/", "", nil)
}
