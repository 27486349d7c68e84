package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/epinhell/internal/middleware/auth"
	"github.com/Skotchmaster/epinhell/internal/service"
)

// done finishes a successful mutation: browsers follow the redirect, API clients get the payload.
func done(c echo.Context, status int, redirect, notice string, data any) error {
	if authmw.WantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, redirect)
	}
	body := echo.Map{"redirect": redirect}
	if notice != "" {
		body["notice"] = notice
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// fail maps a service error to its HTTP outcome and logs it once.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "validation failed", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusConflict, "reason", "concurrent modification", "error", err)
		return echo.NewHTTPError(http.StatusConflict, "the resource was modified by someone else, reload and try again")
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "invalid refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidRefreshToken.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "unauthenticated")
		return authmw.Unauthenticated(c)
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", http.StatusForbidden, "reason", "forbidden")
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func paramID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(n), nil
}
