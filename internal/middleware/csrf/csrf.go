package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	CookieName string
	HeaderName string
	FormField  string
	Secure     bool
	SameSite   http.SameSite
	// MaxAge in seconds.
	MaxAge int

	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "_csrf",
		HeaderName: "X-CSRF-Token",
		FormField:  "_csrf",
		Secure:     true,
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     86400,
	}
}

// Middleware protects cookie-authenticated state changes with a double-submit token.
// Requests that authenticate with a bearer token are not checked.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.FormField == "" {
		cfg.FormField = def.FormField
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	skipper := func(c echo.Context) bool {
		if _, ok := skip[c.Request().URL.Path]; ok {
			return true
		}
		return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}

	tokens := middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        skipper,
		TokenLookup:    "header:" + cfg.HeaderName + ",form:" + cfg.FormField,
		ContextKey:     "csrf_token",
		CookieName:     cfg.CookieName,
		CookiePath:     "/",
		CookieMaxAge:   cfg.MaxAge,
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: false,
		CookieSameSite: cfg.SameSite,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		checked := tokens(next)
		return func(c echo.Context) error {
			if !skipper(c) && !safeMethod(c.Request().Method) && !sameOrigin(c.Request()) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			return checked(c)
		}
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// sameOrigin compares Origin, or Referer when Origin is absent, with the request host.
// A request carrying neither is left to the token check.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
