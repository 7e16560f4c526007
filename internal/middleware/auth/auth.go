package auth

import (
	"errors"
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecoshop/internal/revocation"
	"github.com/Skotchmaster/ecoshop/internal/tokens"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

const identityKey = "identity"

var (
	ErrRevokedToken = errors.New("token revoked")

	errRevocationCheck = errors.New("revocation check failed")
)

type Auth struct {
	Tokens  *tokens.Service
	Revoked revocation.Store

	jwt echo.MiddlewareFunc
}

func New(tokenSvc *tokens.Service, revoked revocation.Store) *Auth {
	a := &Auth{Tokens: tokenSvc, Revoked: revoked}
	a.jwt = echojwt.WithConfig(echojwt.Config{
		ContextKey:     identityKey,
		TokenLookup:    "header:Authorization:Bearer ",
		ParseTokenFunc: a.parseToken,
		SuccessHandler: onAuthenticated,
		ErrorHandler:   onRejected,
	})
	return a
}

func (a *Auth) parseToken(c echo.Context, raw string) (interface{}, error) {
	id, err := a.Tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if a.Revoked == nil {
		return id, nil
	}

	revoked, err := a.Revoked.IsRevoked(c.Request().Context(), id.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRevocationCheck, err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return id, nil
}

func onAuthenticated(c echo.Context) {
	id := IdentityFrom(c)
	if id == nil {
		return
	}
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("user_id", id.UserID.String())
	c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
}

func onRejected(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

	switch {
	case errors.Is(err, tokens.ErrExpiredToken):
		l.Info("auth_rejected", "status", http.StatusUnauthorized, "reason", "token expired")
		return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
	case errors.Is(err, ErrRevokedToken):
		l.Info("auth_rejected", "status", http.StatusUnauthorized, "reason", "token revoked")
		return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	case errors.Is(err, tokens.ErrInvalidToken):
		l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", "invalid token", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, errRevocationCheck):
		l.Error("auth_error", "status", http.StatusInternalServerError, "reason", "revocation store unavailable", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	default:
		l.Info("auth_rejected", "status", http.StatusUnauthorized, "reason", "missing or malformed token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed token")
	}
}

// RequireAuth admits requests carrying a valid, unrevoked bearer token and
// stores the caller's Identity on the context.
func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return a.jwt(next)
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := IdentityFrom(c)
		if id == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed token")
		}
		if !id.Role.IsAdmin() {
			logging.FromContext(c.Request().Context()).Info("auth_rejected",
				"status", http.StatusForbidden, "reason", "admin access required")
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func IdentityFrom(c echo.Context) *tokens.Identity {
	id, _ := c.Get(identityKey).(*tokens.Identity)
	return id
}

// WithIdentity stores id on c the way RequireAuth does.
func WithIdentity(c echo.Context, id *tokens.Identity) {
	c.Set(identityKey, id)
}
