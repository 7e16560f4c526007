package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecoshop/internal/middleware/auth"
	"github.com/Skotchmaster/ecoshop/internal/service"
	"github.com/Skotchmaster/ecoshop/internal/transport"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func (h *UsersHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "register_failed", err)
	}

	id, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	l.Info("register_success", "user_id", id.String())
	return c.JSON(http.StatusCreated, transport.RegisterResponse{
		Message: "User registered successfully",
		UserID:  id,
	})
}

func (h *UsersHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "login_failed", err)
	}

	tok, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_success")
	return c.JSON(http.StatusOK, transport.LoginResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

func (h *UsersHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.logout")

	if err := h.Svc.Logout(ctx, auth.IdentityFrom(c)); err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

func (h *UsersHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.profile")

	user, err := h.Svc.Profile(ctx, auth.IdentityFrom(c).UserID)
	if err != nil {
		return fail(l, "profile_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UsersResponse{Message: "all users", Data: users})
}
