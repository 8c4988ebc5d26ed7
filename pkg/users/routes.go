package users

import (
	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the sign up pages.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authService *auth.Service, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db, authService)

	h := &handler{
		userService: userService,
		authService: authService,
	}

	e.GET("/register", h.registerPage, authMiddleware.AuthenticateOptional)
	e.POST("/register", h.register)

	return userService
}
