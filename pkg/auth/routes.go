package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the JSON auth endpoints and the sign in pages.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) *Service {
	authService := NewService(db, jwtSecret)
	registerHandlers(e, authService)
	return authService
}

func registerHandlers(e *echo.Echo, authService *Service) {
	h := &handler{
		authService: authService,
	}
	m := NewMiddleware(authService)

	auth := e.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.me, m.Authenticate)

	e.GET(LoginPath, h.loginPage, m.AuthenticateOptional)
	e.POST(LoginPath, h.loginSubmit)
	e.POST("/logout", h.logoutSubmit)
}
