package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/models"
)

// LoginPath is where browsers are sent when a page needs a signed in user.
const LoginPath = "/login"

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the JWT from the cookie.
// If valid, it verifies the user still exists and adds it to the context.
// If not authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.userFromCookie(c)
		if err != nil {
			return err
		}
		setUser(c, user)
		return next(c)
	}
}

// AuthenticateOptional extracts user info if available but doesn't require authentication.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, err := m.userFromCookie(c); err == nil {
			setUser(c, user)
		}
		return next(c)
	}
}

// RequireLogin redirects anonymous browsers to the login page, remembering
// where they were headed. Must be used after AuthenticateOptional.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserFromContext(c) == nil {
			target := c.Request().Referer()
			if target == "" || c.Request().Method == http.MethodGet {
				target = c.Request().URL.RequestURI()
			}
			return c.Redirect(http.StatusSeeOther, LoginPath+"?next="+url.QueryEscape(target))
		}
		return next(c)
	}
}

func (m *Middleware) userFromCookie(c echo.Context) (*models.User, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	claims, err := m.authService.ValidateToken(cookie.Value)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid or expired token")
	}

	// Verify user still exists
	user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, errcodes.Unauthorized("User not found")
	}
	return user, nil
}

func setUser(c echo.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
}

// UserFromContext returns the signed in user, or nil.
func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get("user").(*models.User)
	return user
}
