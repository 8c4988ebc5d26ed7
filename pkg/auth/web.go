package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// LoginTemplate renders the sign in form.
const LoginTemplate = "auth/login.html"

// LoginForm is the data behind the sign in page.
type LoginForm struct {
	Login string
	Next  string
	Error string
}

func (h *handler) loginPage(c echo.Context) error {
	if UserFromContext(c) != nil {
		return errors.WithStack(c.Redirect(http.StatusSeeOther, "/"))
	}
	form := LoginForm{Next: SafeRedirect(c.QueryParam("next"))}
	return errors.WithStack(c.Render(http.StatusOK, LoginTemplate, form))
}

func (h *handler) loginSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	err := c.Bind(&params)
	form := LoginForm{Login: params.Login, Next: SafeRedirect(params.Next)}
	if err != nil {
		if e, ok := errcodes.IsUnprocessable(err); ok {
			form.Error = e.Message
			return errors.WithStack(c.Render(http.StatusUnprocessableEntity, LoginTemplate, form))
		}
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Login, params.Password)
	if err != nil {
		var e *errcodes.Error
		if errors.As(err, &e) && e.HTTPCode == http.StatusUnauthorized {
			form.Error = e.Message
			return errors.WithStack(c.Render(http.StatusUnauthorized, LoginTemplate, form))
		}
		return err
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("user signed in", logger.Data{"user_id": user.ID})

	return errors.WithStack(c.Redirect(http.StatusSeeOther, form.Next))
}

func (h *handler) logoutSubmit(c echo.Context) error {
	ClearSession(c)
	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/"))
}

// SafeRedirect keeps local paths only, falling back to the book index.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
