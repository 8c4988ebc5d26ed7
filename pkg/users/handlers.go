package users

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// RegisterTemplate renders the sign up form.
const RegisterTemplate = "users/register.html"

// RegisterForm is the data behind the sign up page.
type RegisterForm struct {
	Login string
	Error string
}

type handler struct {
	userService *Service
	authService *auth.Service
}

func (h *handler) registerPage(c echo.Context) error {
	if auth.UserFromContext(c) != nil {
		return errors.WithStack(c.Redirect(http.StatusSeeOther, "/"))
	}
	return errors.WithStack(c.Render(http.StatusOK, RegisterTemplate, RegisterForm{}))
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	err := c.Bind(&params)
	form := RegisterForm{Login: params.Login}
	if err != nil {
		return h.rerender(c, form, err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions{
		Login:    params.Login,
		Password: params.Password,
	})
	if err != nil {
		return h.rerender(c, form, err)
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	auth.StartSession(c, token)

	logger.FromContext(ctx).Info("user registered", logger.Data{"user_id": user.ID})

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/"))
}

func (h *handler) rerender(c echo.Context, form RegisterForm, err error) error {
	e, ok := errcodes.IsUnprocessable(err)
	if !ok {
		return errors.WithStack(err)
	}
	form.Error = e.Message
	return errors.WithStack(c.Render(http.StatusUnprocessableEntity, RegisterTemplate, form))
}
